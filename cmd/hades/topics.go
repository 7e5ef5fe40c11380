package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hadesai/hades/internal/topic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	topicsGraph bool
	topicsSync  bool
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the loaded topics",
	RunE:  runTopics,
}

func init() {
	topicsCmd.Flags().BoolVarP(&topicsGraph, "graph", "g", false, "show related topics and their strengths")
	topicsCmd.Flags().BoolVar(&topicsSync, "sync", false, "mirror the topic graph into Dgraph (dgraph.url)")
}

func runTopics(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry, graph := newRegistry(cfg, logger)
	out := cmd.OutOrStdout()

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOPIC\tPRIORITY\tKEYWORDS\tDESCRIPTION")
	for _, t := range registry.All() {
		keywords := t.Keywords()
		if len(keywords) > 4 {
			keywords = append(keywords[:4:4], "...")
		}
		fmt.Fprintf(w, "%s\t%.1f\t%s\t%s\n", t.Name(), t.Priority(), strings.Join(keywords, ", "), t.Description())
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if topicsGraph {
		printGraph(cmd, registry, graph)
	}

	if topicsSync {
		if cfg.Dgraph.URL == "" {
			return fmt.Errorf("--sync needs dgraph.url or HADES_DGRAPH_URL")
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		store, err := topic.NewDgraphGraphStore(ctx, cfg.Dgraph.URL)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Sync(ctx, registry, graph); err != nil {
			return err
		}
		logger.Info("topic graph synced", zap.String("dgraph", cfg.Dgraph.URL), zap.Int("topics", registry.Len()))
		fmt.Fprintf(out, "\nSynced %d topics to %s\n", registry.Len(), cfg.Dgraph.URL)
	}
	return nil
}

func printGraph(cmd *cobra.Command, registry *topic.Registry, graph *topic.Graph) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nRelated topics:")
	for _, name := range registry.Names() {
		edges := graph.Related(name, 0)
		if len(edges) == 0 {
			fmt.Fprintf(out, "  %s: none\n", name)
			continue
		}
		parts := make([]string, len(edges))
		for i, e := range edges {
			parts[i] = fmt.Sprintf("%s (%s %.1f)", e.To, e.Kind, e.Strength)
		}
		fmt.Fprintf(out, "  %s: %s\n", name, strings.Join(parts, ", "))
	}

	names := registry.Names()
	if len(names) >= 2 {
		first, last := names[0], names[len(names)-1]
		if bridges := graph.Bridges(first, last); bridges != nil {
			path := append(append([]string{first}, bridges...), last)
			fmt.Fprintf(out, "\nPath: %s\n", strings.Join(path, " -> "))
		}
	}
}
