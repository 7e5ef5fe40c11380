package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/hadesai/hades/internal/audit"
	"github.com/hadesai/hades/internal/models"
	"github.com/spf13/cobra"
)

var (
	historySession string
	historyTopic   string
	historyKind    string
	historySince   time.Duration
	historyLimit   int
	historyStats   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded turns from the audit log",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historySession, "session", "s", "", "only this session")
	historyCmd.Flags().StringVar(&historyTopic, "topic", "", "only this topic")
	historyCmd.Flags().StringVar(&historyKind, "kind", "", "only this response kind (e.g. ai-response)")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only turns newer than this (e.g. 24h)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum turns to show")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "show a summary instead of turns")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	turnLog, err := audit.NewSQLiteTurnLog(cfg.Audit.Path)
	if err != nil {
		return err
	}
	defer turnLog.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var since time.Time
	if historySince > 0 {
		since = time.Now().Add(-historySince)
	}

	if historyStats {
		stats, err := turnLog.Stats(ctx, since)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Turns: %d | AI answers: %d | fallbacks: %d | avg %s\n",
			stats.Total, stats.AIAnswers, stats.Fallbacks, stats.AverageDuration)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for kind, n := range stats.ByKind {
			fmt.Fprintf(w, "  %s\t%d\n", kind, n)
		}
		return w.Flush()
	}

	turns, err := turnLog.Query(ctx, audit.Filter{
		SessionID: historySession,
		Topic:     historyTopic,
		Kind:      models.ResponseKind(historyKind),
		Since:     since,
		Limit:     historyLimit,
	})
	if err != nil {
		return err
	}
	if len(turns) == 0 {
		fmt.Fprintln(out, "No turns recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSESSION\tKIND\tTOPIC\tINPUT\tRESPONSE")
	for _, t := range turns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Timestamp.Local().Format("2006-01-02 15:04"),
			truncate(t.SessionID, 8),
			t.Kind,
			t.Topic,
			truncate(t.Input, 40),
			truncate(t.Response, 60))
	}
	return w.Flush()
}
