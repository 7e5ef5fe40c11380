package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/hadesai/hades/internal/agent"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	batchWorkers int
	batchNoColor bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <script.yaml>",
	Short: "Replay scripted conversations concurrently",
	Long: `Replays a YAML script of conversations, one session per key:

  sessions:
    alice:
      - I need help with savings
      - what is the 50-30-20 rule?
    bob:
      - I feel anxious about my job

Sessions run in parallel; the inputs of one session run in order.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "worker goroutines (default 2 x CPUs)")
	batchCmd.Flags().BoolVar(&batchNoColor, "no-color", false, "disable ANSI colors")
}

// batchScript is the YAML replay format
type batchScript struct {
	Sessions map[string][]string `yaml:"sessions"`
}

func readScript(r io.Reader) (*batchScript, error) {
	var script batchScript
	if err := yaml.NewDecoder(r).Decode(&script); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if len(script.Sessions) == 0 {
		return nil, fmt.Errorf("script has no sessions")
	}
	return &script, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	script, err := readScript(f)
	f.Close()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	poolConfig := agent.DefaultPoolConfig()
	if batchWorkers > 0 {
		poolConfig.Workers = batchWorkers
	}
	pool := agent.NewPool(a.sessions, poolConfig)

	results, err := replay(ctx, pool, script)
	if shutdownErr := pool.Shutdown(time.Minute); shutdownErr != nil {
		a.logger.Warn("pool shutdown", zap.Error(shutdownErr))
	}
	if err != nil {
		return err
	}

	display := NewDisplay(cmd.OutOrStdout(), !batchNoColor, 0)
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		display.Info("=== %s ===", id)
		for _, r := range results[id] {
			fmt.Fprintf(cmd.OutOrStdout(), "You: %s\n", r.Input)
			if r.Err != nil {
				display.Warn("%v", r.Err)
				continue
			}
			if err := display.WriteResponse(r.Response, r.Latency); err != nil {
				return err
			}
		}
	}

	m := pool.Metrics()
	display.Info("%d turns | %d failed | avg %s", m.TotalRequests, m.CompletedError, m.AverageLatency)
	return nil
}

// replay submits every scripted input and collects the results per session
func replay(ctx context.Context, pool *agent.Pool, script *batchScript) (map[string][]agent.TurnResult, error) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string][]agent.TurnResult)
	)
	for id, inputs := range script.Sessions {
		for _, input := range inputs {
			wg.Add(1)
			req := &agent.TurnRequest{
				SessionID: id,
				Input:     input,
				Context:   ctx,
				Callback: func(r agent.TurnResult) {
					defer wg.Done()
					mu.Lock()
					results[r.SessionID] = append(results[r.SessionID], r)
					mu.Unlock()
				},
			}
			err := pool.Submit(req)
			for errors.Is(err, agent.ErrQueueFull) {
				time.Sleep(10 * time.Millisecond)
				err = pool.Submit(req)
			}
			if err != nil {
				wg.Done()
				wg.Wait()
				return nil, fmt.Errorf("failed to submit %q for %s: %w", input, id, err)
			}
		}
	}
	wg.Wait()
	return results, nil
}
