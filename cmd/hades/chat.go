package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hadesai/hades/internal/agent"
	"github.com/hadesai/hades/internal/memory"
	"github.com/spf13/cobra"
)

var (
	chatSession string
	chatNoColor bool
	chatTyping  time.Duration
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "resume the session with this ID")
	chatCmd.Flags().BoolVar(&chatNoColor, "no-color", false, "disable ANSI colors")
	chatCmd.Flags().DurationVar(&chatTyping, "typing", 15*time.Millisecond, "typewriter delay per word")
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	display := NewDisplay(out, !chatNoColor, chatTyping)
	printBanner(display, a)

	var session *agent.Agent
	if chatSession != "" {
		session, err = a.sessions.Open(ctx, chatSession)
	} else {
		session, err = a.sessions.Create(ctx)
	}
	if err != nil {
		return err
	}
	display.Info("session %s", session.ID())

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Fprint(out, Colorize("You: ", ColorGreen+ColorBold, display.enableColors))

		var input string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			display.Info("Shutting down...")
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			input = strings.TrimSpace(line)
		}
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			next, quit := handleCommand(ctx, input, a, session, display)
			if quit {
				return nil
			}
			session = next
			continue
		}

		start := time.Now()
		spinner := NewProgressIndicator(out, "thinking...")
		spinner.Start(300 * time.Millisecond)
		resp := session.ProcessInput(ctx, input)
		spinner.Stop()

		if err := display.WriteResponse(resp, time.Since(start)); err != nil {
			return err
		}
		if resp.Exit {
			return nil
		}
	}
}

// handleCommand runs a slash command and returns the session to continue with
func handleCommand(ctx context.Context, input string, a *app, session *agent.Agent, display *Display) (*agent.Agent, bool) {
	parts := strings.Fields(input)

	switch parts[0] {
	case "/help":
		display.Info("Commands: /help /new /switch <id> /sessions /context /memory /stats /exit")
		display.Info("Built-in phrases: help, topics, reset, exit")
	case "/new":
		next, err := a.sessions.Create(ctx)
		if err != nil {
			display.Warn("%v", err)
			return session, false
		}
		display.Info("session %s", next.ID())
		return next, false
	case "/switch":
		if len(parts) < 2 {
			display.Info("Usage: /switch <session-id>")
			return session, false
		}
		next, err := a.sessions.Open(ctx, parts[1])
		if err != nil {
			display.Warn("%v", err)
			return session, false
		}
		display.Info("session %s", next.ID())
		return next, false
	case "/sessions":
		for _, id := range a.sessions.IDs() {
			marker := "  "
			if id == session.ID() {
				marker = "* "
			}
			display.Info("%s%s", marker, id)
		}
	case "/context":
		c := session.Context()
		display.Info("phase: %s | emotion: %.2f | topics: %s", c.Phase, c.EmotionalState, strings.Join(c.ActiveTopics, ", "))
		for k, v := range c.UserProfile {
			display.Info("  %s = %v", k, v)
		}
	case "/memory":
		for _, item := range session.Memory().Recall(memory.Episodic, memory.RecallOptions{MaxItems: 5}) {
			display.Info("%s  %s", item.Timestamp.Format("15:04:05"), truncate(fmt.Sprint(item.Data), 90))
		}
	case "/stats":
		s := session.Memory().Stats()
		display.Info("short-term: %d | episodic: %d | topics: %d", s.ShortTermCount, s.EpisodicCount, s.TopicCount)
		if a.chain != nil {
			display.Info("providers: %s", strings.Join(a.chain.Providers(), ", "))
		}
	case "/exit", "/quit":
		display.Info("Goodbye!")
		return session, true
	default:
		display.Warn("unknown command %s, try /help", parts[0])
	}
	return session, false
}

func printBanner(display *Display, a *app) {
	display.Info("HADES %s | %d topics", version, a.registry.Len())
	if a.chain == nil {
		display.Info("AI fallback: off (no API keys configured)")
	} else {
		display.Info("AI fallback: %s", strings.Join(a.chain.Providers(), " -> "))
	}
	display.Info("Type /help for commands.\n")
}

func truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
