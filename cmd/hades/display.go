package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hadesai/hades/internal/models"
)

// ColorCode represents ANSI color codes
type ColorCode string

const (
	ColorReset   ColorCode = "\033[0m"
	ColorRed     ColorCode = "\033[31m"
	ColorGreen   ColorCode = "\033[32m"
	ColorYellow  ColorCode = "\033[33m"
	ColorBlue    ColorCode = "\033[34m"
	ColorMagenta ColorCode = "\033[35m"
	ColorCyan    ColorCode = "\033[36m"
	ColorGray    ColorCode = "\033[90m"
	ColorBold    ColorCode = "\033[1m"
)

// Colorize wraps text in color codes if colors are enabled
func Colorize(text string, color ColorCode, enabled bool) string {
	if !enabled {
		return text
	}
	return string(color) + text + string(ColorReset)
}

// kindColor picks the label color for a response kind
func kindColor(kind models.ResponseKind) ColorCode {
	switch {
	case kind == models.KindAI:
		return ColorMagenta
	case kind == models.KindError:
		return ColorRed
	case kind.IsFallback():
		return ColorYellow
	case kind == models.KindAction:
		return ColorBlue
	default:
		return ColorCyan
	}
}

// Display renders agent responses to a terminal
type Display struct {
	writer       io.Writer
	mu           sync.Mutex
	wordDelay    time.Duration // typewriter delay, zero prints at once
	enableColors bool
	showStats    bool
}

// NewDisplay creates a display writing to w
func NewDisplay(w io.Writer, enableColors bool, wordDelay time.Duration) *Display {
	return &Display{
		writer:       w,
		wordDelay:    wordDelay,
		enableColors: enableColors,
		showStats:    true,
	}
}

// WriteResponse prints resp word by word, followed by a stats line
func (d *Display) WriteResponse(resp *models.Response, elapsed time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprint(d.writer, Colorize("HADES: ", kindColor(resp.Kind)+ColorBold, d.enableColors))

	lines := strings.Split(resp.Text, "\n")
	for i, line := range lines {
		if i > 0 {
			fmt.Fprintln(d.writer)
		}
		words := strings.Fields(line)
		for j, w := range words {
			if j > 0 {
				fmt.Fprint(d.writer, " ")
			}
			if _, err := fmt.Fprint(d.writer, w); err != nil {
				return err
			}
			if d.wordDelay > 0 {
				time.Sleep(d.wordDelay)
			}
		}
	}
	fmt.Fprintln(d.writer)

	if !d.showStats {
		return nil
	}
	stats := fmt.Sprintf("[%.2fs | %s | %s", elapsed.Seconds(), resp.Kind, resp.Topic)
	if provider, ok := resp.Metadata["provider"].(string); ok {
		stats += " | " + provider
	}
	stats += "]"
	_, err := fmt.Fprintf(d.writer, "%s\n\n", Colorize(stats, ColorGray, d.enableColors))
	return err
}

// Info prints a dimmed informational line
func (d *Display) Info(format string, args ...interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.writer, Colorize(fmt.Sprintf(format, args...), ColorGray, d.enableColors))
}

// Warn prints a warning line
func (d *Display) Warn(format string, args ...interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Fprintln(d.writer, Colorize("warning: "+fmt.Sprintf(format, args...), ColorYellow, d.enableColors))
}

// ProgressIndicator shows a simple progress animation
type ProgressIndicator struct {
	writer   io.Writer
	message  string
	frames   []string
	current  int
	stopChan chan struct{}
	done     chan struct{}
	mu       sync.Mutex
}

// NewProgressIndicator creates a new progress indicator
func NewProgressIndicator(writer io.Writer, message string) *ProgressIndicator {
	return &ProgressIndicator{
		writer:   writer,
		message:  message,
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start starts the progress animation after delay, so fast turns show nothing
func (p *ProgressIndicator) Start(delay time.Duration) {
	go func() {
		defer close(p.done)

		select {
		case <-time.After(delay):
		case <-p.stopChan:
			return
		}

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.mu.Lock()
				frame := p.frames[p.current%len(p.frames)]
				fmt.Fprintf(p.writer, "\r%s %s", frame, p.message)
				p.current++
				p.mu.Unlock()
			case <-p.stopChan:
				if p.current > 0 {
					fmt.Fprintf(p.writer, "\r\033[K") // Clear line
				}
				return
			}
		}
	}()
}

// Stop stops the animation and waits for the line to be cleared
func (p *ProgressIndicator) Stop() {
	close(p.stopChan)
	<-p.done
}
