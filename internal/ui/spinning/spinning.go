// Package spinning shows a spinner on the terminal while a long operation (a training, a batch of
// self-played matches) runs, and handles interruptions gracefully.
package spinning

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
	"k8s.io/klog/v2"
)

// Spinning runs a spinner on a separate goroutine, until Done is called.
type Spinning struct {
	out    io.Writer
	theme  []rune
	label  string
	wg     sync.WaitGroup
	cancel func()
}

var (
	ThemeAscii = []rune("|/-\\")
	ThemeDots  = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

	// Theme used by new spinners.
	Theme = ThemeDots

	// Period between spinner frames.
	Period = 200 * time.Millisecond
)

// SafeInterrupt captures SIGINT (Ctrl+C) and SIGTERM and calls onInterrupt on a separate goroutine.
// If the program hasn't exited after gracePeriod, it resets the terminal and exits.
func SafeInterrupt(onInterrupt func(), gracePeriod time.Duration) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigChan
		fmt.Fprintln(os.Stderr)
		klog.Errorf("Interrupted (signal %q), shutting down within %s", s, gracePeriod)
		if onInterrupt != nil {
			go onInterrupt()
		}
		time.Sleep(gracePeriod)
		Reset()
		klog.Fatalf("Grace period of %s expired, exiting.", gracePeriod)
	}()
}

// Reset makes the cursor visible and restores the default terminal colors.
func Reset() {
	fmt.Fprint(os.Stderr, "\033[?25h\033[39;49;0m\n")
}

// New starts a spinner on stderr, followed by label. If stderr is not a terminal nothing is shown.
func New(ctx context.Context, label string) *Spinning {
	var out io.Writer
	if term.IsTerminal(int(os.Stderr.Fd())) {
		out = os.Stderr
	}
	return NewWithWriter(ctx, out, label)
}

// NewWithWriter starts a spinner writing to out. A nil out disables the display, but Done must
// still be called.
func NewWithWriter(ctx context.Context, out io.Writer, label string) *Spinning {
	s := &Spinning{out: out, theme: Theme, label: label}
	if out == nil {
		return s
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
	return s
}

func (s *Spinning) run(ctx context.Context) {
	ticker := time.NewTicker(Period)
	defer ticker.Stop()
	fmt.Fprint(s.out, "\033[?25l")       // Hide cursor.
	defer fmt.Fprint(s.out, "\033[?25h") // Restore cursor.
	for idx := 0; ; idx = (idx + 1) % len(s.theme) {
		fmt.Fprintf(s.out, "\r%c %s", s.theme[idx], s.label)
		select {
		case <-ctx.Done():
			fmt.Fprint(s.out, "\r\033[K")
			return
		case <-ticker.C:
		}
	}
}

// Done stops the spinner and waits for it to clear its line. It can be called more than once.
func (s *Spinning) Done() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.wg.Wait()
}
