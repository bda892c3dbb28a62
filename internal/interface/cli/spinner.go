package cli

import (
	"fmt"
	"io"
	"os"
	"time"
)

// spinner animates on stderr while a backend call is in flight.
type spinner struct {
	writer  io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
}

func newSpinner(message string) *spinner {
	return &spinner{
		writer:  os.Stderr,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *spinner) Start() {
	go func() {
		defer close(s.done)
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i = (i + 1) % len(frames) {
			fmt.Fprintf(s.writer, "\r%s %s", frames[i], s.message)
			select {
			case <-s.stop:
				// Clear the line
				fmt.Fprintf(s.writer, "\r\033[K")
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *spinner) Stop() {
	close(s.stop)
	<-s.done
}

// withSpinner runs fn with a spinner when stderr is a terminal.
func withSpinner(message string, fn func() error) error {
	if !stderrIsTerminal() {
		return fn()
	}
	s := newSpinner(message)
	s.Start()
	err := fn()
	s.Stop()
	return err
}

func stderrIsTerminal() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
