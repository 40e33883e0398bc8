package report

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Console prints log lines and progress bars to a terminal stream.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a Console writing to w, or stderr when w is nil.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stderr
	}
	return &Console{out: w}
}

func (c *Console) Log(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, message)
}

func (c *Console) Error(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "error: %s\n", message)
}

func (c *Console) Progress(label string, total int) Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription(label),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(c.out) }),
	)
	return &consoleTracker{bar: bar}
}

type consoleTracker struct {
	bar  *progressbar.ProgressBar
	last int
}

func (t *consoleTracker) Update(value int) {
	if value < t.last {
		return
	}
	t.last = value
	_ = t.bar.Set(value)
}

func (t *consoleTracker) Stop() {
	_ = t.bar.Finish()
}
