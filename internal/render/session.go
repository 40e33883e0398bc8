// Package render defines the browser capability the capture pipeline drives
// and the scroll-completion loop that materializes lazily loaded pages.
package render

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ysmood/gson"
)

var (
	// ErrUnavailable means a session could not be opened or navigated.
	ErrUnavailable = errors.New("render session unavailable")
	// ErrContainerNotFound means the scrollable container is missing.
	ErrContainerNotFound = errors.New("scroll container not found")
	// ErrScrollStalled means scrolling stopped making progress before the end.
	ErrScrollStalled = errors.New("scroll stalled before reaching the end")
)

// Viewport is the emulated device size used for element screenshots.
type Viewport struct {
	Width  int
	Height int
	Scale  float64
}

// Session is one navigable, scriptable page. It is not safe for concurrent use.
type Session interface {
	// Navigate loads url, bounded by the session's navigation timeout.
	Navigate(url string) error
	// Eval runs a JS function expression and returns its JSON result.
	Eval(js string, args ...interface{}) (gson.JSON, error)
	// Click clicks the first element matching selector.
	Click(selector string) error
	// PageDown presses the Page Down key on the focused element.
	PageDown() error
	// Screenshot captures the element matching selector as PNG.
	Screenshot(selector string, vp Viewport) ([]byte, error)
	// PrintPDF prints the visible document at the given pixel size. It has
	// no timeout.
	PrintPDF(width, height int) ([]byte, error)
	// HTML returns the current document markup.
	HTML() (string, error)
	Close() error
}

// Opener hands out sessions. An empty url opens a blank page.
type Opener interface {
	Open(ctx context.Context, url string) (Session, error)
}

// Timing holds the render tunables shared by every adapter.
type Timing struct {
	InitialDelay time.Duration // fixed pause after navigation
	Settle       time.Duration // pause between scroll steps
	MaxSteps     int
	StallLimit   int
}

// DefaultTiming mirrors the configuration defaults.
func DefaultTiming() Timing {
	return Timing{
		InitialDelay: time.Second,
		Settle:       100 * time.Millisecond,
		MaxSteps:     20000,
		StallLimit:   50,
	}
}

// Pause sleeps for d or until ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Decode unmarshals an Eval result into v. It works whether or not res has
// already been read, so callers can decode into a pointer and test it for nil
// instead of calling res.Nil first.
func Decode(res gson.JSON, v interface{}) error {
	raw, err := res.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
