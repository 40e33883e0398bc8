// Package report carries log lines and progress out of long-running
// extraction work. Adapters depend only on Reporter; the CLI and the HTTP
// surface each provide their own implementation.
package report

// Reporter receives user-facing messages from an extraction.
type Reporter interface {
	Log(message string)
	Error(message string)
	// Progress opens a progress track with a fixed total.
	Progress(label string, total int) Tracker
}

// Tracker is one progress track. Values passed to Update never decrease and
// the last Update before Stop equals the track total.
type Tracker interface {
	Update(value int)
	Stop()
}

// Discard drops everything.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Log(string)                   {}
func (discard) Error(string)                 {}
func (discard) Progress(string, int) Tracker { return nopTracker{} }

type nopTracker struct{}

func (nopTracker) Update(int) {}
func (nopTracker) Stop()      {}
