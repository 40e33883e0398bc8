package report

import "sync"

// Recorder keeps everything it is told. Tests use it to assert on warnings
// and progress values.
type Recorder struct {
	mu     sync.Mutex
	Logs   []string
	Errors []string
	Tracks []*RecordedTrack
}

// RecordedTrack is one progress track seen by a Recorder.
type RecordedTrack struct {
	Label   string
	Total   int
	Values  []int
	Stopped bool
}

func (r *Recorder) Log(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Logs = append(r.Logs, message)
}

func (r *Recorder) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, message)
}

func (r *Recorder) Progress(label string, total int) Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := &RecordedTrack{Label: label, Total: total}
	r.Tracks = append(r.Tracks, t)
	return &recordingTracker{r: r, t: t}
}

// Last returns the final value of the most recent track with label.
func (r *Recorder) Last(label string) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.Tracks) - 1; i >= 0; i-- {
		t := r.Tracks[i]
		if t.Label == label && len(t.Values) > 0 {
			return t.Values[len(t.Values)-1], true
		}
	}
	return 0, false
}

type recordingTracker struct {
	r *Recorder
	t *RecordedTrack
}

func (rt *recordingTracker) Update(value int) {
	rt.r.mu.Lock()
	defer rt.r.mu.Unlock()
	rt.t.Values = append(rt.t.Values, value)
}

func (rt *recordingTracker) Stop() {
	rt.r.mu.Lock()
	defer rt.r.mu.Unlock()
	rt.t.Stopped = true
}
