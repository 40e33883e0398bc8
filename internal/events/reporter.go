package events

import (
	"fmt"
	"sync/atomic"

	"grabdoc/internal/report"
)

// progressSeq numbers progress trackers process wide.
var progressSeq atomic.Uint64

// Reporter turns report.Reporter calls into broadcast events tagged with a
// job id.
type Reporter struct {
	bus   *Broadcaster
	jobID string
}

var _ report.Reporter = (*Reporter)(nil)

func NewReporter(bus *Broadcaster, jobID string) *Reporter {
	return &Reporter{bus: bus, jobID: jobID}
}

func (r *Reporter) Log(message string) {
	r.bus.Publish(TypeLog, Log{JobID: r.jobID, Message: message})
}

func (r *Reporter) Error(message string) {
	r.bus.Publish(TypeLogError, Log{JobID: r.jobID, Message: message})
}

func (r *Reporter) Progress(label string, total int) report.Tracker {
	id := fmt.Sprintf("progress-%s-%d", r.jobID, progressSeq.Add(1))
	r.bus.Publish(TypeProgressStart, ProgressStart{JobID: r.jobID, ID: id, Label: label, Total: total})
	return &tracker{r: r, id: id, label: label, total: total}
}

type tracker struct {
	r     *Reporter
	id    string
	label string
	total int
}

func (t *tracker) Update(value int) {
	t.r.bus.Publish(TypeProgressUpdate, ProgressUpdate{
		JobID: t.r.jobID,
		ID:    t.id,
		Value: value,
		Total: t.total,
		Label: t.label,
	})
}

func (t *tracker) Stop() {
	t.r.bus.Publish(TypeProgressStop, ProgressStop{JobID: t.r.jobID, ID: t.id})
}
