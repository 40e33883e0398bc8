// Package job runs extractions one at a time, answers repeated URLs from
// the result cache and publishes every state change on the event bus.
package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"grabdoc/internal/cache"
	"grabdoc/internal/events"
	"grabdoc/internal/report"
	"grabdoc/internal/source"
)

// ErrJobAlreadyActive is returned when a job is requested while another
// one is running. Requests are rejected, never queued.
var ErrJobAlreadyActive = errors.New("a download is already running")

// Job is the running extraction.
type Job struct {
	ID        string
	URL       string
	Mode      source.Mode
	StartedAt time.Time
}

// Options wires an Orchestrator.
type Options struct {
	Registry  *source.Registry
	Cache     cache.Store // nil disables caching
	Bus       *events.Broadcaster
	Logger    *log.Logger
	OutputDir string
}

// Orchestrator enforces at most one running job per process.
type Orchestrator struct {
	registry  *source.Registry
	cache     cache.Store
	bus       *events.Broadcaster
	logger    *log.Logger
	outputDir string

	mu     sync.Mutex
	active *Job
	wg     sync.WaitGroup
}

func New(opts Options) *Orchestrator {
	if opts.Bus == nil {
		opts.Bus = events.NewBroadcaster()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	return &Orchestrator{
		registry:  opts.Registry,
		cache:     opts.Cache,
		bus:       opts.Bus,
		logger:    opts.Logger,
		outputDir: opts.OutputDir,
	}
}

// Bus returns the broadcaster events are published on.
func (o *Orchestrator) Bus() *events.Broadcaster {
	return o.bus
}

// Status describes the current state for a newly connected observer.
func (o *Orchestrator) Status() events.Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return events.Status{State: events.StateIdle, Output: o.outputDir}
	}
	return events.Status{
		State:  events.StateRunning,
		JobID:  o.active.ID,
		URL:    o.active.URL,
		Output: o.outputDir,
	}
}

// Start accepts a job and returns its id without waiting for it. A cached
// URL whose artifact still exists completes immediately without running
// any adapter.
func (o *Orchestrator) Start(rawURL string, mode source.Mode) (string, error) {
	job, hit, err := o.begin(rawURL, mode)
	if err != nil {
		return "", err
	}
	if hit != nil {
		return job.ID, nil
	}

	go func() {
		defer o.wg.Done()
		rep := events.NewReporter(o.bus, job.ID)
		o.execute(context.Background(), job, rep)
	}()
	return job.ID, nil
}

// Run executes a job synchronously under the same rules as Start.
func (o *Orchestrator) Run(ctx context.Context, rawURL string, mode source.Mode, r report.Reporter) (source.Artifact, error) {
	job, hit, err := o.begin(rawURL, mode)
	if err != nil {
		return source.Artifact{}, err
	}
	if hit != nil {
		r.Log(fmt.Sprintf("Already downloaded: %s", hit.Path))
		return *hit, nil
	}
	defer o.wg.Done()
	return o.execute(ctx, job, r)
}

// Wait blocks until no job is running.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// begin validates the request and either answers it from the cache or
// marks a new job active. On a miss the caller owns one wg count.
func (o *Orchestrator) begin(rawURL string, mode source.Mode) (*Job, *source.Artifact, error) {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return nil, nil, source.ErrEmptyURL
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active != nil {
		return nil, nil, ErrJobAlreadyActive
	}

	job := &Job{ID: uuid.New().String(), URL: url, Mode: mode, StartedAt: time.Now()}

	if art, ok := o.lookup(job); ok {
		o.logger.Printf("[JOB %s] Cache hit for %s: %s", job.ID, url, art.Path)
		o.bus.Publish(events.TypeStatus, events.Status{
			State:  events.StateCompleted,
			JobID:  job.ID,
			URL:    url,
			Output: o.outputDir,
			File:   art.Path,
			Cached: true,
		})
		return job, &art, nil
	}

	if _, _, err := o.registry.Resolve(url); err != nil {
		return nil, nil, err
	}

	o.active = job
	o.wg.Add(1)
	o.logger.Printf("[JOB %s] Starting job for URL: %s", job.ID, url)
	o.bus.Publish(events.TypeStatus, events.Status{
		State:  events.StateRunning,
		JobID:  job.ID,
		URL:    url,
		Output: o.outputDir,
	})
	return job, nil, nil
}

// lookup returns the cached artifact for the job's URL if its file still
// exists. Cache errors count as a miss.
func (o *Orchestrator) lookup(job *Job) (source.Artifact, bool) {
	if o.cache == nil {
		return source.Artifact{}, false
	}
	rec, ok, err := o.cache.Get(context.Background(), job.URL)
	if err != nil {
		o.logger.Printf("[JOB %s] WARNING: %v", job.ID, err)
		return source.Artifact{}, false
	}
	if !ok {
		return source.Artifact{}, false
	}
	fi, err := os.Stat(rec.FilePath)
	if err != nil {
		o.logger.Printf("[JOB %s] Cached file %s is gone, extracting again", job.ID, rec.FilePath)
		return source.Artifact{}, false
	}

	art := source.Artifact{Path: rec.FilePath, Title: rec.Title, Cached: true}
	if !fi.IsDir() {
		art.Size = fi.Size()
	}
	return art, true
}

// execute runs the adapter, records the result and publishes the terminal
// status. It always clears the active job.
func (o *Orchestrator) execute(ctx context.Context, job *Job, r report.Reporter) (art source.Artifact, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("extraction panicked: %v", p)
		}
		o.finish(job, art, err, r)
	}()

	r.Log(fmt.Sprintf("Started: %s", job.URL))
	art, err = o.registry.Execute(ctx, job.URL, source.Options{Mode: job.Mode}, r)
	if err != nil {
		return source.Artifact{}, err
	}

	if o.cache != nil {
		if err := o.cache.Save(ctx, job.URL, art.Path, art.Title); err != nil {
			o.logger.Printf("[JOB %s] WARNING: %v", job.ID, err)
			r.Error(fmt.Sprintf("Failed to cache result: %v", err))
		}
	}
	return art, nil
}

func (o *Orchestrator) finish(job *Job, art source.Artifact, err error, r report.Reporter) {
	status := events.Status{JobID: job.ID, URL: job.URL, Output: o.outputDir}
	if err != nil {
		r.Error(err.Error())
		o.logger.Printf("[JOB %s] ERROR: %v", job.ID, err)
		status.State = events.StateFailed
		status.Error = err.Error()
	} else {
		o.logger.Printf("[JOB %s] Job completed successfully: %s", job.ID, art.Path)
		status.State = events.StateCompleted
		status.File = art.Path
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.bus.Publish(events.TypeStatus, status)
	o.active = nil
}
