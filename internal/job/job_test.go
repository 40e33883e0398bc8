package job

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grabdoc/internal/assemble"
	"grabdoc/internal/cache"
	"grabdoc/internal/capture"
	"grabdoc/internal/events"
	"grabdoc/internal/fetch"
	"grabdoc/internal/report"
	"grabdoc/internal/source"
)

const docURL = "https://www.scribd.com/document/123456/annual-report"

type memoryStore struct {
	mu      sync.Mutex
	records map[string]cache.Record
	saves   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]cache.Record)}
}

func (m *memoryStore) Get(_ context.Context, url string) (cache.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[url]
	return rec, ok, nil
}

func (m *memoryStore) Save(_ context.Context, url, path, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.records[url] = cache.Record{URL: url, FilePath: path, Title: title, CreatedAt: time.Now()}
	return nil
}

func (m *memoryStore) Close() error { return nil }

// fakeAdapter claims documents and slide decks and runs extract.
type fakeAdapter struct {
	calls   atomic.Int32
	extract func(ctx context.Context, ref source.Reference, r report.Reporter) (source.Artifact, error)
}

func (a *fakeAdapter) Name() string { return "fake" }

func (a *fakeAdapter) Families() []source.Family {
	return []source.Family{source.Document, source.SlideDeck}
}

func (a *fakeAdapter) Extract(ctx context.Context, ref source.Reference, _ source.Options, r report.Reporter) (source.Artifact, error) {
	a.calls.Add(1)
	return a.extract(ctx, ref, r)
}

func writeArtifact(t *testing.T, dir string) string {
	path := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0644))
	return path
}

func newOrchestrator(a *fakeAdapter, store cache.Store) *Orchestrator {
	return New(Options{
		Registry:  source.NewRegistry(a),
		Cache:     store,
		Bus:       events.NewBroadcaster(),
		OutputDir: "output",
	})
}

// waitTerminal reads events until a completed or failed status arrives.
func waitTerminal(t *testing.T, s *events.Subscription) (events.Status, []events.Event) {
	t.Helper()
	var seen []events.Event
	timeout := time.After(10 * time.Second)
	for {
		select {
		case ev := <-s.C:
			seen = append(seen, ev)
			if st, ok := ev.Data.(events.Status); ok &&
				(st.State == events.StateCompleted || st.State == events.StateFailed) {
				return st, seen
			}
		case <-timeout:
			t.Fatal("no terminal status event")
		}
	}
}

func TestStartCompletesAndCaches(t *testing.T) {
	path := writeArtifact(t, t.TempDir())
	a := &fakeAdapter{extract: func(context.Context, source.Reference, report.Reporter) (source.Artifact, error) {
		return source.Artifact{Path: path, Title: "Annual Report"}, nil
	}}
	store := newMemoryStore()
	o := newOrchestrator(a, store)
	sub := o.Bus().Subscribe()

	id, err := o.Start(docURL, source.ModeDefault)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	st, seen := waitTerminal(t, sub)
	o.Wait()

	assert.Equal(t, events.StateCompleted, st.State)
	assert.Equal(t, id, st.JobID)
	assert.Equal(t, path, st.File)
	assert.False(t, st.Cached)
	assert.Equal(t, events.StateRunning, seen[0].Data.(events.Status).State)

	rec, ok, _ := store.Get(context.Background(), docURL)
	require.True(t, ok)
	assert.Equal(t, path, rec.FilePath)
	assert.Equal(t, events.StateIdle, o.Status().State)
}

func TestStartAnswersFromCacheWithoutAdapter(t *testing.T) {
	path := writeArtifact(t, t.TempDir())
	a := &fakeAdapter{extract: func(context.Context, source.Reference, report.Reporter) (source.Artifact, error) {
		return source.Artifact{}, errors.New("must not run")
	}}
	store := newMemoryStore()
	require.NoError(t, store.Save(context.Background(), docURL, path, "cached"))
	o := newOrchestrator(a, store)
	sub := o.Bus().Subscribe()

	_, err := o.Start(docURL, source.ModeDefault)
	require.NoError(t, err)

	st, seen := waitTerminal(t, sub)
	assert.Len(t, seen, 1)
	assert.Equal(t, events.StateCompleted, st.State)
	assert.True(t, st.Cached)
	assert.Equal(t, path, st.File)
	assert.Equal(t, int32(0), a.calls.Load())
	assert.Equal(t, events.StateIdle, o.Status().State)
}

func TestStaleCacheRecordExtractsAgain(t *testing.T) {
	dir := t.TempDir()
	fresh := writeArtifact(t, dir)
	a := &fakeAdapter{extract: func(context.Context, source.Reference, report.Reporter) (source.Artifact, error) {
		return source.Artifact{Path: fresh}, nil
	}}
	store := newMemoryStore()
	require.NoError(t, store.Save(context.Background(), docURL, filepath.Join(dir, "deleted.pdf"), ""))
	o := newOrchestrator(a, store)

	art, err := o.Run(context.Background(), docURL, source.ModeDefault, report.Discard)
	require.NoError(t, err)
	assert.False(t, art.Cached)
	assert.Equal(t, fresh, art.Path)
	assert.Equal(t, int32(1), a.calls.Load())

	rec, _, _ := store.Get(context.Background(), docURL)
	assert.Equal(t, fresh, rec.FilePath)
}

func TestStartRejectsWhileRunning(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	path := writeArtifact(t, t.TempDir())
	a := &fakeAdapter{extract: func(context.Context, source.Reference, report.Reporter) (source.Artifact, error) {
		close(started)
		<-release
		return source.Artifact{Path: path}, nil
	}}
	o := newOrchestrator(a, nil)

	id, err := o.Start(docURL, source.ModeDefault)
	require.NoError(t, err)
	<-started

	st := o.Status()
	assert.Equal(t, events.StateRunning, st.State)
	assert.Equal(t, id, st.JobID)

	_, err = o.Start("https://www.slideshare.net/slideshow/deck/1", source.ModeDefault)
	assert.ErrorIs(t, err, ErrJobAlreadyActive)
	_, err = o.Run(context.Background(), docURL, source.ModeDefault, report.Discard)
	assert.ErrorIs(t, err, ErrJobAlreadyActive)

	close(release)
	o.Wait()
	assert.Equal(t, events.StateIdle, o.Status().State)
	assert.Equal(t, int32(1), a.calls.Load())
}

func TestFailedJobIsReportedAndNotCached(t *testing.T) {
	a := &fakeAdapter{extract: func(context.Context, source.Reference, report.Reporter) (source.Artifact, error) {
		return source.Artifact{}, fmt.Errorf("%w: no slides found", source.ErrExtraction)
	}}
	store := newMemoryStore()
	o := newOrchestrator(a, store)
	sub := o.Bus().Subscribe()

	_, err := o.Start(docURL, source.ModeDefault)
	require.NoError(t, err)
	st, seen := waitTerminal(t, sub)
	o.Wait()

	assert.Equal(t, events.StateFailed, st.State)
	assert.Contains(t, st.Error, "no slides found")
	assert.Equal(t, 0, store.saves)

	var logged bool
	for _, ev := range seen {
		if ev.Type == events.TypeLogError {
			logged = true
		}
	}
	assert.True(t, logged)
}

func TestPanickingAdapterFailsTheJob(t *testing.T) {
	a := &fakeAdapter{extract: func(context.Context, source.Reference, report.Reporter) (source.Artifact, error) {
		panic("selector exploded")
	}}
	o := newOrchestrator(a, nil)

	_, err := o.Run(context.Background(), docURL, source.ModeDefault, report.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "selector exploded")
	assert.Equal(t, events.StateIdle, o.Status().State)
}

func TestInvalidURLNeverStarts(t *testing.T) {
	a := &fakeAdapter{}
	o := newOrchestrator(a, newMemoryStore())
	sub := o.Bus().Subscribe()

	_, err := o.Start("   ", source.ModeDefault)
	assert.ErrorIs(t, err, source.ErrEmptyURL)
	_, err = o.Start("https://example.com/file.pdf", source.ModeDefault)
	assert.ErrorIs(t, err, source.ErrUnsupportedURL)

	assert.Equal(t, int32(0), a.calls.Load())
	assert.Equal(t, events.StateIdle, o.Status().State)
	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected event %v", ev)
	default:
	}
}

func TestSlideDeckWithOneBrokenSlide(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.RGBA{R: 1, A: 0xff})
	require.NoError(t, png.Encode(&buf, img))
	slide := buf.Bytes()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slide-3.png" {
			http.Error(w, "gone", http.StatusInternalServerError)
			return
		}
		w.Write(slide)
	}))
	defer srv.Close()

	out := t.TempDir()
	a := &fakeAdapter{extract: func(ctx context.Context, ref source.Reference, r report.Reporter) (source.Artifact, error) {
		var urls []string
		for i := 1; i <= 5; i++ {
			urls = append(urls, fmt.Sprintf("%s/slide-%d.png", srv.URL, i))
		}
		pages := capture.FetchSlides(ctx, fetch.New(""), urls, filepath.Join(out, "work"), r)
		path := filepath.Join(out, "deck.pdf")
		if err := assemble.Generate(pages, "deck", path); err != nil {
			return source.Artifact{}, err
		}
		return source.Artifact{Path: path, Title: "deck"}, nil
	}}
	o := newOrchestrator(a, newMemoryStore())
	sub := o.Bus().Subscribe()

	_, err := o.Start("https://www.slideshare.net/slideshow/deck/42", source.ModeDefault)
	require.NoError(t, err)
	st, seen := waitTerminal(t, sub)
	o.Wait()

	require.Equal(t, events.StateCompleted, st.State)
	n, err := api.PageCountFile(st.File)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	var warnings []string
	for _, ev := range seen {
		if ev.Type == events.TypeLogError {
			warnings = append(warnings, ev.Data.(events.Log).Message)
		}
	}
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "slide 3")
}
