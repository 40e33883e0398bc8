package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"grabdoc/internal/report"
)

// Mode selects the capture strategy for documents.
type Mode string

const (
	ModeDefault Mode = "default" // vector capture
	ModeImage   Mode = "image"   // raster capture
)

// ParseMode maps user input to a Mode; anything but "image" is the default.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeImage)) {
		return ModeImage
	}
	return ModeDefault
}

// Options tunes one extraction.
type Options struct {
	Mode Mode
}

// Artifact is the final output of an extraction.
type Artifact struct {
	Path   string
	Title  string
	Size   int64
	Source Reference
	Cached bool // answered from the result cache
}

// Adapter extracts one or more content families.
type Adapter interface {
	Name() string
	Families() []Family
	Extract(ctx context.Context, ref Reference, opts Options, r report.Reporter) (Artifact, error)
}

// Registry maps families to adapters.
type Registry struct {
	adapters map[Family]Adapter
}

// NewRegistry builds a registry. A later adapter claiming an already claimed
// family replaces the earlier one.
func NewRegistry(adapters ...Adapter) *Registry {
	reg := &Registry{adapters: make(map[Family]Adapter)}
	for _, a := range adapters {
		for _, f := range a.Families() {
			reg.adapters[f] = a
		}
	}
	return reg
}

// Lookup returns the adapter for f.
func (reg *Registry) Lookup(f Family) (Adapter, bool) {
	a, ok := reg.adapters[f]
	return a, ok
}

// Resolve classifies rawURL and finds its adapter.
func (reg *Registry) Resolve(rawURL string) (Reference, Adapter, error) {
	ref, err := Classify(rawURL)
	if err != nil {
		return ref, nil, err
	}
	a, ok := reg.Lookup(ref.Family)
	if !ok {
		return ref, nil, fmt.Errorf("%w: no adapter for %s", ErrUnsupportedURL, ref.Family)
	}
	return ref, a, nil
}

// Execute classifies rawURL and runs the matching adapter synchronously.
func (reg *Registry) Execute(ctx context.Context, rawURL string, opts Options, r report.Reporter) (Artifact, error) {
	ref, a, err := reg.Resolve(rawURL)
	if err != nil {
		return Artifact{}, err
	}
	art, err := a.Extract(ctx, ref, opts, r)
	if err != nil {
		return Artifact{}, err
	}
	art.Source = ref
	if fi, err := os.Stat(art.Path); err == nil && !fi.IsDir() {
		art.Size = fi.Size()
	}
	return art, nil
}
