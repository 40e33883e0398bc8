package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grabdoc/internal/report"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		url    string
		family Family
		id     string
		target string
	}{
		{"https://www.scribd.com/document/512345678/Some-Title", Document, "512345678", "https://www.scribd.com/embeds/512345678/content"},
		{"https://www.scribd.com/doc/42/x", Document, "42", "https://www.scribd.com/embeds/42/content"},
		{"https://de.scribd.com/presentation/77/deck", Document, "77", "https://www.scribd.com/embeds/77/content"},
		{"https://www.scribd.com/embeds/512345678/content", Document, "512345678", "https://www.scribd.com/embeds/512345678/content"},
		{"https://www.slideshare.net/slideshow/intro-to-go/12345", SlideDeck, "intro-to-go", ""},
		{"https://www.slideshare.net/janedoe/intro-to-go", SlideDeck, "intro-to-go", ""},
		{"https://www.everand.com/podcast-show/1234/Some-Show", PodcastSeries, "1234", ""},
		{"https://www.everand.com/podcast/998877/Episode-Title", PodcastEpisode, "998877", "https://www.everand.com/listen/podcast/998877"},
		{"https://www.everand.com/listen/podcast/998877", PodcastEpisode, "998877", ""},
		{"  https://www.everand.com/listen/podcast/5  ", PodcastEpisode, "5", ""},
		{"HTTPS://WWW.SCRIBD.COM/document/9/Title", Document, "9", "https://www.scribd.com/embeds/9/content"},
		{"HTTP://Everand.com/podcast/31/Ep", PodcastEpisode, "31", "https://www.everand.com/listen/podcast/31"},
		{"Https://www.SlideShare.net/slideshow/Go-Intro/7", SlideDeck, "Go-Intro", ""},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			ref, err := Classify(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.family, ref.Family)
			assert.Equal(t, tt.id, ref.ID)
			want := tt.target
			if want == "" {
				want = ref.URL
			}
			assert.Equal(t, want, ref.Target)
		})
	}
}

func TestClassifyRejects(t *testing.T) {
	_, err := Classify("   ")
	assert.ErrorIs(t, err, ErrEmptyURL)

	for _, u := range []string{
		"https://example.com/document/1",
		"https://www.scribd.com/user/123/someone",
		"not a url",
		"https://www.everand.com/book/123",
		"https://www.scribd.com/DOCUMENT/123/paths-stay-case-sensitive",
	} {
		_, err := Classify(u)
		assert.ErrorIs(t, err, ErrUnsupportedURL, u)
	}
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeImage, ParseMode("IMAGE"))
	assert.Equal(t, ModeDefault, ParseMode(""))
	assert.Equal(t, ModeDefault, ParseMode("vector"))
}

type stubAdapter struct {
	families []Family
	calls    int
	path     string
}

func (s *stubAdapter) Name() string       { return "stub" }
func (s *stubAdapter) Families() []Family { return s.families }
func (s *stubAdapter) Extract(ctx context.Context, ref Reference, opts Options, r report.Reporter) (Artifact, error) {
	s.calls++
	return Artifact{Path: s.path, Title: ref.ID}, nil
}

func TestRegistryExecute(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0644))
	docs := &stubAdapter{families: []Family{Document}, path: path}
	reg := NewRegistry(docs)

	art, err := reg.Execute(context.Background(), "https://www.scribd.com/document/9/x", Options{}, report.Discard)
	require.NoError(t, err)
	assert.Equal(t, 1, docs.calls)
	assert.Equal(t, Document, art.Source.Family)
	assert.EqualValues(t, 4, art.Size)
}

func TestRegistryExecuteUnsupportedNeverRunsAdapter(t *testing.T) {
	all := &stubAdapter{families: []Family{Document, SlideDeck, PodcastSeries, PodcastEpisode}}
	reg := NewRegistry(all)

	_, err := reg.Execute(context.Background(), "https://example.com/whatever", Options{}, report.Discard)
	assert.ErrorIs(t, err, ErrUnsupportedURL)
	assert.Zero(t, all.calls)
}

func TestRegistryMissingAdapter(t *testing.T) {
	reg := NewRegistry(&stubAdapter{families: []Family{Document}})
	_, err := reg.Execute(context.Background(), "https://www.everand.com/podcast-show/1/x", Options{}, report.Discard)
	assert.ErrorIs(t, err, ErrUnsupportedURL)
}
