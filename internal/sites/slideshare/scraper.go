// Package slideshare downloads slide decks by fetching each slide image
// and laying them out one per PDF page.
package slideshare

import (
	"context"
	"fmt"
	"net/url"

	"grabdoc/internal/assemble"
	"grabdoc/internal/capture"
	"grabdoc/internal/output"
	"grabdoc/internal/render"
	"grabdoc/internal/report"
	"grabdoc/internal/source"
)

// Scraper is the slide deck adapter.
type Scraper struct {
	opener render.Opener
	getter capture.Getter
	output output.Layout
	timing render.Timing
}

func NewScraper(opener render.Opener, getter capture.Getter, out output.Layout, timing render.Timing) *Scraper {
	return &Scraper{opener: opener, getter: getter, output: out, timing: timing}
}

func (s *Scraper) Name() string { return "slideshare" }

func (s *Scraper) Families() []source.Family {
	return []source.Family{source.SlideDeck}
}

// Extract reads the slide list from the rendered page, downloads every
// slide and writes <output>/<name>.pdf.
func (s *Scraper) Extract(ctx context.Context, ref source.Reference, _ source.Options, r report.Reporter) (source.Artifact, error) {
	deck, err := s.readDeck(ctx, ref)
	if err != nil {
		return source.Artifact{}, err
	}
	if len(deck.Slides) == 0 {
		return source.Artifact{}, fmt.Errorf("%w: no slides found", source.ErrExtraction)
	}

	title := deck.Title
	if title == "" {
		title = ref.ID
	} else if decoded, err := url.PathUnescape(title); err == nil {
		title = decoded
	}

	work := s.output.WorkDir(ref.ID)
	defer output.Remove(work, r)

	r.Log("Downloading slides...")
	pages := capture.FetchSlides(ctx, s.getter, deck.Slides, work, r)

	out := s.output.Path(s.output.Name(title, ref.ID), ".pdf")
	r.Log("Generating PDF...")
	if err := assemble.Generate(pages, title, out); err != nil {
		return source.Artifact{}, err
	}
	r.Log(fmt.Sprintf("Generated: %s", out))
	return source.Artifact{Path: out, Title: title}, nil
}

// readDeck holds the browser session only as long as it takes to read
// the markup.
func (s *Scraper) readDeck(ctx context.Context, ref source.Reference) (Deck, error) {
	sess, err := s.opener.Open(ctx, ref.Target)
	if err != nil {
		return Deck{}, err
	}
	defer sess.Close()

	if err := render.Pause(ctx, s.timing.InitialDelay); err != nil {
		return Deck{}, err
	}
	html, err := sess.HTML()
	if err != nil {
		return Deck{}, fmt.Errorf("failed to read slideshow page: %w", err)
	}
	return ParseDeck(html, ref.Target)
}
