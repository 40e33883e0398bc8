// Package scribd extracts documents from the embedded reader, either as
// printed vector pages or as page screenshots.
package scribd

import (
	"context"
	"errors"
	"fmt"

	"grabdoc/internal/assemble"
	"grabdoc/internal/capture"
	"grabdoc/internal/output"
	"grabdoc/internal/render"
	"grabdoc/internal/report"
	"grabdoc/internal/source"
)

var pageLayout = capture.Layout{Container: pageContainer, Prefix: pagePrefix}

// Scraper is the document adapter.
type Scraper struct {
	opener render.Opener
	output output.Layout
	timing render.Timing
}

// NewScraper creates the document adapter.
func NewScraper(opener render.Opener, out output.Layout, timing render.Timing) *Scraper {
	return &Scraper{opener: opener, output: out, timing: timing}
}

func (s *Scraper) Name() string { return "scribd" }

func (s *Scraper) Families() []source.Family {
	return []source.Family{source.Document}
}

// Extract renders the document embed and writes <output>/<name>.pdf.
func (s *Scraper) Extract(ctx context.Context, ref source.Reference, opts source.Options, r report.Reporter) (source.Artifact, error) {
	if opts.Mode == source.ModeImage {
		r.Log("Mode: IMAGE")
	} else {
		r.Log("Mode: DEFAULT")
	}

	sess, err := s.opener.Open(ctx, ref.Target)
	if err != nil {
		return source.Artifact{}, err
	}
	defer sess.Close()

	if err := render.Pause(ctx, s.timing.InitialDelay); err != nil {
		return source.Artifact{}, err
	}

	title := documentTitle(sess, ref.ID)
	out := s.output.Path(s.output.Name(title, ref.ID), ".pdf")
	work := s.output.WorkDir(ref.ID)
	defer output.Remove(work, r)

	if opts.Mode == source.ModeImage {
		err = s.extractImages(ctx, sess, work, title, out, r)
	} else {
		err = s.extractVector(ctx, sess, work, out, r)
	}
	if err != nil {
		return source.Artifact{}, err
	}
	r.Log(fmt.Sprintf("Generated: %s", out))
	return source.Artifact{Path: out, Title: title}, nil
}

func (s *Scraper) extractVector(ctx context.Context, sess render.Session, work, out string, r report.Reporter) error {
	if _, err := removeCookieBanners(sess); err != nil {
		r.Error(fmt.Sprintf("failed to remove cookie banners: %v", err))
	}

	r.Log("Loading all pages...")
	err := render.ScrollToEnd(ctx, sess, render.ScrollOptions{
		Container: scrollerSelector,
		Label:     "Load pages",
		Timing:    s.timing,
	}, r)
	if errors.Is(err, render.ErrContainerNotFound) {
		return fmt.Errorf("%w: document scroller not found: %w", source.ErrExtraction, err)
	}
	if err != nil {
		return err
	}

	r.Log("Generating per-page PDFs...")
	files, err := capture.CaptureVector(ctx, sess, pageLayout, work, r)
	if err != nil {
		return wrapNoPages(err)
	}

	r.Log("Merging PDFs...")
	return assemble.Merge(files, out)
}

func (s *Scraper) extractImages(ctx context.Context, sess render.Session, work, title, out string, r report.Reporter) error {
	if _, err := sess.Eval(unblockJS); err != nil {
		r.Error(fmt.Sprintf("failed to hide toolbar: %v", err))
	}

	r.Log("Capturing pages as images...")
	pages, err := capture.CaptureElements(ctx, sess, pageLayout, work, r)
	if err != nil {
		return wrapNoPages(err)
	}

	r.Log("Generating PDF from images...")
	return assemble.Generate(pages, title, out)
}

func wrapNoPages(err error) error {
	if errors.Is(err, capture.ErrNoPages) {
		return fmt.Errorf("%w: %w", source.ErrExtraction, err)
	}
	return err
}
