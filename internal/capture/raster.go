package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"grabdoc/internal/render"
	"grabdoc/internal/report"
)

// ScreenshotScale is the device scale factor used for element captures.
const ScreenshotScale = 2

// Getter fetches a remote resource.
type Getter interface {
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// CaptureElements screenshots every page element of the layout at
// CanonicalWidth and ScreenshotScale, keeping each page's aspect ratio. Files
// are written to dir as 0001.png, 0002.png, ... A page that fails is reported
// and skipped.
func CaptureElements(ctx context.Context, s render.Session, l Layout, dir string, r report.Reporter) ([]Page, error) {
	n, err := countPages(s, l)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tr := r.Progress("Capture pages", n)
	defer tr.Stop()

	pages := make([]Page, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := shootPage(s, l, i, dir)
		if err != nil {
			r.Error((&PartialError{Unit: "page", Number: i + 1, Err: err}).Error())
		} else {
			pages = append(pages, p)
		}
		tr.Update(i + 1)
	}
	return pages, nil
}

func shootPage(s render.Session, l Layout, i int, dir string) (Page, error) {
	id := l.pageID(i)
	if _, err := s.Eval(scrollIntoViewJS, id); err != nil {
		return Page{}, fmt.Errorf("failed to scroll to #%s: %w", id, err)
	}
	native, err := pageSize(s, id, Size{})
	if err != nil {
		return Page{}, err
	}
	vp := FitWidth(native, CanonicalWidth).Normalize()

	data, err := s.Screenshot("#"+id, render.Viewport{Width: vp.Width, Height: vp.Height, Scale: ScreenshotScale})
	if err != nil {
		return Page{}, fmt.Errorf("failed to screenshot: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%04d.png", i+1))
	return writePNG(bytes.NewReader(data), path, i)
}

// FetchSlides downloads each image URL and stores it as PNG in dir, in
// order. Slides that fail are reported and skipped, so the result may be
// shorter than urls.
func FetchSlides(ctx context.Context, g Getter, urls []string, dir string, r report.Reporter) []Page {
	tr := r.Progress("Download slides", len(urls))
	defer tr.Stop()

	pages := make([]Page, 0, len(urls))
	for i, u := range urls {
		p, err := fetchSlide(ctx, g, u, dir, i)
		if err != nil {
			r.Error((&PartialError{Unit: "slide", Number: i + 1, Err: err}).Error())
		} else {
			pages = append(pages, p)
		}
		tr.Update(i + 1)
	}
	return pages
}

func fetchSlide(ctx context.Context, g Getter, url, dir string, i int) (Page, error) {
	body, err := g.Download(ctx, url)
	if err != nil {
		return Page{}, err
	}
	defer body.Close()
	return writePNG(body, filepath.Join(dir, fmt.Sprintf("%04d.png", i+1)), i)
}

// writePNG transcodes src into a PNG at path and reads the written file's
// dimensions back.
func writePNG(src io.Reader, path string, index int) (Page, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return Page{}, err
	}
	f, err := os.Create(path)
	if err != nil {
		return Page{}, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := TranscodePNG(src, f); err != nil {
		f.Close()
		os.Remove(path)
		return Page{}, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return Page{}, fmt.Errorf("failed to write %s: %w", path, err)
	}

	size, err := ReadSize(path)
	if err != nil {
		return Page{}, err
	}
	return Page{Index: index, Path: path, Width: size.Width, Height: size.Height}, nil
}
