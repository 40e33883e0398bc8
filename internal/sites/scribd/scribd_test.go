package scribd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grabdoc/internal/capture"
	"grabdoc/internal/output"
	"grabdoc/internal/render"
	"grabdoc/internal/render/rendertest"
	"grabdoc/internal/report"
	"grabdoc/internal/source"
)

func TestTitleFromHref(t *testing.T) {
	tests := []struct {
		href string
		want string
	}{
		{"https://www.scribd.com/document/123/Annual%20Report%202023", "Annual Report 2023"},
		{"https://www.scribd.com/document/123/My-Doc/", "My-Doc"},
		{"  ", "123"},
		{"", "123"},
		{"https://www.scribd.com/", "123"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, titleFromHref(tt.href, "123"), tt.href)
	}
}

func newScraper(t *testing.T, sess *rendertest.Session) (*Scraper, *rendertest.Opener, output.Layout) {
	layout := output.Layout{Dir: t.TempDir(), Strategy: output.ByTitle}
	opener := &rendertest.Opener{New: func(string) (*rendertest.Session, error) { return sess, nil }}
	timing := render.DefaultTiming()
	timing.InitialDelay = 0
	timing.Settle = 0
	return NewScraper(opener, layout, timing), opener, layout
}

func docRef() source.Reference {
	ref, _ := source.Classify("https://www.scribd.com/document/123/whatever")
	return ref
}

func TestExtractWithoutScrollerFails(t *testing.T) {
	removed := 0
	sess := &rendertest.Session{Scripts: map[string]rendertest.Script{
		overlayHrefJS: func(...interface{}) (interface{}, error) {
			return "https://www.scribd.com/document/123/Quarterly%20Notes", nil
		},
		removeJS: func(args ...interface{}) (interface{}, error) {
			removed = len(args[0].([]string))
			return 0, nil
		},
	}}
	s, opener, layout := newScraper(t, sess)

	_, err := s.Extract(context.Background(), docRef(), source.Options{}, report.Discard)

	require.Error(t, err)
	assert.ErrorIs(t, err, source.ErrExtraction)
	assert.ErrorIs(t, err, render.ErrContainerNotFound)
	assert.Equal(t, []string{"https://www.scribd.com/embeds/123/content"}, opener.Opens)
	assert.Equal(t, 2, removed)
	assert.True(t, sess.Closed)
	_, statErr := os.Stat(layout.WorkDir("123"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractImageModeWithoutPages(t *testing.T) {
	unblocked := false
	sess := &rendertest.Session{Scripts: map[string]rendertest.Script{
		unblockJS: func(...interface{}) (interface{}, error) {
			unblocked = true
			return nil, nil
		},
	}}
	s, _, layout := newScraper(t, sess)

	_, err := s.Extract(context.Background(), docRef(), source.Options{Mode: source.ModeImage}, report.Discard)

	assert.ErrorIs(t, err, source.ErrExtraction)
	assert.ErrorIs(t, err, capture.ErrNoPages)
	assert.True(t, unblocked)
	assert.True(t, sess.Closed)
	_, statErr := os.Stat(filepath.Join(layout.Dir, "123.pdf"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExtractPropagatesOpenFailure(t *testing.T) {
	layout := output.Layout{Dir: t.TempDir()}
	opener := &rendertest.Opener{New: func(string) (*rendertest.Session, error) {
		return nil, render.ErrUnavailable
	}}
	s := NewScraper(opener, layout, render.Timing{})

	_, err := s.Extract(context.Background(), docRef(), source.Options{}, report.Discard)
	assert.True(t, errors.Is(err, render.ErrUnavailable))
}

// readerPage fakes the embedded reader: a scroller that advances one client
// height per Page Down and page elements declaring the given styles. Script
// bodies owned by other packages are matched by a distinctive fragment.
type readerPage struct {
	styles  []string
	display map[string]string
	top     float64
	client  float64
	height  float64
	scrolls int
}

func newReaderPage(styles ...string) *readerPage {
	return &readerPage{styles: styles, display: map[string]string{}, client: 1000, height: 3500}
}

func (p *readerPage) session() *rendertest.Session {
	return &rendertest.Session{
		Scripts: map[string]rendertest.Script{
			overlayHrefJS: func(...interface{}) (interface{}, error) {
				return "https://www.scribd.com/document/123/Quarterly%20Notes", nil
			},
			removeJS: func(...interface{}) (interface{}, error) { return 1, nil },
			unblockJS: func(...interface{}) (interface{}, error) { return nil, nil },
		},
		Fallback: func(js string, args ...interface{}) (interface{}, error) {
			switch {
			case strings.Contains(js, "el.scrollTop"):
				return map[string]float64{"top": p.top, "client": p.client, "height": p.height}, nil
			case strings.Contains(js, "querySelectorAll(container"):
				return len(p.styles), nil
			case strings.HasPrefix(js, "(id, display)"):
				p.display[args[0].(string)] = args[1].(string)
			case strings.Contains(js, "getBoundingClientRect"):
				var n int
				fmt.Sscanf(args[0].(string), pagePrefix+"%d", &n)
				if n < 1 || n > len(p.styles) {
					return nil, nil
				}
				return map[string]interface{}{"style": p.styles[n-1], "width": 0, "height": 0}, nil
			}
			return nil, nil
		},
		OnPageDown: func() error {
			p.scrolls++
			p.top = min(p.top+p.client, p.height-p.client)
			return nil
		},
	}
}

// printedPage renders a real single page PDF of the requested size.
func printedPage(w, h int) ([]byte, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: float64(w), Ht: float64(h)}})
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.Text(10, 20, fmt.Sprintf("%dx%d", w, h))
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func screenshot(_ string, vp render.Viewport) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, vp.Width/10, vp.Height/10))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func TestExtractVectorMergesPrintedPages(t *testing.T) {
	page := newReaderPage(
		"width: 902px; height: 1277px;",
		"width: 902px; height: 1276px;",
		"width: 612px; height: 791px;",
	)
	sess := page.session()
	sess.Prints = printedPage
	s, _, layout := newScraper(t, sess)
	rec := &report.Recorder{}

	art, err := s.Extract(context.Background(), docRef(), source.Options{}, rec)
	require.NoError(t, err)

	assert.Equal(t, "Quarterly Notes", art.Title)
	assert.Equal(t, layout.Dir, filepath.Dir(art.Path))
	assert.Equal(t, ".pdf", filepath.Ext(art.Path))
	assert.Equal(t, 3, page.scrolls)
	last, ok := rec.Last("Load pages")
	require.True(t, ok)
	assert.Equal(t, 3500, last)

	assert.Equal(t, [][2]int{{902, 1278}, {902, 1276}, {612, 792}}, sess.Printed)
	for _, wh := range sess.Printed {
		assert.Zero(t, wh[0]%2)
		assert.Zero(t, wh[1]%2)
	}
	for id, d := range page.display {
		assert.Equal(t, "none", d, id)
	}

	n, err := api.PageCountFile(art.Path)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	dims, err := api.PageDimsFile(art.Path)
	require.NoError(t, err)
	require.Len(t, dims, 3)
	assert.InDelta(t, 612, dims[2].Width, 0.5)
	assert.InDelta(t, 792, dims[2].Height, 0.5)

	assert.True(t, sess.Closed)
	_, statErr := os.Stat(layout.WorkDir("123"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, rec.Errors)
}

func TestExtractImageModeGeneratesFromScreenshots(t *testing.T) {
	page := newReaderPage("width: 902px; height: 1277px;", "width: 800px; height: 600px;")
	sess := page.session()
	var viewports []render.Viewport
	sess.Shots = func(sel string, vp render.Viewport) ([]byte, error) {
		viewports = append(viewports, vp)
		return screenshot(sel, vp)
	}
	s, _, layout := newScraper(t, sess)
	rec := &report.Recorder{}

	art, err := s.Extract(context.Background(), docRef(), source.Options{Mode: source.ModeImage}, rec)
	require.NoError(t, err)

	require.Len(t, viewports, 2)
	for _, vp := range viewports {
		assert.Equal(t, capture.CanonicalWidth, vp.Width)
		assert.Equal(t, float64(capture.ScreenshotScale), vp.Scale)
	}
	assert.Empty(t, sess.Printed)
	assert.Zero(t, page.scrolls)

	n, err := api.PageCountFile(art.Path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	last, ok := rec.Last("Capture pages")
	require.True(t, ok)
	assert.Equal(t, 2, last)

	_, statErr := os.Stat(layout.WorkDir("123"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, rec.Errors)
}
