package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"grabdoc/internal/render"
	"grabdoc/internal/report"
)

// CaptureVector prints every page of the layout to its own PDF inside dir,
// named 000.pdf, 001.pdf, ... in page order. Only one page is visible while
// it prints. The session's DOM is rewritten; do not reuse the session.
func CaptureVector(ctx context.Context, s render.Session, l Layout, dir string, r report.Reporter) ([]string, error) {
	n, err := countPages(s, l)
	if err != nil {
		return nil, err
	}
	if _, err := s.Eval(isolateJS, l.Container, l.Prefix, n); err != nil {
		return nil, fmt.Errorf("failed to isolate pages: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tr := r.Progress("Generate PDFs", n)
	defer tr.Stop()

	paths := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, err := printPage(s, l, i, dir)
		if err != nil {
			r.Error((&PartialError{Unit: "page", Number: i + 1, Err: err}).Error())
		} else {
			paths = append(paths, path)
		}
		tr.Update(i + 1)
	}
	return paths, nil
}

func printPage(s render.Session, l Layout, i int, dir string) (string, error) {
	id := l.pageID(i)
	if err := setDisplay(s, id, "block"); err != nil {
		return "", err
	}
	defer setDisplay(s, id, "none")

	size, err := pageSize(s, id, A4)
	if err != nil {
		return "", err
	}
	size = size.Normalize()

	data, err := s.PrintPDF(size.Width, size.Height)
	if err != nil {
		return "", fmt.Errorf("failed to print: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%03d.pdf", i))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
