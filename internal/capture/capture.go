// Package capture turns rendered pages into per-page artifacts: one PDF per
// page printed at native size, or one PNG per page or slide with its real
// pixel dimensions recorded.
package capture

import (
	"errors"
	"fmt"
)

// ErrNoPages means the page container held no pages.
var ErrNoPages = errors.New("no pages found")

// Page is one captured raster page on disk.
type Page struct {
	Index  int
	Path   string
	Width  int
	Height int
}

// Size returns the stored pixel dimensions.
func (p Page) Size() Size {
	return Size{Width: p.Width, Height: p.Height}
}

// Result is an ordered capture plus its best-effort title.
type Result struct {
	Title string
	Pages []Page
}

// Layout locates the page elements of a paginated document view. Page
// elements carry ids Prefix+"1", Prefix+"2", ... inside Container.
type Layout struct {
	Container string
	Prefix    string
}

func (l Layout) pageID(i int) string {
	return fmt.Sprintf("%s%d", l.Prefix, i+1)
}

// PartialError describes one unit that could not be captured. It is
// reported as a warning and the unit is skipped.
type PartialError struct {
	Unit   string
	Number int
	Err    error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("failed to capture %s %d: %v", e.Unit, e.Number, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }
