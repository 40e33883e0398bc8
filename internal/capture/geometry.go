package capture

import (
	"math"
	"regexp"
	"strconv"
)

// Canonical raster page size. Height is the A4 ratio at CanonicalWidth.
const (
	CanonicalWidth = 1191
	DefaultHeight  = 1684
)

// A4 is the fallback geometry when a page declares none.
var A4 = Size{Width: CanonicalWidth, Height: DefaultHeight}

// Size is a page size in CSS pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both dimensions are positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Normalize rounds an odd height up. Width is left alone.
func (s Size) Normalize() Size {
	s.Height = EvenHeight(s.Height)
	return s
}

// EvenHeight returns h, or h+1 when h is odd. Encoders used downstream
// reject odd heights.
func EvenHeight(h int) int {
	if h%2 != 0 {
		return h + 1
	}
	return h
}

var (
	styleWidth  = regexp.MustCompile(`(?i)(?:^|[;\s])width\s*:\s*(\d+(?:\.\d+)?)px`)
	styleHeight = regexp.MustCompile(`(?i)(?:^|[;\s])height\s*:\s*(\d+(?:\.\d+)?)px`)
)

// ParseStyleSize reads width and height pixel declarations from an inline
// style attribute, e.g. "margin: 0; width: 902px; height: 1277px;". When either
// is missing or not positive the fallback is returned unchanged.
func ParseStyleSize(style string, fallback Size) Size {
	w, okW := styleValue(styleWidth, style)
	h, okH := styleValue(styleHeight, style)
	s := Size{Width: w, Height: h}
	if !okW || !okH || !s.Valid() {
		return fallback
	}
	return s
}

func styleValue(re *regexp.Regexp, style string) (int, bool) {
	m := re.FindStringSubmatch(style)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// FromBox converts a bounding box to a Size, rounding to whole pixels.
func FromBox(width, height float64) Size {
	return Size{Width: int(math.Round(width)), Height: int(math.Round(height))}
}

// FitWidth scales native to the given width keeping its aspect ratio. An
// invalid native size falls back to the A4 ratio.
func FitWidth(native Size, width int) Size {
	if !native.Valid() {
		native = A4
	}
	h := int(math.Ceil(float64(width) * float64(native.Height) / float64(native.Width)))
	return Size{Width: width, Height: h}
}
