package capture

import (
	"fmt"

	"grabdoc/internal/render"
)

const countPagesJS = `(container, prefix) => {
	return document.querySelectorAll(container + " div[id^='" + prefix + "']").length;
}`

// isolateJS strips page margins, replaces the body with the page container
// and hides every page.
const isolateJS = `(container, prefix, n) => {
	for (let i = 1; i <= n; i++) {
		const el = document.getElementById(prefix + i);
		if (el) el.style.margin = "0";
	}
	const c = document.querySelector(container);
	if (c) document.body.innerHTML = c.innerHTML;
	for (let i = 1; i <= n; i++) {
		const el = document.getElementById(prefix + i);
		if (el) el.style.display = "none";
	}
}`

const displayJS = `(id, display) => {
	const el = document.getElementById(id);
	if (el) el.style.display = display;
}`

const geometryJS = `(id) => {
	const el = document.getElementById(id);
	if (!el) return null;
	const box = el.getBoundingClientRect();
	return {style: el.getAttribute("style") || "", width: box.width, height: box.height};
}`

const scrollIntoViewJS = `(id) => {
	const el = document.getElementById(id);
	if (el) el.scrollIntoView();
}`

type geometry struct {
	Style  string  `json:"style"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func countPages(s render.Session, l Layout) (int, error) {
	res, err := s.Eval(countPagesJS, l.Container, l.Prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	n := res.Int()
	if n == 0 {
		return 0, fmt.Errorf("%w in %s", ErrNoPages, l.Container)
	}
	return n, nil
}

// pageSize returns the page's declared size, falling back to its bounding
// box and then to fallback.
func pageSize(s render.Session, id string, fallback Size) (Size, error) {
	res, err := s.Eval(geometryJS, id)
	if err != nil {
		return Size{}, fmt.Errorf("failed to read geometry of #%s: %w", id, err)
	}
	var g *geometry
	if err := render.Decode(res, &g); err != nil {
		return Size{}, fmt.Errorf("failed to parse geometry of #%s: %w", id, err)
	}
	if g == nil {
		return Size{}, fmt.Errorf("page #%s not found", id)
	}
	box := FromBox(g.Width, g.Height)
	if !box.Valid() {
		box = fallback
	}
	return ParseStyleSize(g.Style, box), nil
}

func setDisplay(s render.Session, id, display string) error {
	if _, err := s.Eval(displayJS, id, display); err != nil {
		return fmt.Errorf("failed to set display of #%s: %w", id, err)
	}
	return nil
}
