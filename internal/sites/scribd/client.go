package scribd

import (
	"net/url"
	"strings"

	"grabdoc/internal/render"
)

const (
	scrollerSelector = "div.document_scroller"
	pageContainer    = "div.outer_page_container"
	pagePrefix       = "outer_page_"
)

var cookieSelectors = []string{
	"div.customOptInDialog",
	"div[aria-label='Cookie Consent Banner']",
}

const overlayHrefJS = `() => {
	const a = document.querySelector("div.mobile_overlay a");
	return a ? a.href : "";
}`

const removeJS = `(selectors) => {
	let n = 0;
	for (const sel of selectors) {
		document.querySelectorAll(sel).forEach(el => { el.remove(); n++; });
	}
	return n;
}`

// unblockJS pins the scroller to the viewport and hides the toolbar
// drop-down so element screenshots are not covered.
const unblockJS = `() => {
	const scroller = document.querySelector("div.document_scroller");
	if (scroller) {
		scroller.style.bottom = "0px";
		scroller.style.marginTop = "0px";
	}
	const drop = document.querySelector("div.toolbar_drop");
	if (drop) drop.style.display = "none";
}`

// documentTitle reads the title from the overlay link. Any failure falls
// back to id.
func documentTitle(s render.Session, id string) string {
	res, err := s.Eval(overlayHrefJS)
	if err != nil {
		return id
	}
	return titleFromHref(res.Str(), id)
}

// titleFromHref takes the last path segment of href, URL-decoded.
func titleFromHref(href, fallback string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return fallback
	}
	if u, err := url.Parse(href); err == nil && u.Path != "" {
		href = u.EscapedPath()
	}
	seg := strings.TrimSpace(href[strings.LastIndex(strings.TrimRight(href, "/"), "/")+1:])
	seg = strings.TrimRight(seg, "/")
	if decoded, err := url.PathUnescape(seg); err == nil {
		seg = decoded
	}
	if seg = strings.TrimSpace(seg); seg == "" {
		return fallback
	}
	return seg
}

func removeCookieBanners(s render.Session) (int, error) {
	res, err := s.Eval(removeJS, cookieSelectors)
	if err != nil {
		return 0, err
	}
	return res.Int(), nil
}
