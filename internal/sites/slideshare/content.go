package slideshare

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Deck is what the slideshow page exposes.
type Deck struct {
	Title  string
	Slides []string // absolute image URLs in slide order
}

// ParseDeck reads the title and slide image URLs from the slideshow markup.
// Relative image URLs are resolved against base.
func ParseDeck(html, base string) (Deck, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Deck{}, fmt.Errorf("failed to parse slideshow page: %w", err)
	}
	baseURL, _ := url.Parse(base)

	deck := Deck{Title: strings.TrimSpace(doc.Find("h1.title").First().Text())}
	doc.Find("img[id^='slide-image-']").Each(func(_ int, img *goquery.Selection) {
		src := slideSource(img)
		if src == "" {
			return
		}
		if baseURL != nil {
			if u, err := baseURL.Parse(src); err == nil {
				src = u.String()
			}
		}
		deck.Slides = append(deck.Slides, src)
	})
	return deck, nil
}

// slideSource prefers src and falls back to the largest srcset candidate
// for lazily loaded slides.
func slideSource(img *goquery.Selection) string {
	if src := strings.TrimSpace(img.AttrOr("src", "")); src != "" && !strings.HasPrefix(src, "data:") {
		return src
	}
	set := strings.TrimSpace(img.AttrOr("srcset", img.AttrOr("data-srcset", "")))
	if set == "" {
		return strings.TrimSpace(img.AttrOr("data-src", ""))
	}
	candidates := strings.Split(set, ",")
	last := strings.Fields(strings.TrimSpace(candidates[len(candidates)-1]))
	if len(last) == 0 {
		return ""
	}
	return last[0]
}
