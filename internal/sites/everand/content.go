package everand

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// Episode is what an episode's player page exposes.
type Episode struct {
	Title     string `json:"title"`
	AudioURL  string `json:"audio"`
	SeriesURL string `json:"series"`
	Notes     string `json:"notes"` // show notes markup, may be empty
}

const episodeJS = `() => {
	const audio = document.querySelector('audio#audioplayer');
	const series = document.querySelector('a[href^="https://www.everand.com/podcast-show/"]');
	const notes = document.querySelector('[data-e2e="podcast-episode-description"], div.description');
	return {
		title: (window.Scribd && window.Scribd.current_doc && window.Scribd.current_doc.short_title) || "",
		audio: audio ? audio.src : "",
		series: series ? series.href : "",
		notes: notes ? notes.innerHTML : "",
	};
}`

// SeriesPage is one page of a series' episode listing.
type SeriesPage struct {
	TotalEpisodes int
	TotalPages    int
	Episodes      []string // absolute episode URLs
}

var leadingNumber = regexp.MustCompile(`\d[\d,]*`)

// ParseSeriesPage reads the episode count, page count and episode links
// from a series listing. Relative links are resolved against base.
func ParseSeriesPage(html, base string) (SeriesPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return SeriesPage{}, fmt.Errorf("failed to parse series page: %w", err)
	}
	baseURL, _ := url.Parse(base)

	page := SeriesPage{
		TotalEpisodes: firstNumber(doc.Find(`span[data-e2e="podcast-series-header-total-episodes"]`).First().Text(), 0),
		TotalPages:    firstNumber(doc.Find(`div[data-e2e="pagination"] a[aria-label^="Page"]`).Last().Text(), 1),
	}
	if page.TotalPages < 1 {
		page.TotalPages = 1
	}

	doc.Find(`div.breakpoint_hide.below a[data-e2e="podcast-episode-player-button"]`).Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return
		}
		if baseURL != nil {
			if u, err := baseURL.Parse(href); err == nil {
				href = u.String()
			}
		}
		page.Episodes = append(page.Episodes, href)
	})
	return page, nil
}

func firstNumber(s string, fallback int) int {
	m := leadingNumber.FindString(s)
	if m == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return fallback
	}
	return n
}

// PageURL returns the listing URL of page n, newest episodes first.
func PageURL(seriesURL string, n int) string {
	if n <= 1 {
		return seriesURL
	}
	u, err := url.Parse(seriesURL)
	if err != nil {
		return fmt.Sprintf("%s?page=%d&sort=desc", seriesURL, n)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(n))
	q.Set("sort", "desc")
	u.RawQuery = q.Encode()
	return u.String()
}

// NotesMarkdown converts show notes markup to Markdown.
func NotesMarkdown(html string) (string, error) {
	converter := md.NewConverter("", true, nil)
	text, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert show notes to Markdown: %w", err)
	}
	return strings.TrimSpace(text), nil
}
