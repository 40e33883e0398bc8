// Package source classifies source URLs into content families and
// dispatches them to the adapter that extracts that family.
package source

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// ErrEmptyURL is returned for a blank URL.
	ErrEmptyURL = errors.New("URL cannot be empty")
	// ErrUnsupportedURL is returned when no family matches.
	ErrUnsupportedURL = errors.New("unsupported URL")
	// ErrExtraction wraps failures caused by missing page structure.
	ErrExtraction = errors.New("extraction failed")
)

// Family is the kind of content a URL points at.
type Family int

const (
	Unrecognized Family = iota
	Document
	SlideDeck
	PodcastSeries
	PodcastEpisode
)

func (f Family) String() string {
	switch f {
	case Document:
		return "document"
	case SlideDeck:
		return "slide-deck"
	case PodcastSeries:
		return "podcast-series"
	case PodcastEpisode:
		return "podcast-episode"
	default:
		return "unrecognized"
	}
}

// Reference is a classified source URL.
type Reference struct {
	URL    string // as given, trimmed
	Target string // URL the adapter should open
	Family Family
	ID     string
}

type pattern struct {
	family Family
	re     *regexp.Regexp
	// target rewrites the matched URL; nil keeps it.
	target func(id string) string
}

var patterns = []pattern{
	{
		family: Document,
		re:     regexp.MustCompile(`^(?i:https?://(?:[a-z]{2,3}\.)?(?:www\.)?scribd\.com)/(?:document|doc|presentation|book)/(\d+)(?:[/?#]|$)`),
		target: func(id string) string { return "https://www.scribd.com/embeds/" + id + "/content" },
	},
	{
		family: Document,
		re:     regexp.MustCompile(`^(?i:https?://(?:www\.)?scribd\.com)/embeds/(\d+)/content(?:[/?#]|$)`),
	},
	{
		family: SlideDeck,
		re:     regexp.MustCompile(`^(?i:https?://(?:[a-z]{2,3}\.)?(?:www\.)?slideshare\.net)/slideshow/([^/?#]+)`),
	},
	{
		family: PodcastSeries,
		re:     regexp.MustCompile(`^(?i:https?://(?:www\.)?everand\.com)/podcast-show/(\d+)(?:[/?#]|$)`),
	},
	{
		family: PodcastEpisode,
		re:     regexp.MustCompile(`^(?i:https?://(?:www\.)?everand\.com)/podcast/(\d+)(?:[/?#]|$)`),
		target: EpisodeListenURL,
	},
	{
		family: PodcastEpisode,
		re:     regexp.MustCompile(`^(?i:https?://(?:www\.)?everand\.com)/listen/podcast/(\d+)(?:[/?#]|$)`),
	},
	{
		// Legacy slide URLs: slideshare.net/<user>/<slug>. Checked last so
		// the /slideshow/ form wins.
		family: SlideDeck,
		re:     regexp.MustCompile(`^(?i:https?://(?:[a-z]{2,3}\.)?(?:www\.)?slideshare\.net)/[^/?#]+/([^/?#]+)`),
	},
}

// EpisodeListenURL is the player page of a podcast episode.
func EpisodeListenURL(id string) string {
	return "https://www.everand.com/listen/podcast/" + id
}

// Classify maps a URL to its family and stable identifier.
func Classify(rawURL string) (Reference, error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return Reference{}, ErrEmptyURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Reference{URL: raw}, fmt.Errorf("%w: %s", ErrUnsupportedURL, raw)
	}

	for _, p := range patterns {
		m := p.re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		ref := Reference{URL: raw, Target: raw, Family: p.family, ID: m[1]}
		if p.target != nil {
			ref.Target = p.target(ref.ID)
		}
		return ref, nil
	}
	return Reference{URL: raw}, fmt.Errorf("%w: %s", ErrUnsupportedURL, raw)
}
