// Package everand downloads podcast episodes, alone or as a whole series,
// as audio files with their show notes.
package everand

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"grabdoc/internal/capture"
	"grabdoc/internal/output"
	"grabdoc/internal/render"
	"grabdoc/internal/report"
	"grabdoc/internal/source"
)

const unknownSeries = "Unknown_Series"

// Saver streams a remote resource into a local file.
type Saver interface {
	SaveAs(ctx context.Context, url, path string) (int64, error)
}

// Scraper is the podcast adapter.
type Scraper struct {
	opener render.Opener
	saver  Saver
	output output.Layout
	timing render.Timing
}

func NewScraper(opener render.Opener, saver Saver, out output.Layout, timing render.Timing) *Scraper {
	return &Scraper{opener: opener, saver: saver, output: out, timing: timing}
}

func (s *Scraper) Name() string { return "everand" }

func (s *Scraper) Families() []source.Family {
	return []source.Family{source.PodcastEpisode, source.PodcastSeries}
}

// Extract downloads one episode, returning the audio file, or a whole
// series, returning the series directory.
func (s *Scraper) Extract(ctx context.Context, ref source.Reference, _ source.Options, r report.Reporter) (source.Artifact, error) {
	if ref.Family == source.PodcastSeries {
		return s.series(ctx, ref, r)
	}

	r.Log("Downloading episode audio...")
	art, err := s.episode(ctx, ref, r)
	if err != nil {
		return source.Artifact{}, err
	}
	r.Log(fmt.Sprintf("Saved: %s", art.Path))
	return art, nil
}

func (s *Scraper) episode(ctx context.Context, ref source.Reference, r report.Reporter) (source.Artifact, error) {
	ep, err := s.readEpisode(ctx, ref)
	if err != nil {
		return source.Artifact{}, err
	}
	if ep.AudioURL == "" {
		return source.Artifact{}, fmt.Errorf("%w: audio source not found on page", source.ErrExtraction)
	}
	if ep.SeriesURL == "" {
		return source.Artifact{}, fmt.Errorf("%w: series URL not found", source.ErrExtraction)
	}

	seriesID := unknownSeries
	if series, err := source.Classify(ep.SeriesURL); err == nil && series.Family == source.PodcastSeries {
		seriesID = series.ID
	}
	title := ep.Title
	if title == "" {
		title = ref.ID
	}

	path := filepath.Join(s.output.Dir, seriesID, s.episodeName(ref.ID, title)+".mp3")
	if _, err := s.saver.SaveAs(ctx, ep.AudioURL, path); err != nil {
		return source.Artifact{}, err
	}

	if ep.Notes != "" {
		s.writeNotes(path, title, ep.Notes, r)
	}
	return source.Artifact{Path: path, Title: title}, nil
}

func (s *Scraper) readEpisode(ctx context.Context, ref source.Reference) (Episode, error) {
	sess, err := s.opener.Open(ctx, ref.Target)
	if err != nil {
		return Episode{}, err
	}
	defer sess.Close()

	if err := render.Pause(ctx, s.timing.InitialDelay); err != nil {
		return Episode{}, err
	}
	res, err := sess.Eval(episodeJS)
	if err != nil {
		return Episode{}, fmt.Errorf("failed to read episode page: %w", err)
	}
	var ep *Episode
	if err := render.Decode(res, &ep); err != nil {
		return Episode{}, fmt.Errorf("failed to parse episode page: %w", err)
	}
	if ep == nil {
		return Episode{}, nil
	}
	return *ep, nil
}

// episodeName is "<id>_<title>", or just the id when files are named by id.
func (s *Scraper) episodeName(id, title string) string {
	safe := output.Sanitize(title)
	if s.output.Strategy == output.ByID || safe == "" || safe == output.Sanitize(id) {
		return output.Sanitize(id)
	}
	return output.Sanitize(id) + "_" + safe
}

// writeNotes stores the show notes next to the audio file. Failures are
// warnings.
func (s *Scraper) writeNotes(audioPath, title, notes string, r report.Reporter) {
	text, err := NotesMarkdown(notes)
	if err != nil {
		r.Error(err.Error())
		return
	}
	if text == "" {
		return
	}
	notesPath := audioPath[:len(audioPath)-len(filepath.Ext(audioPath))] + ".md"
	body := fmt.Sprintf("# %s\n\n%s\n", title, text)
	if err := os.WriteFile(notesPath, []byte(body), 0644); err != nil {
		r.Error(fmt.Sprintf("failed to write show notes: %v", err))
	}
}

func (s *Scraper) series(ctx context.Context, ref source.Reference, r report.Reporter) (source.Artifact, error) {
	r.Log("Processing podcast series...")
	links, total, err := s.collectEpisodes(ctx, ref)
	if err != nil {
		return source.Artifact{}, err
	}
	if len(links) == 0 {
		return source.Artifact{}, fmt.Errorf("%w: no episodes found", source.ErrExtraction)
	}
	r.Log(fmt.Sprintf("Series total episodes: %d", total))

	tr := r.Progress("Download episodes", len(links))
	defer tr.Stop()

	saved := 0
	for i, link := range links {
		if err := ctx.Err(); err != nil {
			return source.Artifact{}, err
		}
		epRef, err := source.Classify(link)
		if err == nil && epRef.Family != source.PodcastEpisode {
			err = fmt.Errorf("%w: not an episode: %s", source.ErrUnsupportedURL, link)
		}
		if err == nil {
			_, err = s.episode(ctx, epRef, r)
		}
		if err != nil {
			r.Error((&capture.PartialError{Unit: "episode", Number: i + 1, Err: err}).Error())
		} else {
			saved++
		}
		tr.Update(i + 1)
	}
	if saved == 0 {
		return source.Artifact{}, fmt.Errorf("%w: none of %d episodes could be downloaded", source.ErrExtraction, len(links))
	}

	dir := filepath.Join(s.output.Dir, ref.ID)
	r.Log(fmt.Sprintf("Saved %d of %d episodes to %s", saved, len(links), dir))
	return source.Artifact{Path: dir, Title: ref.ID}, nil
}

// collectEpisodes walks every listing page with one session and returns
// the episode links in listing order without duplicates.
func (s *Scraper) collectEpisodes(ctx context.Context, ref source.Reference) ([]string, int, error) {
	sess, err := s.opener.Open(ctx, ref.Target)
	if err != nil {
		return nil, 0, err
	}
	defer sess.Close()

	var (
		links []string
		seen  = make(map[string]bool)
		total int
		pages = 1
	)
	for n := 1; n <= pages; n++ {
		if n > 1 {
			if err := sess.Navigate(PageURL(ref.Target, n)); err != nil {
				return nil, 0, err
			}
		}
		if err := render.Pause(ctx, s.timing.InitialDelay); err != nil {
			return nil, 0, err
		}
		html, err := sess.HTML()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read series page %d: %w", n, err)
		}
		page, err := ParseSeriesPage(html, ref.Target)
		if err != nil {
			return nil, 0, err
		}
		if n == 1 {
			pages, total = page.TotalPages, page.TotalEpisodes
		}
		for _, link := range page.Episodes {
			if !seen[link] {
				seen[link] = true
				links = append(links, link)
			}
		}
	}
	return links, total, nil
}
