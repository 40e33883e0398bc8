package render

import (
	"context"
	"fmt"

	"grabdoc/internal/report"
)

// ScrollOptions configures ScrollToEnd.
type ScrollOptions struct {
	Container string // CSS selector of the scrollable element
	Label     string // progress label
	Timing    Timing
}

type scrollMetrics struct {
	Top    float64 `json:"top"`
	Client float64 `json:"client"`
	Height float64 `json:"height"`
}

func (m scrollMetrics) done() bool {
	return m.Top+m.Client >= m.Height
}

// progress scales the visible bottom edge onto total, so a container that
// grows while scrolling never reports past the bar's end.
func (m scrollMetrics) progress(total int) int {
	if m.Height <= 0 {
		return total
	}
	return int(float64(total) * min(m.Top+m.Client, m.Height) / m.Height)
}

const measureJS = `(sel) => {
	const el = document.querySelector(sel);
	if (!el) return null;
	return {top: el.scrollTop, client: el.clientHeight, height: el.scrollHeight};
}`

// ScrollToEnd pages down through the container until its content is fully
// materialized. Progress is reported against the container's initial scroll
// height and never exceeds it; the final update is always that height.
func ScrollToEnd(ctx context.Context, s Session, opts ScrollOptions, r report.Reporter) error {
	label := opts.Label
	if label == "" {
		label = "Load pages"
	}

	m, err := measure(s, opts.Container)
	if err != nil {
		return err
	}
	if err := s.Click(opts.Container); err != nil {
		return fmt.Errorf("failed to focus %s: %w", opts.Container, err)
	}

	total := int(m.Height)
	tr := r.Progress(label, total)
	defer tr.Stop()

	stalled := 0
	for steps := 0; !m.done(); steps++ {
		if opts.Timing.MaxSteps > 0 && steps >= opts.Timing.MaxSteps {
			return fmt.Errorf("%w: %d steps without reaching the end", ErrScrollStalled, steps)
		}
		if err := s.PageDown(); err != nil {
			return fmt.Errorf("failed to scroll: %w", err)
		}
		if err := Pause(ctx, opts.Timing.Settle); err != nil {
			return err
		}

		prev := m.Top
		if m, err = measure(s, opts.Container); err != nil {
			return err
		}
		if m.Top <= prev {
			stalled++
			if opts.Timing.StallLimit > 0 && stalled >= opts.Timing.StallLimit {
				return fmt.Errorf("%w: offset stuck at %.0f of %.0f", ErrScrollStalled, m.Top, m.Height)
			}
		} else {
			stalled = 0
		}
		tr.Update(m.progress(total))
	}
	tr.Update(total)
	return nil
}

func measure(s Session, container string) (scrollMetrics, error) {
	res, err := s.Eval(measureJS, container)
	if err != nil {
		return scrollMetrics{}, fmt.Errorf("failed to measure %s: %w", container, err)
	}
	var m *scrollMetrics
	if err := Decode(res, &m); err != nil {
		return scrollMetrics{}, fmt.Errorf("failed to parse scroll metrics: %w", err)
	}
	if m == nil {
		return scrollMetrics{}, fmt.Errorf("%w: %s", ErrContainerNotFound, container)
	}
	return *m, nil
}
