// Package output decides where artifacts and their temporary per-page files
// live on disk.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kennygrant/sanitize"

	"grabdoc/internal/report"
)

// Strategy picks what final file names are derived from.
type Strategy string

const (
	ByTitle Strategy = "title"
	ByID    Strategy = "id"
)

// Layout is the output directory plus the naming strategy.
type Layout struct {
	Dir      string
	Strategy Strategy
}

// Name returns the sanitized base name for an artifact. An empty result
// after sanitizing falls back to the identifier.
func (l Layout) Name(title, id string) string {
	name := id
	if l.Strategy != ByID && strings.TrimSpace(title) != "" {
		name = title
	}
	if s := Sanitize(name); s != "" {
		return s
	}
	return Sanitize(id)
}

// Path joins name and ext under the output directory.
func (l Layout) Path(name, ext string) string {
	return filepath.Join(l.Dir, name+ext)
}

// WorkDir returns a scratch directory for per-page files of one job.
func (l Layout) WorkDir(id string) string {
	return filepath.Join(l.Dir, ".work", Sanitize(id))
}

// Sanitize makes s safe to use as a single file name.
func Sanitize(s string) string {
	s = sanitize.BaseName(strings.TrimSpace(s))
	s = strings.Trim(s, ".-")
	if len(s) > 150 {
		s = strings.TrimRight(s[:150], ".-")
	}
	return s
}

// Remove deletes dir and everything below it. Failures are reported as
// warnings; cleanup never fails a job.
func Remove(dir string, r report.Reporter) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		r.Error(fmt.Sprintf("failed to clean up %s: %v", dir, err))
	}
}
