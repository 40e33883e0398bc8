// Package assemble combines per-page artifacts into a single PDF. Both
// entry points write a brand new file through a temporary path, so a failure
// never leaves partial output behind, and neither touches its inputs.
package assemble

import (
	"errors"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

func init() {
	// pdfcpu otherwise writes a config tree into the user's config dir.
	api.DisableConfigDir()
}

// ErrNoContent means there was nothing to assemble.
var ErrNoContent = errors.New("no content to assemble")

// MergeReadError names the input PDF that could not be parsed.
type MergeReadError struct {
	Path string
	Err  error
}

func (e *MergeReadError) Error() string {
	return fmt.Sprintf("failed to read PDF %s: %v", e.Path, e.Err)
}

func (e *MergeReadError) Unwrap() error { return e.Err }

// commit moves a finished temporary file into place.
func commit(tmp, out string) error {
	if err := os.Rename(tmp, out); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", out, err)
	}
	return nil
}

func tempPath(out string) string {
	return out + ".part"
}
