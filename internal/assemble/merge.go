package assemble

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Merge concatenates the pages of inputs, in order, into out.
func Merge(inputs []string, out string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("%w: no PDFs to merge", ErrNoContent)
	}
	for _, in := range inputs {
		if _, err := api.ReadContextFile(in); err != nil {
			return &MergeReadError{Path: in, Err: err}
		}
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp := tempPath(out)
	if err := api.MergeCreateFile(inputs, tmp, false, nil); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to merge into %s: %w", out, err)
	}
	return commit(tmp, out)
}
