package assemble

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"grabdoc/internal/capture"
)

// Generate writes one page per image, each page exactly the image's stored
// pixel size (1px = 1pt) with the image filling it.
func Generate(pages []capture.Page, title, out string) error {
	if len(pages) == 0 {
		return fmt.Errorf("%w: no images provided", ErrNoContent)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	first := pages[0]
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: float64(first.Width), Ht: float64(first.Height)},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("grabdoc", true)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	for _, p := range pages {
		w, h := float64(p.Width), float64(p.Height)
		pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
		pdf.ImageOptions(p.Path, 0, 0, w, h, false, opts, 0, "")
		if pdf.Err() {
			return fmt.Errorf("failed to add image %s: %w", p.Path, pdf.Error())
		}
	}

	tmp := tempPath(out)
	if err := pdf.OutputFileAndClose(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to save PDF to %s: %w", out, err)
	}
	return commit(tmp, out)
}
