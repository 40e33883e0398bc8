package capture

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	_ "golang.org/x/image/webp"
)

// TranscodePNG decodes any supported image (PNG, JPEG, GIF, WebP) and
// re-encodes it as 8-bit NRGBA PNG.
func TranscodePNG(r io.Reader, w io.Writer) (Size, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return Size{}, fmt.Errorf("failed to decode image: %w", err)
	}
	b := src.Bounds()
	dst, ok := src.(*image.NRGBA)
	if !ok {
		dst = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	}
	if err := png.Encode(w, dst); err != nil {
		return Size{}, fmt.Errorf("failed to encode png: %w", err)
	}
	return Size{Width: b.Dx(), Height: b.Dy()}, nil
}

// ReadSize returns the pixel dimensions of an image file.
func ReadSize(path string) (Size, error) {
	f, err := os.Open(path)
	if err != nil {
		return Size{}, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Size{}, fmt.Errorf("failed to read size of %s: %w", path, err)
	}
	return Size{Width: cfg.Width, Height: cfg.Height}, nil
}
