package convert

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// Thumbnail writes a JPEG thumbnail of src to dst, constrained to maxDim on
// the longer side. Images already within the bound are re-encoded without
// resizing; thumbnails never enlarge.
func (c *Converter) Thumbnail(src, dst string, maxDim int) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open %s for thumbnail: %w", src, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	}

	if err := imaging.Save(img, dst, imaging.JPEGQuality(85)); err != nil {
		return fmt.Errorf("save thumbnail %s: %w", dst, err)
	}
	return nil
}
