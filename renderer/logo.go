package renderer

import (
	"bytes"

	"github.com/disintegration/imaging"
)

const (
	logoMaxWidth  = 400
	logoMaxHeight = 160
)

// prepareLogo loads the image at path, shrinks it to fit the header box and
// re-encodes it as PNG so both renderers accept any source format.
func prepareLogo(path string) ([]byte, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	if bounds.Dx() > logoMaxWidth || bounds.Dy() > logoMaxHeight {
		img = imaging.Fit(img, logoMaxWidth, logoMaxHeight, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
