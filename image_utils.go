package cvatconv

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrUndecodableImage is returned when an image or mask file cannot be read or decoded. Pairs
// failing with this error are skipped.
var ErrUndecodableImage = errors.New("undecodable image")

// loadImage reads and fully decodes the image at path. A decoding failure, including a truncated
// file with a valid header, is reported as ErrUndecodableImage.
func loadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUndecodableImage, path, err)
	}
	return img, nil
}

// imageSize returns the width and height of img.
func imageSize(img image.Image) (width, height int) {
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

// loadNRGBA loads the image at path and converts it to NRGBA, so pixel colors can be compared
// directly on the Pix slice.
func loadNRGBA(path string) (*image.NRGBA, error) {
	img, err := loadImage(path)
	if err != nil {
		return nil, err
	}
	return imaging.Clone(img), nil
}
