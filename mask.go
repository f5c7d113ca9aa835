package cvatconv

// Color coded segmentation mask specific functionality.

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
)

// MaskDecoder decodes segmentation masks in which every pixel of an object is painted in the
// color of its class. The masks are expected in <input>/masks and the images under the same file
// name in <input>/images.
type MaskDecoder struct {
	Classes ClassMap
}

// CheckConsistency pairs the masks with the images of the same name.
func (d MaskDecoder) CheckConsistency(inputDir string, log logrus.FieldLogger) ([]FilePair, error) {
	return checkMaskPairs(inputDir, log)
}

// Decode traces the regions of every class color in the mask and returns one polygon per
// contour. The contour coordinates are used as is, in mask pixels.
func (d MaskDecoder) Decode(pair FilePair, frame, width, height int, log logrus.FieldLogger) (
	[]Shape, error) {

	mask, err := loadNRGBA(pair.LabelPath)
	if err != nil {
		return nil, err
	}
	if w, h := imageSize(mask); w != width || h != height {
		log.WithFields(logrus.Fields{"mask": pair.LabelPath, "mask_size": fmt.Sprintf("%dx%d", w, h),
			"image_size": fmt.Sprintf("%dx%d", width, height)}).
			Warn("Mask and image sizes differ")
	}

	var shapes []Shape
	for _, class := range d.Classes {
		bin, count := colorMask(mask, class.Color)
		if count == 0 {
			continue
		}

		contours, err := traceContours(bin)
		if err != nil {
			return nil, fmt.Errorf("failed to trace class %q in %q: %w", class.Name, pair.LabelPath, err)
		}

		for _, c := range contours {
			poly, err := NewPolygon(frame, class.Name, flattenPoints(c))
			if err != nil {
				// Single pixels and one pixel wide lines collapse to fewer than 3 vertices.
				log.WithFields(logrus.Fields{"mask": pair.LabelPath, "class": class.Name}).
					Debugf("Skipping degenerate contour: %v", err)
				continue
			}
			shapes = append(shapes, poly)
		}
	}

	return shapes, nil
}

// colorMask returns a binary mask that is 255 where img has exactly the color rgb and 0
// elsewhere, along with the number of matching pixels. The alpha channel is ignored.
func colorMask(img *image.NRGBA, rgb [3]uint8) (*image.Gray, int) {
	b := img.Bounds()
	bin := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	count := 0
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+4*b.Dx()]
		for x := 0; x < b.Dx(); x++ {
			p := row[4*x : 4*x+3]
			if p[0] == rgb[0] && p[1] == rgb[1] && p[2] == rgb[2] {
				bin.Pix[y*bin.Stride+x] = 255
				count++
			}
		}
	}

	return bin, count
}

// flattenPoints returns the points as a flat x, y list.
func flattenPoints(pts []image.Point) []int {
	flat := make([]int, 0, 2*len(pts))
	for _, p := range pts {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}
