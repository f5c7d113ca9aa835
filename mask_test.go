package cvatconv

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
)

func decodeMask(t *testing.T, width, height int, fill func(x, y int) color.Color) ([]Shape, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "masks", "a.png")
	writePNG(t, path, width, height, fill)
	log, _ := newTestLogger()
	return MaskDecoder{Classes: testClasses}.Decode(FilePair{LabelPath: path}, 3, width, height, log)
}

func TestColorMask(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.Set(0, 0, red)
	img.Set(3, 2, red)
	img.Set(1, 1, color.NRGBA{R: 255, A: 128}) // Alpha is ignored.
	img.Set(2, 1, color.NRGBA{R: 254, A: 255})

	bin, count := colorMask(img, [3]uint8{255, 0, 0})
	if count != 3 {
		t.Errorf("got %d matching pixels, want 3", count)
	}
	for _, p := range []image.Point{{0, 0}, {3, 2}, {1, 1}} {
		if bin.GrayAt(p.X, p.Y).Y != 255 {
			t.Errorf("pixel %v not set", p)
		}
	}
	if bin.GrayAt(2, 1).Y != 0 {
		t.Error("near match must not be set")
	}
}

func TestMaskDecodeSquare(t *testing.T) {
	shapes, err := decodeMask(t, 40, 40, inRect(image.Rect(5, 5, 15, 15), red))
	if err != nil {
		t.Fatal(err)
	}
	if len(shapes) != 1 {
		t.Fatalf("got %d shapes, want 1", len(shapes))
	}

	s := shapes[0]
	if s.Type != Polygon || s.Label != "car" || s.Frame != 3 {
		t.Errorf("unexpected shape %+v", s)
	}
	// The contour runs along the outermost pixel centres of the 10x10 square.
	if area := polygonArea(s.Points); area < 81 || area > 100 {
		t.Errorf("polygon area %.1f not in [81, 100]", area)
	}
	for i, v := range s.Points {
		if v < 5 || v > 14 {
			t.Errorf("coordinate %d = %d outside the square", i, v)
		}
	}
}

func TestMaskDecodeClasses(t *testing.T) {
	fill := func(x, y int) color.Color {
		switch {
		case (image.Point{X: x, Y: y}).In(image.Rect(2, 2, 10, 10)):
			return red
		case (image.Point{X: x, Y: y}).In(image.Rect(20, 20, 30, 35)):
			return green
		}
		return color.White
	}

	shapes, err := decodeMask(t, 40, 40, fill)
	if err != nil {
		t.Fatal(err)
	}
	if len(shapes) != 2 || shapes[0].Label != "car" || shapes[1].Label != "person" {
		t.Errorf("unexpected shapes %+v", shapes)
	}
}

func TestMaskDecodeHole(t *testing.T) {
	ring := func(x, y int) color.Color {
		p := image.Point{X: x, Y: y}
		if p.In(image.Rect(5, 5, 35, 35)) && !p.In(image.Rect(15, 15, 25, 25)) {
			return blue
		}
		return color.Black
	}

	shapes, err := decodeMask(t, 40, 40, ring)
	if err != nil {
		t.Fatal(err)
	}
	if len(shapes) != 2 {
		t.Fatalf("got %d shapes, want the outer and the hole boundary", len(shapes))
	}
	for _, s := range shapes {
		if s.Label != "ring" {
			t.Errorf("got label %q, want ring", s.Label)
		}
	}
}

func TestMaskDecodeSkipsDegenerate(t *testing.T) {
	shapes, err := decodeMask(t, 20, 20, inRect(image.Rect(7, 7, 8, 8), red))
	if err != nil {
		t.Fatal(err)
	}
	if len(shapes) != 0 {
		t.Errorf("got %d shapes for a single pixel, want 0", len(shapes))
	}
}

func TestMaskDecodeSizeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	writePNG(t, path, 20, 20, nil)
	log, hook := newTestLogger()

	if _, err := (MaskDecoder{Classes: testClasses}).Decode(FilePair{LabelPath: path}, 0, 30, 20, log); err != nil {
		t.Fatal(err)
	}
	if !hasWarning(hook, "sizes differ", "mask_size", "20x20") {
		t.Error("missing size mismatch warning")
	}
}

func TestMaskDecodeUndecodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	writeFile(t, path, "not a png")
	log, _ := newTestLogger()

	_, err := MaskDecoder{Classes: testClasses}.Decode(FilePair{LabelPath: path}, 0, 10, 10, log)
	if !errors.Is(err, ErrUndecodableImage) {
		t.Errorf("got %v, want ErrUndecodableImage", err)
	}
}
