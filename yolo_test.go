package cvatconv

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func decodeBoxLabel(t *testing.T, content string, width, height int) ([]Shape, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a.txt")
	writeFile(t, path, content)
	log, _ := newTestLogger()
	return YOLOBoxDecoder{Classes: testClasses}.Decode(FilePair{LabelPath: path}, 7, width, height, log)
}

func TestYOLOBoxDecode(t *testing.T) {
	tests := []struct {
		name          string
		line          string
		width, height int
		want          []int
	}{
		{"centred", "0 0.5 0.5 0.2 0.2", 100, 100, []int{40, 40, 60, 60}},
		{"odd size loses a pixel", "0 0.5 0.5 0.25 0.25", 100, 100, []int{38, 38, 62, 62}},
		{"non-square image", "1 0.25 0.5 0.25 0.1", 200, 100, []int{25, 45, 75, 55}},
		{"integral float class id", "1.0 0.5 0.5 0.2 0.2", 100, 100, []int{40, 40, 60, 60}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shapes, err := decodeBoxLabel(t, tt.line+"\n", tt.width, tt.height)
			if err != nil {
				t.Fatal(err)
			}
			if len(shapes) != 1 {
				t.Fatalf("got %d shapes, want 1", len(shapes))
			}
			s := shapes[0]
			if s.Type != Rectangle || s.Frame != 7 {
				t.Errorf("got type %q frame %d, want rectangle frame 7", s.Type, s.Frame)
			}
			if !reflect.DeepEqual(s.Points, tt.want) {
				t.Errorf("got points %v, want %v", s.Points, tt.want)
			}
		})
	}
}

func TestYOLOBoxDecodeLabels(t *testing.T) {
	shapes, err := decodeBoxLabel(t, "0 0.5 0.5 0.2 0.2\n\n1 0.5 0.5 0.2 0.2\n", 100, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(shapes) != 2 || shapes[0].Label != "car" || shapes[1].Label != "person" {
		t.Errorf("unexpected shapes %+v", shapes)
	}
}

func TestYOLOBoxDecodeUnknownClass(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	writeFile(t, path, "9 0.5 0.5 0.2 0.2\n0 0.5 0.5 0.2 0.2\n")
	log, hook := newTestLogger()

	shapes, err := YOLOBoxDecoder{Classes: testClasses}.Decode(FilePair{LabelPath: path}, 0, 100, 100, log)
	if err != nil {
		t.Fatal(err)
	}
	if len(shapes) != 1 {
		t.Errorf("got %d shapes, want 1", len(shapes))
	}
	if len(warnings(hook)) != 1 || warnings(hook)[0].Data["class"] != 9 {
		t.Errorf("expected one warning for class 9, got %v", warnings(hook))
	}
}

func TestYOLOBoxDecodeMalformed(t *testing.T) {
	for _, line := range []string{
		"0 0.5 0.5 0.2",
		"0 0.5 0.5 0.2 0.2 0.1",
		"0 0.5 abc 0.2 0.2",
		"0.5 0.5 0.5 0.2 0.2",
		"-1 0.5 0.5 0.2 0.2",
		"0 NaN 0.5 0.2 0.2",
		"0",
	} {
		if _, err := decodeBoxLabel(t, line, 100, 100); !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("%q: got %v, want ErrMalformedRecord", line, err)
		}
	}
}

func TestYOLOSegmDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	writeFile(t, path, "1 0.1 0.2 0.5 0.5 0.9 0.1\n")
	log, _ := newTestLogger()

	shapes, err := YOLOSegmDecoder{Classes: testClasses}.Decode(FilePair{LabelPath: path}, 2, 200, 100, log)
	if err != nil {
		t.Fatal(err)
	}
	if len(shapes) != 1 {
		t.Fatalf("got %d shapes, want 1", len(shapes))
	}

	// Even positions scale by the height (100), odd positions by the width (200).
	want := []int{10, 40, 50, 100, 90, 20}
	s := shapes[0]
	if s.Type != Polygon || s.Label != "person" || s.Frame != 2 {
		t.Errorf("unexpected shape %+v", s)
	}
	if !reflect.DeepEqual(s.Points, want) {
		t.Errorf("got points %v, want %v", s.Points, want)
	}
}

func TestYOLOSegmDecodeMalformed(t *testing.T) {
	log, _ := newTestLogger()
	for _, line := range []string{
		"0 0.1 0.2 0.3 0.4",         // Two vertices.
		"0 0.1 0.2 0.3 0.4 0.5",     // Odd number of coordinates.
		"0 0.1 0.2 0.3 0.4 0.5 0.x", // Not a number.
	} {
		path := filepath.Join(t.TempDir(), "a.txt")
		writeFile(t, path, line)
		_, err := YOLOSegmDecoder{Classes: testClasses}.Decode(FilePair{LabelPath: path}, 0, 10, 10, log)
		if !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("%q: got %v, want ErrMalformedRecord", line, err)
		}
	}
}

func TestFloorDiv(t *testing.T) {
	tests := []struct{ a, b, want int }{
		{5, 2, 2}, {4, 2, 2}, {0, 2, 0}, {-5, 2, -3}, {-4, 2, -2}, {-1, 2, -1},
	}
	for _, tt := range tests {
		if got := floorDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("floorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
