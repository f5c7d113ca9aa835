package cvatconv

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var testClasses = ClassMap{
	{ID: 0, Name: "car", Color: [3]uint8{255, 0, 0}, Type: "rectangle"},
	{ID: 1, Name: "person", Color: [3]uint8{0, 255, 0}, Type: "polygon"},
	{ID: 2, Name: "ring", Color: [3]uint8{0, 0, 255}, Type: "polygon"},
}

// newTestLogger returns a logger that discards output and a hook recording all entries.
func newTestLogger() (*logrus.Logger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

// warnings returns the warning messages recorded by hook.
func warnings(hook *test.Hook) []*logrus.Entry {
	var out []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, e)
		}
	}
	return out
}

// hasWarning reports whether a warning with a message containing msg and the field key=value
// was recorded.
func hasWarning(hook *test.Hook, msg, key, value string) bool {
	for _, e := range warnings(hook) {
		if strings.Contains(e.Message, msg) && e.Data[key] == value {
			return true
		}
	}
	return false
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// writePNG writes a width x height PNG to path with pixel colors from fill, or black if fill is
// nil.
func writePNG(t *testing.T, path string, width, height int, fill func(x, y int) color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.Color(color.Black)
			if fill != nil {
				c = fill(x, y)
			}
			img.Set(x, y, c)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// inRect returns a fill function painting rectangle r in color c on black.
func inRect(r image.Rectangle, c color.Color) func(x, y int) color.Color {
	return func(x, y int) color.Color {
		if (image.Point{X: x, Y: y}).In(r) {
			return c
		}
		return color.Black
	}
}

// readArchive returns the member names of the zip archive at path in archive order and their
// contents.
func readArchive(t *testing.T, path string) ([]string, map[string][]byte) {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	var names []string
	contents := make(map[string][]byte, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, f.Name)
		contents[f.Name] = data
	}
	return names, contents
}

// polygonArea returns the area enclosed by the flattened x, y vertex list.
func polygonArea(points []int) float64 {
	n := len(points) / 2
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += float64(points[2*i]*points[2*j+1] - points[2*j]*points[2*i+1])
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}
