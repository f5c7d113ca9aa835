package cvatconv

// Image manifest and manifest index.

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// manifestVersion is the manifest format version written to the first preamble line.
const manifestVersion = "1.1"

// jsonAPI serialises all archive documents.
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// ManifestMeta holds the per image metadata of a manifest entry.
type ManifestMeta struct {
	RelatedImages []string `json:"related_images"`
}

// ManifestEntry describes a single image of the task.
type ManifestEntry struct {
	Name      string       `json:"name"`      // File name without extension.
	Extension string       `json:"extension"` // With the dot, e.g. ".png".
	Width     int          `json:"width"`
	Height    int          `json:"height"`
	Meta      ManifestMeta `json:"meta"`
}

// NewManifestEntry returns the entry for the image at path with the given pixel dimensions.
func NewManifestEntry(path string, width, height int) (ManifestEntry, error) {
	_, name, ext, err := splitPath(filepath.Base(path))
	if err != nil {
		return ManifestEntry{}, err
	}

	return ManifestEntry{
		Name:      name,
		Extension: ext,
		Width:     width,
		Height:    height,
		Meta:      ManifestMeta{RelatedImages: []string{}},
	}, nil
}

// Index maps the position of each manifest entry to the byte offset of its line in the
// manifest. It is serialised as a JSON object with the stringified positions as keys, in
// ascending order.
type Index []int64

// MarshalJSON implements json.Marshaler.
func (idx Index) MarshalJSON() ([]byte, error) {
	stream := jsonAPI.BorrowStream(nil)
	defer jsonAPI.ReturnStream(stream)

	stream.WriteObjectStart()
	for i, offset := range idx {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(strconv.Itoa(i))
		stream.WriteInt64(offset)
	}
	stream.WriteObjectEnd()
	if stream.Error != nil {
		return nil, stream.Error
	}

	return append([]byte(nil), stream.Buffer()...), nil
}

// marshalLine serialises v compactly and appends a newline.
func marshalLine(v interface{}) ([]byte, error) {
	enc, err := jsonAPI.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(enc, '\n'), nil
}

// manifestWriter writes manifest lines and records the byte offset at which each entry starts.
// The offsets are measured on the serialised lines, never estimated.
type manifestWriter struct {
	w      io.Writer
	offset int64
	index  Index
}

// newManifestWriter writes the manifest preamble to w.
func newManifestWriter(w io.Writer) (*manifestWriter, error) {
	m := &manifestWriter{w: w}

	preamble := []interface{}{
		struct {
			Version string `json:"version"`
		}{manifestVersion},
		struct {
			Type string `json:"type"`
		}{"images"},
	}
	for _, v := range preamble {
		if err := m.writeLine(v); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Add writes the line for e and records its offset.
func (m *manifestWriter) Add(e ManifestEntry) error {
	start := m.offset
	if err := m.writeLine(e); err != nil {
		return err
	}
	m.index = append(m.index, start)
	return nil
}

func (m *manifestWriter) writeLine(v interface{}) error {
	line, err := marshalLine(v)
	if err != nil {
		return fmt.Errorf("failed to serialise manifest line: %w", err)
	}
	n, err := m.w.Write(line)
	m.offset += int64(n)
	return err
}

// BuildManifest serialises the entries, in order, as a line delimited manifest and returns it
// along with its index.
func BuildManifest(entries []ManifestEntry) ([]byte, Index, error) {
	var buf bytes.Buffer
	m, err := newManifestWriter(&buf)
	if err != nil {
		return nil, nil, err
	}

	m.index = make(Index, 0, len(entries))
	for _, e := range entries {
		if err := m.Add(e); err != nil {
			return nil, nil, err
		}
	}

	return buf.Bytes(), m.index, nil
}
