package cvatconv

// YOLO bounding box and segmentation text format specific functionality.

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrMalformedRecord is returned for a label record that does not conform to its format. It
// aborts the conversion.
var ErrMalformedRecord = errors.New("malformed label record")

// yoloRecord is a single parsed line of a YOLO label file.
type yoloRecord struct {
	Class  int
	Values []float64 // Normalised values following the class id.
}

// parseYOLORecord parses the space separated values of a single YOLO record.
func parseYOLORecord(line string) (yoloRecord, error) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return yoloRecord{}, fmt.Errorf("insufficient tokens in %q", line)
	}

	// Class ids may be written as floats, e.g. "0.0", but must be integral.
	cls, err := strconv.ParseFloat(tokens[0], 64)
	if err != nil || cls < 0 || cls != math.Trunc(cls) || cls > math.MaxInt32 {
		return yoloRecord{}, fmt.Errorf("invalid class id %q", tokens[0])
	}

	rec := yoloRecord{Class: int(cls), Values: make([]float64, len(tokens)-1)}
	for i, t := range tokens[1:] {
		v, err := strconv.ParseFloat(t, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return yoloRecord{}, fmt.Errorf("unexpected value %q in %q", t, line)
		}
		rec.Values[i] = v
	}

	return rec, nil
}

// yoloRecordFn converts one record of a label file to a shape.
type yoloRecordFn func(rec yoloRecord, class Class, frame, width, height int) (Shape, error)

// decodeYOLOFile parses the label file at path and converts every record with toShape. Blank
// lines are ignored. Records with a class id that is not in classes are skipped with a warning.
func decodeYOLOFile(path string, classes ClassMap, frame, width, height int,
	log logrus.FieldLogger, toShape yoloRecordFn) ([]Shape, error) {

	lines, err := readLines(path)
	if err != nil {
		return nil, err
	}

	shapes := make([]Shape, 0, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		rec, err := parseYOLORecord(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %v", ErrMalformedRecord, path, i+1, err)
		}

		class, ok := classes.ByID(rec.Class)
		if !ok {
			log.WithFields(logrus.Fields{"label": path, "line": i + 1, "class": rec.Class}).
				Warn("Unknown class id, skipping record")
			continue
		}

		s, err := toShape(rec, class, frame, width, height)
		if err != nil {
			return nil, fmt.Errorf("%w: %s:%d: %v", ErrMalformedRecord, path, i+1, err)
		}
		shapes = append(shapes, s)
	}

	return shapes, nil
}

// floorDiv divides rounding towards negative infinity.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// YOLOBoxDecoder decodes YOLO bounding box label files with records of the form
// "class x_center y_center width height", all normalised to [0, 1].
type YOLOBoxDecoder struct {
	Classes ClassMap
}

// CheckConsistency pairs the label files in inputDir with their images.
func (d YOLOBoxDecoder) CheckConsistency(inputDir string, log logrus.FieldLogger) (
	[]FilePair, error) {

	return checkTextLabelPairs(inputDir, log)
}

// Decode returns one rectangle per record of the label file.
func (d YOLOBoxDecoder) Decode(pair FilePair, frame, width, height int, log logrus.FieldLogger) (
	[]Shape, error) {

	return decodeYOLOFile(pair.LabelPath, d.Classes, frame, width, height, log, yoloBoxToShape)
}

// yoloBoxToShape converts a normalised centre/size box to pixel corners.
//
// The centre and size are truncated to integer pixels first, then the half size is subtracted
// and added using floor division. Odd sizes thus lose one pixel on the bottom-right side.
func yoloBoxToShape(rec yoloRecord, class Class, frame, width, height int) (Shape, error) {
	if len(rec.Values) != 4 {
		return Shape{}, fmt.Errorf("expected 4 box values, got %d", len(rec.Values))
	}

	xc := int(rec.Values[0] * float64(width))
	yc := int(rec.Values[1] * float64(height))
	w := int(rec.Values[2] * float64(width))
	h := int(rec.Values[3] * float64(height))

	return NewRectangle(frame, class.Name,
		xc-floorDiv(w, 2), yc-floorDiv(h, 2), xc+floorDiv(w, 2), yc+floorDiv(h, 2)), nil
}

// YOLOSegmDecoder decodes YOLO segmentation label files with records of the form
// "class x1 y1 x2 y2 ...", all normalised to [0, 1].
type YOLOSegmDecoder struct {
	Classes ClassMap
}

// CheckConsistency pairs the label files in inputDir with their images.
func (d YOLOSegmDecoder) CheckConsistency(inputDir string, log logrus.FieldLogger) (
	[]FilePair, error) {

	return checkTextLabelPairs(inputDir, log)
}

// Decode returns one polygon per record of the label file.
func (d YOLOSegmDecoder) Decode(pair FilePair, frame, width, height int, log logrus.FieldLogger) (
	[]Shape, error) {

	return decodeYOLOFile(pair.LabelPath, d.Classes, frame, width, height, log, yoloSegmToShape)
}

// yoloSegmToShape denormalises the vertex list of a segmentation record.
//
// Values at even positions of the list are scaled by the image height and values at odd
// positions by the image width, regardless of which axis the value belongs to.
func yoloSegmToShape(rec yoloRecord, class Class, frame, width, height int) (Shape, error) {
	points := make([]int, len(rec.Values))
	for i, v := range rec.Values {
		if i%2 == 0 {
			points[i] = int(v * float64(height))
		} else {
			points[i] = int(v * float64(width))
		}
	}

	return NewPolygon(frame, class.Name, points)
}
