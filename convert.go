package cvatconv

// The conversion pipeline shared by all source formats.

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrUnknownFormat is returned for an unsupported source format.
var ErrUnknownFormat = errors.New("unknown format")

// Format names a source annotation format.
type Format string

// The supported source formats.
const (
	YOLOBox  Format = "yolo-bbox" // YOLO bounding box text files next to the images.
	YOLOSegm Format = "yolo-segm" // YOLO segmentation text files next to the images.
	Mask     Format = "mask"      // Color coded masks in masks/, images in images/.
)

// Formats lists the supported source formats.
var Formats = []Format{YOLOBox, YOLOSegm, Mask}

// Decoder implements the format specific steps of a conversion.
type Decoder interface {
	// CheckConsistency pairs label artifacts with images in inputDir. Unpaired files are
	// reported to log and left out.
	CheckConsistency(inputDir string, log logrus.FieldLogger) ([]FilePair, error)
	// Decode returns the shapes of the label artifact of pair for the given frame, with the image
	// being width x height pixels. An error wrapping ErrUndecodableImage skips the pair; any
	// other error aborts the run.
	Decode(pair FilePair, frame, width, height int, log logrus.FieldLogger) ([]Shape, error)
}

// NewDecoder returns the decoder for format f.
func NewDecoder(f Format, classes ClassMap) (Decoder, error) {
	switch f {
	case YOLOBox:
		return YOLOBoxDecoder{Classes: classes}, nil
	case YOLOSegm:
		return YOLOSegmDecoder{Classes: classes}, nil
	case Mask:
		return MaskDecoder{Classes: classes}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Result summarises a completed conversion.
type Result struct {
	Archive string // The archive path.
	Images  int    // The number of images (frames) in the archive.
	Shapes  int    // The number of shapes in the archive.
	Skipped int    // The number of pairs skipped because an image or mask could not be decoded.
}

// Convert validates cfg and converts the dataset in cfg.InputDir with the decoder for cfg.Format.
func Convert(cfg Config, log logrus.FieldLogger) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	dec, err := NewDecoder(cfg.Format, cfg.Classes)
	if err != nil {
		return Result{}, err
	}

	return Run(cfg, dec, log.WithField("format", cfg.Format))
}

// Run converts the dataset in cfg.InputDir to a backup archive at cfg.Output.
//
// The pairs found by dec are sorted by image file name. Frames are numbered in that order,
// counting only pairs whose image and labels could be decoded, so the frame of a shape is the
// position of its image in the manifest.
func Run(cfg Config, dec Decoder, log logrus.FieldLogger) (Result, error) {
	log = log.WithFields(logrus.Fields{"run_id": uuid.NewString(), "input": cfg.InputDir})

	pairs, err := dec.CheckConsistency(cfg.InputDir, log)
	if err != nil {
		return Result{}, fmt.Errorf("failed to check the dataset: %w", err)
	}
	sortPairs(pairs)
	log.Infof("Converting %d labelled images", len(pairs))

	annotations := NewAnnotationSet()
	entries := make([]ManifestEntry, 0, len(pairs))
	images := make([]string, 0, len(pairs))
	skipped := 0

	for _, pair := range pairs {
		pairLog := log.WithFields(logrus.Fields{"image": pair.ImagePath, "label": pair.LabelPath})

		img, err := loadImage(pair.ImagePath)
		if err != nil {
			pairLog.Warnf("Skipping pair: %v", err)
			skipped++
			continue
		}
		width, height := imageSize(img)

		entry, err := NewManifestEntry(pair.ImagePath, width, height)
		if err != nil {
			pairLog.Warnf("Skipping pair: %v", err)
			skipped++
			continue
		}

		frame := len(entries)
		shapes, err := dec.Decode(pair, frame, width, height, pairLog)
		if errors.Is(err, ErrUndecodableImage) {
			pairLog.Warnf("Skipping pair: %v", err)
			skipped++
			continue
		} else if err != nil {
			return Result{}, err
		}
		pairLog.WithField("frame", frame).Debugf("Decoded %d shapes", len(shapes))

		annotations.Add(shapes...)
		entries = append(entries, entry)
		images = append(images, pair.ImagePath)
	}

	if last := annotations.MaxFrame(); last >= len(entries) {
		return Result{}, fmt.Errorf("shape frame %d has no image, the last frame is %d",
			last, len(entries)-1)
	}

	manifest, index, err := BuildManifest(entries)
	if err != nil {
		return Result{}, err
	}

	backup := Backup{
		Task:        NewTaskDescriptor(cfg.TaskName, cfg.ImageQuality, len(entries), cfg.Classes),
		Annotations: annotations,
		Manifest:    manifest,
		Index:       index,
		Images:      images,
	}
	if err := WriteBackup(cfg.Output, cfg.StagingDir, backup, log); err != nil {
		return Result{}, fmt.Errorf("failed to write the backup: %w", err)
	}

	res := Result{
		Archive: cfg.Output,
		Images:  len(entries),
		Shapes:  len(annotations.Shapes),
		Skipped: skipped,
	}
	log.WithFields(logrus.Fields{"images": res.Images, "shapes": res.Shapes, "skipped": res.Skipped}).
		Infof("Wrote backup to %s", res.Archive)

	return res, nil
}
