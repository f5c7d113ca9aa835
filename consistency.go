package cvatconv

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// The mask format sub-directories.
const (
	maskDirName  = "masks"
	imageDirName = "images"
)

// labelTextExt is the label file extension of the YOLO text formats.
const labelTextExt = ".txt"

// imageExts are the supported image extensions in order of preference when a label file matches
// more than one image.
var imageExts = []string{".png", ".jpg", ".jpeg"}

// FilePair associates one label artifact (text file or mask image) with one image.
type FilePair struct {
	LabelPath string
	ImagePath string
}

// ImageName is the file name of the paired image.
func (p FilePair) ImageName() string {
	return filepath.Base(p.ImagePath)
}

// sortPairs sorts pairs by image file name, which fixes the frame order of a run.
func sortPairs(pairs []FilePair) {
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].ImageName() < pairs[j].ImageName()
	})
}

// checkTextLabelPairs pairs the label files in dir with the images in dir of the same base name.
//
// If several images match a label, the first in imageExts order wins. A label whose image has
// already been claimed by another label is skipped. Labels without an image and images without a
// label are reported as warnings. The pairs are returned in directory listing order.
func checkTextLabelPairs(dir string, log logrus.FieldLogger) ([]FilePair, error) {
	labelFiles, err := filesByExtInDir(dir, labelTextExt)
	if err != nil {
		return nil, err
	}
	imageFiles, err := filesByExtInDir(dir, imageExts...)
	if err != nil {
		return nil, err
	}

	// Map base names to the images with that base name, keyed by lower-case extension.
	images := make(map[string]map[string]string, len(imageFiles))
	for _, name := range imageFiles {
		_, base, ext, err := splitPath(name)
		if err != nil {
			continue
		}
		if images[base] == nil {
			images[base] = make(map[string]string, 1)
		}
		images[base][strings.ToLower(ext)] = name
	}

	claimedBy := make(map[string]string, len(labelFiles)) // Image name to label name.
	pairs := make([]FilePair, 0, len(labelFiles))
	for _, label := range labelFiles {
		_, base, _, err := splitPath(label)
		if err != nil {
			log.WithField("label", label).Warnf("Skipping label: %v", err)
			continue
		}

		// Find the preferred image.
		var image string
		for _, ext := range imageExts {
			if name, ok := images[base][ext]; ok {
				image = name
				break
			}
		}
		if image == "" {
			log.WithField("label", label).Warn("No image for label file, skipping")
			continue
		}
		if other, ok := claimedBy[image]; ok {
			log.WithFields(logrus.Fields{"label": label, "image": image, "paired_with": other}).
				Warn("Image is already paired with another label file, skipping duplicate")
			continue
		}

		claimedBy[image] = label
		pairs = append(pairs, FilePair{
			LabelPath: filepath.Join(dir, label),
			ImagePath: filepath.Join(dir, image),
		})
	}

	for _, name := range imageFiles {
		if _, ok := claimedBy[name]; !ok {
			log.WithField("image", name).Warn("No label file for image")
		}
	}

	return pairs, nil
}

// checkMaskPairs pairs the files in dir/masks with the files of identical name in dir/images.
// Files present on only one side are reported as warnings. The pairs are returned in the listing
// order of the masks directory.
func checkMaskPairs(dir string, log logrus.FieldLogger) ([]FilePair, error) {
	maskDir := filepath.Join(dir, maskDirName)
	imageDir := filepath.Join(dir, imageDirName)

	masks, err := filesByExtInDir(maskDir)
	if err != nil {
		return nil, err
	}
	images, err := filesByExtInDir(imageDir)
	if err != nil {
		return nil, err
	}

	haveImage := make(map[string]bool, len(images))
	for _, name := range images {
		haveImage[name] = true
	}
	haveMask := make(map[string]bool, len(masks))

	pairs := make([]FilePair, 0, len(masks))
	for _, name := range masks {
		haveMask[name] = true
		if !haveImage[name] {
			log.WithField("mask", filepath.Join(maskDirName, name)).Warn("No image for mask")
			continue
		}
		pairs = append(pairs, FilePair{
			LabelPath: filepath.Join(maskDir, name),
			ImagePath: filepath.Join(imageDir, name),
		})
	}

	for _, name := range images {
		if !haveMask[name] {
			log.WithField("image", filepath.Join(imageDirName, name)).Warn("No mask for image")
		}
	}

	return pairs, nil
}
