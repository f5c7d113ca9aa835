package cvatconv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// traceContours finds the outer boundaries and the nested hole boundaries of the non-zero regions
// of mask. Each contour is simplified to its corner points, dropping collinear points along
// horizontal, vertical and diagonal runs.
func traceContours(mask *image.Gray) ([][]image.Point, error) {
	mat, err := gocv.ImageGrayToMatGray(mask)
	if err != nil {
		return nil, fmt.Errorf("failed to convert mask to a matrix: %w", err)
	}
	defer mat.Close()

	contours := gocv.FindContours(mat, gocv.RetrievalTree, gocv.ChainApproxSimple)
	defer contours.Close()

	out := make([][]image.Point, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		out = append(out, contours.At(i).ToPoints())
	}

	return out, nil
}
