package roofscore

import (
	"fmt"

	"roofscore/packages/go/geometry"
	"roofscore/packages/go/utils"
)

const (
	// Reference drone image resolution the tile size is derived from.
	ReferenceWidth  = 5456
	ReferenceHeight = 3632

	DefaultScaleW = 22
	DefaultScaleH = 16
)

// Tile is a box of the score grid: top left corner (X, Y) and its size.
type Tile struct {
	X      int
	Y      int
	Height int
	Width  int
}

type span struct {
	start int
	size  int
}

// splitAxis cuts [0, size) into ceil(size/nominal) contiguous spans. The tiles that overflow the
// axis are absorbed by shrinking every span but the last, the first ones shrinking one pixel more
// when the overflow does not divide evenly.
func splitAxis(size, nominal int) []span {
	if size <= 0 {
		return nil
	}
	n := utils.CeilDiv(size, nominal)
	if n == 1 {
		return []span{{0, size}}
	}
	remainder := n*nominal - size
	per, extra := remainder/(n-1), remainder%(n-1)

	spans := make([]span, n)
	pos := 0
	for i := 0; i < n; i++ {
		length := nominal
		if i < n-1 {
			length -= per
			if i < extra {
				length--
			}
		}
		spans[i] = span{pos, length}
		pos += length
	}
	return spans
}

// TileGrid partitions a mask of the given shape into score tiles, column by column (x outer,
// y inner). Tiles never overlap and together cover every pixel once.
func TileGrid(shape geometry.Shape, scaleW, scaleH int) ([]Tile, error) {
	if scaleW <= 0 || scaleH <= 0 || scaleW > ReferenceWidth || scaleH > ReferenceHeight {
		return nil, fmt.Errorf("invalid tile scale %dx%d", scaleW, scaleH)
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	xs := splitAxis(shape.Width, ReferenceWidth/scaleW)
	ys := splitAxis(shape.Height, ReferenceHeight/scaleH)

	tiles := make([]Tile, 0, len(xs)*len(ys))
	for _, x := range xs {
		for _, y := range ys {
			tiles = append(tiles, Tile{X: x.start, Y: y.start, Height: y.size, Width: x.size})
		}
	}
	return tiles, nil
}
