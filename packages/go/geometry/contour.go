// Package geometry holds the raster side of roof scoring: point contours as they are stored
// by the detection pipeline, and binary masks filled from them.
package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrMalformedPoint = errors.New("malformed contour point")
	ErrDegenerate     = errors.New("contour has fewer than 2 points")
)

// Point is an (x, y) pixel coordinate.
type Point [2]int

func (p Point) X() int { return p[0] }
func (p Point) Y() int { return p[1] }

// Contour is a closed ring of points.
//
// Stored contours come in two shapes, a flat list of points [[x,y],...] and the OpenCV
// findContours layout where every point is wrapped once more [[[x,y]],...]. Both decode into the
// same flat Contour; encoding always writes the flat form.
type Contour []Point

// Ring converts the contour to an orb ring.
func (c Contour) Ring() orb.Ring {
	r := make(orb.Ring, len(c))
	for i, p := range c {
		r[i] = orb.Point{float64(p[0]), float64(p[1])}
	}
	return r
}

// Validate reports contours that cannot be drawn.
func (c Contour) Validate() error {
	if len(c) < 2 {
		return fmt.Errorf("%w: got %d", ErrDegenerate, len(c))
	}
	return nil
}

// Bound returns the bounding box of all the points of the given contours.
func Bound(contours ...Contour) (orb.Bound, bool) {
	var (
		b     orb.Bound
		found bool
	)
	for _, c := range contours {
		if len(c) == 0 {
			continue
		}
		rb := c.Ring().Bound()
		if !found {
			b, found = rb, true
			continue
		}
		b = b.Union(rb)
	}
	return b, found
}

func (c *Contour) UnmarshalJSON(b []byte) error {
	var raw []interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == nil {
		*c = nil
		return nil
	}
	parsed, err := parseContour(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c *Contour) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*c = nil
		return nil
	}
	var raw []interface{}
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := parseContour(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func parseContour(raw []interface{}) (Contour, error) {
	c := make(Contour, 0, len(raw))
	for i, item := range raw {
		coords, ok := asList(item)
		if !ok {
			return nil, fmt.Errorf("%w: index %d is not a list", ErrMalformedPoint, i)
		}
		// wrapped point [[x, y]]
		if len(coords) == 1 {
			if inner, isList := asList(coords[0]); isList {
				coords = inner
			}
		}
		if len(coords) < 2 {
			return nil, fmt.Errorf("%w: index %d has %d coordinates", ErrMalformedPoint, i, len(coords))
		}
		x, okX := asInt(coords[0])
		y, okY := asInt(coords[1])
		if !okX || !okY {
			return nil, fmt.Errorf("%w: index %d has non numeric coordinates", ErrMalformedPoint, i)
		}
		c = append(c, Point{x, y})
	}
	return c, nil
}

func asList(v interface{}) ([]interface{}, bool) {
	switch l := v.(type) {
	case []interface{}:
		return l, true
	case primitive.A:
		return l, true
	}
	return nil, false
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(math.Round(n)), true
	case float32:
		return int(math.Round(float64(n))), true
	case json.Number:
		f, err := n.Float64()
		return int(math.Round(f)), err == nil
	}
	return 0, false
}
