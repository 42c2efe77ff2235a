// Package spline implements the minimal SplineCodec collaborator this module
// delegates to: deserializing a spline cell's raw text into control points
// and re-serializing it in canonical form so the string registry
// assigns the same stable id to two textually different but semantically
// identical splines.
package spline

import (
	"fmt"
	"strconv"
	"strings"
)

// Point is one control point: position plus the two tangent handles.
type Point struct {
	Position   float64
	InTangent  float64
	OutTangent float64
}

// Spline is an ordered list of control points.
type Spline struct {
	Points []Point
}

// Parse decodes the pipe-separated "pos,in,out|pos,in,out|..." wire form
// authored by upstream tooling. An empty string parses to an empty Spline.
func Parse(raw string) (Spline, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Spline{}, nil
	}
	segments := strings.Split(raw, "|")
	points := make([]Point, 0, len(segments))
	for i, seg := range segments {
		fields := strings.Split(seg, ",")
		if len(fields) != 3 {
			return Spline{}, fmt.Errorf("spline: point %d: expected 3 fields, got %d", i, len(fields))
		}
		pos, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return Spline{}, fmt.Errorf("spline: point %d: position: %w", i, err)
		}
		in, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return Spline{}, fmt.Errorf("spline: point %d: in-tangent: %w", i, err)
		}
		out, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return Spline{}, fmt.Errorf("spline: point %d: out-tangent: %w", i, err)
		}
		points = append(points, Point{Position: pos, InTangent: in, OutTangent: out})
	}
	return Spline{Points: points}, nil
}

// Serialize produces the canonical wire form: empty splines serialize to
// the empty string, and every float is formatted with strconv's shortest
// round-tripping representation so re-parsing yields bit-identical points.
func (s Spline) Serialize() string {
	if len(s.Points) == 0 {
		return ""
	}
	parts := make([]string, len(s.Points))
	for i, p := range s.Points {
		parts[i] = strconv.FormatFloat(p.Position, 'g', -1, 64) + "," +
			strconv.FormatFloat(p.InTangent, 'g', -1, 64) + "," +
			strconv.FormatFloat(p.OutTangent, 'g', -1, 64)
	}
	return strings.Join(parts, "|")
}

// Canonicalize parses raw and re-serializes it, collapsing any equivalent
// textual forms (extra whitespace, non-shortest float formatting, a
// parsed-empty spline) to the same canonical string. An unparseable spline
// returns the error from Parse; callers turn that into an
// export/convert/* diagnostic.
func Canonicalize(raw string) (string, error) {
	s, err := Parse(raw)
	if err != nil {
		return "", err
	}
	return s.Serialize(), nil
}
