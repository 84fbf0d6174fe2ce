package layers

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/hazard-score/internal/domain"
	"github.com/paulmach/orb"
)

// Issue describes a problem with one record of a layer.
type Issue struct {
	Index   int
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("record %d: %s", i.Index, i.Message)
}

// Validate checks geometry types, coordinate ranges and attributes of every
// record. An empty result means the layer is clean.
func Validate(l *Layer) []Issue {
	var issues []Issue
	for i, r := range l.Records {
		if err := checkGeometry(l.Hazard, r.Geometry); err != nil {
			issues = append(issues, Issue{Index: i, Message: err.Error()})
			continue
		}
		attr := AttributeFor(l.Hazard)
		if attr == "" {
			continue
		}
		v, ok := r.Properties[attr]
		if !ok {
			issues = append(issues, Issue{Index: i, Message: "missing " + attr})
			continue
		}
		if v == nil {
			continue
		}
		var err error
		if l.Hazard == domain.HazardQuake {
			_, err = NumberAttribute(v)
		} else {
			_, err = StringAttribute(v)
		}
		if err != nil {
			issues = append(issues, Issue{Index: i, Message: fmt.Sprintf("%s: %v", attr, err)})
		}
	}
	return issues
}

func checkGeometry(h domain.Hazard, g orb.Geometry) error {
	if g == nil {
		return errors.New("missing geometry")
	}
	if h == domain.HazardStorm {
		switch g.(type) {
		case orb.Point, orb.MultiPoint:
		default:
			return fmt.Errorf("storm layer expects points, got %s", g.GeoJSONType())
		}
	} else {
		switch g := g.(type) {
		case orb.Polygon:
			if err := CheckPolygon(g); err != nil {
				return err
			}
		case orb.MultiPolygon:
			for _, p := range g {
				if err := CheckPolygon(p); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("%s layer expects polygons, got %s", h, g.GeoJSONType())
		}
	}
	b := g.Bound()
	if !(domain.Point{Lon: b.Min[0], Lat: b.Min[1]}).Valid() || !(domain.Point{Lon: b.Max[0], Lat: b.Max[1]}).Valid() {
		return errors.New("coordinates outside WGS84 range")
	}
	return nil
}

// CheckPolygon rejects polygons that containment tests cannot evaluate.
func CheckPolygon(p orb.Polygon) error {
	if len(p) == 0 {
		return errors.New("polygon has no rings")
	}
	for i, r := range p {
		if len(r) < 3 {
			return fmt.Errorf("ring %d has %d points", i, len(r))
		}
		for _, pt := range r {
			if math.IsNaN(pt[0]) || math.IsNaN(pt[1]) {
				return fmt.Errorf("ring %d has NaN coordinates", i)
			}
		}
	}
	return nil
}

// StringAttribute converts a categorical attribute value to text.
func StringAttribute(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case float64:
		return fmt.Sprintf("%g", v), nil
	case bool:
		return fmt.Sprintf("%t", v), nil
	default:
		return "", fmt.Errorf("unsupported attribute type %T", v)
	}
}

// NumberAttribute converts a numeric attribute value, rejecting NaN and
// negative values.
func NumberAttribute(v any) (float64, error) {
	var f float64
	switch v := v.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("parse %q: %w", v, err)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("unsupported attribute type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("non-finite value")
	}
	if f < 0 {
		return 0, fmt.Errorf("negative value %g", f)
	}
	return f, nil
}
