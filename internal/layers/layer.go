// Package layers loads the hazard layers a point is assessed against.
//
// Layers are GeoJSON FeatureCollections in WGS84. Polygon layers carry one
// attribute each: flood polygons FLD_ZONE, fire polygons HAZ_CLASS and
// seismic polygons PGA_G. The storm layer is a set of points. A layer that
// fails to load is left nil in the Set and treated as unavailable.
package layers

import (
	"github.com/couchcryptid/hazard-score/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Attribute names carried by the polygon layers.
const (
	FloodZoneProperty = "FLD_ZONE"
	FireClassProperty = "HAZ_CLASS"
	PGAProperty       = "PGA_G"
)

// AttributeFor returns the attribute a hazard's polygons are tagged with.
// The storm layer has none.
func AttributeFor(h domain.Hazard) string {
	switch h {
	case domain.HazardFlood:
		return FloodZoneProperty
	case domain.HazardFire:
		return FireClassProperty
	case domain.HazardQuake:
		return PGAProperty
	default:
		return ""
	}
}

// Record is one geometry of a layer with its attributes.
type Record struct {
	Geometry   orb.Geometry
	Properties geojson.Properties
}

// Layer is an immutable set of records for a single hazard.
type Layer struct {
	Hazard  domain.Hazard
	Source  string
	Records []Record
}

// Len returns the number of records, zero for a nil layer.
func (l *Layer) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Records)
}

// Set holds one layer per hazard. Nil entries are unavailable.
type Set struct {
	Flood *Layer
	Fire  *Layer
	Quake *Layer
	Storm *Layer
}

// Layer returns the layer for h.
func (s *Set) Layer(h domain.Hazard) *Layer {
	if s == nil {
		return nil
	}
	switch h {
	case domain.HazardFlood:
		return s.Flood
	case domain.HazardFire:
		return s.Fire
	case domain.HazardQuake:
		return s.Quake
	case domain.HazardStorm:
		return s.Storm
	default:
		return nil
	}
}

// Put stores l under its hazard.
func (s *Set) Put(l *Layer) {
	switch l.Hazard {
	case domain.HazardFlood:
		s.Flood = l
	case domain.HazardFire:
		s.Fire = l
	case domain.HazardQuake:
		s.Quake = l
	case domain.HazardStorm:
		s.Storm = l
	}
}

// Available counts the loaded layers.
func (s *Set) Available() int {
	n := 0
	for _, h := range domain.Hazards {
		if s.Layer(h) != nil {
			n++
		}
	}
	return n
}
