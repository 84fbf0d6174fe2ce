// Package features extracts the hazard feature vector for a point.
package features

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/hazard-score/internal/domain"
	"github.com/couchcryptid/hazard-score/internal/layers"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
)

// StormRadiusMeters is the Web Mercator distance within which storms count.
const StormRadiusMeters = 5000.0

var errLayerNotLoaded = errors.New("layer not loaded")

// Extractor looks points up against a loaded layer set. Layers are read-only
// after load, so an Extractor is safe for concurrent use.
type Extractor struct {
	set    *layers.Set
	logger *slog.Logger
}

// NewExtractor creates an extractor over set. A nil set yields all-default features.
func NewExtractor(set *layers.Set, logger *slog.Logger) *Extractor {
	if set == nil {
		set = &layers.Set{}
	}
	return &Extractor{set: set, logger: logger}
}

// Layers returns the layer set the extractor reads.
func (e *Extractor) Layers() *layers.Set {
	return e.set
}

// LayersAvailable counts the loaded layers.
func (e *Extractor) LayersAvailable() int {
	return e.set.Available()
}

// Extract returns the feature vector for pt. It never fails: a layer that
// cannot be queried leaves its feature at the default.
func (e *Extractor) Extract(pt domain.Point) domain.FeatureVector {
	fv, _ := e.ExtractDetailed(pt)
	return fv
}

// ExtractDetailed returns the feature vector together with the outcome of
// each layer lookup. All four lookups are always attempted.
func (e *Extractor) ExtractDetailed(pt domain.Point) (domain.FeatureVector, domain.Diagnostics) {
	q := orb.Point{pt.Lon, pt.Lat}
	diag := make(domain.Diagnostics, len(domain.Hazards))
	var fv domain.FeatureVector

	zone, st := guard(e, domain.HazardFlood, pt, func() (*string, error) {
		return e.category(domain.HazardFlood, q, domain.FloodPoints)
	})
	fv.FEMAZone, diag[domain.HazardFlood] = zone, st

	class, st := guard(e, domain.HazardFire, pt, func() (*string, error) {
		return e.category(domain.HazardFire, q, domain.FirePoints)
	})
	fv.FireClass, diag[domain.HazardFire] = class, st

	pga, st := guard(e, domain.HazardQuake, pt, func() (*float64, error) {
		return e.pga(q)
	})
	fv.PGA, diag[domain.HazardQuake] = pga, st

	count, st := guard(e, domain.HazardStorm, pt, func() (*int, error) {
		return e.stormCount(q)
	})
	if count != nil {
		fv.StormCount5km = *count
	}
	diag[domain.HazardStorm] = st

	return fv, diag
}

// guard runs one layer lookup, converting errors and panics into an
// unavailable outcome.
func guard[T any](e *Extractor, h domain.Hazard, pt domain.Point, fn func() (*T, error)) (v *T, st domain.LayerStatus) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			st = e.unavailable(h, pt, fmt.Errorf("panic: %v", r))
		}
	}()

	v, err := fn()
	if err != nil {
		return nil, e.unavailable(h, pt, err)
	}
	if v == nil {
		return nil, domain.LayerStatus{Outcome: domain.OutcomeMiss}
	}
	return v, domain.LayerStatus{Outcome: domain.OutcomeHit}
}

func (e *Extractor) unavailable(h domain.Hazard, pt domain.Point, err error) domain.LayerStatus {
	e.logger.Warn("hazard layer lookup failed",
		"layer", h,
		"lon", pt.Lon,
		"lat", pt.Lat,
		"error", err,
	)
	return domain.LayerStatus{Outcome: domain.OutcomeUnavailable, Error: err.Error()}
}

// category returns the attribute of the most severe polygon containing q.
// Severity ties keep the earliest record.
func (e *Extractor) category(h domain.Hazard, q orb.Point, severity func(*string) int) (*string, error) {
	l := e.set.Layer(h)
	if l == nil {
		return nil, errLayerNotLoaded
	}
	attr := layers.AttributeFor(h)

	var best *string
	bestScore := -1
	for i, r := range l.Records {
		if !e.contains(h, i, r.Geometry, q) {
			continue
		}
		raw, ok := r.Properties[attr]
		if !ok {
			return nil, fmt.Errorf("record %d: missing attribute %s", i, attr)
		}
		if raw == nil {
			continue
		}
		s, err := layers.StringAttribute(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %s: %w", i, attr, err)
		}
		if score := severity(&s); score > bestScore {
			best, bestScore = &s, score
		}
	}
	return best, nil
}

// pga returns the largest peak ground acceleration among polygons containing q.
func (e *Extractor) pga(q orb.Point) (*float64, error) {
	l := e.set.Layer(domain.HazardQuake)
	if l == nil {
		return nil, errLayerNotLoaded
	}

	var best *float64
	for i, r := range l.Records {
		if !e.contains(domain.HazardQuake, i, r.Geometry, q) {
			continue
		}
		raw, ok := r.Properties[layers.PGAProperty]
		if !ok {
			return nil, fmt.Errorf("record %d: missing attribute %s", i, layers.PGAProperty)
		}
		if raw == nil {
			continue
		}
		v, err := layers.NumberAttribute(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %s: %w", i, layers.PGAProperty, err)
		}
		if best == nil || v > *best {
			best = &v
		}
	}
	return best, nil
}

// stormCount counts storm points within StormRadiusMeters of q, measured in
// Web Mercator. A zero count is reported as a miss.
func (e *Extractor) stormCount(q orb.Point) (*int, error) {
	l := e.set.Layer(domain.HazardStorm)
	if l == nil {
		return nil, errLayerNotLoaded
	}

	origin := project.Point(q, project.WGS84.ToMercator)
	n := 0
	within := func(p orb.Point) {
		if planar.Distance(origin, project.Point(p, project.WGS84.ToMercator)) <= StormRadiusMeters {
			n++
		}
	}
	for i, r := range l.Records {
		switch g := r.Geometry.(type) {
		case orb.Point:
			within(g)
		case orb.MultiPoint:
			for _, p := range g {
				within(p)
			}
		default:
			e.logger.Debug("skipping malformed storm record", "index", i, "geometry", geometryType(r.Geometry))
		}
	}
	if n == 0 {
		return nil, nil
	}
	return &n, nil
}

// contains reports whether g covers q, boundary included. Malformed
// geometries are skipped.
func (e *Extractor) contains(h domain.Hazard, index int, g orb.Geometry, q orb.Point) bool {
	switch g := g.(type) {
	case orb.Polygon:
		if err := layers.CheckPolygon(g); err != nil {
			e.skip(h, index, err)
			return false
		}
		return planar.PolygonContains(g, q)
	case orb.MultiPolygon:
		for _, p := range g {
			if err := layers.CheckPolygon(p); err != nil {
				e.skip(h, index, err)
				return false
			}
		}
		return planar.MultiPolygonContains(g, q)
	default:
		e.skip(h, index, fmt.Errorf("unsupported geometry %s", geometryType(g)))
		return false
	}
}

func (e *Extractor) skip(h domain.Hazard, index int, err error) {
	e.logger.Debug("skipping malformed record", "layer", h, "index", index, "error", err)
}

func geometryType(g orb.Geometry) string {
	if g == nil {
		return "null"
	}
	return g.GeoJSONType()
}
