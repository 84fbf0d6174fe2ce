package features

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/couchcryptid/hazard-score/internal/domain"
	"github.com/couchcryptid/hazard-score/internal/layers"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func square(minLon, minLat, size float64) orb.Polygon {
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{minLon + size, minLat + size}}.ToPolygon()
}

func record(g orb.Geometry, props geojson.Properties) layers.Record {
	return layers.Record{Geometry: g, Properties: props}
}

var bbox = domain.DefaultTrainingBBox

func sampleExtractor() *Extractor {
	return NewExtractor(layers.Sample(bbox), discardLogger())
}

func TestExtract_SampleLayers(t *testing.T) {
	e := sampleExtractor()
	w := bbox.MaxLon - bbox.MinLon
	h := bbox.MaxLat - bbox.MinLat
	c := bbox.Center()

	t.Run("center of flood band with storm cluster", func(t *testing.T) {
		fv, diag := e.ExtractDetailed(c)
		require.NotNil(t, fv.FEMAZone)
		assert.Equal(t, "A", *fv.FEMAZone)
		assert.Nil(t, fv.FireClass)
		assert.Equal(t, 6, fv.StormCount5km)
		assert.Equal(t, domain.OutcomeHit, diag[domain.HazardFlood].Outcome)
		assert.Equal(t, domain.OutcomeMiss, diag[domain.HazardFire].Outcome)
		assert.Equal(t, domain.OutcomeHit, diag[domain.HazardStorm].Outcome)
	})

	t.Run("outer flood band", func(t *testing.T) {
		fv := e.Extract(domain.Point{Lon: c.Lon, Lat: c.Lat + 0.05*h})
		require.NotNil(t, fv.FEMAZone)
		assert.Equal(t, "X", *fv.FEMAZone)
	})

	t.Run("overlapping fire polygons take the most severe", func(t *testing.T) {
		fv := e.Extract(domain.Point{Lon: bbox.MinLon + 0.1*w, Lat: bbox.MaxLat - 0.1*h})
		require.NotNil(t, fv.FireClass)
		assert.Equal(t, "Very High", *fv.FireClass)

		fv = e.Extract(domain.Point{Lon: bbox.MinLon + 0.4*w, Lat: bbox.MaxLat - 0.1*h})
		require.NotNil(t, fv.FireClass)
		assert.Equal(t, "High", *fv.FireClass)
	})

	t.Run("overlapping seismic zones take the largest PGA", func(t *testing.T) {
		fv := e.Extract(domain.Point{Lon: bbox.MaxLon - 0.25*w, Lat: c.Lat + 0.01})
		require.NotNil(t, fv.PGA)
		assert.Equal(t, 0.40, *fv.PGA)

		fv = e.Extract(domain.Point{Lon: bbox.MaxLon - 0.25*w, Lat: c.Lat + 0.25*w})
		require.NotNil(t, fv.PGA)
		assert.Equal(t, 0.22, *fv.PGA)
	})

	t.Run("far away point", func(t *testing.T) {
		fv, diag := e.ExtractDetailed(domain.Point{Lon: 10, Lat: 10})
		assert.Equal(t, domain.FeatureVector{}, fv)
		for _, hz := range domain.Hazards {
			assert.Equal(t, domain.OutcomeMiss, diag[hz].Outcome, hz)
		}
	})
}

func TestExtract_BoundaryCountsAsInside(t *testing.T) {
	set := &layers.Set{Flood: &layers.Layer{Hazard: domain.HazardFlood, Records: []layers.Record{
		record(square(0, 0, 1), geojson.Properties{layers.FloodZoneProperty: "AE"}),
	}}}
	e := NewExtractor(set, discardLogger())

	for _, pt := range []domain.Point{{Lon: 0, Lat: 0.5}, {Lon: 1, Lat: 1}, {Lon: 0.5, Lat: 0}} {
		fv := e.Extract(pt)
		require.NotNil(t, fv.FEMAZone, "%v", pt)
		assert.Equal(t, "AE", *fv.FEMAZone)
	}
}

func TestExtract_TieKeepsEarliestRecord(t *testing.T) {
	set := &layers.Set{Flood: &layers.Layer{Hazard: domain.HazardFlood, Records: []layers.Record{
		record(square(0, 0, 1), geojson.Properties{layers.FloodZoneProperty: "X"}),
		record(square(0, 0, 2), geojson.Properties{layers.FloodZoneProperty: "X500"}),
		record(square(0, 0, 3), geojson.Properties{layers.FloodZoneProperty: "AE"}),
		record(square(0, 0, 4), geojson.Properties{layers.FloodZoneProperty: "A"}),
	}}}
	e := NewExtractor(set, discardLogger())

	fv := e.Extract(domain.Point{Lon: 0.5, Lat: 0.5})
	require.NotNil(t, fv.FEMAZone)
	assert.Equal(t, "AE", *fv.FEMAZone)

	fv = e.Extract(domain.Point{Lon: 1.5, Lat: 1.5})
	require.NotNil(t, fv.FEMAZone)
	assert.Equal(t, "AE", *fv.FEMAZone)
}

func TestExtract_MultiPolygonAndHoles(t *testing.T) {
	outer := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{4, 4}}.ToRing()
	hole := orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{2, 2}}.ToRing()
	set := &layers.Set{Fire: &layers.Layer{Hazard: domain.HazardFire, Records: []layers.Record{
		record(orb.Polygon{outer, hole}, geojson.Properties{layers.FireClassProperty: "High"}),
		record(orb.MultiPolygon{square(10, 10, 1), square(20, 20, 1)}, geojson.Properties{layers.FireClassProperty: "Moderate"}),
	}}}
	e := NewExtractor(set, discardLogger())

	assert.Nil(t, e.Extract(domain.Point{Lon: 1.5, Lat: 1.5}).FireClass)

	fv := e.Extract(domain.Point{Lon: 3, Lat: 3})
	require.NotNil(t, fv.FireClass)
	assert.Equal(t, "High", *fv.FireClass)

	fv = e.Extract(domain.Point{Lon: 20.5, Lat: 20.5})
	require.NotNil(t, fv.FireClass)
	assert.Equal(t, "Moderate", *fv.FireClass)
}

func TestExtract_UnavailableLayers(t *testing.T) {
	e := NewExtractor(&layers.Set{}, discardLogger())

	fv, diag := e.ExtractDetailed(bbox.Center())

	assert.Equal(t, domain.FeatureVector{}, fv)
	for _, h := range domain.Hazards {
		assert.True(t, diag.Unavailable(h), h)
		assert.Equal(t, "layer not loaded", diag[h].Error)
	}
}

func TestExtract_NilSet(t *testing.T) {
	e := NewExtractor(nil, discardLogger())
	assert.Equal(t, 0, e.LayersAvailable())
	assert.Equal(t, domain.FeatureVector{}, e.Extract(bbox.Center()))
}

func TestExtract_LayerFailureIsIsolated(t *testing.T) {
	set := layers.Sample(bbox)
	// A matching polygon without its attribute column fails the whole flood lookup.
	set.Flood = &layers.Layer{Hazard: domain.HazardFlood, Records: []layers.Record{
		record(square(-123, 38, 2), geojson.Properties{"ZONE": "A"}),
	}}
	e := NewExtractor(set, discardLogger())

	fv, diag := e.ExtractDetailed(bbox.Center())

	assert.Nil(t, fv.FEMAZone)
	assert.True(t, diag.Unavailable(domain.HazardFlood))
	assert.Contains(t, diag[domain.HazardFlood].Error, "missing attribute FLD_ZONE")
	assert.Equal(t, 6, fv.StormCount5km)
	assert.Equal(t, domain.OutcomeHit, diag[domain.HazardStorm].Outcome)
}

func TestExtract_IllTypedAttribute(t *testing.T) {
	set := &layers.Set{Quake: &layers.Layer{Hazard: domain.HazardQuake, Records: []layers.Record{
		record(square(0, 0, 1), geojson.Properties{layers.PGAProperty: "strong"}),
	}}}
	e := NewExtractor(set, discardLogger())

	fv, diag := e.ExtractDetailed(domain.Point{Lon: 0.5, Lat: 0.5})
	assert.Nil(t, fv.PGA)
	assert.True(t, diag.Unavailable(domain.HazardQuake))
}

func TestExtract_MalformedGeometrySkipped(t *testing.T) {
	set := &layers.Set{Quake: &layers.Layer{Hazard: domain.HazardQuake, Records: []layers.Record{
		record(orb.Polygon{}, geojson.Properties{layers.PGAProperty: 0.5}),
		record(nil, geojson.Properties{layers.PGAProperty: 0.5}),
		record(orb.LineString{{0, 0}, {1, 1}}, geojson.Properties{layers.PGAProperty: 0.5}),
		record(orb.MultiPolygon{orb.Polygon{orb.Ring{{0, 0}}}}, geojson.Properties{layers.PGAProperty: 0.5}),
		record(square(0, 0, 1), geojson.Properties{layers.PGAProperty: 0.21}),
	}}}
	e := NewExtractor(set, discardLogger())

	fv, diag := e.ExtractDetailed(domain.Point{Lon: 0.5, Lat: 0.5})
	require.NotNil(t, fv.PGA)
	assert.Equal(t, 0.21, *fv.PGA)
	assert.Equal(t, domain.OutcomeHit, diag[domain.HazardQuake].Outcome)
}

func TestExtract_NullAttributeIsMiss(t *testing.T) {
	set := &layers.Set{Fire: &layers.Layer{Hazard: domain.HazardFire, Records: []layers.Record{
		record(square(0, 0, 1), geojson.Properties{layers.FireClassProperty: nil}),
	}}}
	e := NewExtractor(set, discardLogger())

	fv, diag := e.ExtractDetailed(domain.Point{Lon: 0.5, Lat: 0.5})
	assert.Nil(t, fv.FireClass)
	assert.Equal(t, domain.OutcomeMiss, diag[domain.HazardFire].Outcome)
}

func TestStormCount_WebMercatorDistance(t *testing.T) {
	// Mercator x spacing is independent of latitude while y stretches with it.
	set := &layers.Set{Storm: &layers.Layer{Hazard: domain.HazardStorm, Records: []layers.Record{
		record(orb.Point{0.04, 60}, nil), // ~4.45 km in mercator x
		record(orb.Point{0.05, 60}, nil), // ~5.57 km
		record(orb.Point{0, 60.03}, nil), // ~6.7 km in mercator y at 60N
		record(orb.MultiPoint{{0, 60}, {-0.01, 60}}, nil),
		record(square(0, 60, 0.001), nil), // skipped
	}}}
	e := NewExtractor(set, discardLogger())

	fv := e.Extract(domain.Point{Lon: 0, Lat: 60})
	assert.Equal(t, 3, fv.StormCount5km)
}

func TestStormCount_EmptyLayer(t *testing.T) {
	set := &layers.Set{Storm: &layers.Layer{Hazard: domain.HazardStorm}}
	e := NewExtractor(set, discardLogger())

	fv, diag := e.ExtractDetailed(bbox.Center())
	assert.Equal(t, 0, fv.StormCount5km)
	assert.Equal(t, domain.OutcomeMiss, diag[domain.HazardStorm].Outcome)
	assert.False(t, diag.Unavailable(domain.HazardStorm))
}

func TestGuard_RecoversPanics(t *testing.T) {
	e := sampleExtractor()

	v, st := guard(e, domain.HazardQuake, bbox.Center(), func() (*float64, error) {
		panic("index out of range")
	})
	assert.Nil(t, v)
	assert.Equal(t, domain.OutcomeUnavailable, st.Outcome)
	assert.Contains(t, st.Error, "panic: index out of range")

	_, st = guard(e, domain.HazardQuake, bbox.Center(), func() (*float64, error) {
		return nil, errors.New("boom")
	})
	assert.Equal(t, "boom", st.Error)
}

func TestExtract_Deterministic(t *testing.T) {
	e := sampleExtractor()
	pts := bbox.Grid(5, 5)

	first := make([]domain.FeatureVector, len(pts))
	for i, p := range pts {
		first[i] = e.Extract(p)
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, p := range pts {
				assert.Equal(t, first[i], e.Extract(p))
			}
		}()
	}
	wg.Wait()
}
