package layers

import (
	"math"

	"github.com/couchcryptid/hazard-score/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Sample builds a deterministic synthetic layer set over b: an A flood band
// through the center wrapped by an X band, nested fire polygons in the west,
// nested seismic zones in the east, and a storm grid with a cluster at the
// center. It stands in for the live hazard feeds in demos and tests.
func Sample(b domain.BBox) *Set {
	w := b.MaxLon - b.MinLon
	h := b.MaxLat - b.MinLat
	c := b.Center()

	bound := func(minLon, minLat, maxLon, maxLat float64) orb.Bound {
		return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
	}

	nearBand := bound(b.MinLon, c.Lat-0.03*h, b.MaxLon, c.Lat+0.03*h)
	farBand := bound(b.MinLon, c.Lat-0.08*h, b.MaxLon, c.Lat+0.08*h)
	flood := &Layer{Hazard: domain.HazardFlood, Source: "sample", Records: []Record{
		polygonRecord(nearBand.ToPolygon(), FloodZoneProperty, "A"),
		polygonRecord(orb.Polygon{farBand.ToRing(), reverse(nearBand.ToRing())}, FloodZoneProperty, "X"),
	}}

	fire := &Layer{Hazard: domain.HazardFire, Source: "sample", Records: []Record{
		polygonRecord(bound(b.MinLon, b.MaxLat-0.45*h, b.MinLon+0.45*w, b.MaxLat).ToPolygon(), FireClassProperty, "High"),
		polygonRecord(bound(b.MinLon, b.MaxLat-0.3*h, b.MinLon+0.3*w, b.MaxLat).ToPolygon(), FireClassProperty, "Very High"),
		polygonRecord(bound(b.MinLon, b.MinLat, b.MinLon+0.3*w, b.MinLat+0.25*h).ToPolygon(), FireClassProperty, "Moderate"),
	}}

	epicenter := orb.Point{b.MaxLon - 0.25*w, c.Lat}
	quake := &Layer{Hazard: domain.HazardQuake, Source: "sample", Records: []Record{
		polygonRecord(orb.Polygon{circle(epicenter, 0.35*w, 32)}, PGAProperty, 0.22),
		polygonRecord(orb.Polygon{circle(epicenter, 0.15*w, 32)}, PGAProperty, 0.40),
	}}

	storm := &Layer{Hazard: domain.HazardStorm, Source: "sample"}
	for _, p := range b.Grid(6, 6) {
		storm.Records = append(storm.Records, Record{
			Geometry:   orb.Point{p.Lon, p.Lat},
			Properties: geojson.Properties{"storm_days": 1.0},
		})
	}
	for i := 0; i < 6; i++ {
		angle := float64(i) * math.Pi / 3
		storm.Records = append(storm.Records, Record{
			Geometry:   orb.Point{c.Lon + 0.01*math.Cos(angle), c.Lat + 0.01*math.Sin(angle)},
			Properties: geojson.Properties{"storm_days": 3.0},
		})
	}

	return &Set{Flood: flood, Fire: fire, Quake: quake, Storm: storm}
}

func polygonRecord(p orb.Polygon, attr string, value any) Record {
	return Record{Geometry: p, Properties: geojson.Properties{attr: value}}
}

func circle(center orb.Point, radius float64, n int) orb.Ring {
	r := make(orb.Ring, 0, n+1)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		r = append(r, orb.Point{center[0] + radius*math.Cos(a), center[1] + radius*math.Sin(a)})
	}
	return append(r, r[0])
}

func reverse(r orb.Ring) orb.Ring {
	out := make(orb.Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}
