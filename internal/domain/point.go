package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point is a query location in WGS84 degrees.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Valid reports whether the point is a finite WGS84 coordinate.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lon) || math.IsNaN(p.Lat) || math.IsInf(p.Lon, 0) || math.IsInf(p.Lat, 0) {
		return false
	}
	return p.Lon >= -180 && p.Lon <= 180 && p.Lat >= -90 && p.Lat <= 90
}

// BBox is a lon/lat bounding box.
type BBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// DefaultTrainingBBox covers Davis, CA and its surroundings.
var DefaultTrainingBBox = BBox{MinLon: -122.0, MinLat: 38.35, MaxLon: -121.50, MaxLat: 38.70}

var errBBoxFormat = errors.New("bbox must be minlon,minlat,maxlon,maxlat")

// ParseBBox parses "minlon,minlat,maxlon,maxlat".
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, errBBoxFormat
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("parse bbox component %d: %w", i, err)
		}
		v[i] = f
	}
	b := BBox{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}
	if err := b.Validate(); err != nil {
		return BBox{}, err
	}
	return b, nil
}

// Validate checks that both corners are valid points and the box is not inverted.
func (b BBox) Validate() error {
	if !(Point{Lon: b.MinLon, Lat: b.MinLat}).Valid() || !(Point{Lon: b.MaxLon, Lat: b.MaxLat}).Valid() {
		return fmt.Errorf("bbox %v: corner out of range", b)
	}
	if b.MinLon > b.MaxLon || b.MinLat > b.MaxLat {
		return fmt.Errorf("bbox %v: min exceeds max", b)
	}
	return nil
}

func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Center returns the midpoint of the box.
func (b BBox) Center() Point {
	return Point{Lon: (b.MinLon + b.MaxLon) / 2, Lat: (b.MinLat + b.MaxLat) / 2}
}

// Grid returns nx*ny points spaced evenly over the box with both endpoints
// included. Longitude is the outer loop and latitude the inner loop.
func (b BBox) Grid(nx, ny int) []Point {
	lons := linspace(b.MinLon, b.MaxLon, nx)
	lats := linspace(b.MinLat, b.MaxLat, ny)
	pts := make([]Point, 0, len(lons)*len(lats))
	for _, lon := range lons {
		for _, lat := range lats {
			pts = append(pts, Point{Lon: lon, Lat: lat})
		}
	}
	return pts
}

func linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}
