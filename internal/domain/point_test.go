package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoint_Valid(t *testing.T) {
	tests := []struct {
		name string
		pt   Point
		want bool
	}{
		{"davis", Point{Lon: -121.74, Lat: 38.54}, true},
		{"corner", Point{Lon: 180, Lat: -90}, true},
		{"lon out of range", Point{Lon: 181, Lat: 0}, false},
		{"lat out of range", Point{Lon: 0, Lat: 90.5}, false},
		{"nan", Point{Lon: math.NaN(), Lat: 0}, false},
		{"inf", Point{Lon: 0, Lat: math.Inf(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pt.Valid())
		})
	}
}

func TestParseBBox(t *testing.T) {
	b, err := ParseBBox("-122.0, 38.35,-121.50,38.70")
	require.NoError(t, err)
	assert.Equal(t, DefaultTrainingBBox, b)

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "0,0,-1,1", "0,0,1,91"} {
		_, err := ParseBBox(bad)
		assert.Error(t, err, bad)
	}
}

func TestBBox_Grid(t *testing.T) {
	t.Run("default size and order", func(t *testing.T) {
		pts := DefaultTrainingBBox.Grid(14, 14)
		require.Len(t, pts, 196)

		// lon is the outer loop, lat the inner loop
		assert.Equal(t, Point{Lon: -122.0, Lat: 38.35}, pts[0])
		assert.Equal(t, -122.0, pts[13].Lon)
		assert.Equal(t, 38.70, pts[13].Lat)
		assert.InDelta(t, -122.0+0.5/13, pts[14].Lon, 1e-12)
		assert.Equal(t, 38.35, pts[14].Lat)
		assert.Equal(t, Point{Lon: -121.50, Lat: 38.70}, pts[195])
	})

	t.Run("single column", func(t *testing.T) {
		pts := BBox{MinLon: 1, MinLat: 2, MaxLon: 3, MaxLat: 4}.Grid(1, 3)
		require.Len(t, pts, 3)
		assert.Equal(t, []Point{{1, 2}, {1, 3}, {1, 4}}, pts)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, DefaultTrainingBBox.Grid(0, 14))
	})
}

func TestBBox_Center(t *testing.T) {
	c := BBox{MinLon: -2, MinLat: 10, MaxLon: 2, MaxLat: 20}.Center()
	assert.Equal(t, Point{Lon: 0, Lat: 15}, c)
}
