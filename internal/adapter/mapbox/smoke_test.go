//go:build mapbox

package mapbox

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/hazard-score/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, observability.NewMetricsForTesting(), discardLogger())
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	c := smokeClient(t)

	result, err := c.ForwardGeocode(context.Background(), "Davis, California")
	require.NoError(t, err)

	assert.InDelta(t, 38.54, result.Lat, 0.1)
	assert.InDelta(t, -121.74, result.Lon, 0.1)
	assert.NotEmpty(t, result.FormattedAddress)
}

func TestSmoke_ReverseGeocode(t *testing.T) {
	c := smokeClient(t)

	result, err := c.ReverseGeocode(context.Background(), 38.5449, -121.7405)
	require.NoError(t, err)

	assert.Contains(t, result.FormattedAddress, "California")
}
