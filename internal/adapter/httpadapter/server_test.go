package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/couchcryptid/hazard-score/internal/adapter/httpadapter"
	"github.com/couchcryptid/hazard-score/internal/domain"
	"github.com/couchcryptid/hazard-score/internal/pipeline"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	readyErr  error
	assessErr error
	placeErr  error
	gotPoint  domain.Point
	gotQuery  string
}

func (m *mockService) CheckReadiness(_ context.Context) error { return m.readyErr }

func (m *mockService) Assess(_ context.Context, pt domain.Point) (domain.Assessment, error) {
	m.gotPoint = pt
	if m.assessErr != nil {
		return domain.Assessment{}, m.assessErr
	}
	return domain.NewAssessment(pt, domain.FeatureVector{FEMAZone: domain.StringPtr("A")}, domain.Diagnostics{}), nil
}

func (m *mockService) AssessPlace(_ context.Context, query string) (domain.Assessment, error) {
	m.gotQuery = query
	if m.placeErr != nil {
		return domain.Assessment{}, m.placeErr
	}
	a := domain.NewAssessment(domain.Point{Lon: -121.74, Lat: 38.54}, domain.FeatureVector{}, domain.Diagnostics{})
	return a.WithPlace(domain.GeocodingResult{PlaceName: "Davis"}, "forward"), nil
}

func (m *mockService) Overlay(_ context.Context, pt domain.Point) (*geojson.FeatureCollection, error) {
	m.gotPoint = pt
	if m.assessErr != nil {
		return nil, m.assessErr
	}
	fc := geojson.NewFeatureCollection()
	site := geojson.NewFeature(orb.Point{pt.Lon, pt.Lat})
	site.Properties["layer"] = "site"
	fc.Append(site)
	return fc, nil
}

func newTestServer(svc *mockService) *httpadapter.Server {
	return httpadapter.NewServer(":0", svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func get(t *testing.T, srv http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(&mockService{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(&mockService{}), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(&mockService{readyErr: fmt.Errorf("no hazard layers loaded")}), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(&mockService{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAssess_Coordinates(t *testing.T) {
	svc := &mockService{}
	rec := get(t, newTestServer(svc), "/v1/assess?lon=-121.74&lat=38.54")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, domain.Point{Lon: -121.74, Lat: 38.54}, svc.gotPoint)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Moderate", body["label"])
	assert.Equal(t, "rules", body["label_source"])
	assert.EqualValues(t, 40, body["rule_score"])
	assert.Contains(t, body, "features")
	assert.Contains(t, body, "breakdown")
	assert.Contains(t, body, "diagnostics")
}

func TestAssess_Place(t *testing.T) {
	svc := &mockService{}
	rec := get(t, newTestServer(svc), "/v1/assess?q=Davis%2C+CA")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Davis, CA", svc.gotQuery)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Davis", body["place_name"])
}

func TestAssess_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{name: "no parameters", target: "/v1/assess", want: "lon is required"},
		{name: "missing lat", target: "/v1/assess?lon=-121.7", want: "lat is required"},
		{name: "non-numeric lon", target: "/v1/assess?lon=abc&lat=38.5", want: "lon is not a valid longitude"},
		{name: "lat out of range", target: "/v1/assess?lon=-121.7&lat=95", want: "lat is not a valid latitude"},
		{name: "query too long", target: "/v1/assess?q=" + strings.Repeat("a", 300), want: "q is too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			rec := get(t, newTestServer(svc), tt.target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeError(t, rec), tt.want)
			assert.Empty(t, svc.gotQuery)
		})
	}
}

func TestAssess_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		svc    *mockService
		target string
		want   int
	}{
		{
			name:   "invalid point",
			svc:    &mockService{assessErr: fmt.Errorf("%w: lon=0", pipeline.ErrInvalidPoint)},
			target: "/v1/assess?lon=0&lat=0",
			want:   http.StatusBadRequest,
		},
		{
			name:   "place not found",
			svc:    &mockService{placeErr: fmt.Errorf("%w: %q", domain.ErrPlaceNotFound, "Nowhere")},
			target: "/v1/assess?q=Nowhere",
			want:   http.StatusNotFound,
		},
		{
			name:   "geocoding disabled",
			svc:    &mockService{placeErr: domain.ErrGeocodingDisabled},
			target: "/v1/assess?q=Davis",
			want:   http.StatusServiceUnavailable,
		},
		{
			name:   "upstream failure",
			svc:    &mockService{placeErr: errors.New("mapbox API error: status 500")},
			target: "/v1/assess?q=Davis",
			want:   http.StatusBadGateway,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestServer(tt.svc), tt.target)
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec))
		})
	}
}

func TestOverlay(t *testing.T) {
	svc := &mockService{}
	rec := get(t, newTestServer(svc), "/v1/overlay?lon=-121.74&lat=38.54")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, "site", fc.Features[0].Properties["layer"])
	assert.Equal(t, orb.Point{-121.74, 38.54}, fc.Features[0].Geometry)
}

func TestOverlay_RequiresCoordinates(t *testing.T) {
	rec := get(t, newTestServer(&mockService{}), "/v1/overlay?q=Davis")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec), "lon is required")
}

func TestAssess_MethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestServer(&mockService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/assess", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
