package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

var (
	// ErrGeocodingDisabled is returned when a place query arrives without a geocoder.
	ErrGeocodingDisabled = errors.New("geocoding disabled")
	// ErrPlaceNotFound is returned when the provider has no match for a query.
	ErrPlaceNotFound = errors.New("place not found")
)

// ResolvePlace forward-geocodes a place query to a point.
func ResolvePlace(ctx context.Context, geocoder Geocoder, query string) (Point, GeocodingResult, error) {
	if geocoder == nil {
		return Point{}, GeocodingResult{}, ErrGeocodingDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return Point{}, GeocodingResult{}, ErrPlaceNotFound
	}

	result, err := geocoder.ForwardGeocode(ctx, query)
	if err != nil {
		return Point{}, GeocodingResult{}, fmt.Errorf("forward geocode %q: %w", query, err)
	}
	if result.Lat == 0 && result.Lon == 0 {
		return Point{}, GeocodingResult{}, fmt.Errorf("%w: %q", ErrPlaceNotFound, query)
	}
	pt := Point{Lon: result.Lon, Lat: result.Lat}
	if !pt.Valid() {
		return Point{}, GeocodingResult{}, fmt.Errorf("%w: %q resolved outside WGS84 range", ErrPlaceNotFound, query)
	}
	return pt, result, nil
}

// WithPlace copies place details from a geocoding result.
func (a Assessment) WithPlace(result GeocodingResult, source string) Assessment {
	a.FormattedAddress = result.FormattedAddress
	a.PlaceName = result.PlaceName
	a.GeoConfidence = result.Confidence
	a.GeoSource = source
	return a
}

// AnnotateWithPlace attempts to reverse-geocode the assessed point. If the
// geocoder is nil or the lookup fails, the assessment is returned with
// GeoSource set accordingly (graceful degradation).
func AnnotateWithPlace(ctx context.Context, a Assessment, geocoder Geocoder, logger *slog.Logger) Assessment {
	if geocoder == nil {
		return a
	}

	result, err := geocoder.ReverseGeocode(ctx, a.Point.Lat, a.Point.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"assessment_id", a.ID,
			"lat", a.Point.Lat,
			"lon", a.Point.Lon,
			"error", err,
		)
		a.GeoSource = "failed"
		return a
	}
	if result.FormattedAddress != "" {
		return a.WithPlace(result, "reverse")
	}
	a.GeoSource = "original"
	return a
}
