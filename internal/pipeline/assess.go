package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hazard-score/internal/domain"
	"github.com/couchcryptid/hazard-score/internal/layers"
	"github.com/couchcryptid/hazard-score/internal/observability"
	"github.com/paulmach/orb/geojson"
)

// ErrInvalidPoint is returned for coordinates outside the WGS84 range.
var ErrInvalidPoint = errors.New("invalid point")

// LayerExtractor extracts features from a loaded layer set.
type LayerExtractor interface {
	FeatureSource
	Layers() *layers.Set
	LayersAvailable() int
}

// Predictor maps a feature vector to a risk label.
type Predictor interface {
	Predict(fv domain.FeatureVector) domain.RiskLabel
}

// Publisher delivers completed assessments downstream.
type Publisher interface {
	Publish(ctx context.Context, a domain.Assessment) error
}

// Assessor runs extraction, rule scoring and optional model prediction for a
// single point. All collaborators are read-only after construction, so an
// Assessor is safe for concurrent use.
type Assessor struct {
	extractor LayerExtractor
	model     Predictor
	geocoder  domain.Geocoder
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewAssessor creates an Assessor. model, geocoder and publisher may be nil:
// without a model labels come from the rules, without a geocoder place
// queries fail with domain.ErrGeocodingDisabled, and without a publisher
// assessments are not forwarded.
func NewAssessor(ext LayerExtractor, model Predictor, geocoder domain.Geocoder, pub Publisher, logger *slog.Logger, metrics *observability.Metrics) *Assessor {
	return &Assessor{
		extractor: ext,
		model:     model,
		geocoder:  geocoder,
		publisher: pub,
		logger:    logger,
		metrics:   metrics,
	}
}

// ModelLoaded reports whether labels come from a trained model.
func (s *Assessor) ModelLoaded() bool {
	return s.model != nil
}

// GeocodingEnabled reports whether place queries can be resolved.
func (s *Assessor) GeocodingEnabled() bool {
	return s.geocoder != nil
}

// CheckReadiness returns nil once at least one hazard layer is loaded.
func (s *Assessor) CheckReadiness(_ context.Context) error {
	if s.extractor.LayersAvailable() == 0 {
		return errors.New("no hazard layers loaded")
	}
	return nil
}

// Assess scores pt, annotates it with a reverse-geocoded place when a
// geocoder is configured, and publishes the result.
func (s *Assessor) Assess(ctx context.Context, pt domain.Point) (domain.Assessment, error) {
	a, err := s.evaluate(pt)
	if err != nil {
		return domain.Assessment{}, err
	}
	a = domain.AnnotateWithPlace(ctx, a, s.geocoder, s.logger)
	s.finish(ctx, a)
	return a, nil
}

// AssessPlace forward-geocodes query and assesses the resulting point.
func (s *Assessor) AssessPlace(ctx context.Context, query string) (domain.Assessment, error) {
	pt, place, err := domain.ResolvePlace(ctx, s.geocoder, query)
	if err != nil {
		return domain.Assessment{}, err
	}
	a, err := s.evaluate(pt)
	if err != nil {
		return domain.Assessment{}, err
	}
	a = a.WithPlace(place, "forward")
	s.finish(ctx, a)
	return a, nil
}

// Overlay returns every layer geometry plus the assessed site point as one
// GeoJSON collection. Overlays are not published.
func (s *Assessor) Overlay(_ context.Context, pt domain.Point) (*geojson.FeatureCollection, error) {
	a, err := s.evaluate(pt)
	if err != nil {
		return nil, err
	}
	return layers.Overlay(s.extractor.Layers(), a), nil
}

func (s *Assessor) evaluate(pt domain.Point) (domain.Assessment, error) {
	if !pt.Valid() {
		return domain.Assessment{}, fmt.Errorf("%w: lon=%v lat=%v", ErrInvalidPoint, pt.Lon, pt.Lat)
	}

	start := time.Now()
	fv, diag := s.extractor.ExtractDetailed(pt)
	s.metrics.ObserveExtraction(time.Since(start))
	for _, h := range domain.Hazards {
		if st, ok := diag[h]; ok {
			s.metrics.CountLookup(string(h), string(st.Outcome))
		}
	}

	a := domain.NewAssessment(pt, fv, diag)
	if s.model != nil {
		a = a.WithModelLabel(s.model.Predict(fv))
	}
	return a, nil
}

func (s *Assessor) finish(ctx context.Context, a domain.Assessment) {
	s.metrics.CountAssessment(string(a.Label), string(a.LabelSource))
	s.logger.Debug("point assessed",
		"assessment_id", a.ID,
		"lon", a.Point.Lon,
		"lat", a.Point.Lat,
		"rule_score", a.RuleScore,
		"label", a.Label,
		"label_source", a.LabelSource,
	)

	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, a)
	s.metrics.CountPublish(err)
	if err != nil {
		s.logger.Error("publish assessment failed", "assessment_id", a.ID, "error", err)
	}
}
