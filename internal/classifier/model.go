package classifier

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/couchcryptid/hazard-score/internal/domain"
	"github.com/google/uuid"
)

// ArtifactVersion is bumped whenever the artifact layout changes.
const ArtifactVersion = 1

// Kind distinguishes the two model shapes.
type Kind string

const (
	KindConstant Kind = "constant"
	KindForest   Kind = "random_forest"
)

// Metrics records how a model was trained.
type Metrics struct {
	Rows               int                      `json:"rows"`
	BalancedRows       int                      `json:"balanced_rows"`
	TrainSize          int                      `json:"train_size"`
	ValidationSize     int                      `json:"validation_size"`
	ValidationAccuracy float64                  `json:"validation_accuracy"`
	Stratified         bool                     `json:"stratified"`
	Distribution       map[domain.RiskLabel]int `json:"label_distribution,omitempty"`
}

// Model maps feature vectors to risk labels. A Model is immutable once built
// and safe for concurrent use.
type Model struct {
	Version   int                `json:"version"`
	ID        string             `json:"id"`
	Kind      Kind               `json:"kind"`
	TrainedAt time.Time          `json:"trained_at"`
	Classes   []domain.RiskLabel `json:"classes"`
	Constant  domain.RiskLabel   `json:"constant,omitempty"`
	Encoder   *Encoder           `json:"encoder,omitempty"`
	Forest    *Forest            `json:"forest,omitempty"`
	Metrics   Metrics            `json:"metrics"`
}

// NewConstant returns a model that always predicts label.
func NewConstant(label domain.RiskLabel) *Model {
	return &Model{
		Version:   ArtifactVersion,
		ID:        uuid.NewString(),
		Kind:      KindConstant,
		TrainedAt: domain.Now(),
		Classes:   []domain.RiskLabel{label},
		Constant:  label,
	}
}

// NewForestModel wraps a fitted encoder and forest. classes[i] is the label
// of forest class index i.
func NewForestModel(enc *Encoder, forest *Forest, classes []domain.RiskLabel) *Model {
	return &Model{
		Version:   ArtifactVersion,
		ID:        uuid.NewString(),
		Kind:      KindForest,
		TrainedAt: domain.Now(),
		Classes:   slices.Clone(classes),
		Encoder:   enc,
		Forest:    forest,
	}
}

// Predict coerces fv and returns the predicted label.
func (m *Model) Predict(fv domain.FeatureVector) domain.RiskLabel {
	return m.PredictRow(Coerce(fv))
}

// PredictRow returns the predicted label for an already coerced row.
func (m *Model) PredictRow(r Row) domain.RiskLabel {
	if m.Kind == KindConstant {
		return m.Constant
	}
	return m.Classes[m.Forest.Predict(m.Encoder.Transform(r))]
}

// Validate checks that the model can serve predictions.
func (m *Model) Validate() error {
	if m.Version != ArtifactVersion {
		return fmt.Errorf("unsupported artifact version %d", m.Version)
	}
	if len(m.Classes) == 0 {
		return errors.New("model has no classes")
	}
	for _, c := range m.Classes {
		if c.Rank() < 0 {
			return fmt.Errorf("unknown class %q", c)
		}
	}

	switch m.Kind {
	case KindConstant:
		if m.Constant.Rank() < 0 {
			return fmt.Errorf("unknown constant label %q", m.Constant)
		}
		return nil
	case KindForest:
		if m.Encoder == nil || m.Forest == nil {
			return errors.New("forest model missing encoder or forest")
		}
		if !slices.IsSorted(m.Encoder.FEMAZones) || !slices.IsSorted(m.Encoder.FireClasses) {
			return errors.New("encoder categories are not sorted")
		}
		if m.Encoder.Width() != m.Forest.Features {
			return fmt.Errorf("encoder width %d does not match forest features %d", m.Encoder.Width(), m.Forest.Features)
		}
		if len(m.Classes) != m.Forest.Classes {
			return fmt.Errorf("model has %d classes but forest has %d", len(m.Classes), m.Forest.Classes)
		}
		return m.Forest.check()
	default:
		return fmt.Errorf("unknown model kind %q", m.Kind)
	}
}
