package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// LabelSource records which path produced an assessment's label.
type LabelSource string

const (
	SourceRules LabelSource = "rules"
	SourceModel LabelSource = "model"
)

// Assessment is the full result of assessing a point.
type Assessment struct {
	ID               string        `json:"id"`
	Point            Point         `json:"point"`
	Features         FeatureVector `json:"features"`
	Breakdown        Breakdown     `json:"breakdown"`
	RuleScore        int           `json:"rule_score"`
	RuleLabel        RiskLabel     `json:"rule_label"`
	Label            RiskLabel     `json:"label"`
	LabelSource      LabelSource   `json:"label_source"`
	PlaceName        string        `json:"place_name,omitempty"`
	FormattedAddress string        `json:"formatted_address,omitempty"`
	GeoConfidence    float64       `json:"geo_confidence,omitempty"`
	GeoSource        string        `json:"geo_source,omitempty"`
	Diagnostics      Diagnostics   `json:"diagnostics"`
	AssessedAt       time.Time     `json:"assessed_at"`
}

// NewAssessment scores the features of pt. The label starts out as the rule
// label; callers with a trained model overwrite it via WithModelLabel.
func NewAssessment(pt Point, fv FeatureVector, diag Diagnostics) Assessment {
	b := ScoreBreakdown(fv)
	score := b.Total()
	label := LabelFromScore(score)
	return Assessment{
		ID:          generateID(pt),
		Point:       pt,
		Features:    fv,
		Breakdown:   b,
		RuleScore:   score,
		RuleLabel:   label,
		Label:       label,
		LabelSource: SourceRules,
		Diagnostics: diag,
		AssessedAt:  Now(),
	}
}

// WithModelLabel replaces the label with one predicted by a model.
func (a Assessment) WithModelLabel(l RiskLabel) Assessment {
	a.Label = l
	a.LabelSource = SourceModel
	return a
}

// Agrees reports whether the final label matches the rule label.
func (a Assessment) Agrees() bool {
	return a.Label == a.RuleLabel
}

func generateID(pt Point) string {
	input := fmt.Sprintf("%.6f|%.6f", pt.Lon, pt.Lat)
	hash := sha256.Sum256([]byte(input))
	return "assess-" + hex.EncodeToString(hash[:8])
}
