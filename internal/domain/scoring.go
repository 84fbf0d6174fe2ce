package domain

import (
	"fmt"
	"strings"
)

// RiskLabel is the categorical risk derived from a rule score.
type RiskLabel string

const (
	LabelLow      RiskLabel = "Low"
	LabelModerate RiskLabel = "Moderate"
	LabelHigh     RiskLabel = "High"
	LabelVeryHigh RiskLabel = "Very High"
)

// Labels lists every label in ascending order of risk.
var Labels = []RiskLabel{LabelLow, LabelModerate, LabelHigh, LabelVeryHigh}

// ParseRiskLabel returns the label matching s exactly.
func ParseRiskLabel(s string) (RiskLabel, error) {
	for _, l := range Labels {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown risk label %q", s)
}

// Rank returns the position of l in Labels, or -1.
func (l RiskLabel) Rank() int {
	for i, v := range Labels {
		if v == l {
			return i
		}
	}
	return -1
}

// Breakdown holds the points each hazard contributes to the rule score.
type Breakdown struct {
	Flood int `json:"flood"`
	Fire  int `json:"fire"`
	Quake int `json:"quake"`
	Storm int `json:"storm"`
}

// MaxScore bounds the rule score. The sub-score maxima sum to 105.
const MaxScore = 100

// Total is the rule score: the sum of the sub-scores, clamped to MaxScore.
func (b Breakdown) Total() int {
	return min(b.Flood+b.Fire+b.Quake+b.Storm, MaxScore)
}

// ScoreBreakdown computes the sub-score of every hazard.
func ScoreBreakdown(fv FeatureVector) Breakdown {
	return Breakdown{
		Flood: FloodPoints(fv.FEMAZone),
		Fire:  FirePoints(fv.FireClass),
		Quake: QuakePoints(fv.PGA),
		Storm: StormPoints(fv.StormCount5km),
	}
}

// Score returns the rule score in [0, 100] and its label.
func Score(fv FeatureVector) (int, RiskLabel) {
	s := ScoreBreakdown(fv).Total()
	return s, LabelFromScore(s)
}

// LabelFromScore maps a score onto the four label bands.
func LabelFromScore(score int) RiskLabel {
	switch {
	case score < 25:
		return LabelLow
	case score < 45:
		return LabelModerate
	case score < 65:
		return LabelHigh
	default:
		return LabelVeryHigh
	}
}

// FloodPoints scores a FEMA zone: A* 40, X* 15, anything else 0.
func FloodPoints(zone *string) int {
	if zone == nil || *zone == "" {
		return 0
	}
	z := strings.ToUpper(*zone)
	switch {
	case strings.HasPrefix(z, "A"):
		return 40
	case strings.HasPrefix(z, "X"):
		return 15
	default:
		return 0
	}
}

// FirePoints scores a fire hazard class. The checks run in priority order so
// "Very High" matches "very" before "high".
func FirePoints(class *string) int {
	if class == nil || *class == "" {
		return 0
	}
	c := strings.ToLower(*class)
	switch {
	case strings.Contains(c, "very"):
		return 30
	case strings.Contains(c, "high"):
		return 20
	case strings.Contains(c, "moderate"):
		return 10
	default:
		return 0
	}
}

// QuakePoints scores a peak ground acceleration in g.
func QuakePoints(pga *float64) int {
	if pga == nil {
		return 0
	}
	switch {
	case *pga >= 0.35:
		return 25
	case *pga >= 0.20:
		return 15
	default:
		return 0
	}
}

// StormPoints scores the number of storms within 5 km.
func StormPoints(count int) int {
	switch {
	case count >= 5:
		return 10
	case count >= 2:
		return 5
	default:
		return 0
	}
}
