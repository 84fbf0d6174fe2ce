package pipeline

import (
	"log/slog"
	"math/rand/v2"

	"github.com/couchcryptid/hazard-score/internal/domain"
)

// DefaultGridSize is the number of grid steps along each axis of a training bbox.
const DefaultGridSize = 14

// FeatureSource extracts features and per-layer diagnostics for a point.
type FeatureSource interface {
	ExtractDetailed(pt domain.Point) (domain.FeatureVector, domain.Diagnostics)
}

// Row is one labelled training example.
type Row struct {
	Point    domain.Point
	Features domain.FeatureVector
	Score    int
	Label    domain.RiskLabel
}

// BuildDataset extracts and scores every point of an nx by ny grid over b.
// Points with no usable feature at all are dropped: the three polygon
// features are null and the storm lookup was unavailable.
//
// A storm count of zero is a real value, so while the storm layer is loaded
// no point is ever dropped. When the storm layer is down, points outside
// every polygon are dropped rather than kept as Low rows, which narrows the
// training grid for that run.
func BuildDataset(src FeatureSource, b domain.BBox, nx, ny int, logger *slog.Logger) []Row {
	grid := b.Grid(nx, ny)
	rows := make([]Row, 0, len(grid))
	dropped := 0

	for _, pt := range grid {
		fv, diag := src.ExtractDetailed(pt)
		if allNull(fv, diag) {
			dropped++
			continue
		}
		score, label := domain.Score(fv)
		rows = append(rows, Row{Point: pt, Features: fv, Score: score, Label: label})
	}

	logger.Info("dataset built",
		"bbox", b.String(),
		"grid", len(grid),
		"rows", len(rows),
		"dropped", dropped,
	)
	return rows
}

func allNull(fv domain.FeatureVector, diag domain.Diagnostics) bool {
	return fv.FEMAZone == nil && fv.FireClass == nil && fv.PGA == nil &&
		diag.Unavailable(domain.HazardStorm)
}

// LabelCounts returns the number of rows per label.
func LabelCounts(rows []Row) map[domain.RiskLabel]int {
	counts := make(map[domain.RiskLabel]int, len(domain.Labels))
	for _, r := range rows {
		counts[r.Label]++
	}
	return counts
}

// Upsample replaces every label with fewer than minPerClass rows by
// minPerClass rows drawn with replacement from that label. Output is grouped
// by label in severity order, so a fixed rng seed gives a fixed result.
func Upsample(rows []Row, minPerClass int, rng *rand.Rand) []Row {
	byLabel := make(map[domain.RiskLabel][]Row, len(domain.Labels))
	for _, r := range rows {
		byLabel[r.Label] = append(byLabel[r.Label], r)
	}

	out := make([]Row, 0, len(rows))
	for _, label := range domain.Labels {
		group := byLabel[label]
		if len(group) == 0 {
			continue
		}
		if len(group) >= minPerClass {
			out = append(out, group...)
			continue
		}
		for range minPerClass {
			out = append(out, group[rng.IntN(len(group))])
		}
	}
	return out
}
