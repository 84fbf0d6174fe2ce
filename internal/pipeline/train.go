package pipeline

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/couchcryptid/hazard-score/internal/classifier"
	"github.com/couchcryptid/hazard-score/internal/domain"
)

// TrainConfig controls dataset balancing, the validation split, and the forest.
type TrainConfig struct {
	Forest       classifier.ForestParams
	TestFraction float64
	MinPerClass  int
}

// DefaultTrainConfig returns 220 trees, seed 42, a 20% validation split and
// at least 6 rows per label.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Forest:       classifier.DefaultForestParams(),
		TestFraction: 0.2,
		MinPerClass:  6,
	}
}

// Train fits a model that reproduces the row labels. Degenerate datasets
// produce a constant model instead of an error: no rows gives Low, a single
// label gives that label. Validation accuracy is reported in the model
// metrics and never gates the result.
func Train(rows []Row, cfg TrainConfig, logger *slog.Logger) (*classifier.Model, error) {
	dist := LabelCounts(rows)
	logger.Info("label distribution before balancing", distributionAttrs(dist)...)

	present := presentLabels(dist)
	switch len(present) {
	case 0:
		logger.Warn("no training rows, using constant model", "label", domain.LabelLow)
		m := classifier.NewConstant(domain.LabelLow)
		m.Metrics.Distribution = dist
		return m, nil
	case 1:
		logger.Warn("single label in dataset, using constant model", "label", present[0], "rows", len(rows))
		m := classifier.NewConstant(present[0])
		m.Metrics = classifier.Metrics{Rows: len(rows), Distribution: dist}
		return m, nil
	}

	rng := rand.New(rand.NewPCG(cfg.Forest.Seed, cfg.Forest.Seed))
	balanced := Upsample(rows, cfg.MinPerClass, rng)

	classIndex := make(map[domain.RiskLabel]int, len(present))
	for i, l := range present {
		classIndex[l] = i
	}
	y := make([]int, len(balanced))
	coerced := make([]classifier.Row, len(balanced))
	for i, r := range balanced {
		y[i] = classIndex[r.Label]
		coerced[i] = classifier.Coerce(r.Features)
	}

	trainIdx, testIdx, stratified := splitRows(y, len(present), cfg.TestFraction, rng)
	if !stratified {
		logger.Warn("stratified split impossible, using a random split", "rows", len(balanced))
	}

	trainRows := pick(coerced, trainIdx)
	enc := classifier.FitEncoder(trainRows)
	x := make([][]float64, len(trainRows))
	for i, r := range trainRows {
		x[i] = enc.Transform(r)
	}

	forest, err := classifier.FitForest(x, pick(y, trainIdx), len(present), cfg.Forest)
	if err != nil {
		return nil, fmt.Errorf("train forest: %w", err)
	}
	m := classifier.NewForestModel(enc, forest, present)

	correct := 0
	for _, i := range testIdx {
		if m.PredictRow(coerced[i]) == balanced[i].Label {
			correct++
		}
	}
	accuracy := 0.0
	if len(testIdx) > 0 {
		accuracy = float64(correct) / float64(len(testIdx))
	}

	m.Metrics = classifier.Metrics{
		Rows:               len(rows),
		BalancedRows:       len(balanced),
		TrainSize:          len(trainIdx),
		ValidationSize:     len(testIdx),
		ValidationAccuracy: accuracy,
		Stratified:         stratified,
		Distribution:       dist,
	}
	logger.Info("model trained",
		"model_id", m.ID,
		"classes", len(present),
		"train_size", len(trainIdx),
		"validation_size", len(testIdx),
		"validation_accuracy", accuracy,
	)
	return m, nil
}

func presentLabels(dist map[domain.RiskLabel]int) []domain.RiskLabel {
	var out []domain.RiskLabel
	for _, l := range domain.Labels {
		if dist[l] > 0 {
			out = append(out, l)
		}
	}
	return out
}

func distributionAttrs(dist map[domain.RiskLabel]int) []any {
	attrs := make([]any, 0, 2*len(domain.Labels))
	for _, l := range domain.Labels {
		attrs = append(attrs, string(l), dist[l])
	}
	return attrs
}

// splitRows holds out ceil(testFraction*n) rows for validation. When every
// class has at least two rows and both sides can hold one row per class, the
// split is stratified: each class contributes its proportional share to the
// test side, with leftover slots going to the largest remainders, and every
// class appears on both sides. Otherwise it falls back to a plain shuffled
// split.
func splitRows(y []int, classes int, testFraction float64, rng *rand.Rand) (train, test []int, stratified bool) {
	n := len(y)
	nTest := int(math.Ceil(testFraction * float64(n)))
	nTest = min(max(nTest, 0), n)
	nTrain := n - nTest

	byClass := make([][]int, classes)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}

	if !canStratify(byClass, nTrain, nTest) {
		perm := rng.Perm(n)
		test = append(test, perm[:nTest]...)
		train = append(train, perm[nTest:]...)
		sort.Ints(train)
		sort.Ints(test)
		return train, test, false
	}

	quota := allocate(byClass, n, nTest)
	for c, idx := range byClass {
		shuffled := make([]int, len(idx))
		for i, j := range rng.Perm(len(idx)) {
			shuffled[i] = idx[j]
		}
		test = append(test, shuffled[:quota[c]]...)
		train = append(train, shuffled[quota[c]:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, true
}

func canStratify(byClass [][]int, nTrain, nTest int) bool {
	if nTest < len(byClass) || nTrain < len(byClass) {
		return false
	}
	for _, idx := range byClass {
		if len(idx) < 2 {
			return false
		}
	}
	return true
}

// allocate splits nTest across classes by largest remainder. Every class
// gets at least one test row and keeps at least one training row, and the
// quotas always sum to nTest; canStratify guarantees that is possible.
// Ties go to the lower class index.
func allocate(byClass [][]int, n, nTest int) []int {
	quota := make([]int, len(byClass))
	rem := make([]float64, len(byClass))
	assigned := 0
	for c, idx := range byClass {
		exact := float64(len(idx)) * float64(nTest) / float64(n)
		floor := int(math.Floor(exact))
		rem[c] = exact - float64(floor)
		quota[c] = min(max(floor, 1), len(idx)-1)
		assigned += quota[c]
	}

	order := make([]int, len(byClass))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return rem[order[a]] > rem[order[b]] })

	for assigned < nTest {
		progressed := false
		for _, c := range order {
			if assigned < nTest && quota[c] < len(byClass[c])-1 {
				quota[c]++
				assigned++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	// raising empty classes to one row can overshoot; take back from the
	// smallest remainders first
	for assigned > nTest {
		progressed := false
		for i := len(order) - 1; i >= 0; i-- {
			c := order[i]
			if assigned > nTest && quota[c] > 1 {
				quota[c]--
				assigned--
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return quota
}

func pick[T any](s []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = s[j]
	}
	return out
}
