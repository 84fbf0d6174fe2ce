// Command validate checks hazard layer files and, optionally, a model
// artifact before they are deployed. Layers are checked for geometry types,
// coordinate ranges, and attribute presence and types; the model is loaded,
// smoke-tested, and compared against the rule labels over a grid.
//
// Usage:
//
//	go run ./cmd/validate --layer-dir data/processed
//	go run ./cmd/validate --layer-dir data/processed --model models/model.json.zst --min-agreement 0.9
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/hazard-score/internal/classifier"
	"github.com/couchcryptid/hazard-score/internal/domain"
	"github.com/couchcryptid/hazard-score/internal/features"
	"github.com/couchcryptid/hazard-score/internal/layers"
	"github.com/couchcryptid/hazard-score/internal/pipeline"
	"github.com/jessevdk/go-flags"
)

// Options are the command line flags.
type Options struct {
	LayerDir     string  `short:"d" long:"layer-dir" env:"LAYER_DIR"   description:"Directory holding the layer files" default:"data/processed"`
	FloodLayer   string  `long:"flood"               env:"FLOOD_LAYER" description:"Flood layer file"   default:"flood.geojson"`
	FireLayer    string  `long:"fire"                env:"FIRE_LAYER"  description:"Fire layer file"    default:"fire.geojson"`
	QuakeLayer   string  `long:"quake"               env:"QUAKE_LAYER" description:"Seismic layer file" default:"quake.geojson"`
	StormLayer   string  `long:"storm"               env:"STORM_LAYER" description:"Storm layer file"   default:"storm.geojson"`
	ModelPath    string  `short:"m" long:"model"     description:"Model artifact to check (skipped when empty)"`
	BBox         string  `short:"b" long:"bbox"      description:"Bbox for the agreement check" default:"-122.0,38.35,-121.50,38.70"`
	Grid         int     `short:"g" long:"grid"      description:"Grid steps for the agreement check" default:"14"`
	MinAgreement float64 `long:"min-agreement"       description:"Fail when rule/model agreement is below this ratio" default:"0"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	os.Exit(run(opts, os.Stdout))
}

func run(opts Options, out io.Writer) int {
	fmt.Fprintln(out, "=== Hazard Layer Validation ===")
	fmt.Fprintln(out)

	paths := layers.PathsIn(opts.LayerDir, opts.FloodLayer, opts.FireLayer, opts.QuakeLayer, opts.StormLayer)
	set, loadPhase := loadLayers(paths)
	phases := []*phase{loadPhase, validateLayers(set)}

	if opts.ModelPath != "" {
		model, modelPhase := loadModel(opts.ModelPath)
		phases = append(phases, modelPhase)
		if model != nil {
			phases = append(phases, checkAgreement(set, model, opts))
		}
	}

	return report(out, phases)
}

// ── Phases ──

func loadLayers(paths layers.Paths) (*layers.Set, *phase) {
	p := &phase{name: "Layer files load"}
	set := &layers.Set{}
	for _, h := range domain.Hazards {
		l, err := layers.LoadFile(h, paths.Path(h))
		if err != nil {
			p.errorf("%s: %v", h, err)
			continue
		}
		p.notef("%s: %d records from %s", h, l.Len(), paths.Path(h))
		set.Put(l)
	}
	return set, p
}

func validateLayers(set *layers.Set) *phase {
	p := &phase{name: "Layer geometry and attributes"}
	for _, h := range domain.Hazards {
		l := set.Layer(h)
		if l == nil {
			continue
		}
		if l.Len() == 0 {
			p.notef("%s: layer is empty", h)
			continue
		}
		for _, issue := range layers.Validate(l) {
			p.errorf("%s: %s", h, issue)
		}
	}
	return p
}

func loadModel(path string) (*classifier.Model, *phase) {
	p := &phase{name: "Model artifact"}
	m, err := classifier.Load(path)
	if err != nil {
		p.errorf("%v", err)
		return nil, p
	}

	// An all-null vector exercises the coercion path end to end.
	label := m.Predict(domain.FeatureVector{})
	if label.Rank() < 0 {
		p.errorf("smoke prediction returned unknown label %q", label)
	}
	p.notef("model %s (%s) trained %s, classes %v", m.ID, m.Kind, m.TrainedAt.Format(time.RFC3339), m.Classes)
	p.notef("validation accuracy %.3f on %d rows", m.Metrics.ValidationAccuracy, m.Metrics.ValidationSize)
	return m, p
}

func checkAgreement(set *layers.Set, m *classifier.Model, opts Options) *phase {
	p := &phase{name: "Rule/model agreement"}
	bbox, err := domain.ParseBBox(opts.BBox)
	if err != nil {
		p.errorf("%v", err)
		return p
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rows := pipeline.BuildDataset(features.NewExtractor(set, logger), bbox, opts.Grid, opts.Grid, logger)
	if len(rows) == 0 {
		p.notef("no rows in %s, nothing to compare", bbox)
		return p
	}

	agree := 0
	for _, r := range rows {
		if m.Predict(r.Features) == r.Label {
			agree++
		}
	}
	ratio := float64(agree) / float64(len(rows))
	p.notef("%d of %d grid points agree (%.3f)", agree, len(rows), ratio)
	if ratio < opts.MinAgreement {
		p.errorf("agreement %.3f below minimum %.3f", ratio, opts.MinAgreement)
	}
	return p
}

// ── Reporting ──

func report(out io.Writer, phases []*phase) int {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
		for _, n := range p.notes {
			fmt.Fprintf(out, "      %s\n", n)
		}
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}
