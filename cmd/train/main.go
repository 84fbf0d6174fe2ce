// Command train builds a grid dataset over a bounding box, labels it with the
// rule scorer, and fits a classifier that reproduces those labels.
//
// Usage:
//
//	go run ./cmd/train --layer-dir data/processed --out models/model.json.zst
//	go run ./cmd/train --sample --grid 20 --bbox=-122.0,38.35,-121.50,38.70
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/hazard-score/internal/classifier"
	"github.com/couchcryptid/hazard-score/internal/domain"
	"github.com/couchcryptid/hazard-score/internal/features"
	"github.com/couchcryptid/hazard-score/internal/layers"
	"github.com/couchcryptid/hazard-score/internal/observability"
	"github.com/couchcryptid/hazard-score/internal/pipeline"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Options are the command line flags.
type Options struct {
	BBox       string `short:"b" long:"bbox"        env:"TRAIN_BBOX"   description:"Training bbox as minlon,minlat,maxlon,maxlat" default:"-122.0,38.35,-121.50,38.70"`
	Grid       int    `short:"g" long:"grid"        env:"TRAIN_GRID"   description:"Grid steps along each axis"                   default:"14"`
	Trees      int    `short:"t" long:"trees"                          description:"Number of trees in the forest"                default:"220"`
	Seed       uint64 `short:"s" long:"seed"                           description:"Random seed for balancing, split and forest"  default:"42"`
	LayerDir   string `short:"d" long:"layer-dir"   env:"LAYER_DIR"    description:"Directory holding the layer files"            default:"data/processed"`
	FloodLayer string `long:"flood"                 env:"FLOOD_LAYER"  description:"Flood layer file"                             default:"flood.geojson"`
	FireLayer  string `long:"fire"                  env:"FIRE_LAYER"   description:"Fire layer file"                              default:"fire.geojson"`
	QuakeLayer string `long:"quake"                 env:"QUAKE_LAYER"  description:"Seismic layer file"                           default:"quake.geojson"`
	StormLayer string `long:"storm"                 env:"STORM_LAYER"  description:"Storm layer file"                             default:"storm.geojson"`
	Sample     bool   `long:"sample"                                   description:"Use the synthetic sample layers instead of files"`
	Output     string `short:"o" long:"out"         env:"MODEL_PATH"   description:"Model artifact path (.zst compresses)"        default:"models/model.json.zst"`
	LogLevel   string `long:"log-level"             env:"LOG_LEVEL"    description:"Log level"                                    default:"info" choice:"debug" choice:"info" choice:"warn" choice:"error"`
	LogFormat  string `long:"log-format"            env:"LOG_FORMAT"   description:"Log format"                                   default:"text" choice:"json" choice:"text"`
}

func main() {
	_ = godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "train: %v\n", err)
		os.Exit(1)
	}
}

func run(opts Options) error {
	logger := observability.NewLogger(opts.LogLevel, opts.LogFormat)

	bbox, err := domain.ParseBBox(opts.BBox)
	if err != nil {
		return err
	}
	if opts.Grid < 2 {
		return fmt.Errorf("grid must be at least 2, got %d", opts.Grid)
	}

	var set *layers.Set
	if opts.Sample {
		set = layers.Sample(bbox)
		logger.Info("using synthetic sample layers", "bbox", bbox.String())
	} else {
		paths := layers.PathsIn(opts.LayerDir, opts.FloodLayer, opts.FireLayer, opts.QuakeLayer, opts.StormLayer)
		set = layers.LoadSet(paths, logger)
	}
	if set.Available() == 0 {
		logger.Warn("no hazard layers available, every row will be dropped")
	}

	ext := features.NewExtractor(set, logger)
	rows := pipeline.BuildDataset(ext, bbox, opts.Grid, opts.Grid, logger)

	cfg := pipeline.DefaultTrainConfig()
	cfg.Forest.Trees = opts.Trees
	cfg.Forest.Seed = opts.Seed

	model, err := pipeline.Train(rows, cfg, logger)
	if err != nil {
		return err
	}
	if err := classifier.Save(model, opts.Output); err != nil {
		return err
	}

	logger.Info("model written",
		"path", opts.Output,
		"model_id", model.ID,
		"kind", model.Kind,
		"rows", model.Metrics.Rows,
		"validation_accuracy", model.Metrics.ValidationAccuracy,
	)
	return nil
}
