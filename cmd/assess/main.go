// Command assess prints the assessment for a single point as JSON.
//
// Usage:
//
//	go run ./cmd/assess --lon=-121.74 --lat=38.54
//	go run ./cmd/assess --lon=-121.74 --lat=38.54 --overlay > overlay.geojson
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
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
	Lon        float64 `long:"lon"                 description:"Longitude in degrees" required:"true"`
	Lat        float64 `long:"lat"                 description:"Latitude in degrees"  required:"true"`
	LayerDir   string  `short:"d" long:"layer-dir" env:"LAYER_DIR"   description:"Directory holding the layer files" default:"data/processed"`
	FloodLayer string  `long:"flood"               env:"FLOOD_LAYER" description:"Flood layer file"   default:"flood.geojson"`
	FireLayer  string  `long:"fire"                env:"FIRE_LAYER"  description:"Fire layer file"    default:"fire.geojson"`
	QuakeLayer string  `long:"quake"               env:"QUAKE_LAYER" description:"Seismic layer file" default:"quake.geojson"`
	StormLayer string  `long:"storm"               env:"STORM_LAYER" description:"Storm layer file"   default:"storm.geojson"`
	Sample     bool    `long:"sample"              description:"Use the synthetic sample layers around the default bbox"`
	ModelPath  string  `short:"m" long:"model"     env:"MODEL_PATH"  description:"Model artifact; rules are used when missing" default:"models/model.json.zst"`
	Overlay    bool    `long:"overlay"             description:"Print the overlay GeoJSON instead of the assessment"`
	LogLevel   string  `long:"log-level"           env:"LOG_LEVEL"   description:"Log level" default:"warn" choice:"debug" choice:"info" choice:"warn" choice:"error"`
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

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "assess: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts Options) error {
	// Logs go to stderr so stdout stays valid JSON.
	logger := observability.NewLoggerTo(os.Stderr, opts.LogLevel, "text")

	var set *layers.Set
	if opts.Sample {
		set = layers.Sample(domain.DefaultTrainingBBox)
	} else {
		paths := layers.PathsIn(opts.LayerDir, opts.FloodLayer, opts.FireLayer, opts.QuakeLayer, opts.StormLayer)
		set = layers.LoadSet(paths, logger)
	}

	var model pipeline.Predictor
	m, err := classifier.Load(opts.ModelPath)
	switch {
	case err == nil:
		model = m
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("no model artifact, using rule labels", "path", opts.ModelPath)
	default:
		return err
	}

	svc := pipeline.NewAssessor(features.NewExtractor(set, logger), model, nil, nil, logger, nil)
	pt := domain.Point{Lon: opts.Lon, Lat: opts.Lat}

	if opts.Overlay {
		fc, err := svc.Overlay(ctx, pt)
		if err != nil {
			return err
		}
		data, err := fc.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encode overlay: %w", err)
		}
		_, err = fmt.Fprintln(os.Stdout, string(data))
		return err
	}

	a, err := svc.Assess(ctx, pt)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}
