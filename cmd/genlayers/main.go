// Command genlayers writes a deterministic synthetic set of hazard layers:
// an A flood band wrapped by an X band, nested fire polygons, nested seismic
// zones, and storm points with a cluster at the center of the bbox.
//
// Usage:
//
//	go run ./cmd/genlayers --out data/processed
//	go run ./cmd/genlayers --out /tmp/layers --bbox=-122.0,38.35,-121.50,38.70
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/couchcryptid/hazard-score/internal/domain"
	"github.com/couchcryptid/hazard-score/internal/layers"
	"github.com/jessevdk/go-flags"
)

// Options are the command line flags.
type Options struct {
	Out  string `short:"o" long:"out"  env:"LAYER_DIR" description:"Output directory"                            default:"data/processed"`
	BBox string `short:"b" long:"bbox"                 description:"Bbox as minlon,minlat,maxlon,maxlat" default:"-122.0,38.35,-121.50,38.70"`
}

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

	if err := run(opts); err != nil {
		log.Fatal(err)
	}
}

func run(opts Options) error {
	bbox, err := domain.ParseBBox(opts.BBox)
	if err != nil {
		return err
	}

	set := layers.Sample(bbox)
	paths := layers.DefaultPaths(opts.Out)
	if err := layers.WriteSet(set, paths); err != nil {
		return fmt.Errorf("write sample layers: %w", err)
	}

	for _, h := range domain.Hazards {
		log.Printf("%s: %d records -> %s", h, set.Layer(h).Len(), paths.Path(h))
	}
	return nil
}
