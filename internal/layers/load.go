package layers

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/hazard-score/internal/domain"
	"github.com/paulmach/orb/geojson"
)

// Paths locates the four layer files.
type Paths struct {
	Flood string
	Fire  string
	Quake string
	Storm string
}

// DefaultPaths returns the conventional file names under dir.
func DefaultPaths(dir string) Paths {
	return PathsIn(dir, "flood.geojson", "fire.geojson", "quake.geojson", "storm.geojson")
}

// PathsIn joins the given file names onto dir. Absolute names are kept as is.
func PathsIn(dir, flood, fire, quake, storm string) Paths {
	join := func(name string) string {
		if filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(dir, name)
	}
	return Paths{Flood: join(flood), Fire: join(fire), Quake: join(quake), Storm: join(storm)}
}

// Path returns the file for h.
func (p Paths) Path(h domain.Hazard) string {
	switch h {
	case domain.HazardFlood:
		return p.Flood
	case domain.HazardFire:
		return p.Fire
	case domain.HazardQuake:
		return p.Quake
	case domain.HazardStorm:
		return p.Storm
	default:
		return ""
	}
}

// Decode parses a GeoJSON FeatureCollection into a layer.
func Decode(h domain.Hazard, data []byte) (*Layer, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s layer: %w", h, err)
	}
	l := &Layer{Hazard: h, Records: make([]Record, 0, len(fc.Features))}
	for _, f := range fc.Features {
		l.Records = append(l.Records, Record{Geometry: f.Geometry, Properties: f.Properties})
	}
	return l, nil
}

// LoadFile reads and decodes one layer file.
func LoadFile(h domain.Hazard, path string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s layer: %w", h, err)
	}
	l, err := Decode(h, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l.Source = path
	return l, nil
}

// LoadSet loads every layer it can. Failures are logged and leave the layer
// unavailable; loading never aborts.
func LoadSet(paths Paths, logger *slog.Logger) *Set {
	set := &Set{}
	for _, h := range domain.Hazards {
		path := paths.Path(h)
		l, err := LoadFile(h, path)
		if err != nil {
			logger.Warn("hazard layer unavailable", "layer", h, "path", path, "error", err)
			continue
		}
		logger.Info("hazard layer loaded", "layer", h, "path", path, "records", l.Len())
		set.Put(l)
	}
	return set
}

// Encode renders a layer as a GeoJSON FeatureCollection.
func Encode(l *Layer) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, r := range l.Records {
		if r.Geometry == nil {
			continue
		}
		f := geojson.NewFeature(r.Geometry)
		for k, v := range r.Properties {
			f.Properties[k] = v
		}
		fc.Append(f)
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode %s layer: %w", l.Hazard, err)
	}
	return data, nil
}

// WriteSet writes every non-nil layer of s to its path, creating directories.
func WriteSet(s *Set, paths Paths) error {
	for _, h := range domain.Hazards {
		l := s.Layer(h)
		if l == nil {
			continue
		}
		path := paths.Path(h)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create layer dir: %w", err)
		}
		data, err := Encode(l)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s layer: %w", h, err)
		}
	}
	return nil
}
