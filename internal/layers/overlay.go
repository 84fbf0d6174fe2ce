package layers

import (
	"github.com/couchcryptid/hazard-score/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Overlay properties.
const (
	LayerProperty = "layer"
	SiteLayer     = "site"
)

// Overlay builds the map overlay for an assessment: every layer geometry
// tagged with its hazard and attribute, followed by the site point carrying
// the score and label.
func Overlay(s *Set, a domain.Assessment) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, h := range domain.Hazards {
		l := s.Layer(h)
		if l == nil {
			continue
		}
		attr := AttributeFor(h)
		for _, r := range l.Records {
			if r.Geometry == nil {
				continue
			}
			f := geojson.NewFeature(r.Geometry)
			f.Properties[LayerProperty] = string(h)
			if attr != "" {
				if v, ok := r.Properties[attr]; ok {
					f.Properties[attr] = v
				}
			}
			fc.Append(f)
		}
	}

	site := geojson.NewFeature(orb.Point{a.Point.Lon, a.Point.Lat})
	site.Properties[LayerProperty] = SiteLayer
	site.Properties["id"] = a.ID
	site.Properties["score"] = a.RuleScore
	site.Properties["label"] = string(a.Label)
	site.Properties["label_source"] = string(a.LabelSource)
	fc.Append(site)
	return fc
}
