package domain

// Hazard identifies one of the four hazard layers.
type Hazard string

const (
	HazardFlood Hazard = "flood"
	HazardFire  Hazard = "fire"
	HazardQuake Hazard = "quake"
	HazardStorm Hazard = "storm"
)

// Hazards lists every hazard in lookup order.
var Hazards = []Hazard{HazardFlood, HazardFire, HazardQuake, HazardStorm}

// FeatureVector holds the four hazard features extracted for a point. Nil
// pointers mean no polygon matched or the layer was unavailable.
type FeatureVector struct {
	FEMAZone      *string  `json:"fema_zone"`
	FireClass     *string  `json:"fire_class"`
	PGA           *float64 `json:"pga_g"`
	StormCount5km int      `json:"storm_count_5km"`
}

// Outcome describes what a single layer lookup found.
type Outcome string

const (
	OutcomeHit         Outcome = "hit"
	OutcomeMiss        Outcome = "miss"
	OutcomeUnavailable Outcome = "unavailable"
)

// LayerStatus is the per-layer result of an extraction.
type LayerStatus struct {
	Outcome Outcome `json:"outcome"`
	Error   string  `json:"error,omitempty"`
}

// Diagnostics maps each hazard to the outcome of its lookup.
type Diagnostics map[Hazard]LayerStatus

// Unavailable reports whether the lookup for h failed.
func (d Diagnostics) Unavailable(h Hazard) bool {
	return d[h].Outcome == OutcomeUnavailable
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Float64Ptr returns a pointer to f.
func Float64Ptr(f float64) *float64 { return &f }
