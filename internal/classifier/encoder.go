package classifier

import (
	"slices"
)

// Encoder one-hot encodes the categorical columns and passes the numeric
// columns through.
type Encoder struct {
	FEMAZones   []string `json:"fema_zones"`
	FireClasses []string `json:"fire_classes"`
}

// FitEncoder collects the sorted categories present in rows.
func FitEncoder(rows []Row) *Encoder {
	zones := make([]string, 0)
	classes := make([]string, 0)
	for _, r := range rows {
		zones = append(zones, r.FEMAZone)
		classes = append(classes, r.FireClass)
	}
	slices.Sort(zones)
	slices.Sort(classes)
	return &Encoder{
		FEMAZones:   slices.Compact(zones),
		FireClasses: slices.Compact(classes),
	}
}

// Width is the length of an encoded row.
func (e *Encoder) Width() int {
	return len(e.FEMAZones) + len(e.FireClasses) + 2
}

// Transform encodes r. Categories not seen during fitting leave their block
// all zero.
func (e *Encoder) Transform(r Row) []float64 {
	out := make([]float64, e.Width())
	if i, ok := slices.BinarySearch(e.FEMAZones, r.FEMAZone); ok {
		out[i] = 1
	}
	off := len(e.FEMAZones)
	if i, ok := slices.BinarySearch(e.FireClasses, r.FireClass); ok {
		out[off+i] = 1
	}
	off += len(e.FireClasses)
	out[off] = r.PGA
	out[off+1] = float64(r.StormCount5km)
	return out
}

// FeatureNames labels each encoded column.
func (e *Encoder) FeatureNames() []string {
	names := make([]string, 0, e.Width())
	for _, z := range e.FEMAZones {
		names = append(names, "fema_zone="+z)
	}
	for _, c := range e.FireClasses {
		names = append(names, "fire_class="+c)
	}
	return append(names, "pga_g", "storm_count_5km")
}
