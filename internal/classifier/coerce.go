package classifier

import (
	"math"

	"github.com/couchcryptid/hazard-score/internal/domain"
)

// MissingCategory replaces null categorical features.
const MissingCategory = "None"

// Row is a feature vector with nulls replaced by fixed placeholders.
type Row struct {
	FEMAZone      string
	FireClass     string
	PGA           float64
	StormCount5km int
}

// Coerce replaces nulls with "None", 0.0 and 0. Empty strings and NaN are
// treated as null.
func Coerce(fv domain.FeatureVector) Row {
	r := Row{
		FEMAZone:      MissingCategory,
		FireClass:     MissingCategory,
		StormCount5km: fv.StormCount5km,
	}
	if fv.FEMAZone != nil && *fv.FEMAZone != "" {
		r.FEMAZone = *fv.FEMAZone
	}
	if fv.FireClass != nil && *fv.FireClass != "" {
		r.FireClass = *fv.FireClass
	}
	if fv.PGA != nil && !math.IsNaN(*fv.PGA) {
		r.PGA = *fv.PGA
	}
	return r
}
