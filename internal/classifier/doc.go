// Package classifier learns the rule-derived risk label from feature vectors.
//
// A model is either a constant predictor (the training set had a single
// label) or a random forest fed by a fixed encoder:
//
//	fema_zone, fire_class   one-hot over the categories seen in training;
//	                        unknown categories encode to all zeros
//	pga_g, storm_count_5km  passed through as numbers
//
// Null features are coerced by [Coerce] before encoding, both when training
// and when predicting, so the two paths always see the same columns.
//
// Models are persisted as JSON artifacts, zstd-compressed when the path ends
// in ".zst". Callers load a model with [Load] and hold the handle; there is no
// package-level model.
package classifier
