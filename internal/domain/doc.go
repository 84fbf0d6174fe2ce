// Package domain models point hazard assessments.
//
// # Hazard Layers
//
// Four precomputed layers describe the hazards around a query point. All
// geometries are stored in WGS84 degrees:
//
//	Flood:  polygons tagged with a FEMA flood zone code ("AE", "X", ...)
//	Fire:   polygons tagged with a fire hazard severity class ("Very High", ...)
//	Quake:  polygons tagged with a peak ground acceleration in g (non-negative)
//	Storm:  points, one per storm occurrence
//
// A layer that cannot be read or queried is unavailable; its feature takes the
// default (null for polygon layers, zero for the storm count).
//
// # Rule Score
//
// The score is the sum of four independent sub-scores, clamped to 100:
//
//	Flood:  zone starting with "A" 40 | starting with "X" 15
//	Fire:   class containing "very" 30 | "high" 20 | "moderate" 10
//	Quake:  PGA >= 0.35 g 25 | >= 0.20 g 15
//	Storm:  >= 5 storms within 5 km 10 | >= 2 storms 5
//
// Zone and class matching is case-insensitive. Fire classes are checked in the
// order listed, so "Very High" scores 30, not 20.
//
// Labels are derived from the score:
//
//	< 25 Low | < 45 Moderate | < 65 High | otherwise Very High
//
// # ID Generation
//
// Assessment IDs are deterministic SHA-256 hashes of the query coordinates,
// so repeated assessments of the same point share an ID and downstream
// consumers can upsert them. See [generateID].
package domain
