// Package stats turns parsed profiles into per-protein Z-scores and
// one-sided p-values against the dataset-wide score distribution.
package stats
