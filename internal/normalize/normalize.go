// Package normalize snaps free-form monetary fields onto the tiers the quote product allows.
package normalize

import (
	"math"

	"github.com/joseph-ayodele/submission-intake/constants"
	"github.com/joseph-ayodele/submission-intake/internal/entity"
)

// AggregateLimit snaps raw onto constants.AggLimitTiers and returns the result.
// Unknown or non-positive input yields 0 ("not set"). Values above the ceiling are clamped.
// Every adjustment appends a note to notes (which may be nil).
func AggregateLimit(raw any, notes *entity.Notes) float64 {
	v, ok := ParseAmount(raw)
	if !ok || v <= 0 {
		return 0
	}
	if v > constants.MaxAggLimit {
		addNote(notes, "Requested aggregate limit of %s exceeds the maximum available; set to %s.",
			FormatMoney(v), FormatMoney(constants.MaxAggLimit))
		return constants.MaxAggLimit
	}
	tier, _ := nearestTier(v, constants.AggLimitTiers)
	if tier != v {
		addNote(notes, "Aggregate limit adjusted from %s to nearest available option %s.",
			FormatMoney(v), FormatMoney(tier))
	}
	return tier
}

// Retention snaps raw onto constants.RetentionTiers when it sits within
// max(10% of raw, $1,000) of a tier. Anything else (unknown, non-positive, implausible) is discarded.
func Retention(raw any) *float64 {
	v, ok := ParseAmount(raw)
	if !ok || v <= 0 {
		return nil
	}
	tier, dist := nearestTier(v, constants.RetentionTiers)
	tolerance := math.Max(v*constants.RetentionTolerancePct, constants.RetentionToleranceMin)
	if dist > tolerance {
		return nil
	}
	return &tier
}

func addNote(notes *entity.Notes, format string, args ...any) {
	if notes == nil {
		return
	}
	notes.Add(format, args...)
}
