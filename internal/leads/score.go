// Package leads computes the operator-facing completeness score for captured
// lead data. The score is presentation-only and independent of the stored
// hot/warm/cold lead quality, which the capture flow sets directly.
package leads

import "strings"

// Tier buckets the completeness score for display.
type Tier string

const (
	// TierGood renders green in the operator UI.
	TierGood Tier = "good"
	// TierMedium renders yellow.
	TierMedium Tier = "medium"
	// TierLow renders red.
	TierLow Tier = "low"
)

// Slots are the five tracked fields; each filled slot is worth 20 points.
type Slots struct {
	Name      string
	Email     string
	EventType string
	EventDate string
	Budget    string
}

const pointsPerSlot = 20

// Score returns the 0-100 completeness score in steps of 20.
func Score(s Slots) int {
	score := 0
	for _, v := range []string{s.Name, s.Email, s.EventType, s.EventDate, s.Budget} {
		if strings.TrimSpace(v) != "" {
			score += pointsPerSlot
		}
	}
	return score
}

// TierFor maps a score to its display tier: ≥80 good, ≥60 medium, else low.
func TierFor(score int) Tier {
	switch {
	case score >= 80:
		return TierGood
	case score >= 60:
		return TierMedium
	default:
		return TierLow
	}
}
