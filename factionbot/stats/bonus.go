package stats

import "math"

// Variety bonus bands. Bands are half-open upward and evaluated high to
// low, so a ratio of exactly 1.0 lands in "max", and exactly 0.5 in
// "medium".
const (
	VarietyMax    = "max"
	VarietyHigh   = "high"
	VarietyMedium = "medium"
	VarietyLow    = "low"
	VarietyNone   = "none"
)

// Activity level labels, by average daily activity over the trailing week.
const (
	ActivityHardcore = "hardcore"
	ActivityActive   = "active"
	ActivityCasual   = "casual"
)

// activityWindowDays is the trailing window for activity classification.
const activityWindowDays = 7

// VarietyBonus maps the unique-games-to-total-plays ratio onto a reward
// multiplier and its band label.
func VarietyBonus(uniqueGames, totalPlays int64) (float64, string) {
	if totalPlays == 0 {
		return 1.0, VarietyNone
	}
	ratio := float64(uniqueGames) / float64(totalPlays)
	switch {
	case ratio >= 1.0:
		return 1.5, VarietyMax
	case ratio >= 0.8:
		return 1.25, VarietyHigh
	case ratio >= 0.5:
		return 1.1, VarietyMedium
	default:
		return 1.0, VarietyLow
	}
}

// VarietyScore is the raw ratio behind VarietyBonus, used for leaderboard
// ordering.
func VarietyScore(uniqueGames, totalPlays int64) float64 {
	if totalPlays == 0 {
		return 0
	}
	return float64(uniqueGames) / float64(totalPlays)
}

// ActivityLevelFor classifies the average daily activity count over the
// trailing window.
func ActivityLevelFor(windowTotal int64) string {
	avg := float64(windowTotal) / float64(activityWindowDays)
	switch {
	case avg >= 30:
		return ActivityHardcore
	case avg >= 15:
		return ActivityActive
	default:
		return ActivityCasual
	}
}

// ProgressionCap limits reward multipliers by how many distinct game types
// the player touched this period. Playing every registered type overrides
// the three-type cap with a bonus tier.
func ProgressionCap(distinctTypes, registeredTypes int) float64 {
	if registeredTypes > 0 && distinctTypes >= registeredTypes {
		return 1.25
	}
	switch {
	case distinctTypes <= 1:
		return 0.5
	case distinctTypes == 2:
		return 0.75
	default:
		return 1.0
	}
}

// ApplyCap scales each reward component independently, rounding down.
func ApplyCap(rewards map[string]int64, cap float64) map[string]int64 {
	out := make(map[string]int64, len(rewards))
	for k, v := range rewards {
		out[k] = int64(math.Floor(float64(v) * cap))
	}
	return out
}
