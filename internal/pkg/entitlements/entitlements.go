package entitlements

import "strings"

type Plan string

const (
	PlanNone         Plan = "none"
	PlanBasic        Plan = "basic"
	PlanIntermediary Plan = "intermediary"
	PlanComplete     Plan = "complete"
)

// Normalize maps arbitrary plan strings onto the closed plan set.
// Unknown or empty values collapse to PlanNone.
func Normalize(plan string) Plan {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case string(PlanBasic):
		return PlanBasic
	case string(PlanIntermediary):
		return PlanIntermediary
	case string(PlanComplete):
		return PlanComplete
	default:
		return PlanNone
	}
}

// IsKnownPlan reports whether the raw string names a plan from the closed
// set, including the explicit "none".
func IsKnownPlan(plan string) bool {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case string(PlanNone), string(PlanBasic), string(PlanIntermediary), string(PlanComplete):
		return true
	default:
		return false
	}
}

// Rank orders plans from none (0) to complete (3) for upgrade/downgrade checks.
func Rank(plan Plan) int {
	switch plan {
	case PlanComplete:
		return 3
	case PlanIntermediary:
		return 2
	case PlanBasic:
		return 1
	default:
		return 0
	}
}

// MaxProfiles returns the viewing-profile ceiling implied by a plan.
// Users without a subscription keep a single profile.
func MaxProfiles(plan Plan) int {
	switch plan {
	case PlanComplete:
		return 4
	case PlanIntermediary:
		return 3
	case PlanBasic:
		return 2
	default:
		return 1
	}
}

// MonthlyValue returns the monetary value (BRL cents) charged per month.
func MonthlyValue(plan Plan) int64 {
	switch plan {
	case PlanComplete:
		return 4590
	case PlanIntermediary:
		return 3290
	case PlanBasic:
		return 1990
	default:
		return 0
	}
}

// StreamQuality returns the nominal playback quality tier for a plan.
func StreamQuality(plan Plan) string {
	switch plan {
	case PlanComplete:
		return "4k"
	case PlanIntermediary:
		return "1080p"
	case PlanBasic:
		return "720p"
	default:
		return "480p"
	}
}

// CanUltraHD reports whether the plan unlocks 4K playback.
func CanUltraHD(plan Plan) bool {
	return plan == PlanComplete
}
