package billing

import (
	"strings"

	"github.com/cinefila/cinefila/internal/pkg/entitlements"
)

func normalizePlan(plan string) string {
	return string(entitlements.Normalize(plan))
}

func planRank(plan string) int {
	return entitlements.Rank(entitlements.Normalize(plan))
}

func isEntitlingStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active":
		return true
	default:
		return false
	}
}

// isDowngrade reports whether moving from one plan to another lowers the tier.
func isDowngrade(from, to string) bool {
	return planRank(to) < planRank(from)
}
