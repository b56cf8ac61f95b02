package billing

import "github.com/cinefila/cinefila/app/models"

// EnforcementResult reports the outcome of a profile-limit enforcement pass.
type EnforcementResult struct {
	Plan            string           `json:"plan"`
	MaxProfiles     int              `json:"maxProfiles"`
	RemovedProfiles []models.Profile `json:"removedProfiles"`
	Profiles        []models.Profile `json:"profiles"`
}

// ProfileLimits is the client-facing view of the current profile ceiling.
type ProfileLimits struct {
	CurrentProfiles int    `json:"currentProfiles"`
	MaxProfiles     int    `json:"maxProfiles"`
	CanCreateMore   bool   `json:"canCreateMore"`
	Plan            string `json:"plan"`
}

// SubscriptionChange is the result of a subscription mutation plus the
// enforcement pass it triggered. Enforcement failures never roll back the
// subscription change; Enforcement is nil in that case.
type SubscriptionChange struct {
	Subscription *models.Subscription `json:"subscription"`
	Enforcement  *EnforcementResult   `json:"enforcement,omitempty"`
}
