package models

import "time"

// ReputationTier buckets a cumulative score against fixed thresholds.
type ReputationTier string

const (
	TierBronze   ReputationTier = "BRONZE"
	TierSilver   ReputationTier = "SILVER"
	TierGold     ReputationTier = "GOLD"
	TierPlatinum ReputationTier = "PLATINUM"
)

// Tier thresholds on the cumulative reputation score.
const (
	tierSilverMin   = 500
	tierGoldMin     = 1500
	tierPlatinumMin = 3000
)

// TierFor returns the tier for a cumulative reputation score.
func TierFor(score int64) ReputationTier {
	switch {
	case score >= tierPlatinumMin:
		return TierPlatinum
	case score >= tierGoldMin:
		return TierGold
	case score >= tierSilverMin:
		return TierSilver
	}
	return TierBronze
}

// ReputationEventType names the cause of a reputation delta.
type ReputationEventType string

const (
	ReputationEventDonationCompleted ReputationEventType = "SUCCESSFUL_DONATION"
	ReputationEventDonationFailed    ReputationEventType = "FAILED_DONATION"
	ReputationEventInactivityDecay   ReputationEventType = "INACTIVITY_DECAY"
)

// ReputationEvent is one append-only entry in a donor's reputation ledger.
// The profile score is a running total over these events, never recomputed.
type ReputationEvent struct {
	ID        string              `db:"id" json:"id"`
	DonorID   string              `db:"donor_id" json:"donor_id"`
	EventType ReputationEventType `db:"event_type" json:"event_type"`
	Points    int64               `db:"points" json:"points"`
	Reason    string              `db:"reason" json:"reason"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
}

// ReputationStats is the derived reputation view exposed to donors.
type ReputationStats struct {
	DonorID       string         `json:"donor_id"`
	TotalScore    int64          `json:"total_score"`
	Tier          ReputationTier `json:"tier"`
	SuccessRate   float64        `json:"success_rate"`
	TrustScore    float64        `json:"trust_score"`
	Successful    int64          `json:"successful_donations"`
	Failed        int64          `json:"failed_matches"`
	RewardBalance int64          `json:"reward_balance"`
}
