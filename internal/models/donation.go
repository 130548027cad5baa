package models

import "time"

// DonationStatus tracks a donation record through settlement.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "PENDING"
	DonationStatusCompleted DonationStatus = "COMPLETED"
	DonationStatusFailed    DonationStatus = "FAILED"
)

// Donation records one physical donation tied to an accepted match. It is
// created before settlement and completed once the chain gateway durably
// records the donation; a failed settlement leaves it PENDING for retry.
type Donation struct {
	ID             string         `db:"id" json:"id"`
	MatchID        string         `db:"match_id" json:"match_id"`
	DonorID        string         `db:"donor_id" json:"donor_id"`
	RequestID      string         `db:"request_id" json:"request_id"`
	BloodType      BloodType      `db:"blood_type" json:"blood_type"`
	RhFactor       RhFactor       `db:"rh_factor" json:"rh_factor"`
	UnitsCollected int            `db:"units_collected" json:"units_collected"`
	Status         DonationStatus `db:"status" json:"status"`
	SettlementID   *string        `db:"settlement_id" json:"settlement_id,omitempty"`
	RewardTokens   int64          `db:"reward_tokens" json:"reward_tokens"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	CompletedAt    *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
}
