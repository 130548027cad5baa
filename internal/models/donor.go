package models

import (
	"time"

	"github.com/Offical-Dhiraj/bloodchain/pkg/geo"
)

// DonorProfile is the static part of a donor as stored in the directory.
type DonorProfile struct {
	ID                  string     `db:"id" json:"id"`
	UserID              string     `db:"user_id" json:"user_id"`
	BloodType           BloodType  `db:"blood_type" json:"blood_type"`
	RhFactor            RhFactor   `db:"rh_factor" json:"rh_factor"`
	IsAvailable         bool       `db:"is_available" json:"is_available"`
	Blocked             bool       `db:"blocked" json:"blocked"`
	Verified            bool       `db:"verified" json:"verified"`
	ReputationScore     int64      `db:"reputation_score" json:"reputation_score"`
	FraudRiskScore      float64    `db:"fraud_risk_score" json:"fraud_risk_score"`
	SuccessfulDonations int64      `db:"successful_donations" json:"successful_donations"`
	FailedMatches       int64      `db:"failed_matches" json:"failed_matches"`
	AvgResponseSeconds  *float64   `db:"avg_response_seconds" json:"avg_response_seconds,omitempty"`
	LastDonationAt      *time.Time `db:"last_donation_at" json:"last_donation_at,omitempty"`
	RewardBalance       int64      `db:"reward_balance" json:"reward_balance"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}

// DonorCandidate joins a donor profile with its live position for one ranking
// pass. The position is absent when the location cache has no fresh entry,
// which excludes the candidate from ranking.
type DonorCandidate struct {
	DonorProfile
	Position *geo.Point `json:"position,omitempty"`
}
