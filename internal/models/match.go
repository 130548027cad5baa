package models

import "time"

// MatchStatus tracks a match offer through its lifecycle. PENDING is initial;
// REJECTED, EXPIRED and COMPLETED are terminal; ACCEPTED may still advance to
// COMPLETED once settlement confirms the donation.
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "PENDING"
	MatchStatusAccepted  MatchStatus = "ACCEPTED"
	MatchStatusRejected  MatchStatus = "REJECTED"
	MatchStatusCompleted MatchStatus = "COMPLETED"
	MatchStatusExpired   MatchStatus = "EXPIRED"
)

// Terminal reports whether no further transition is allowed from the status.
func (s MatchStatus) Terminal() bool {
	switch s {
	case MatchStatusRejected, MatchStatusCompleted, MatchStatusExpired:
		return true
	}
	return false
}

// MatchRecord is a proposed pairing of one donor to one request. Records are
// never deleted; they form the audit trail of every offer ever made.
//
// Invariant: a request has at most one record in ACCEPTED or COMPLETED state.
type MatchRecord struct {
	ID                 string      `db:"id" json:"id"`
	RequestID          string      `db:"request_id" json:"request_id"`
	DonorID            string      `db:"donor_id" json:"donor_id"`
	CompatibilityScore float64     `db:"compatibility_score" json:"compatibility_score"`
	DistanceScore      float64     `db:"distance_score" json:"distance_score"`
	ReputationScore    float64     `db:"reputation_score" json:"reputation_score"`
	AvailabilityScore  float64     `db:"availability_score" json:"availability_score"`
	ResponseTimeScore  float64     `db:"response_time_score" json:"response_time_score"`
	FraudRiskScore     float64     `db:"fraud_risk_score" json:"fraud_risk_score"`
	OverallScore       float64     `db:"overall_score" json:"overall_score"`
	Status             MatchStatus `db:"status" json:"status"`
	OfferedAt          time.Time   `db:"offered_at" json:"offered_at"`
	RespondedAt        *time.Time  `db:"responded_at" json:"responded_at,omitempty"`
	ExpiresAt          time.Time   `db:"expires_at" json:"expires_at"`
}

// Expired reports whether the offer deadline has passed at the given instant.
func (m *MatchRecord) Expired(now time.Time) bool {
	return now.After(m.ExpiresAt)
}
