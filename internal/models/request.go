package models

import "time"

// RequestStatus tracks a blood request through its lifecycle.
type RequestStatus string

const (
	RequestStatusOpen      RequestStatus = "OPEN"
	RequestStatusMatched   RequestStatus = "MATCHED"
	RequestStatusFulfilled RequestStatus = "FULFILLED"
	RequestStatusExpired   RequestStatus = "EXPIRED"
)

// UrgencyLevel is the ordinal severity of a blood request.
type UrgencyLevel string

const (
	UrgencyLow       UrgencyLevel = "LOW"
	UrgencyMedium    UrgencyLevel = "MEDIUM"
	UrgencyHigh      UrgencyLevel = "HIGH"
	UrgencyCritical  UrgencyLevel = "CRITICAL"
	UrgencyEmergency UrgencyLevel = "EMERGENCY"
)

// Ordinal maps the urgency level onto 1..5, defaulting to 1 for unknown values.
func (u UrgencyLevel) Ordinal() int {
	switch u {
	case UrgencyLow:
		return 1
	case UrgencyMedium:
		return 2
	case UrgencyHigh:
		return 3
	case UrgencyCritical:
		return 4
	case UrgencyEmergency:
		return 5
	}
	return 1
}

// Valid reports whether the urgency level is known.
func (u UrgencyLevel) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical, UrgencyEmergency:
		return true
	}
	return false
}

// BloodRequest is an open call for donors owned by a recipient. The matching
// core mutates only its status; everything else belongs to the creation flow.
type BloodRequest struct {
	ID          string        `db:"id" json:"id"`
	RecipientID string        `db:"recipient_id" json:"recipient_id"`
	BloodType   BloodType     `db:"blood_type" json:"blood_type"`
	RhFactor    RhFactor      `db:"rh_factor" json:"rh_factor"`
	UnitsNeeded int           `db:"units_needed" json:"units_needed"`
	Urgency     UrgencyLevel  `db:"urgency_level" json:"urgency_level"`
	Latitude    *float64      `db:"latitude" json:"latitude,omitempty"`
	Longitude   *float64      `db:"longitude" json:"longitude,omitempty"`
	RadiusKm    float64       `db:"radius_km" json:"radius_km"`
	Status      RequestStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	ExpiresAt   time.Time     `db:"expires_at" json:"expires_at"`
}

// HasLocation reports whether the request carries usable coordinates.
func (r *BloodRequest) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}
