package dto

import (
	"time"

	"github.com/Offical-Dhiraj/bloodchain/internal/models"
)

// CreateBloodRequest is the payload for opening a new blood request.
type CreateBloodRequest struct {
	BloodType string   `json:"blood_type" validate:"required,oneof=A B AB O"`
	RhFactor  string   `json:"rh_factor" validate:"required,oneof=POSITIVE NEGATIVE"`
	Units     int      `json:"units" validate:"required,min=1,max=10"`
	Urgency   string   `json:"urgency" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL EMERGENCY"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	RadiusKm  float64  `json:"radius_km" validate:"omitempty,gt=0,max=500"`
}

// MatchOffer is one ranked candidate returned by the matching pipeline.
type MatchOffer struct {
	MatchID            string    `json:"match_id"`
	RequestID          string    `json:"request_id"`
	DonorID            string    `json:"donor_id"`
	OverallScore       float64   `json:"overall_score"`
	ModelScore         float64   `json:"model_score"`
	DistanceKm         float64   `json:"distance_km"`
	CompatibilityScore float64   `json:"compatibility_score"`
	DistanceScore      float64   `json:"distance_score"`
	ReputationScore    float64   `json:"reputation_score"`
	AvailabilityScore  float64   `json:"availability_score"`
	ResponseTimeScore  float64   `json:"response_time_score"`
	FraudRiskScore     float64   `json:"fraud_risk_score"`
	ExpiresAt          time.Time `json:"expires_at"`
}

// RequestDetail bundles a request with the offers made for it. OpenOffers
// counts offers that can still change state.
type RequestDetail struct {
	Request    models.BloodRequest  `json:"request"`
	Matches    []models.MatchRecord `json:"matches"`
	OpenOffers int                  `json:"open_offers"`
}

// UpdateLocationRequest carries a donor's live position report. Pointers keep
// zero coordinates distinguishable from missing fields.
type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}
