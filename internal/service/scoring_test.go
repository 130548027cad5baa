package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Offical-Dhiraj/bloodchain/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func testRequest(urgency models.UrgencyLevel) *models.BloodRequest {
	return &models.BloodRequest{
		ID:        "req-1",
		BloodType: models.BloodTypeO,
		RhFactor:  models.RhNegative,
		Urgency:   urgency,
	}
}

func testCandidate() *models.DonorCandidate {
	last := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.DonorCandidate{
		DonorProfile: models.DonorProfile{
			ID:                  "donor-1",
			BloodType:           models.BloodTypeO,
			RhFactor:            models.RhNegative,
			IsAvailable:         true,
			Verified:            true,
			ReputationScore:     920,
			FraudRiskScore:      0.05,
			SuccessfulDonations: 10,
			FailedMatches:       0,
			AvgResponseSeconds:  floatPtr(600),
			LastDonationAt:      &last,
		},
	}
}

func TestExtractFeaturesNormalisation(t *testing.T) {
	now := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	v := ExtractFeatures(testRequest(models.UrgencyEmergency), testCandidate(), now)

	assert.Equal(t, 1.0, v.BloodTypeCompatibility)
	assert.Equal(t, 1.0, v.RhCompatibility)
	assert.Equal(t, 0.92, v.ReputationScore)
	assert.Equal(t, 1.0, v.Availability)
	assert.Equal(t, 1.0, v.SuccessRate)
	assert.InDelta(t, 1.0-600.0/3600.0, v.ResponseTimeScore, 1e-9)
	assert.InDelta(t, 45.0/90.0, v.RecencyPenalty, 1e-9)
	assert.Equal(t, 1.0, v.UrgencyWeight)
	assert.InDelta(t, 0.95, v.FraudRiskInverse, 1e-9)
	assert.Equal(t, 1.0, v.VerificationBonus)
}

func TestExtractFeaturesEdgeValues(t *testing.T) {
	now := time.Now().UTC()
	cand := testCandidate()
	cand.ReputationScore = 5000
	cand.SuccessfulDonations = 0
	cand.FailedMatches = 0
	cand.AvgResponseSeconds = nil
	cand.LastDonationAt = nil
	cand.Verified = false

	v := ExtractFeatures(testRequest(models.UrgencyLow), cand, now)

	assert.Equal(t, 1.0, v.ReputationScore)
	assert.Equal(t, 0.0, v.SuccessRate)
	assert.Equal(t, 0.5, v.ResponseTimeScore)
	assert.Equal(t, 1.0, v.RecencyPenalty)
	assert.Equal(t, 0.2, v.UrgencyWeight)
	assert.Equal(t, 0.5, v.VerificationBonus)
}

func TestExtractFeaturesResponseTimeFloor(t *testing.T) {
	cand := testCandidate()
	cand.AvgResponseSeconds = floatPtr(7200)

	v := ExtractFeatures(testRequest(models.UrgencyHigh), cand, time.Now().UTC())
	assert.Equal(t, 0.0, v.ResponseTimeScore)
}

func TestHeuristicScorerBounds(t *testing.T) {
	full := FeatureVector{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	score, err := HeuristicScorer{}.Score(context.Background(), full)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)

	score, err = HeuristicScorer{}.Score(context.Background(), FeatureVector{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestHeuristicScorerOrdersStrongDonorFirst(t *testing.T) {
	now := time.Now().UTC()
	req := testRequest(models.UrgencyEmergency)

	strong := testCandidate()
	weak := testCandidate()
	weak.ReputationScore = 400
	weak.FraudRiskScore = 0.4
	weak.SuccessfulDonations = 1
	weak.FailedMatches = 1

	sa, err := HeuristicScorer{}.Score(context.Background(), ExtractFeatures(req, strong, now))
	require.NoError(t, err)
	sb, err := HeuristicScorer{}.Score(context.Background(), ExtractFeatures(req, weak, now))
	require.NoError(t, err)

	assert.Greater(t, sa, sb)
}

func TestRemoteScorer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var v FeatureVector
		require.NoError(t, json.NewDecoder(r.Body).Decode(&v))
		json.NewEncoder(w).Encode(map[string]float64{"score": 0.83})
	}))
	defer srv.Close()

	score, err := NewRemoteScorer(srv.URL, time.Second).Score(context.Background(), FeatureVector{})
	require.NoError(t, err)
	assert.Equal(t, 0.83, score)
}

func TestRemoteScorerRejectsOutOfRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]float64{"score": 1.7})
	}))
	defer srv.Close()

	_, err := NewRemoteScorer(srv.URL, time.Second).Score(context.Background(), FeatureVector{})
	assert.Error(t, err)
}

type failingScorer struct{}

func (failingScorer) Score(context.Context, FeatureVector) (float64, error) {
	return 0, errors.New("inference down")
}

func TestFallbackScorer(t *testing.T) {
	scorer := NewFallbackScorer(failingScorer{}, HeuristicScorer{}, nil)

	score, err := scorer.Score(context.Background(), FeatureVector{Availability: 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.10, score, 1e-9)
}
