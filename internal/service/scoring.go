package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/Offical-Dhiraj/bloodchain/internal/models"
)

// FeatureVector is the fixed, ordered set of normalized inputs the scoring
// model consumes. Every field lies in [0,1].
type FeatureVector struct {
	BloodTypeCompatibility float64 `json:"blood_type_compatibility"`
	RhCompatibility        float64 `json:"rh_compatibility"`
	ReputationScore        float64 `json:"reputation_score"`
	Availability           float64 `json:"availability"`
	SuccessRate            float64 `json:"success_rate"`
	ResponseTimeScore      float64 `json:"response_time_score"`
	RecencyPenalty         float64 `json:"recency_penalty"`
	UrgencyWeight          float64 `json:"urgency_weight"`
	FraudRiskInverse       float64 `json:"fraud_risk_inverse"`
	VerificationBonus      float64 `json:"verification_bonus"`
}

const maxReputationForScoring = 1000

// ExtractFeatures builds the feature vector for one (request, candidate)
// pair. Callers only pass candidates that already passed blood/Rh
// compatibility and the geo filter, so the compatibility features are
// effectively prior checks restated for the model. Deterministic for
// identical inputs and a fixed now.
func ExtractFeatures(req *models.BloodRequest, cand *models.DonorCandidate, now time.Time) FeatureVector {
	v := FeatureVector{
		UrgencyWeight:    float64(req.Urgency.Ordinal()) / 5.0,
		FraudRiskInverse: clamp01(1.0 - cand.FraudRiskScore),
	}

	if cand.BloodType.CanDonateTo(req.BloodType) {
		v.BloodTypeCompatibility = 1.0
	}
	if models.RhCompatible(cand.RhFactor, req.RhFactor) {
		v.RhCompatibility = 1.0
	}
	if cand.IsAvailable {
		v.Availability = 1.0
	}
	if cand.Verified {
		v.VerificationBonus = 1.0
	} else {
		v.VerificationBonus = 0.5
	}

	v.ReputationScore = clamp01(float64(cand.ReputationScore) / maxReputationForScoring)

	total := cand.SuccessfulDonations + cand.FailedMatches
	if total < 1 {
		total = 1
	}
	v.SuccessRate = float64(cand.SuccessfulDonations) / float64(total)

	if cand.AvgResponseSeconds != nil {
		v.ResponseTimeScore = clamp01(1.0 - *cand.AvgResponseSeconds/3600.0)
	} else {
		// No response history yet, assume a middling responder.
		v.ResponseTimeScore = 0.5
	}

	if cand.LastDonationAt != nil {
		days := now.Sub(*cand.LastDonationAt).Hours() / 24.0
		v.RecencyPenalty = clamp01(days / 90.0)
	} else {
		v.RecencyPenalty = 1.0
	}

	return v
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// ScoringModel maps a feature vector to a match probability in [0,1].
type ScoringModel interface {
	Score(ctx context.Context, v FeatureVector) (float64, error)
}

// HeuristicScorer is the deterministic weighted-sum fallback. Weights sum
// to 1 so the output stays in [0,1] without re-normalisation.
type HeuristicScorer struct{}

func (HeuristicScorer) Score(_ context.Context, v FeatureVector) (float64, error) {
	score := 0.15*v.BloodTypeCompatibility +
		0.05*v.RhCompatibility +
		0.20*v.ReputationScore +
		0.10*v.Availability +
		0.15*v.SuccessRate +
		0.10*v.ResponseTimeScore +
		0.05*v.RecencyPenalty +
		0.10*v.UrgencyWeight +
		0.05*v.FraudRiskInverse +
		0.05*v.VerificationBonus
	return clamp01(score), nil
}

// RemoteScorer calls an external inference service hosting a trained
// classifier. Responses outside [0,1] are rejected so a misbehaving model
// cannot poison the ranking.
type RemoteScorer struct {
	url  string
	http *http.Client
}

func NewRemoteScorer(url string, timeout time.Duration) *RemoteScorer {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RemoteScorer{url: url, http: &http.Client{Timeout: timeout}}
}

func (s *RemoteScorer) Score(ctx context.Context, v FeatureVector) (float64, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("inference service returned %d", resp.StatusCode)
	}

	var out struct {
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	if out.Score < 0 || out.Score > 1 {
		return 0, fmt.Errorf("inference score %f outside [0,1]", out.Score)
	}
	return out.Score, nil
}

// FallbackScorer tries the primary model and falls back to the heuristic
// when inference fails, so ranking never blocks on model availability.
type FallbackScorer struct {
	primary  ScoringModel
	fallback ScoringModel
	logger   *zap.Logger
}

func NewFallbackScorer(primary, fallback ScoringModel, logger *zap.Logger) *FallbackScorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackScorer{primary: primary, fallback: fallback, logger: logger}
}

func (s *FallbackScorer) Score(ctx context.Context, v FeatureVector) (float64, error) {
	score, err := s.primary.Score(ctx, v)
	if err == nil {
		return score, nil
	}
	s.logger.Sugar().Warnw("primary scorer failed, using fallback", "error", err)
	return s.fallback.Score(ctx, v)
}
