package service

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Offical-Dhiraj/bloodchain/internal/dto"
	"github.com/Offical-Dhiraj/bloodchain/internal/models"
	"github.com/Offical-Dhiraj/bloodchain/internal/notify"
	"github.com/Offical-Dhiraj/bloodchain/pkg/config"
	"github.com/Offical-Dhiraj/bloodchain/pkg/errors"
	"github.com/Offical-Dhiraj/bloodchain/pkg/geo"
)

type matchingRequestStore interface {
	GetByID(ctx context.Context, id string) (*models.BloodRequest, error)
	ListActive(ctx context.Context, limit int) ([]models.BloodRequest, error)
}

type donorDirectory interface {
	FindCompatible(ctx context.Context, bloodType models.BloodType, rh models.RhFactor, limit int) ([]models.DonorProfile, error)
}

type locationCache interface {
	LastKnown(ctx context.Context, donorID string) (*geo.Point, error)
}

type matchWriter interface {
	CreateBatch(ctx context.Context, matches []*models.MatchRecord) error
	CountByRequestAndStatus(ctx context.Context, requestID string, statuses ...models.MatchStatus) (int, error)
}

type matchingMetrics interface {
	ObserveRanking(duration time.Duration, poolSize, offers int)
}

// MatchingService runs the ranking pipeline: geo filter, feature extraction,
// model scoring, blend, threshold, sort, persist. Ranking holds no
// transaction while scoring runs; the batch insert is the only write.
type MatchingService struct {
	requests  matchingRequestStore
	donors    donorDirectory
	locations locationCache
	matches   matchWriter
	scorer    ScoringModel
	notifier  notify.Notifier
	metrics   matchingMetrics
	cfg       config.MatchingConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewMatchingService(
	requests matchingRequestStore,
	donors donorDirectory,
	locations locationCache,
	matches matchWriter,
	scorer ScoringModel,
	notifier notify.Notifier,
	metrics matchingMetrics,
	cfg config.MatchingConfig,
	logger *zap.Logger,
) *MatchingService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchingService{
		requests:  requests,
		donors:    donors,
		locations: locations,
		matches:   matches,
		scorer:    scorer,
		notifier:  notifier,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type scoredCandidate struct {
	donor      models.DonorProfile
	distanceKm float64
	vector     FeatureVector
	modelScore float64
	distScore  float64
	overall    float64
}

// RankCandidates produces the ordered batch of match offers for an open
// request. Candidates failing geo or scoring are skipped individually; a bad
// candidate never aborts the batch.
func (s *MatchingService) RankCandidates(ctx context.Context, requestID string, maxResults int) ([]dto.MatchOffer, error) {
	started := s.now()

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestStatusOpen {
		return nil, errors.Clone(errors.ErrNotFound, "request is not open for matching")
	}
	if !req.HasLocation() {
		return nil, errors.Clone(errors.ErrValidation, "request has no origin coordinates")
	}
	if req.RadiusKm <= 0 {
		return nil, errors.Clone(errors.ErrValidation, "request has no usable search radius")
	}

	if maxResults <= 0 {
		maxResults = s.cfg.MaxResults
	}
	poolSize := maxResults * s.cfg.PoolMultiplier
	if poolSize > s.cfg.PoolCap {
		poolSize = s.cfg.PoolCap
	}

	pool, err := s.donors.FindCompatible(ctx, req.BloodType, req.RhFactor, poolSize)
	if err != nil {
		return nil, err
	}

	origin := geo.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
	box := geo.BoxAround(origin, req.RadiusKm)
	now := s.now()

	scored := make([]scoredCandidate, 0, len(pool))
	for i := range pool {
		donor := pool[i]

		pos, err := s.locations.LastKnown(ctx, donor.ID)
		if err != nil {
			if errors.Is(err, errors.ErrCacheMiss) {
				// No fresh position, excluded rather than assumed nearby.
				continue
			}
			s.logger.Sugar().Warnw("location lookup failed, skipping candidate",
				"donor_id", donor.ID, "error", err)
			continue
		}
		if pos == nil {
			continue
		}

		if !box.Contains(*pos) || !geo.IsWithinRadius(origin, *pos, req.RadiusKm) {
			continue
		}
		dist := geo.DistanceKm(origin, *pos)
		distScore := clamp01(1.0 - dist/req.RadiusKm)

		cand := &models.DonorCandidate{DonorProfile: donor, Position: pos}
		vector := ExtractFeatures(req, cand, now)

		modelScore, err := s.scorer.Score(ctx, vector)
		if err != nil {
			// Fail closed: the candidate scores zero, the batch continues.
			s.logger.Sugar().Warnw("scoring failed for candidate",
				"donor_id", donor.ID, "request_id", req.ID, "error", err)
			modelScore = 0
		}

		overall := s.cfg.ModelWeight*modelScore + s.cfg.DistanceWeight*distScore
		if overall < s.cfg.AcceptThreshold {
			continue
		}

		scored = append(scored, scoredCandidate{
			donor:      donor,
			distanceKm: dist,
			vector:     vector,
			modelScore: modelScore,
			distScore:  distScore,
			overall:    overall,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].overall != scored[j].overall {
			return scored[i].overall > scored[j].overall
		}
		if scored[i].distanceKm != scored[j].distanceKm {
			return scored[i].distanceKm < scored[j].distanceKm
		}
		return scored[i].donor.ID < scored[j].donor.ID
	})

	if len(scored) > maxResults {
		scored = scored[:maxResults]
	}

	expiresAt := now.Add(s.cfg.OfferTTL)
	records := make([]*models.MatchRecord, 0, len(scored))
	for _, sc := range scored {
		records = append(records, &models.MatchRecord{
			ID:                 uuid.NewString(),
			RequestID:          req.ID,
			DonorID:            sc.donor.ID,
			CompatibilityScore: sc.vector.BloodTypeCompatibility,
			DistanceScore:      sc.distScore,
			ReputationScore:    sc.vector.ReputationScore,
			AvailabilityScore:  sc.vector.Availability,
			ResponseTimeScore:  sc.vector.ResponseTimeScore,
			FraudRiskScore:     sc.vector.FraudRiskInverse,
			OverallScore:       sc.overall,
			Status:             models.MatchStatusPending,
			OfferedAt:          now,
			ExpiresAt:          expiresAt,
		})
	}

	if len(records) > 0 {
		if err := s.matches.CreateBatch(ctx, records); err != nil {
			return nil, err
		}
	}

	offers := make([]dto.MatchOffer, 0, len(records))
	for i, rec := range records {
		offers = append(offers, dto.MatchOffer{
			MatchID:            rec.ID,
			RequestID:          rec.RequestID,
			DonorID:            rec.DonorID,
			OverallScore:       rec.OverallScore,
			ModelScore:         scored[i].modelScore,
			DistanceKm:         scored[i].distanceKm,
			CompatibilityScore: rec.CompatibilityScore,
			DistanceScore:      rec.DistanceScore,
			ReputationScore:    rec.ReputationScore,
			AvailabilityScore:  rec.AvailabilityScore,
			ResponseTimeScore:  rec.ResponseTimeScore,
			FraudRiskScore:     rec.FraudRiskScore,
			ExpiresAt:          rec.ExpiresAt,
		})

		s.notifier.Notify(ctx, notify.Event{
			Type:   notify.EventMatchOffered,
			UserID: scored[i].donor.UserID,
			Title:  "New donation request near you",
			Body:   "You have been matched to a blood request. The offer expires in one hour.",
			Data: map[string]interface{}{
				"match_id":   rec.ID,
				"request_id": rec.RequestID,
				"expires_at": rec.ExpiresAt,
			},
		})
	}

	if s.metrics != nil {
		s.metrics.ObserveRanking(s.now().Sub(started), len(pool), len(offers))
	}

	s.logger.Sugar().Infow("ranked candidates",
		"request_id", req.ID, "pool", len(pool), "offers", len(offers))
	return offers, nil
}

// MatchOpenRequests runs one ranking pass over every active request that has
// no live offers yet. A failing request is logged and skipped; it never stalls
// the pass. Returns how many requests received offers.
func (s *MatchingService) MatchOpenRequests(ctx context.Context, limit int) (int, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	reqs, err := s.requests.ListActive(ctx, limit)
	if err != nil {
		return 0, err
	}

	ranked := 0
	for i := range reqs {
		live, err := s.matches.CountByRequestAndStatus(ctx, reqs[i].ID,
			models.MatchStatusPending, models.MatchStatusAccepted)
		if err != nil {
			s.logger.Sugar().Warnw("failed to count live offers",
				"request_id", reqs[i].ID, "error", err)
			continue
		}
		if live > 0 {
			continue
		}

		offers, err := s.RankCandidates(ctx, reqs[i].ID, 0)
		if err != nil {
			s.logger.Sugar().Warnw("scheduled ranking failed",
				"request_id", reqs[i].ID, "error", err)
			continue
		}
		if len(offers) > 0 {
			ranked++
		}
	}

	s.logger.Sugar().Infow("scheduled matching pass finished",
		"requests", len(reqs), "ranked", ranked)
	return ranked, nil
}
