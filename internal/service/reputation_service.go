package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Offical-Dhiraj/bloodchain/internal/models"
	"github.com/Offical-Dhiraj/bloodchain/internal/notify"
	"github.com/Offical-Dhiraj/bloodchain/internal/repository"
	"github.com/Offical-Dhiraj/bloodchain/pkg/config"
)

const (
	donationBasePoints  = 100
	emergencyMultiplier = 2
	failurePenalty      = 50
)

type reputationStore interface {
	ApplyEvent(ctx context.Context, params repository.ApplyEventParams) (*repository.ReputationTotals, error)
	ListEvents(ctx context.Context, donorID string, limit int) ([]models.ReputationEvent, error)
}

type reputationDonorStore interface {
	GetByID(ctx context.Context, id string) (*models.DonorProfile, error)
	ListInactiveSince(ctx context.Context, cutoff time.Time, limit int) ([]models.DonorProfile, error)
}

// ReputationService applies score deltas as donations complete or fail.
// Every delta is an append-only ledger event; the profile score is a running
// total that tiers derive from.
type ReputationService struct {
	events   reputationStore
	donors   reputationDonorStore
	notifier notify.Notifier
	cfg      config.ReputationConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewReputationService(
	events reputationStore,
	donors reputationDonorStore,
	notifier notify.Notifier,
	cfg config.ReputationConfig,
	logger *zap.Logger,
) *ReputationService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReputationService{
		events:   events,
		donors:   donors,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// OnDonationCompleted awards base points, doubled for EMERGENCY requests, and
// fires a badge notification on every milestone success.
func (s *ReputationService) OnDonationCompleted(ctx context.Context, donorID string, urgency models.UrgencyLevel) (*models.ReputationStats, error) {
	points := int64(donationBasePoints)
	if urgency == models.UrgencyEmergency {
		points *= emergencyMultiplier
	}

	totals, err := s.events.ApplyEvent(ctx, repository.ApplyEventParams{
		DonorID:         donorID,
		EventType:       models.ReputationEventDonationCompleted,
		Points:          points,
		Reason:          fmt.Sprintf("donation completed (%s urgency)", urgency),
		SuccessDelta:    1,
		TouchedDonation: true,
	})
	if err != nil {
		return nil, err
	}

	if s.cfg.MilestoneEvery > 0 && totals.Successful%s.cfg.MilestoneEvery == 0 {
		s.awardBadge(ctx, donorID, totals.Successful)
	}

	return statsFromTotals(donorID, totals), nil
}

// OnDonationFailed records the fixed penalty. The cumulative score never goes
// below zero.
func (s *ReputationService) OnDonationFailed(ctx context.Context, donorID string) (*models.ReputationStats, error) {
	totals, err := s.events.ApplyEvent(ctx, repository.ApplyEventParams{
		DonorID:      donorID,
		EventType:    models.ReputationEventDonationFailed,
		Points:       -failurePenalty,
		Reason:       "donation failed or donor did not show",
		FailureDelta: 1,
	})
	if err != nil {
		return nil, err
	}
	return statsFromTotals(donorID, totals), nil
}

// Stats returns the derived reputation view for a donor.
func (s *ReputationService) Stats(ctx context.Context, donorID string) (*models.ReputationStats, error) {
	donor, err := s.donors.GetByID(ctx, donorID)
	if err != nil {
		return nil, err
	}
	return statsFromTotals(donorID, &repository.ReputationTotals{
		Score:         donor.ReputationScore,
		Successful:    donor.SuccessfulDonations,
		Failed:        donor.FailedMatches,
		RewardBalance: donor.RewardBalance,
	}), nil
}

// History lists the most recent ledger entries for a donor.
func (s *ReputationService) History(ctx context.Context, donorID string, limit int) ([]models.ReputationEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.events.ListEvents(ctx, donorID, limit)
}

// DecayInactive penalises donors whose last donation predates the configured
// cutoff. Invoked from the scheduled maintenance endpoint.
func (s *ReputationService) DecayInactive(ctx context.Context) (int, error) {
	if !s.cfg.DecayEnabled {
		return 0, nil
	}

	cutoff := s.now().Add(-s.cfg.DecayAfter)
	inactive, err := s.donors.ListInactiveSince(ctx, cutoff, 500)
	if err != nil {
		return 0, err
	}

	decayed := 0
	for i := range inactive {
		_, err := s.events.ApplyEvent(ctx, repository.ApplyEventParams{
			DonorID:   inactive[i].ID,
			EventType: models.ReputationEventInactivityDecay,
			Points:    -s.cfg.DecayPoints,
			Reason:    "no donation within the activity window",
		})
		if err != nil {
			s.logger.Sugar().Warnw("failed to apply inactivity decay",
				"donor_id", inactive[i].ID, "error", err)
			continue
		}
		decayed++
	}
	return decayed, nil
}

func (s *ReputationService) awardBadge(ctx context.Context, donorID string, successes int64) {
	donor, err := s.donors.GetByID(ctx, donorID)
	if err != nil {
		s.logger.Sugar().Warnw("milestone reached but donor lookup failed",
			"donor_id", donorID, "error", err)
		return
	}
	s.notifier.Notify(ctx, notify.Event{
		Type:   notify.EventBadgeAwarded,
		UserID: donor.UserID,
		Title:  "New badge earned",
		Body:   fmt.Sprintf("Congratulations on your %dth successful donation.", successes),
		Data:   map[string]interface{}{"successful_donations": successes},
	})
}

func statsFromTotals(donorID string, totals *repository.ReputationTotals) *models.ReputationStats {
	attempts := totals.Successful + totals.Failed
	successRate := 0.0
	if attempts > 0 {
		successRate = float64(totals.Successful) / float64(attempts)
	}
	// Trust blends tier progress with demonstrated reliability.
	trust := 0.6*clamp01(float64(totals.Score)/maxReputationForScoring) + 0.4*successRate

	return &models.ReputationStats{
		DonorID:       donorID,
		TotalScore:    totals.Score,
		Tier:          models.TierFor(totals.Score),
		SuccessRate:   successRate,
		TrustScore:    trust,
		Successful:    totals.Successful,
		Failed:        totals.Failed,
		RewardBalance: totals.RewardBalance,
	}
}
