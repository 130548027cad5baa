package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Offical-Dhiraj/bloodchain/internal/models"
	"github.com/Offical-Dhiraj/bloodchain/internal/notify"
	"github.com/Offical-Dhiraj/bloodchain/internal/repository"
	"github.com/Offical-Dhiraj/bloodchain/pkg/config"
	apperrors "github.com/Offical-Dhiraj/bloodchain/pkg/errors"
)

type stubReputationStore struct {
	applied []repository.ApplyEventParams
	totals  *repository.ReputationTotals
	events  []models.ReputationEvent
	err     error
}

func (s *stubReputationStore) ApplyEvent(_ context.Context, params repository.ApplyEventParams) (*repository.ReputationTotals, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.applied = append(s.applied, params)
	return s.totals, nil
}

func (s *stubReputationStore) ListEvents(context.Context, string, int) ([]models.ReputationEvent, error) {
	return s.events, nil
}

type stubReputationDonorStore struct {
	donor    *models.DonorProfile
	inactive []models.DonorProfile
}

func (s *stubReputationDonorStore) GetByID(context.Context, string) (*models.DonorProfile, error) {
	if s.donor == nil {
		return nil, apperrors.ErrNotFound
	}
	return s.donor, nil
}

func (s *stubReputationDonorStore) ListInactiveSince(context.Context, time.Time, int) ([]models.DonorProfile, error) {
	return s.inactive, nil
}

func reputationTestConfig() config.ReputationConfig {
	return config.ReputationConfig{
		DecayEnabled:   true,
		DecayAfter:     2160 * time.Hour,
		DecayPoints:    25,
		MilestoneEvery: 10,
	}
}

func TestOnDonationCompletedBasePoints(t *testing.T) {
	store := &stubReputationStore{totals: &repository.ReputationTotals{Score: 600, Successful: 6}}
	svc := NewReputationService(store, &stubReputationDonorStore{}, nil, reputationTestConfig(), nil)

	stats, err := svc.OnDonationCompleted(context.Background(), "donor-1", models.UrgencyHigh)

	require.NoError(t, err)
	require.Len(t, store.applied, 1)
	assert.EqualValues(t, 100, store.applied[0].Points)
	assert.EqualValues(t, 1, store.applied[0].SuccessDelta)
	assert.Equal(t, models.ReputationEventDonationCompleted, store.applied[0].EventType)
	assert.Equal(t, models.TierSilver, stats.Tier)
}

func TestOnDonationCompletedEmergencyDoubles(t *testing.T) {
	store := &stubReputationStore{totals: &repository.ReputationTotals{Score: 200, Successful: 2}}
	svc := NewReputationService(store, &stubReputationDonorStore{}, nil, reputationTestConfig(), nil)

	_, err := svc.OnDonationCompleted(context.Background(), "donor-1", models.UrgencyEmergency)

	require.NoError(t, err)
	require.Len(t, store.applied, 1)
	assert.EqualValues(t, 200, store.applied[0].Points)
}

func TestOnDonationCompletedMilestoneBadge(t *testing.T) {
	store := &stubReputationStore{totals: &repository.ReputationTotals{Score: 1000, Successful: 10}}
	donors := &stubReputationDonorStore{donor: &models.DonorProfile{ID: "donor-1", UserID: "user-d"}}
	notifier := &recordingNotifier{}

	svc := NewReputationService(store, donors, notifier, reputationTestConfig(), nil)
	_, err := svc.OnDonationCompleted(context.Background(), "donor-1", models.UrgencyLow)

	require.NoError(t, err)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, notify.EventBadgeAwarded, notifier.events[0].Type)
	assert.Equal(t, "user-d", notifier.events[0].UserID)
}

func TestOnDonationCompletedNoBadgeOffMilestone(t *testing.T) {
	store := &stubReputationStore{totals: &repository.ReputationTotals{Score: 900, Successful: 9}}
	notifier := &recordingNotifier{}

	svc := NewReputationService(store, &stubReputationDonorStore{}, notifier, reputationTestConfig(), nil)
	_, err := svc.OnDonationCompleted(context.Background(), "donor-1", models.UrgencyLow)

	require.NoError(t, err)
	assert.Empty(t, notifier.events)
}

func TestOnDonationFailedPenalty(t *testing.T) {
	store := &stubReputationStore{totals: &repository.ReputationTotals{Score: 50, Failed: 1}}
	svc := NewReputationService(store, &stubReputationDonorStore{}, nil, reputationTestConfig(), nil)

	stats, err := svc.OnDonationFailed(context.Background(), "donor-1")

	require.NoError(t, err)
	require.Len(t, store.applied, 1)
	assert.EqualValues(t, -50, store.applied[0].Points)
	assert.EqualValues(t, 1, store.applied[0].FailureDelta)
	assert.Equal(t, models.TierBronze, stats.Tier)
}

func TestStatsDerivesTierAndRate(t *testing.T) {
	donors := &stubReputationDonorStore{donor: &models.DonorProfile{
		ID:                  "donor-1",
		ReputationScore:     1600,
		SuccessfulDonations: 8,
		FailedMatches:       2,
		RewardBalance:       800,
	}}
	svc := NewReputationService(&stubReputationStore{}, donors, nil, reputationTestConfig(), nil)

	stats, err := svc.Stats(context.Background(), "donor-1")

	require.NoError(t, err)
	assert.Equal(t, models.TierGold, stats.Tier)
	assert.InDelta(t, 0.8, stats.SuccessRate, 1e-9)
	assert.EqualValues(t, 800, stats.RewardBalance)
}

func TestDecayInactive(t *testing.T) {
	store := &stubReputationStore{totals: &repository.ReputationTotals{}}
	donors := &stubReputationDonorStore{inactive: []models.DonorProfile{
		{ID: "donor-1"}, {ID: "donor-2"},
	}}
	svc := NewReputationService(store, donors, nil, reputationTestConfig(), nil)

	decayed, err := svc.DecayInactive(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, decayed)
	require.Len(t, store.applied, 2)
	assert.EqualValues(t, -25, store.applied[0].Points)
	assert.Equal(t, models.ReputationEventInactivityDecay, store.applied[0].EventType)
}

func TestDecayDisabled(t *testing.T) {
	cfg := reputationTestConfig()
	cfg.DecayEnabled = false
	store := &stubReputationStore{}

	svc := NewReputationService(store, &stubReputationDonorStore{}, nil, cfg, nil)
	decayed, err := svc.DecayInactive(context.Background())

	require.NoError(t, err)
	assert.Zero(t, decayed)
	assert.Empty(t, store.applied)
}
