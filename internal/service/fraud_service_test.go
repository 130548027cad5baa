package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Offical-Dhiraj/bloodchain/internal/models"
)

type fraudUpdate struct {
	id      string
	score   float64
	blocked bool
}

type stubFraudDonorStore struct {
	donors  []models.DonorProfile
	updates []fraudUpdate
}

func (s *stubFraudDonorStore) ListForFraudScan(context.Context, int) ([]models.DonorProfile, error) {
	return s.donors, nil
}

func (s *stubFraudDonorStore) UpdateFraudScore(_ context.Context, id string, score float64, blocked bool) error {
	s.updates = append(s.updates, fraudUpdate{id: id, score: score, blocked: blocked})
	return nil
}

func newTestFraudService(store *stubFraudDonorStore) *FraudService {
	svc := NewFraudService(store, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestScanDonorsBlocksSerialFailers(t *testing.T) {
	store := &stubFraudDonorStore{donors: []models.DonorProfile{
		{
			ID:            "donor-burner",
			Verified:      false,
			FailedMatches: 5,
			CreatedAt:     time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:                  "donor-reliable",
			Verified:            true,
			SuccessfulDonations: 20,
			FailedMatches:       1,
			CreatedAt:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}}

	svc := newTestFraudService(store)
	scored, blocked, err := svc.ScanDonors(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, scored)
	assert.Equal(t, 1, blocked)

	require.Len(t, store.updates, 2)
	assert.Equal(t, "donor-burner", store.updates[0].id)
	assert.True(t, store.updates[0].blocked)
	assert.GreaterOrEqual(t, store.updates[0].score, 0.7)

	assert.Equal(t, "donor-reliable", store.updates[1].id)
	assert.False(t, store.updates[1].blocked)
	assert.Less(t, store.updates[1].score, 0.1)
}

func TestScanDonorsKeepsExistingBlocks(t *testing.T) {
	store := &stubFraudDonorStore{donors: []models.DonorProfile{
		{
			ID:                  "donor-paroled",
			Blocked:             true,
			Verified:            true,
			SuccessfulDonations: 10,
			CreatedAt:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}}

	svc := newTestFraudService(store)
	_, blocked, err := svc.ScanDonors(context.Background())

	require.NoError(t, err)
	// Still blocked, but not counted as newly blocked.
	assert.Equal(t, 0, blocked)
	require.Len(t, store.updates, 1)
	assert.True(t, store.updates[0].blocked)
}

func TestFraudRiskBounds(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	worst := &models.DonorProfile{FailedMatches: 9, CreatedAt: now.Add(-24 * time.Hour)}
	best := &models.DonorProfile{Verified: true, SuccessfulDonations: 50, CreatedAt: now.AddDate(-2, 0, 0)}

	assert.InDelta(t, 1.0, fraudRisk(worst, now), 1e-9)
	assert.InDelta(t, 0.0, fraudRisk(best, now), 1e-9)
}
