package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Offical-Dhiraj/bloodchain/internal/models"
	"github.com/Offical-Dhiraj/bloodchain/internal/notify"
	"github.com/Offical-Dhiraj/bloodchain/pkg/config"
	apperrors "github.com/Offical-Dhiraj/bloodchain/pkg/errors"
)

type casCall struct {
	id       string
	expected models.MatchStatus
	next     models.MatchStatus
}

type stubLifecycleMatchStore struct {
	match     *models.MatchRecord
	acceptErr error
	due       []models.MatchRecord
	casOK     bool
	casCalls  []casCall
}

func (s *stubLifecycleMatchStore) GetByID(context.Context, string) (*models.MatchRecord, error) {
	if s.match == nil {
		return nil, apperrors.ErrNotFound
	}
	return s.match, nil
}

func (s *stubLifecycleMatchStore) Accept(_ context.Context, matchID, donorID string, now time.Time) (*models.MatchRecord, error) {
	if s.acceptErr != nil {
		return nil, s.acceptErr
	}
	m := *s.match
	m.Status = models.MatchStatusAccepted
	m.RespondedAt = &now
	return &m, nil
}

func (s *stubLifecycleMatchStore) CompareAndSetStatus(_ context.Context, id string, expected, next models.MatchStatus, _ *time.Time) (bool, error) {
	s.casCalls = append(s.casCalls, casCall{id: id, expected: expected, next: next})
	return s.casOK, nil
}

func (s *stubLifecycleMatchStore) ListDuePending(context.Context, time.Time, int) ([]models.MatchRecord, error) {
	return s.due, nil
}

type stubLifecycleRequestStore struct {
	req    *models.BloodRequest
	lapsed []models.BloodRequest
}

func (s *stubLifecycleRequestStore) GetByID(context.Context, string) (*models.BloodRequest, error) {
	if s.req == nil {
		return nil, apperrors.ErrNotFound
	}
	return s.req, nil
}

func (s *stubLifecycleRequestStore) ExpireDue(context.Context, time.Time) ([]models.BloodRequest, error) {
	return s.lapsed, nil
}

type stubLifecycleDonorStore struct{}

func (stubLifecycleDonorStore) GetByID(_ context.Context, id string) (*models.DonorProfile, error) {
	return &models.DonorProfile{ID: id, UserID: "user-" + id}, nil
}

type recordingTransitions struct{ outcomes []string }

func (r *recordingTransitions) CountTransition(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func pendingMatch(donorID string, expiresAt time.Time) *models.MatchRecord {
	return &models.MatchRecord{
		ID:        "match-1",
		RequestID: "req-1",
		DonorID:   donorID,
		Status:    models.MatchStatusPending,
		ExpiresAt: expiresAt,
	}
}

func newTestLifecycleService(matches *stubLifecycleMatchStore, requests *stubLifecycleRequestStore, notifier notify.Notifier) *LifecycleService {
	cfg := config.MatchingConfig{SweepBatchSize: 200, SweepInterval: time.Minute}
	svc := NewLifecycleService(matches, requests, stubLifecycleDonorStore{}, notifier, &recordingTransitions{}, cfg, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestAcceptNotifiesRecipient(t *testing.T) {
	matches := &stubLifecycleMatchStore{match: pendingMatch("donor-1", time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC))}
	requests := &stubLifecycleRequestStore{req: &models.BloodRequest{ID: "req-1", RecipientID: "user-r"}}
	notifier := &recordingNotifier{}

	svc := newTestLifecycleService(matches, requests, notifier)
	match, err := svc.Accept(context.Background(), "match-1", "donor-1")

	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusAccepted, match.Status)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, notify.EventMatchAccepted, notifier.events[0].Type)
	assert.Equal(t, "user-r", notifier.events[0].UserID)
}

func TestAcceptPropagatesConflict(t *testing.T) {
	matches := &stubLifecycleMatchStore{
		match:     pendingMatch("donor-1", time.Now()),
		acceptErr: apperrors.ErrConflict,
	}
	svc := newTestLifecycleService(matches, &stubLifecycleRequestStore{}, nil)

	_, err := svc.Accept(context.Background(), "match-1", "donor-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestRejectHappyPath(t *testing.T) {
	matches := &stubLifecycleMatchStore{
		match: pendingMatch("donor-1", time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)),
		casOK: true,
	}
	requests := &stubLifecycleRequestStore{req: &models.BloodRequest{ID: "req-1", RecipientID: "user-r"}}
	notifier := &recordingNotifier{}

	svc := newTestLifecycleService(matches, requests, notifier)
	match, err := svc.Reject(context.Background(), "match-1", "donor-1")

	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusRejected, match.Status)
	require.Len(t, matches.casCalls, 1)
	assert.Equal(t, models.MatchStatusRejected, matches.casCalls[0].next)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, notify.EventMatchRejected, notifier.events[0].Type)
}

func TestRejectWrongDonor(t *testing.T) {
	matches := &stubLifecycleMatchStore{match: pendingMatch("donor-1", time.Now().Add(time.Hour))}
	svc := newTestLifecycleService(matches, &stubLifecycleRequestStore{}, nil)

	_, err := svc.Reject(context.Background(), "match-1", "donor-2")
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
	assert.Empty(t, matches.casCalls)
}

func TestRejectAlreadyActioned(t *testing.T) {
	m := pendingMatch("donor-1", time.Now().Add(time.Hour))
	m.Status = models.MatchStatusAccepted
	svc := newTestLifecycleService(&stubLifecycleMatchStore{match: m}, &stubLifecycleRequestStore{}, nil)

	_, err := svc.Reject(context.Background(), "match-1", "donor-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestRejectExpiredOffer(t *testing.T) {
	matches := &stubLifecycleMatchStore{
		match: pendingMatch("donor-1", time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)),
		casOK: true,
	}
	svc := newTestLifecycleService(matches, &stubLifecycleRequestStore{}, nil)

	_, err := svc.Reject(context.Background(), "match-1", "donor-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrMatchExpired))
	require.Len(t, matches.casCalls, 1)
	assert.Equal(t, models.MatchStatusExpired, matches.casCalls[0].next)
}

func TestRejectLostRace(t *testing.T) {
	matches := &stubLifecycleMatchStore{
		match: pendingMatch("donor-1", time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)),
		casOK: false,
	}
	svc := newTestLifecycleService(matches, &stubLifecycleRequestStore{}, nil)

	_, err := svc.Reject(context.Background(), "match-1", "donor-1")
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestExpireIdempotentOnExpired(t *testing.T) {
	m := pendingMatch("donor-1", time.Now())
	m.Status = models.MatchStatusExpired
	matches := &stubLifecycleMatchStore{match: m}
	svc := newTestLifecycleService(matches, &stubLifecycleRequestStore{}, nil)

	changed, err := svc.Expire(context.Background(), "match-1")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, matches.casCalls)
}

func TestExpireNotYetDue(t *testing.T) {
	matches := &stubLifecycleMatchStore{match: pendingMatch("donor-1", time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC))}
	svc := newTestLifecycleService(matches, &stubLifecycleRequestStore{}, nil)

	changed, err := svc.Expire(context.Background(), "match-1")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, matches.casCalls)
}

func TestExpireDueMatch(t *testing.T) {
	matches := &stubLifecycleMatchStore{
		match: pendingMatch("donor-1", time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)),
		casOK: true,
	}
	svc := newTestLifecycleService(matches, &stubLifecycleRequestStore{}, nil)

	changed, err := svc.Expire(context.Background(), "match-1")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestSweepExpired(t *testing.T) {
	due := []models.MatchRecord{
		*pendingMatch("donor-1", time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)),
		*pendingMatch("donor-2", time.Date(2026, 3, 1, 11, 30, 0, 0, time.UTC)),
	}
	matches := &stubLifecycleMatchStore{due: due, casOK: true}
	requests := &stubLifecycleRequestStore{lapsed: []models.BloodRequest{
		{ID: "req-9", RecipientID: "user-r9"},
	}}
	notifier := &recordingNotifier{}

	svc := newTestLifecycleService(matches, requests, notifier)
	count, err := svc.SweepExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, matches.casCalls, 2)

	// Both expired donors and the lapsed recipient hear about it.
	require.Len(t, notifier.events, 3)
	assert.Equal(t, notify.EventMatchExpired, notifier.events[0].Type)
	assert.Equal(t, "user-donor-1", notifier.events[0].UserID)
	assert.Equal(t, notify.EventMatchExpired, notifier.events[1].Type)
	assert.Equal(t, notify.EventRequestExpired, notifier.events[2].Type)
	assert.Equal(t, "user-r9", notifier.events[2].UserID)
}

func TestTransitionOutcomesCounted(t *testing.T) {
	matches := &stubLifecycleMatchStore{
		match: pendingMatch("donor-1", time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)),
		casOK: true,
	}
	requests := &stubLifecycleRequestStore{req: &models.BloodRequest{ID: "req-1", RecipientID: "user-r"}}

	svc := newTestLifecycleService(matches, requests, nil)
	counter := &recordingTransitions{}
	svc.metrics = counter

	_, err := svc.Accept(context.Background(), "match-1", "donor-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"accepted"}, counter.outcomes)

	matches.acceptErr = apperrors.ErrConflict
	_, err = svc.Accept(context.Background(), "match-1", "donor-1")
	require.Error(t, err)
	assert.Equal(t, []string{"accepted", "conflict"}, counter.outcomes)

	_, err = svc.Reject(context.Background(), "match-1", "donor-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"accepted", "conflict", "rejected"}, counter.outcomes)
}
