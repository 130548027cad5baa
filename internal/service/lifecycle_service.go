package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Offical-Dhiraj/bloodchain/internal/models"
	"github.com/Offical-Dhiraj/bloodchain/internal/notify"
	"github.com/Offical-Dhiraj/bloodchain/pkg/config"
	"github.com/Offical-Dhiraj/bloodchain/pkg/errors"
)

type lifecycleMatchStore interface {
	GetByID(ctx context.Context, id string) (*models.MatchRecord, error)
	Accept(ctx context.Context, matchID, donorID string, now time.Time) (*models.MatchRecord, error)
	CompareAndSetStatus(ctx context.Context, id string, expected, next models.MatchStatus, respondedAt *time.Time) (bool, error)
	ListDuePending(ctx context.Context, now time.Time, limit int) ([]models.MatchRecord, error)
}

type lifecycleRequestStore interface {
	GetByID(ctx context.Context, id string) (*models.BloodRequest, error)
	ExpireDue(ctx context.Context, now time.Time) ([]models.BloodRequest, error)
}

type lifecycleDonorStore interface {
	GetByID(ctx context.Context, id string) (*models.DonorProfile, error)
}

type lifecycleMetrics interface {
	CountTransition(outcome string)
}

// LifecycleService owns match state transitions. Accept serialises through a
// database transaction; reject and expire use compare-and-swap on status so
// concurrent service instances never double-apply a transition.
type LifecycleService struct {
	matches  lifecycleMatchStore
	requests lifecycleRequestStore
	donors   lifecycleDonorStore
	notifier notify.Notifier
	metrics  lifecycleMetrics
	cfg      config.MatchingConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewLifecycleService(
	matches lifecycleMatchStore,
	requests lifecycleRequestStore,
	donors lifecycleDonorStore,
	notifier notify.Notifier,
	metrics lifecycleMetrics,
	cfg config.MatchingConfig,
	logger *zap.Logger,
) *LifecycleService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		matches:  matches,
		requests: requests,
		donors:   donors,
		notifier: notifier,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *LifecycleService) countTransition(outcome string) {
	if s.metrics != nil {
		s.metrics.CountTransition(outcome)
	}
}

// Accept transitions a PENDING match to ACCEPTED and its request to MATCHED.
// Exactly one concurrent accept wins; losers observe a conflict.
func (s *LifecycleService) Accept(ctx context.Context, matchID, donorID string) (*models.MatchRecord, error) {
	match, err := s.matches.Accept(ctx, matchID, donorID, s.now())
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrMatchExpired):
			s.countTransition("expired")
		case errors.Is(err, errors.ErrConflict):
			s.countTransition("conflict")
		}
		return nil, err
	}
	s.countTransition("accepted")

	if req, reqErr := s.requests.GetByID(ctx, match.RequestID); reqErr == nil {
		s.notifier.Notify(ctx, notify.Event{
			Type:   notify.EventMatchAccepted,
			UserID: req.RecipientID,
			Title:  "A donor accepted your request",
			Body:   "A compatible donor accepted your blood request.",
			Data:   map[string]interface{}{"match_id": match.ID, "request_id": match.RequestID},
		})
	} else {
		s.logger.Sugar().Warnw("accepted match but could not load request for notification",
			"match_id", matchID, "error", reqErr)
	}
	return match, nil
}

// Reject transitions a PENDING match to REJECTED. No request side effect.
func (s *LifecycleService) Reject(ctx context.Context, matchID, donorID string) (*models.MatchRecord, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.DonorID != donorID {
		return nil, errors.Clone(errors.ErrForbidden, "match belongs to another donor")
	}
	if match.Status != models.MatchStatusPending {
		s.countTransition("conflict")
		return nil, errors.Clone(errors.ErrConflict, fmt.Sprintf("match already %s", match.Status))
	}

	now := s.now()
	if match.Expired(now) {
		if _, err := s.matches.CompareAndSetStatus(ctx, matchID, models.MatchStatusPending, models.MatchStatusExpired, nil); err != nil {
			return nil, err
		}
		s.countTransition("expired")
		return nil, errors.ErrMatchExpired
	}

	ok, err := s.matches.CompareAndSetStatus(ctx, matchID, models.MatchStatusPending, models.MatchStatusRejected, &now)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.countTransition("conflict")
		return nil, errors.Clone(errors.ErrConflict, "match already actioned")
	}
	s.countTransition("rejected")

	match.Status = models.MatchStatusRejected
	match.RespondedAt = &now

	if req, reqErr := s.requests.GetByID(ctx, match.RequestID); reqErr == nil {
		s.notifier.Notify(ctx, notify.Event{
			Type:   notify.EventMatchRejected,
			UserID: req.RecipientID,
			Title:  "A donor declined",
			Body:   "One of the matched donors declined your request. Other offers remain open.",
			Data:   map[string]interface{}{"match_id": match.ID, "request_id": match.RequestID},
		})
	}
	return match, nil
}

// Expire moves a PENDING match past its deadline to EXPIRED. Calling it on an
// already expired match is a no-op. Returns whether a transition happened.
func (s *LifecycleService) Expire(ctx context.Context, matchID string) (bool, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return false, err
	}
	if match.Status == models.MatchStatusExpired {
		return false, nil
	}
	if match.Status != models.MatchStatusPending {
		return false, errors.Clone(errors.ErrConflict, fmt.Sprintf("match already %s", match.Status))
	}
	if !match.Expired(s.now()) {
		return false, nil
	}

	ok, err := s.matches.CompareAndSetStatus(ctx, matchID, models.MatchStatusPending, models.MatchStatusExpired, nil)
	if err != nil {
		return false, err
	}
	if ok {
		s.countTransition("expired")
	}
	return ok, nil
}

// SweepExpired expires all due PENDING matches and lapses overdue requests. It
// is safe to run from multiple instances; CAS makes each transition apply
// once.
func (s *LifecycleService) SweepExpired(ctx context.Context) (int, error) {
	now := s.now()

	due, err := s.matches.ListDuePending(ctx, now, s.cfg.SweepBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range due {
		ok, err := s.matches.CompareAndSetStatus(ctx, due[i].ID, models.MatchStatusPending, models.MatchStatusExpired, nil)
		if err != nil {
			s.logger.Sugar().Warnw("failed to expire match", "match_id", due[i].ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		expired++
		s.countTransition("expired")

		if donor, derr := s.donors.GetByID(ctx, due[i].DonorID); derr == nil && donor != nil {
			s.notifier.Notify(ctx, notify.Event{
				Type:   notify.EventMatchExpired,
				UserID: donor.UserID,
				Title:  "Match offer expired",
				Body:   "A donation offer lapsed before you responded.",
				Data:   map[string]interface{}{"match_id": due[i].ID, "request_id": due[i].RequestID},
			})
		}
	}

	lapsed, err := s.requests.ExpireDue(ctx, now)
	if err != nil {
		s.logger.Sugar().Warnw("failed to lapse overdue requests", "error", err)
	} else if len(lapsed) > 0 {
		s.logger.Sugar().Infow("lapsed overdue requests", "count", len(lapsed))
		for i := range lapsed {
			s.notifier.Notify(ctx, notify.Event{
				Type:   notify.EventRequestExpired,
				UserID: lapsed[i].RecipientID,
				Title:  "Blood request expired",
				Body:   "Your blood request reached its deadline without a completed donation.",
				Data:   map[string]interface{}{"request_id": lapsed[i].ID},
			})
		}
	}

	if expired > 0 {
		s.logger.Sugar().Infow("expired due match offers", "count", expired)
	}
	return expired, nil
}

// RunSweeper blocks, running SweepExpired on the configured interval until the
// context is cancelled. Intended to run in its own goroutine per instance.
func (s *LifecycleService) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				s.logger.Sugar().Errorw("match expiry sweep failed", "error", err)
			}
		}
	}
}
