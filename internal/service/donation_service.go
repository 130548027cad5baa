package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Offical-Dhiraj/bloodchain/internal/dto"
	"github.com/Offical-Dhiraj/bloodchain/internal/models"
	"github.com/Offical-Dhiraj/bloodchain/pkg/config"
	"github.com/Offical-Dhiraj/bloodchain/pkg/errors"
	"github.com/Offical-Dhiraj/bloodchain/pkg/export"
	"github.com/Offical-Dhiraj/bloodchain/pkg/jobs"
	"github.com/Offical-Dhiraj/bloodchain/pkg/settlement"
)

// JobDonationCompleted labels the follow-up work queued after settlement.
const JobDonationCompleted = "donation.completed"

// DonationFollowUp is the payload of a JobDonationCompleted job. Reputation
// and reward updates run from the queue so they retry independently of the
// settlement transaction.
type DonationFollowUp struct {
	DonationID   string
	DonorID      string
	RequestID    string
	Urgency      models.UrgencyLevel
	RewardTokens int64
}

type donationMatchStore interface {
	GetByID(ctx context.Context, id string) (*models.MatchRecord, error)
	CompareAndSetStatus(ctx context.Context, id string, expected, next models.MatchStatus, respondedAt *time.Time) (bool, error)
}

type donationRequestStore interface {
	GetByID(ctx context.Context, id string) (*models.BloodRequest, error)
	SetStatusIf(ctx context.Context, id string, expected, next models.RequestStatus) (bool, error)
}

type donationStore interface {
	Create(ctx context.Context, d *models.Donation) error
	GetByMatchID(ctx context.Context, matchID string) (*models.Donation, error)
	MarkCompleted(ctx context.Context, id, settlementID string, rewardTokens int64, completedAt time.Time) error
	ListByDonor(ctx context.Context, donorID string, limit int) ([]models.Donation, error)
}

type settler interface {
	Settle(ctx context.Context, rec settlement.Record) (*settlement.Receipt, error)
}

type followupQueue interface {
	Enqueue(job jobs.Job) error
}

type donationMetrics interface {
	CountSettlement(result string)
}

// DonationService runs the settlement saga for accepted matches. Settlement
// failure leaves the match ACCEPTED and the donation PENDING so the whole
// confirmation can be retried; it is never rolled back from here.
type DonationService struct {
	matches   donationMatchStore
	requests  donationRequestStore
	donations donationStore
	settler   settler
	followups followupQueue
	metrics   donationMetrics
	cfg       config.SettlementConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewDonationService(
	matches donationMatchStore,
	requests donationRequestStore,
	donations donationStore,
	settler settler,
	followups followupQueue,
	metrics donationMetrics,
	cfg config.SettlementConfig,
	logger *zap.Logger,
) *DonationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DonationService{
		matches:   matches,
		requests:  requests,
		donations: donations,
		settler:   settler,
		followups: followups,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *DonationService) countSettlement(result string) {
	if s.metrics != nil {
		s.metrics.CountSettlement(result)
	}
}

// ConfirmDonation records a collected donation against an ACCEPTED match and
// settles it with the chain gateway. Retried confirmations reuse the existing
// PENDING donation row; confirming an already settled donation returns the
// original settlement.
func (s *DonationService) ConfirmDonation(ctx context.Context, matchID, donorID string, in dto.ConfirmDonationRequest) (*dto.ConfirmDonationResult, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.DonorID != donorID {
		return nil, errors.Clone(errors.ErrForbidden, "match belongs to another donor")
	}
	if match.Status != models.MatchStatusAccepted && match.Status != models.MatchStatusCompleted {
		return nil, errors.Clone(errors.ErrConflict, fmt.Sprintf("donation requires an accepted match, match is %s", match.Status))
	}

	req, err := s.requests.GetByID(ctx, match.RequestID)
	if err != nil {
		return nil, err
	}

	donation, err := s.donations.GetByMatchID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if donation != nil && donation.Status == models.DonationStatusCompleted {
		result := &dto.ConfirmDonationResult{
			DonationID:   donation.ID,
			RewardTokens: donation.RewardTokens,
		}
		if donation.SettlementID != nil {
			result.SettlementID = *donation.SettlementID
		}
		return result, nil
	}

	if donation == nil {
		donation = &models.Donation{
			MatchID:        matchID,
			DonorID:        donorID,
			RequestID:      req.ID,
			BloodType:      req.BloodType,
			RhFactor:       req.RhFactor,
			UnitsCollected: in.UnitsCollected,
			Status:         models.DonationStatusPending,
		}
		if err := s.donations.Create(ctx, donation); err != nil {
			return nil, err
		}
	}

	receipt, err := s.settler.Settle(ctx, settlement.Record{
		DonationID:     donation.ID,
		MatchID:        matchID,
		DonorID:        donorID,
		RequestID:      req.ID,
		UnitsCollected: in.UnitsCollected,
		ProofDigest:    settlement.ProofDigest(donation.ID, matchID, in.ProofHash),
	})
	if err != nil {
		// Match stays ACCEPTED and the donation stays PENDING for retry.
		s.countSettlement("failure")
		return nil, err
	}
	s.countSettlement("success")

	reward := int64(in.UnitsCollected) * s.cfg.RewardPerUnit
	now := s.now()

	if err := s.donations.MarkCompleted(ctx, donation.ID, receipt.SettlementID, reward, now); err != nil {
		return nil, err
	}

	if _, err := s.matches.CompareAndSetStatus(ctx, matchID, models.MatchStatusAccepted, models.MatchStatusCompleted, nil); err != nil {
		s.logger.Sugar().Errorw("donation settled but match completion failed",
			"match_id", matchID, "donation_id", donation.ID, "error", err)
	}
	if _, err := s.requests.SetStatusIf(ctx, req.ID, models.RequestStatusMatched, models.RequestStatusFulfilled); err != nil {
		s.logger.Sugar().Errorw("donation settled but request fulfilment failed",
			"request_id", req.ID, "error", err)
	}

	if s.followups != nil {
		err := s.followups.Enqueue(jobs.Job{
			ID:   donation.ID,
			Type: JobDonationCompleted,
			Payload: DonationFollowUp{
				DonationID:   donation.ID,
				DonorID:      donorID,
				RequestID:    req.ID,
				Urgency:      req.Urgency,
				RewardTokens: reward,
			},
		})
		if err != nil {
			s.logger.Sugar().Errorw("failed to queue donation follow-up",
				"donation_id", donation.ID, "error", err)
		}
	}

	return &dto.ConfirmDonationResult{
		DonationID:   donation.ID,
		SettlementID: receipt.SettlementID,
		RewardTokens: reward,
	}, nil
}

// History lists a donor's donations, newest first.
func (s *DonationService) History(ctx context.Context, donorID string, limit int) ([]models.Donation, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.donations.ListByDonor(ctx, donorID, limit)
}

// ExportHistory renders a donor's donation history as CSV or PDF.
func (s *DonationService) ExportHistory(ctx context.Context, donorID, format string) ([]byte, string, error) {
	donations, err := s.History(ctx, donorID, 100)
	if err != nil {
		return nil, "", err
	}

	ds := export.Dataset{
		Title:       "Donation History",
		GeneratedAt: s.now(),
		Headers:     []string{"Date", "Blood Type", "Units", "Status", "Reward Tokens", "Settlement"},
	}
	for i := range donations {
		d := &donations[i]
		settlementID := ""
		if d.SettlementID != nil {
			settlementID = *d.SettlementID
		}
		ds.Rows = append(ds.Rows, []string{
			d.CreatedAt.Format("2006-01-02"),
			fmt.Sprintf("%s %s", d.BloodType, d.RhFactor),
			strconv.Itoa(d.UnitsCollected),
			string(d.Status),
			strconv.FormatInt(d.RewardTokens, 10),
			settlementID,
		})
	}

	var renderer export.Renderer
	switch format {
	case "pdf":
		renderer = export.PDFRenderer{}
	case "", "csv":
		renderer = export.CSVRenderer{}
	default:
		return nil, "", errors.Clone(errors.ErrValidation, "unsupported export format")
	}
	return renderer.Render(ds)
}
