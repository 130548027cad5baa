package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Offical-Dhiraj/bloodchain/internal/models"
)

// fraudBlockThreshold is the risk score at which a donor is pulled from the
// candidate pool.
const fraudBlockThreshold = 0.7

// fraudScanBatchSize bounds one scoring pass.
const fraudScanBatchSize = 500

type fraudDonorStore interface {
	ListForFraudScan(ctx context.Context, limit int) ([]models.DonorProfile, error)
	UpdateFraudScore(ctx context.Context, id string, score float64, blocked bool) error
}

// FraudService recomputes donor fraud risk from observed match behaviour.
// Ranking consumes the stored score through the feature vector; donors past
// the block threshold drop out of the candidate pool entirely until an
// operator clears them.
type FraudService struct {
	donors fraudDonorStore
	logger *zap.Logger
	now    func() time.Time
}

func NewFraudService(donors fraudDonorStore, logger *zap.Logger) *FraudService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FraudService{
		donors: donors,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// fraudRisk scores one donor in [0,1]. Heavy failure ratios dominate; young
// accounts that already accumulate failures and unverified profiles add to it.
func fraudRisk(d *models.DonorProfile, now time.Time) float64 {
	total := d.SuccessfulDonations + d.FailedMatches
	var failureRatio float64
	if total > 0 {
		failureRatio = float64(d.FailedMatches) / float64(total)
	}

	var youngWithFailures float64
	if d.FailedMatches > 0 && now.Sub(d.CreatedAt) < 30*24*time.Hour {
		youngWithFailures = 1.0
	}

	var unverified float64
	if !d.Verified {
		unverified = 1.0
	}

	return clamp01(0.6*failureRatio + 0.25*youngWithFailures + 0.15*unverified)
}

// ScanDonors rescores one batch of donors and blocks those past the threshold.
// Already blocked donors stay blocked. Per-donor failures are logged and
// skipped. Returns how many donors were scored and how many newly blocked.
func (s *FraudService) ScanDonors(ctx context.Context) (int, int, error) {
	donors, err := s.donors.ListForFraudScan(ctx, fraudScanBatchSize)
	if err != nil {
		return 0, 0, err
	}

	now := s.now()
	scored, blocked := 0, 0
	for i := range donors {
		d := &donors[i]
		risk := fraudRisk(d, now)
		shouldBlock := d.Blocked || risk >= fraudBlockThreshold

		if err := s.donors.UpdateFraudScore(ctx, d.ID, risk, shouldBlock); err != nil {
			s.logger.Sugar().Warnw("failed to store fraud score",
				"donor_id", d.ID, "error", err)
			continue
		}
		scored++

		if shouldBlock && !d.Blocked {
			blocked++
			s.logger.Sugar().Warnw("blocked donor for fraud risk",
				"donor_id", d.ID, "risk", risk)
		}
	}

	s.logger.Sugar().Infow("fraud scan finished", "scored", scored, "blocked", blocked)
	return scored, blocked, nil
}
