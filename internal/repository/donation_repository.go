package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Offical-Dhiraj/bloodchain/internal/models"
)

const donationColumns = `id, match_id, donor_id, request_id, blood_type, rh_factor,
units_collected, status, settlement_id, reward_tokens, created_at, completed_at`

// DonationRepository persists donation records for the settlement saga.
type DonationRepository struct {
	db *sqlx.DB
}

// NewDonationRepository constructs the repository.
func NewDonationRepository(db *sqlx.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// Create inserts a donation in PENDING state ahead of settlement.
func (r *DonationRepository) Create(ctx context.Context, d *models.Donation) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO donations
(id, match_id, donor_id, request_id, blood_type, rh_factor, units_collected, status, settlement_id, reward_tokens, created_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if _, err := r.db.ExecContext(ctx, query,
		d.ID, d.MatchID, d.DonorID, d.RequestID, d.BloodType, d.RhFactor,
		d.UnitsCollected, d.Status, d.SettlementID, d.RewardTokens,
		d.CreatedAt, d.CompletedAt,
	); err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

// GetByMatchID returns the donation attached to a match, if any. A retried
// settlement reuses the existing PENDING row instead of creating another.
func (r *DonationRepository) GetByMatchID(ctx context.Context, matchID string) (*models.Donation, error) {
	query := fmt.Sprintf(`SELECT %s FROM donations WHERE match_id = $1`, donationColumns)

	var d models.Donation
	if err := r.db.GetContext(ctx, &d, query, matchID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// MarkCompleted records the settlement outcome on a PENDING donation.
func (r *DonationRepository) MarkCompleted(ctx context.Context, id, settlementID string, rewardTokens int64, completedAt time.Time) error {
	const query = `UPDATE donations
SET status = 'COMPLETED', settlement_id = $1, reward_tokens = $2, completed_at = $3
WHERE id = $4 AND status = 'PENDING'`

	res, err := r.db.ExecContext(ctx, query, settlementID, rewardTokens, completedAt, id)
	if err != nil {
		return fmt.Errorf("complete donation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete donation: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("complete donation: donation %s not pending", id)
	}
	return nil
}

// ListByDonor returns a donor's donation history, newest first.
func (r *DonationRepository) ListByDonor(ctx context.Context, donorID string, limit int) ([]models.Donation, error) {
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`SELECT %s FROM donations WHERE donor_id = $1 ORDER BY created_at DESC LIMIT $2`, donationColumns)

	var items []models.Donation
	if err := r.db.SelectContext(ctx, &items, query, donorID, limit); err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	return items, nil
}
