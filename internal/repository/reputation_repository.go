package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Offical-Dhiraj/bloodchain/internal/models"
)

// ReputationTotals is the donor state returned after applying one event.
type ReputationTotals struct {
	Score         int64 `db:"reputation_score"`
	Successful    int64 `db:"successful_donations"`
	Failed        int64 `db:"failed_matches"`
	RewardBalance int64 `db:"reward_balance"`
}

// ApplyEventParams describes one reputation ledger entry plus the counter
// deltas it carries.
type ApplyEventParams struct {
	DonorID         string
	EventType       models.ReputationEventType
	Points          int64
	Reason          string
	SuccessDelta    int64
	FailureDelta    int64
	TouchedDonation bool
}

// ReputationRepository records reputation events and maintains the running
// totals on the donor profile. Events are append-only; the score is never
// recomputed from scratch.
type ReputationRepository struct {
	db *sqlx.DB
}

// NewReputationRepository constructs the repository.
func NewReputationRepository(db *sqlx.DB) *ReputationRepository {
	return &ReputationRepository{db: db}
}

// ApplyEvent inserts the ledger entry and bumps the profile totals in one
// transaction. The cumulative score clamps at zero.
func (r *ReputationRepository) ApplyEvent(ctx context.Context, params ApplyEventParams) (totals *ReputationTotals, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reputation event: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	const insertQuery = `INSERT INTO reputation_events (id, donor_id, event_type, points, reason, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err = tx.ExecContext(ctx, insertQuery,
		uuid.NewString(), params.DonorID, params.EventType, params.Points, params.Reason, now,
	); err != nil {
		return nil, fmt.Errorf("insert reputation event: %w", err)
	}

	updateQuery := `UPDATE donor_profiles
SET reputation_score = GREATEST(reputation_score + $1, 0),
	successful_donations = successful_donations + $2,
	failed_matches = failed_matches + $3`
	args := []interface{}{params.Points, params.SuccessDelta, params.FailureDelta}
	if params.TouchedDonation {
		args = append(args, now)
		updateQuery += fmt.Sprintf(", last_donation_at = $%d", len(args))
	}
	args = append(args, params.DonorID)
	updateQuery += fmt.Sprintf(` WHERE id = $%d
RETURNING reputation_score, successful_donations, failed_matches, reward_balance`, len(args))

	var result ReputationTotals
	if err = tx.GetContext(ctx, &result, updateQuery, args...); err != nil {
		return nil, fmt.Errorf("update donor totals: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reputation event: %w", err)
	}
	return &result, nil
}

// AddReward credits reward tokens onto the donor balance.
func (r *ReputationRepository) AddReward(ctx context.Context, donorID string, tokens int64) error {
	const query = `UPDATE donor_profiles SET reward_balance = reward_balance + $1 WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, tokens, donorID)
	if err != nil {
		return fmt.Errorf("add reward: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("add reward: donor %s not found", donorID)
	}
	return nil
}

// ListEvents returns a donor's reputation ledger, newest first.
func (r *ReputationRepository) ListEvents(ctx context.Context, donorID string, limit int) ([]models.ReputationEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	const query = `SELECT id, donor_id, event_type, points, reason, created_at
FROM reputation_events WHERE donor_id = $1 ORDER BY created_at DESC LIMIT $2`

	var events []models.ReputationEvent
	if err := r.db.SelectContext(ctx, &events, query, donorID, limit); err != nil {
		return nil, fmt.Errorf("list reputation events: %w", err)
	}
	return events, nil
}
