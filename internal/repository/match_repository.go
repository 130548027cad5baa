package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Offical-Dhiraj/bloodchain/internal/models"
	appErrors "github.com/Offical-Dhiraj/bloodchain/pkg/errors"
)

const matchColumns = `id, request_id, donor_id, compatibility_score, distance_score,
reputation_score, availability_score, response_time_score, fraud_risk_score,
overall_score, status, offered_at, responded_at, expires_at`

// MatchRepository persists match offers and owns their transactional
// transitions. Match rows are never deleted.
type MatchRepository struct {
	db *sqlx.DB
}

// NewMatchRepository constructs the repository.
func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// CreateBatch inserts the ranked offers of one ranking pass in a single
// transaction so a partially persisted batch never surfaces.
func (r *MatchRepository) CreateBatch(ctx context.Context, matches []*models.MatchRecord) (err error) {
	if len(matches) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin match batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO matches
(id, request_id, donor_id, compatibility_score, distance_score, reputation_score,
 availability_score, response_time_score, fraud_risk_score, overall_score,
 status, offered_at, responded_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	for _, m := range matches {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if _, err = tx.ExecContext(ctx, query,
			m.ID, m.RequestID, m.DonorID, m.CompatibilityScore, m.DistanceScore,
			m.ReputationScore, m.AvailabilityScore, m.ResponseTimeScore,
			m.FraudRiskScore, m.OverallScore, m.Status, m.OfferedAt,
			m.RespondedAt, m.ExpiresAt,
		); err != nil {
			return fmt.Errorf("insert match %s: %w", m.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit match batch: %w", err)
	}
	return nil
}

// GetByID fetches a single match.
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*models.MatchRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM matches WHERE id = $1`, matchColumns)

	var m models.MatchRecord
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "match not found")
		}
		return nil, err
	}
	return &m, nil
}

// ListByRequest returns every offer ever made for a request, best first.
func (r *MatchRepository) ListByRequest(ctx context.Context, requestID string) ([]models.MatchRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM matches WHERE request_id = $1 ORDER BY overall_score DESC, id ASC`, matchColumns)

	var items []models.MatchRecord
	if err := r.db.SelectContext(ctx, &items, query, requestID); err != nil {
		return nil, fmt.Errorf("list matches for request %s: %w", requestID, err)
	}
	return items, nil
}

// Accept performs the accept transition in one transaction: it locks the match
// row, verifies the acting donor and the PENDING status, evaluates the offer
// deadline, and flips the parent request OPEN to MATCHED with a rows-affected
// guard. Concurrent accepts on the same match (or on sibling offers of the
// same request) serialize here; exactly one wins and the rest observe a
// typed conflict.
func (r *MatchRepository) Accept(ctx context.Context, matchID, donorID string, now time.Time) (match *models.MatchRecord, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin accept: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	lockQuery := fmt.Sprintf(`SELECT %s FROM matches WHERE id = $1 FOR UPDATE`, matchColumns)

	var m models.MatchRecord
	if err = tx.GetContext(ctx, &m, lockQuery, matchID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "match not found")
		}
		return nil, fmt.Errorf("lock match %s: %w", matchID, err)
	}

	if m.DonorID != donorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "match belongs to another donor")
	}
	if m.Status != models.MatchStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("match already %s", m.Status))
	}

	if m.Expired(now) {
		// Lazy expiry: convert the overdue offer inside the same lock so no
		// PENDING match survives interaction past its deadline.
		if _, err = tx.ExecContext(ctx, `UPDATE matches SET status = 'EXPIRED' WHERE id = $1`, matchID); err != nil {
			return nil, fmt.Errorf("expire overdue match %s: %w", matchID, err)
		}
		if err = tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit lazy expiry: %w", err)
		}
		committed = true
		return nil, appErrors.ErrMatchExpired
	}

	res, err := tx.ExecContext(ctx, `UPDATE blood_requests SET status = 'MATCHED' WHERE id = $1 AND status = 'OPEN'`, m.RequestID)
	if err != nil {
		return nil, fmt.Errorf("mark request matched: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("mark request matched: %w", err)
	}
	if affected == 0 {
		// Sibling offers are invalidated lazily: once any offer for the
		// request was accepted the request left OPEN and all later accepts
		// land here.
		return nil, appErrors.Clone(appErrors.ErrConflict, "request no longer open")
	}

	if _, err = tx.ExecContext(ctx, `UPDATE matches SET status = 'ACCEPTED', responded_at = $1 WHERE id = $2`, now, matchID); err != nil {
		return nil, fmt.Errorf("mark match accepted: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit accept: %w", err)
	}
	committed = true

	m.Status = models.MatchStatusAccepted
	m.RespondedAt = &now
	return &m, nil
}

// CompareAndSetStatus transitions the match from expected to next, optionally
// stamping responded_at, and reports whether the transition applied. The
// rows-affected contract is the optimistic-concurrency check for reject,
// expire and complete.
func (r *MatchRepository) CompareAndSetStatus(ctx context.Context, id string, expected, next models.MatchStatus, respondedAt *time.Time) (bool, error) {
	const query = `UPDATE matches
SET status = $1, responded_at = COALESCE($2, responded_at)
WHERE id = $3 AND status = $4`

	res, err := r.db.ExecContext(ctx, query, next, respondedAt, id, expected)
	if err != nil {
		return false, fmt.Errorf("cas match status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cas match status: %w", err)
	}
	return affected > 0, nil
}

// ListDuePending returns PENDING matches whose deadline has passed, oldest
// first, for the expiry sweep.
func (r *MatchRepository) ListDuePending(ctx context.Context, now time.Time, limit int) ([]models.MatchRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`SELECT %s FROM matches
WHERE status = 'PENDING' AND expires_at <= $1
ORDER BY expires_at ASC
LIMIT $2`, matchColumns)

	var items []models.MatchRecord
	if err := r.db.SelectContext(ctx, &items, query, now, limit); err != nil {
		return nil, fmt.Errorf("list due pending matches: %w", err)
	}
	return items, nil
}

// CountByRequestAndStatus counts a request's offers in the given states.
func (r *MatchRepository) CountByRequestAndStatus(ctx context.Context, requestID string, statuses ...models.MatchStatus) (int, error) {
	query, args, err := sqlx.In(`SELECT COUNT(*) FROM matches WHERE request_id = ? AND status IN (?)`, requestID, statuses)
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	query = r.db.Rebind(query)

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count matches: %w", err)
	}
	return count, nil
}
