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

// RequestRepository persists blood requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a new blood request, assigning id and timestamps.
func (r *RequestRepository) Create(ctx context.Context, req *models.BloodRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO blood_requests
(id, recipient_id, blood_type, rh_factor, units_needed, urgency_level, latitude, longitude, radius_km, status, created_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if _, err := r.db.ExecContext(ctx, query,
		req.ID, req.RecipientID, req.BloodType, req.RhFactor, req.UnitsNeeded,
		req.Urgency, req.Latitude, req.Longitude, req.RadiusKm, req.Status,
		req.CreatedAt, req.ExpiresAt,
	); err != nil {
		return fmt.Errorf("insert blood request: %w", err)
	}
	return nil
}

// GetByID fetches a single request.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.BloodRequest, error) {
	const query = `SELECT id, recipient_id, blood_type, rh_factor, units_needed, urgency_level,
latitude, longitude, radius_km, status, created_at, expires_at
FROM blood_requests WHERE id = $1`

	var req models.BloodRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, err
	}
	return &req, nil
}

// ListActive returns OPEN, unexpired requests ordered by urgency then age.
func (r *RequestRepository) ListActive(ctx context.Context, limit int) ([]models.BloodRequest, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `SELECT id, recipient_id, blood_type, rh_factor, units_needed, urgency_level,
latitude, longitude, radius_km, status, created_at, expires_at
FROM blood_requests
WHERE status = 'OPEN' AND expires_at > $1
ORDER BY CASE urgency_level
	WHEN 'EMERGENCY' THEN 5
	WHEN 'CRITICAL' THEN 4
	WHEN 'HIGH' THEN 3
	WHEN 'MEDIUM' THEN 2
	ELSE 1
END DESC, created_at ASC
LIMIT $2`

	var items []models.BloodRequest
	if err := r.db.SelectContext(ctx, &items, query, time.Now().UTC(), limit); err != nil {
		return nil, fmt.Errorf("list active requests: %w", err)
	}
	return items, nil
}

// SetStatusIf moves the request from expected to next, reporting whether the
// transition applied. Used by the idempotent expiry reconciliation.
func (r *RequestRepository) SetStatusIf(ctx context.Context, id string, expected, next models.RequestStatus) (bool, error) {
	const query = `UPDATE blood_requests SET status = $1 WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, next, id, expected)
	if err != nil {
		return false, fmt.Errorf("cas request status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cas request status: %w", err)
	}
	return affected > 0, nil
}

// ExpireDue flips OPEN requests past their deadline to EXPIRED and returns
// the lapsed rows so callers can notify the recipients.
func (r *RequestRepository) ExpireDue(ctx context.Context, now time.Time) ([]models.BloodRequest, error) {
	const query = `UPDATE blood_requests SET status = 'EXPIRED'
WHERE status = 'OPEN' AND expires_at <= $1
RETURNING id, recipient_id`

	var items []models.BloodRequest
	if err := r.db.SelectContext(ctx, &items, query, now); err != nil {
		return nil, fmt.Errorf("expire due requests: %w", err)
	}
	return items, nil
}
