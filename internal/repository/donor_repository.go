package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Offical-Dhiraj/bloodchain/internal/models"
	appErrors "github.com/Offical-Dhiraj/bloodchain/pkg/errors"
)

const donorColumns = `id, user_id, blood_type, rh_factor, is_available, blocked, verified,
reputation_score, fraud_risk_score, successful_donations, failed_matches,
avg_response_seconds, last_donation_at, reward_balance, created_at`

// DonorRepository reads donor profiles from the directory.
type DonorRepository struct {
	db *sqlx.DB
}

// NewDonorRepository constructs the repository.
func NewDonorRepository(db *sqlx.DB) *DonorRepository {
	return &DonorRepository{db: db}
}

// FindCompatible returns available, non-blocked donors matching the requested
// blood type and Rh factor, best reputation first. The limit bounds the
// candidate pool loaded per ranking pass.
func (r *DonorRepository) FindCompatible(ctx context.Context, bloodType models.BloodType, rh models.RhFactor, limit int) ([]models.DonorProfile, error) {
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`SELECT %s FROM donor_profiles
WHERE blood_type = $1 AND rh_factor = $2 AND is_available = TRUE AND blocked = FALSE
ORDER BY reputation_score DESC, id ASC
LIMIT $3`, donorColumns)

	var donors []models.DonorProfile
	if err := r.db.SelectContext(ctx, &donors, query, bloodType, rh, limit); err != nil {
		return nil, fmt.Errorf("find compatible donors: %w", err)
	}
	return donors, nil
}

// GetByID fetches one donor profile.
func (r *DonorRepository) GetByID(ctx context.Context, id string) (*models.DonorProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM donor_profiles WHERE id = $1`, donorColumns)

	var donor models.DonorProfile
	if err := r.db.GetContext(ctx, &donor, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "donor not found")
		}
		return nil, err
	}
	return &donor, nil
}

// GetByUserID resolves the donor profile owned by a platform user.
func (r *DonorRepository) GetByUserID(ctx context.Context, userID string) (*models.DonorProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM donor_profiles WHERE user_id = $1`, donorColumns)

	var donor models.DonorProfile
	if err := r.db.GetContext(ctx, &donor, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "donor profile not found")
		}
		return nil, err
	}
	return &donor, nil
}

// ListForFraudScan returns donors worth rescoring: anyone with match history
// plus unverified profiles, newest accounts first.
func (r *DonorRepository) ListForFraudScan(ctx context.Context, limit int) ([]models.DonorProfile, error) {
	if limit <= 0 {
		limit = 500
	}

	query := fmt.Sprintf(`SELECT %s FROM donor_profiles
WHERE successful_donations + failed_matches > 0 OR verified = FALSE
ORDER BY created_at DESC
LIMIT $1`, donorColumns)

	var donors []models.DonorProfile
	if err := r.db.SelectContext(ctx, &donors, query, limit); err != nil {
		return nil, fmt.Errorf("list donors for fraud scan: %w", err)
	}
	return donors, nil
}

// UpdateFraudScore stores a recomputed risk score and the block decision.
func (r *DonorRepository) UpdateFraudScore(ctx context.Context, id string, score float64, blocked bool) error {
	const query = `UPDATE donor_profiles SET fraud_risk_score = $1, blocked = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, score, blocked, id); err != nil {
		return fmt.Errorf("update fraud score for %s: %w", id, err)
	}
	return nil
}

// ListInactiveSince returns donors whose last donation predates the cutoff and
// who still hold a positive reputation score. Used by the decay job.
func (r *DonorRepository) ListInactiveSince(ctx context.Context, cutoff time.Time, limit int) ([]models.DonorProfile, error) {
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`SELECT %s FROM donor_profiles
WHERE reputation_score > 0 AND (last_donation_at IS NULL OR last_donation_at < $1)
ORDER BY last_donation_at ASC NULLS FIRST
LIMIT $2`, donorColumns)

	var donors []models.DonorProfile
	if err := r.db.SelectContext(ctx, &donors, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("list inactive donors: %w", err)
	}
	return donors, nil
}
