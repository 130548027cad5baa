package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Offical-Dhiraj/bloodchain/internal/models"
	appErrors "github.com/Offical-Dhiraj/bloodchain/pkg/errors"
)

func newRequestRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func requestRows(id string, status models.RequestStatus) *sqlmock.Rows {
	lat, lon := -6.2, 106.816666
	return sqlmock.NewRows([]string{
		"id", "recipient_id", "blood_type", "rh_factor", "units_needed", "urgency_level",
		"latitude", "longitude", "radius_km", "status", "created_at", "expires_at",
	}).AddRow(id, "user-1", "O", "NEGATIVE", 2, "HIGH", lat, lon, 50.0, status, time.Now(), time.Now().Add(24*time.Hour))
}

func TestRequestRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO blood_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	req := &models.BloodRequest{
		RecipientID: "user-1",
		BloodType:   models.BloodTypeO,
		RhFactor:    models.RhNegative,
		UnitsNeeded: 2,
		Urgency:     models.UrgencyHigh,
		RadiusKm:    50,
		Status:      models.RequestStatusOpen,
		ExpiresAt:   time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), req))
	assert.NotEmpty(t, req.ID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, recipient_id, blood_type")).
		WithArgs(req.ID).
		WillReturnRows(requestRows(req.ID, models.RequestStatusOpen))

	found, err := repo.GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, req.ID, found.ID)
	assert.True(t, found.HasLocation())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryGetMissing(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, recipient_id, blood_type")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositorySetStatusIf(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE blood_requests SET status")).
		WithArgs(models.RequestStatusExpired, "req-1", models.RequestStatusOpen).
		WillReturnResult(sqlmock.NewResult(0, 1))
	applied, err := repo.SetStatusIf(context.Background(), "req-1", models.RequestStatusOpen, models.RequestStatusExpired)
	require.NoError(t, err)
	assert.True(t, applied)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE blood_requests SET status")).
		WithArgs(models.RequestStatusExpired, "req-1", models.RequestStatusOpen).
		WillReturnResult(sqlmock.NewResult(0, 0))
	applied, err = repo.SetStatusIf(context.Background(), "req-1", models.RequestStatusOpen, models.RequestStatusExpired)
	require.NoError(t, err)
	assert.False(t, applied)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryExpireDue(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE blood_requests SET status = 'EXPIRED'")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "recipient_id"}).
			AddRow("req-1", "user-a").
			AddRow("req-2", "user-b"))

	lapsed, err := repo.ExpireDue(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, lapsed, 2)
	assert.Equal(t, "user-a", lapsed[0].RecipientID)
	require.NoError(t, mock.ExpectationsWereMet())
}
