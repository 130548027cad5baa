package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Offical-Dhiraj/bloodchain/internal/dto"
	"github.com/Offical-Dhiraj/bloodchain/internal/models"
	"github.com/Offical-Dhiraj/bloodchain/pkg/errors"
	"github.com/Offical-Dhiraj/bloodchain/pkg/geo"
)

type locationStore interface {
	Set(ctx context.Context, donorID string, point geo.Point) error
	LastKnown(ctx context.Context, donorID string) (*geo.Point, error)
}

type locationDonorStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.DonorProfile, error)
}

// LocationService is the high-frequency side channel for live donor
// positions. Last write wins per donor; entries age out of the cache so a
// silent donor drops out of matching rather than being ranked on stale data.
type LocationService struct {
	locations locationStore
	donors    locationDonorStore
	logger    *zap.Logger
}

func NewLocationService(locations locationStore, donors locationDonorStore, logger *zap.Logger) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{locations: locations, donors: donors, logger: logger}
}

// Report stores the calling donor's current position.
func (s *LocationService) Report(ctx context.Context, userID string, in dto.UpdateLocationRequest) error {
	if in.Latitude == nil || in.Longitude == nil {
		return errors.Clone(errors.ErrValidation, "latitude and longitude are required")
	}
	if *in.Latitude < -90 || *in.Latitude > 90 || *in.Longitude < -180 || *in.Longitude > 180 {
		return errors.Clone(errors.ErrValidation, "coordinates out of range")
	}

	donor, err := s.donors.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return s.locations.Set(ctx, donor.ID, geo.Point{Latitude: *in.Latitude, Longitude: *in.Longitude})
}

// LastKnown returns a donor's most recent position, nil when the cache has
// none.
func (s *LocationService) LastKnown(ctx context.Context, donorID string) (*geo.Point, error) {
	return s.locations.LastKnown(ctx, donorID)
}
