package service

import (
	"context"

	"github.com/Offical-Dhiraj/bloodchain/internal/models"
)

type donorProfileStore interface {
	GetByID(ctx context.Context, id string) (*models.DonorProfile, error)
	GetByUserID(ctx context.Context, userID string) (*models.DonorProfile, error)
}

// DonorService resolves donor profiles for the HTTP layer. Tokens carry user
// ids; matches and reputation key on donor profile ids.
type DonorService struct {
	donors donorProfileStore
}

func NewDonorService(donors donorProfileStore) *DonorService {
	return &DonorService{donors: donors}
}

func (s *DonorService) Get(ctx context.Context, id string) (*models.DonorProfile, error) {
	return s.donors.GetByID(ctx, id)
}

func (s *DonorService) GetByUser(ctx context.Context, userID string) (*models.DonorProfile, error) {
	return s.donors.GetByUserID(ctx, userID)
}
