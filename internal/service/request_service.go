package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Offical-Dhiraj/bloodchain/internal/dto"
	"github.com/Offical-Dhiraj/bloodchain/internal/models"
	"github.com/Offical-Dhiraj/bloodchain/pkg/config"
	"github.com/Offical-Dhiraj/bloodchain/pkg/errors"
)

type requestStore interface {
	Create(ctx context.Context, req *models.BloodRequest) error
	GetByID(ctx context.Context, id string) (*models.BloodRequest, error)
	ListActive(ctx context.Context, limit int) ([]models.BloodRequest, error)
}

type requestMatchLister interface {
	ListByRequest(ctx context.Context, requestID string) ([]models.MatchRecord, error)
}

// RequestService owns the creation flow for blood requests. Status mutations
// past OPEN belong to the lifecycle and donation services.
type RequestService struct {
	requests requestStore
	matches  requestMatchLister
	validate *validator.Validate
	cfg      config.RequestConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewRequestService(requests requestStore, matches requestMatchLister, cfg config.RequestConfig, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		requests: requests,
		matches:  matches,
		validate: validator.New(),
		cfg:      cfg,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create opens a new blood request for a recipient. Radius and expiry fall
// back to configured defaults when the payload omits them.
func (s *RequestService) Create(ctx context.Context, recipientID string, in dto.CreateBloodRequest) (*models.BloodRequest, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, errors.Clone(errors.ErrValidation, err.Error())
	}

	radius := in.RadiusKm
	if radius <= 0 {
		radius = s.cfg.DefaultRadiusKm
	}

	now := s.now()
	req := &models.BloodRequest{
		RecipientID: recipientID,
		BloodType:   models.BloodType(in.BloodType),
		RhFactor:    models.RhFactor(in.RhFactor),
		UnitsNeeded: in.Units,
		Urgency:     models.UrgencyLevel(in.Urgency),
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		RadiusKm:    radius,
		Status:      models.RequestStatusOpen,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.TTL),
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	s.logger.Sugar().Infow("blood request created",
		"request_id", req.ID, "blood_type", req.BloodType, "urgency", req.Urgency)
	return req, nil
}

// Get returns a request with every offer ever made for it.
func (s *RequestService) Get(ctx context.Context, id string) (*dto.RequestDetail, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	matches, err := s.matches.ListByRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	open := 0
	for i := range matches {
		if !matches[i].Status.Terminal() {
			open++
		}
	}
	return &dto.RequestDetail{Request: *req, Matches: matches, OpenOffers: open}, nil
}

// ListActive returns open and matched requests ordered by urgency.
func (s *RequestService) ListActive(ctx context.Context, limit int) ([]models.BloodRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.requests.ListActive(ctx, limit)
}
