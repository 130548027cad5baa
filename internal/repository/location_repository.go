package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/Offical-Dhiraj/bloodchain/pkg/errors"
	"github.com/Offical-Dhiraj/bloodchain/pkg/geo"
)

// locationEntry is the wire shape of a cached donor position.
type locationEntry struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	ReportedAt time.Time `json:"reported_at"`
}

// LocationRepository is the Redis-backed location cache. Positions are
// last-write-wins per donor and expire after the configured TTL, so a donor
// who stops reporting simply drops out of ranking.
type LocationRepository struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewLocationRepository constructs the repository.
func NewLocationRepository(client *redis.Client, ttl time.Duration, logger *zap.Logger) *LocationRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &LocationRepository{client: client, ttl: ttl, logger: logger}
}

func locationKey(donorID string) string {
	return "location:" + donorID
}

// Set stores the donor's latest position, refreshing the TTL.
func (r *LocationRepository) Set(ctx context.Context, donorID string, point geo.Point) error {
	entry := locationEntry{
		Latitude:   point.Latitude,
		Longitude:  point.Longitude,
		ReportedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal location for %s: %w", donorID, err)
	}

	if err := r.client.Set(ctx, locationKey(donorID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set location %s: %w", donorID, err)
	}
	return nil
}

// LastKnown returns the donor's cached position. A donor with no fresh entry
// yields ErrCacheMiss; a corrupt entry is treated as absent and logged, never
// surfaced as an error.
func (r *LocationRepository) LastKnown(ctx context.Context, donorID string) (*geo.Point, error) {
	raw, err := r.client.Get(ctx, locationKey(donorID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.Clone(appErrors.ErrCacheMiss, "no recent location for donor")
		}
		return nil, fmt.Errorf("redis get location %s: %w", donorID, err)
	}

	var entry locationEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		r.logger.Warn("dropping corrupt location entry",
			zap.String("donor_id", donorID), zap.Error(err))
		return nil, nil
	}

	return &geo.Point{Latitude: entry.Latitude, Longitude: entry.Longitude}, nil
}
