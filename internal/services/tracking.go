package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ParticipantStatusKey builds the tracking-record key for one participant's
// delivery on one day. The format is shared with the consumer side and must
// not change.
func ParticipantStatusKey(participantID, planID string, dayStartMillis int64) string {
	return fmt.Sprintf("%s - %s - %d", participantID, planID, dayStartMillis)
}

// trackingTTL keeps stale tracking records from accumulating; a delivery
// status is only interesting for a few days around the delivery date.
const trackingTTL = 7 * 24 * time.Hour

// TrackingService writes participant-facing delivery statuses to Redis,
// keyed per (participant, plan, day). Writes are independent: a failed key
// is retryable without touching its siblings. Implements TrackingSink.
type TrackingService struct {
	rdb *redis.Client
}

// NewTrackingService constructs TrackingService.
func NewTrackingService(rdb *redis.Client) *TrackingService {
	return &TrackingService{rdb: rdb}
}

// SetParticipantStatus upserts one tracking record.
func (s *TrackingService) SetParticipantStatus(ctx context.Context, key, status string) error {
	return s.rdb.Set(ctx, "tracking:"+key, status, trackingTTL).Err()
}

// GetParticipantStatus reads one tracking record; empty string when none.
func (s *TrackingService) GetParticipantStatus(ctx context.Context, key string) (string, error) {
	val, err := s.rdb.Get(ctx, "tracking:"+key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}
