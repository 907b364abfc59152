package redisclient

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// HitCounter tracks unique views per listing. Each viewer key is added to a
// set per listing id; the hit count is the set cardinality, so repeat views
// from the same viewer don't inflate the number.
type HitCounter struct {
	client *redis.Client
}

func NewHitCounter(client *redis.Client) *HitCounter {
	return &HitCounter{client: client}
}

func (h *HitCounter) Record(ctx context.Context, listingID, viewerKey string) error {
	if err := h.client.SAdd(ctx, hitsKey(listingID), viewerKey).Err(); err != nil {
		return fmt.Errorf("record hit for %s: %w", listingID, err)
	}
	return nil
}

func (h *HitCounter) Count(ctx context.Context, listingID string) (int64, error) {
	n, err := h.client.SCard(ctx, hitsKey(listingID)).Result()
	if err != nil {
		return 0, fmt.Errorf("count hits for %s: %w", listingID, err)
	}
	return n, nil
}

func hitsKey(listingID string) string {
	return listingID + "_hits"
}
