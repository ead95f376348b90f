package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"eternal/internal/model"
)

// ReportCache keeps recently read reports in front of the report store
type ReportCache interface {
	Set(ctx context.Context, report *model.Report) error
	Get(ctx context.Context, ownerID string) (*model.Report, error)
	Delete(ctx context.Context, ownerID string) error
}

type reportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewReportCache creates a Redis-backed report cache
func NewReportCache(client *redis.Client, ttl time.Duration) ReportCache {
	return &reportCache{
		client: client,
		ttl:    ttl,
	}
}

func reportKey(ownerID string) string {
	return "report:" + ownerID
}

func (c *reportCache) Set(ctx context.Context, report *model.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, reportKey(report.OwnerID), data, c.ttl).Err()
}

func (c *reportCache) Get(ctx context.Context, ownerID string) (*model.Report, error) {
	data, err := c.client.Get(ctx, reportKey(ownerID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var report model.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *reportCache) Delete(ctx context.Context, ownerID string) error {
	return c.client.Del(ctx, reportKey(ownerID)).Err()
}
