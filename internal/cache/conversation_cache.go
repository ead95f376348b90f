package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"eternal/internal/model"
)

// ConversationCache holds the live interview state per owner
type ConversationCache interface {
	Set(ctx context.Context, state *model.ConversationState) error
	Get(ctx context.Context, ownerID string) (*model.ConversationState, error)
	Delete(ctx context.Context, ownerID string) error
}

type conversationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewConversationCache creates a Redis-backed conversation cache
func NewConversationCache(client *redis.Client, ttl time.Duration) ConversationCache {
	return &conversationCache{
		client: client,
		ttl:    ttl,
	}
}

func conversationKey(ownerID string) string {
	return "conversation:" + ownerID
}

func (c *conversationCache) Set(ctx context.Context, state *model.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, conversationKey(state.OwnerID), data, c.ttl).Err()
}

func (c *conversationCache) Get(ctx context.Context, ownerID string) (*model.ConversationState, error) {
	data, err := c.client.Get(ctx, conversationKey(ownerID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state model.ConversationState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (c *conversationCache) Delete(ctx context.Context, ownerID string) error {
	return c.client.Del(ctx, conversationKey(ownerID)).Err()
}
