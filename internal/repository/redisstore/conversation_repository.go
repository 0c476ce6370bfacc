package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-divination-be/internal/repository/contract"
	"ai-divination-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const conversationTTL = 1 * time.Hour

type ConversationRepository struct {
	client *redis.Client
}

// Ensure ConversationRepository implements ConversationStore
var _ contract.ConversationStore = &ConversationRepository{}

func NewConversationRepository(client *redis.Client) *ConversationRepository {
	return &ConversationRepository{
		client: client,
	}
}

func conversationKey(sessionID string) string {
	return fmt.Sprintf("divination:conversation:%s", sessionID)
}

func (r *ConversationRepository) Save(ctx context.Context, conv *store.Conversation) error {
	raw, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	return r.client.Set(ctx, conversationKey(conv.SessionID), raw, conversationTTL).Err()
}

func (r *ConversationRepository) Get(ctx context.Context, sessionID string) (*store.Conversation, bool, error) {
	raw, err := r.client.Get(ctx, conversationKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var conv store.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return nil, false, fmt.Errorf("decode conversation: %w", err)
	}
	return &conv, true, nil
}

func (r *ConversationRepository) Delete(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, conversationKey(sessionID)).Err()
}
