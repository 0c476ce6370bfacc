package memory

import (
	"context"
	"time"

	"ai-divination-be/internal/repository/contract"
	"ai-divination-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type ConversationRepository struct {
	cache *cache.Cache
}

// Ensure ConversationRepository implements ConversationStore
var _ contract.ConversationStore = &ConversationRepository{}

func NewConversationRepository() *ConversationRepository {
	// Create a cache with a default expiration time of 1 hour, and which
	// purges expired items every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &ConversationRepository{
		cache: c,
	}
}

func (r *ConversationRepository) Save(ctx context.Context, conv *store.Conversation) error {
	r.cache.Set(conv.SessionID, conv, cache.DefaultExpiration)
	return nil
}

func (r *ConversationRepository) Get(ctx context.Context, sessionID string) (*store.Conversation, bool, error) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Conversation), true, nil
	}
	return nil, false, nil
}

func (r *ConversationRepository) Delete(ctx context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}
