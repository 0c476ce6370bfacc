package contract

import (
	"context"

	"ai-divination-be/pkg/store"
)

// ConversationStore holds in-flight conversation state between turns.
// Backends are expected to expire idle conversations on their own.
type ConversationStore interface {
	Save(ctx context.Context, conv *store.Conversation) error
	Get(ctx context.Context, sessionID string) (*store.Conversation, bool, error)
	Delete(ctx context.Context, sessionID string) error
}
