package contract

import (
	"context"

	"ai-divination-be/internal/entity"
	"ai-divination-be/internal/repository/specification"
)

// ChatSessionRepository persists divination sessions. Sessions are only
// ever created and read; messages and records hang off them.
type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
}
