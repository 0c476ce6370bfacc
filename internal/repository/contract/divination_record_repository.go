package contract

import (
	"context"

	"ai-divination-be/internal/entity"
	"ai-divination-be/internal/repository/specification"

	"github.com/google/uuid"
)

type DivinationRecordRepository interface {
	Create(ctx context.Context, record *entity.DivinationRecord) error
	Update(ctx context.Context, record *entity.DivinationRecord) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DivinationRecord, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DivinationRecord, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	UpdateFeedback(ctx context.Context, id uuid.UUID, feedback string) error

	// CountByQuestionType aggregates a user's readings per question
	// type, used to build the profile summary for explanations.
	CountByQuestionType(ctx context.Context, userId uuid.UUID) (map[string]int64, error)
}
