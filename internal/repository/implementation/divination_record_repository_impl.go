package implementation

import (
	"context"
	"errors"

	"ai-divination-be/internal/entity"
	"ai-divination-be/internal/mapper"
	"ai-divination-be/internal/model"
	"ai-divination-be/internal/repository/contract"
	"ai-divination-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DivinationRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DivinationMapper
}

func NewDivinationRecordRepository(db *gorm.DB) contract.DivinationRecordRepository {
	return &DivinationRecordRepositoryImpl{
		db:     db,
		mapper: mapper.NewDivinationMapper(),
	}
}

func (r *DivinationRecordRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *DivinationRecordRepositoryImpl) Create(ctx context.Context, record *entity.DivinationRecord) error {
	m := r.mapper.RecordToModel(record)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.RecordToEntity(m)
	return nil
}

func (r *DivinationRecordRepositoryImpl) Update(ctx context.Context, record *entity.DivinationRecord) error {
	m := r.mapper.RecordToModel(record)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*record = *r.mapper.RecordToEntity(m)
	return nil
}

func (r *DivinationRecordRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.DivinationRecord, error) {
	var m model.DivinationRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.RecordToEntity(&m), nil
}

func (r *DivinationRecordRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DivinationRecord, error) {
	var models []*model.DivinationRecord
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.RecordsToEntities(models), nil
}

func (r *DivinationRecordRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.DivinationRecord{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *DivinationRecordRepositoryImpl) UpdateFeedback(ctx context.Context, id uuid.UUID, feedback string) error {
	return r.db.WithContext(ctx).
		Model(&model.DivinationRecord{}).
		Where("id = ?", id).
		Update("feedback", feedback).Error
}

func (r *DivinationRecordRepositoryImpl) CountByQuestionType(ctx context.Context, userId uuid.UUID) (map[string]int64, error) {
	type row struct {
		QuestionType string
		Total        int64
	}
	var rows []row

	err := r.db.WithContext(ctx).
		Model(&model.DivinationRecord{}).
		Select("question_type, count(*) as total").
		Where("user_id = ?", userId).
		Group("question_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.QuestionType] = r.Total
	}
	return counts, nil
}
