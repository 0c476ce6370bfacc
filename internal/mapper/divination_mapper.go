package mapper

import (
	"encoding/json"
	"log"

	"ai-divination-be/internal/entity"
	"ai-divination-be/internal/model"

	"gorm.io/datatypes"
)

type DivinationMapper struct{}

func NewDivinationMapper() *DivinationMapper {
	return &DivinationMapper{}
}

func (m *DivinationMapper) RecordToEntity(r *model.DivinationRecord) *entity.DivinationRecord {
	if r == nil {
		return nil
	}

	var slots map[string]any
	if len(r.Slots) > 0 {
		if err := json.Unmarshal(r.Slots, &slots); err != nil {
			log.Printf("[WARN] DivinationMapper: failed to decode slots for record %s: %v", r.Id, err)
		}
	}

	var result map[string]any
	if len(r.Result) > 0 {
		if err := json.Unmarshal(r.Result, &result); err != nil {
			log.Printf("[WARN] DivinationMapper: failed to decode result for record %s: %v", r.Id, err)
		}
	}

	var ragContext []string
	if len(r.RagContext) > 0 {
		if err := json.Unmarshal(r.RagContext, &ragContext); err != nil {
			log.Printf("[WARN] DivinationMapper: failed to decode rag context for record %s: %v", r.Id, err)
		}
	}

	return &entity.DivinationRecord{
		Id:           r.Id,
		SessionId:    r.SessionId,
		UserId:       r.UserId,
		Question:     r.Question,
		QuestionType: r.QuestionType,
		AlgorithmId:  r.AlgorithmId,
		Slots:        slots,
		Result:       result,
		RagContext:   ragContext,
		Answer:       r.Answer,
		Confidence:   r.Confidence,
		FallbackUsed: r.FallbackUsed,
		Feedback:     r.Feedback,
		CreatedAt:    r.CreatedAt,
	}
}

func (m *DivinationMapper) RecordToModel(r *entity.DivinationRecord) *model.DivinationRecord {
	if r == nil {
		return nil
	}

	return &model.DivinationRecord{
		Id:           r.Id,
		SessionId:    r.SessionId,
		UserId:       r.UserId,
		Question:     r.Question,
		QuestionType: r.QuestionType,
		AlgorithmId:  r.AlgorithmId,
		Slots:        toJSON(r.Slots),
		Result:       toJSON(r.Result),
		RagContext:   toJSON(r.RagContext),
		Answer:       r.Answer,
		Confidence:   r.Confidence,
		FallbackUsed: r.FallbackUsed,
		Feedback:     r.Feedback,
		CreatedAt:    r.CreatedAt,
	}
}

func (m *DivinationMapper) RecordsToEntities(records []*model.DivinationRecord) []*entity.DivinationRecord {
	entities := make([]*entity.DivinationRecord, len(records))
	for i, r := range records {
		entities[i] = m.RecordToEntity(r)
	}
	return entities
}

func toJSON(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("[WARN] DivinationMapper: failed to encode value: %v", err)
		return nil
	}
	return datatypes.JSON(raw)
}
