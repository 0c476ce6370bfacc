package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type DivinationRecord struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	UserId       uuid.UUID      `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Question     string         `gorm:"type:text;not null"`
	QuestionType string         `gorm:"type:varchar(50);not null;default:'general'"`
	AlgorithmId  string         `gorm:"type:varchar(100);not null;index"`
	Slots        datatypes.JSON `gorm:"type:jsonb"`
	Result       datatypes.JSON `gorm:"type:jsonb"`
	RagContext   datatypes.JSON `gorm:"type:jsonb"`
	Answer       string         `gorm:"type:text"`
	Confidence   float64        `gorm:"default:0"`
	FallbackUsed bool           `gorm:"default:false"`
	Feedback     *string        `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (DivinationRecord) TableName() string {
	return "divination_records"
}
