package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"ai-divination-be/internal/entity"
	"ai-divination-be/internal/repository/specification"
	"ai-divination-be/internal/repository/unitofwork"
	"ai-divination-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Verify Wiring
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(context.Background())

	assert.NotNil(t, uow.UserRepository())
	assert.NotNil(t, uow.ChatSessionRepository())
	assert.NotNil(t, uow.ChatMessageRepository())
	assert.NotNil(t, uow.DivinationRecordRepository())
	assert.NotNil(t, uow.KnowledgeChunkRepository())
}

func TestDivinationRecordLifecycle(t *testing.T) {
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	ctx := context.Background()
	uowFactory := unitofwork.NewRepositoryFactory(gormDB)
	uow := uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	defer uow.Rollback()

	userId := uuid.New()
	user := &entity.User{
		Id:       userId,
		Email:    "integration-" + userId.String()[:8] + "@test.local",
		FullName: "Integration Tester",
		Gender:   entity.UserGenderUnknown,
		Role:     entity.UserRoleUser,
		Status:   entity.UserStatusActive,
	}
	err = uow.UserRepository().Create(ctx, user)
	assert.NoError(t, err)

	session := &entity.ChatSession{
		Id:     uuid.New(),
		UserId: userId,
		Title:  "事业占卜",
	}
	err = uow.ChatSessionRepository().Create(ctx, session)
	assert.NoError(t, err)

	record := &entity.DivinationRecord{
		Id:           uuid.New(),
		SessionId:    session.Id,
		UserId:       userId,
		Question:     "今年能升职吗",
		QuestionType: "career",
		AlgorithmId:  "xlr-liuren",
		Slots:        map[string]any{"num1": 3, "num2": 5},
		Result:       map[string]any{"palace": "大安"},
		Answer:       "事业稳中有升。",
		Confidence:   0.9,
	}
	err = uow.DivinationRecordRepository().Create(ctx, record)
	assert.NoError(t, err)

	found, err := uow.DivinationRecordRepository().FindOne(ctx, specification.ByID{ID: record.Id})
	assert.NoError(t, err)
	assert.NotNil(t, found)
	assert.Equal(t, "career", found.QuestionType)

	err = uow.DivinationRecordRepository().UpdateFeedback(ctx, record.Id, "helpful")
	assert.NoError(t, err)

	counts, err := uow.DivinationRecordRepository().CountByQuestionType(ctx, userId)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), counts["career"])
}
