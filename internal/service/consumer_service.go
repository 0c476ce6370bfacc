package service

import (
	"context"
	"encoding/json"
	"log"

	"ai-divination-be/internal/dto"
	"ai-divination-be/internal/entity"
	"ai-divination-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ArchiveReadingMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal archive message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Archiving reading for session %s", payload.SessionId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	record := &entity.DivinationRecord{
		Id:           uuid.New(),
		SessionId:    payload.SessionId,
		UserId:       payload.UserId,
		Question:     payload.Question,
		QuestionType: payload.QuestionType,
		AlgorithmId:  payload.AlgorithmId,
		Slots:        payload.Slots,
		Result:       payload.Result,
		RagContext:   payload.RagContext,
		Answer:       payload.Answer,
		Confidence:   payload.Confidence,
		FallbackUsed: payload.FallbackUsed,
		CreatedAt:    payload.CreatedAt,
	}

	if err := uow.DivinationRecordRepository().Create(ctx, record); err != nil {
		log.Printf("[ERROR] Failed to archive reading for session %s: %v", payload.SessionId, err)
		msg.Nack()
		return
	}

	log.Printf("[INFO] Reading archived as record %s", record.Id)
	msg.Ack()
}
