package service

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-divination-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPublisherService interface {
	PublishArchiveReading(ctx context.Context, msg *dto.ArchiveReadingMessage) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (s *publisherService) PublishArchiveReading(ctx context.Context, payload *dto.ArchiveReadingMessage) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal archive payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), raw)
	msg.SetContext(ctx)

	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", s.topicName, err)
	}
	return nil
}
