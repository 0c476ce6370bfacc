package service

import (
	"context"
	"log"

	"ai-divination-be/internal/pkg/logger"
	"ai-divination-be/pkg/events"
	pktNats "ai-divination-be/pkg/nats"
)

type IEventLogService interface {
	Start()
}

// eventLogService records every bus event for auditing. Readings
// themselves are archived by the consumer service; this is the
// lightweight trail across all event types.
type eventLogService struct {
	subscriber *pktNats.Subscriber
	logger     logger.ILogger
}

func NewEventLogService(subscriber *pktNats.Subscriber, sysLogger logger.ILogger) IEventLogService {
	return &eventLogService{
		subscriber: subscriber,
		logger:     sysLogger,
	}
}

func (s *eventLogService) Start() {
	err := s.subscriber.Subscribe("events.>", "event-audit-log", func(ctx context.Context, event events.Event) error {
		s.logger.Info("EventAudit", event.EventType(), event.Payload())
		return nil
	})
	if err != nil {
		log.Printf("[ERROR] Failed to start event audit subscription: %v", err)
	}
}
