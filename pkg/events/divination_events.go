package events

import "time"

const (
	EventDivinationCompleted = "DIVINATION_COMPLETED"
	EventFeedbackReceived    = "FEEDBACK_RECEIVED"
	EventUserRegistered      = "USER_REGISTERED"
)

func NewDivinationCompletedEvent(userID, sessionID, algorithmID, questionType string, fallbackUsed bool) Event {
	return BaseEvent{
		Type: EventDivinationCompleted,
		Data: map[string]interface{}{
			"user_id":       userID,
			"session_id":    sessionID,
			"algorithm_id":  algorithmID,
			"question_type": questionType,
			"fallback_used": fallbackUsed,
		},
		OccurredAt: time.Now(),
	}
}

func NewFeedbackReceivedEvent(userID, recordID, feedback string) Event {
	return BaseEvent{
		Type: EventFeedbackReceived,
		Data: map[string]interface{}{
			"user_id":   userID,
			"record_id": recordID,
			"feedback":  feedback,
		},
		OccurredAt: time.Now(),
	}
}

func NewUserRegisteredEvent(userID, email string) Event {
	return BaseEvent{
		Type: EventUserRegistered,
		Data: map[string]interface{}{
			"user_id": userID,
			"email":   email,
		},
		OccurredAt: time.Now(),
	}
}
