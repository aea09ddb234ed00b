package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"multilingual-rag-be/internal/dto"
	"multilingual-rag-be/internal/entity"
	"multilingual-rag-be/internal/pkg/logger"
	"multilingual-rag-be/pkg/events"
	pktNats "multilingual-rag-be/pkg/nats" // Renamed to avoid collision

	"github.com/google/uuid"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification dto.NotificationMessage)
	Broadcast(notification dto.NotificationMessage)
}

// NotificationService turns document lifecycle events from the event bus
// into real-time pushes. Notifications are ephemeral: nothing is persisted,
// a user who is offline simply misses the push and sees the final document
// status on the next list call.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	// Subscribe to all document events with a durable consumer
	err := s.subscriber.Subscribe("events.document.>", "notification-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.document.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	// Strip "events." prefix from type if present (NATS subject includes stream name)
	typeCode := strings.TrimPrefix(event.EventType(), "events.")
	payload := event.Payload()

	s.logger.Info("NotificationService", fmt.Sprintf("Processing event: %s", typeCode), map[string]interface{}{"type": typeCode})

	userIDStr, ok := payload["user_id"].(string)
	if !ok {
		s.logger.Warn("NotificationService", fmt.Sprintf("Event %s carries no user_id, skipping", typeCode), nil)
		return nil
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		s.logger.Warn("NotificationService", "Event user_id is not a UUID", map[string]interface{}{"user_id": userIDStr})
		return nil
	}

	notif, ok := s.buildNotification(typeCode, payload)
	if !ok {
		s.logger.Info("NotificationService", fmt.Sprintf("No notification configured for event type '%s'", typeCode), nil)
		return nil
	}

	if s.delivery != nil {
		s.delivery.Send(userID, notif)
	}
	return nil
}

func (s *NotificationService) buildNotification(typeCode string, payload map[string]interface{}) (dto.NotificationMessage, bool) {
	documentIDStr, _ := payload["document_id"].(string)
	documentID, _ := uuid.Parse(documentIDStr)

	notif := dto.NotificationMessage{
		Event:      typeCode,
		DocumentId: documentID,
		CreatedAt:  time.Now(),
	}

	switch typeCode {
	case events.TypeDocumentUploaded:
		title, _ := payload["title"].(string)
		notif.Title = title
		notif.Status = entity.DocumentStatusPending
		notif.Message = fmt.Sprintf("Document %q is queued for processing", title)
	case events.TypeDocumentProcessed:
		notif.Status = entity.DocumentStatusCompleted
		notif.ChunkCount = intFromPayload(payload["chunk_count"])
		notif.Message = fmt.Sprintf("Document processing finished (%d chunks)", notif.ChunkCount)
	case events.TypeDocumentFailed:
		reason, _ := payload["reason"].(string)
		notif.Status = entity.DocumentStatusFailed
		notif.Message = fmt.Sprintf("Document processing failed: %s", reason)
	default:
		return dto.NotificationMessage{}, false
	}
	return notif, true
}

// intFromPayload recovers an integer that made a JSON roundtrip through the
// event bus, where numbers arrive as float64.
func intFromPayload(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}
