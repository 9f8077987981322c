package service

import (
	"context"
	"encoding/json"

	"botdeck/backend/internal/model"
	"botdeck/backend/pkg/logger"
	"botdeck/backend/pkg/redis"
)

// NotificationService publishes events to Redis for WebSocket fan-out
type NotificationService struct {
	redis *redis.Client
	log   *logger.Logger
}

func NewNotificationService(redis *redis.Client) *NotificationService {
	return &NotificationService{
		redis: redis,
		log:   logger.GetLogger(),
	}
}

// NotifyUser sends an event to a specific user via WebSocket
func (s *NotificationService) NotifyUser(ctx context.Context, userID string, eventType model.EventType, payload interface{}) {
	event := model.Event{
		Type:    eventType,
		Payload: payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.log.Errorf("Failed to marshal notification: %v", err)
		return
	}

	channel := redis.UserChannel(userID)
	if err := s.redis.Publish(ctx, channel, data); err != nil {
		s.log.Errorf("Failed to publish notification to channel %s: %v", channel, err)
	}
}

// Broadcast sends an event to all connected users
func (s *NotificationService) Broadcast(ctx context.Context, eventType model.EventType, payload interface{}) {
	event := model.Event{
		Type:    eventType,
		Payload: payload,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.log.Errorf("Failed to marshal broadcast notification: %v", err)
		return
	}

	if err := s.redis.Publish(ctx, redis.ChannelBroadcast, data); err != nil {
		s.log.Errorf("Failed to publish broadcast notification: %v", err)
	}
}

// NotifyBotUpdate announces a bot lifecycle transition to its owner
func (s *NotificationService) NotifyBotUpdate(ctx context.Context, userID string, bot *model.Bot) {
	s.NotifyUser(ctx, userID, model.EventBotUpdate, model.BotEventPayload{
		BotID:    bot.ID,
		RemoteID: bot.RemoteID,
		Name:     bot.Name,
		Status:   bot.Status,
	})
}

// NotifyCredentialUpdate announces a credential connect/disconnect to the user
func (s *NotificationService) NotifyCredentialUpdate(ctx context.Context, userID string, resp *model.CredentialResponse) {
	s.NotifyUser(ctx, userID, model.EventCredentialUpdate, resp)
}
