package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/catalog-hub/catalog-service/internal/events"
)

// ActivityService writes authentication events to the structured log.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.handle)
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handle)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
	a.dispatcher.Subscribe(events.EventLoggedOut, a.handle)
}

func (a *ActivityService) handle(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("user_id", event.UserID),
		zap.Any("payload", event.Payload))
	return nil
}

func (a *ActivityService) handleLoginFailed(_ context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("event_id", event.ID)}
	if payload, ok := event.Payload.(events.LoginFailedPayload); ok {
		fields = append(fields, zap.String("email", payload.Email), zap.String("code", payload.Code))
	}
	a.logger.Warn(string(event.Type), fields...)
	return nil
}
