package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/inventory-service/internal/events"
)

// WelcomeMailer sends the post-verification greeting.
type WelcomeMailer interface {
	SendWelcome(ctx context.Context, to, name string) error
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	mailer     WelcomeMailer
	logger     *zap.Logger
	timeout    time.Duration
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, mailer WelcomeMailer, logger *zap.Logger, timeout time.Duration) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		mailer:     mailer,
		logger:     logger,
		timeout:    timeout,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserRegistered, n.handleUserRegistered)
	n.dispatcher.Subscribe(events.EventUserVerified, n.handleUserVerified)
}

func (n *NotificationService) handleUserRegistered(_ context.Context, event events.Event) error {
	n.logger.Info("UserRegistered", zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleUserVerified(ctx context.Context, event events.Event) error {
	n.logger.Info("UserVerified", zap.String("user_id", event.UserID))
	if n.mailer == nil {
		return nil
	}
	payload, ok := event.Payload.(events.UserVerifiedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}

	mailCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	if err := n.mailer.SendWelcome(mailCtx, payload.Email, payload.Name); err != nil {
		return fmt.Errorf("send welcome email: %w", err)
	}
	return nil
}
