package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/inventory-service/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to account events.
func StartNotificationWorker(notificationService *service.NotificationService, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	logger.Info("notification handlers registered")
}
