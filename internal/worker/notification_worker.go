package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to ticket events.
// A nil service leaves the dispatcher without subscribers.
func StartNotificationWorker(notifications *service.NotificationService, logger *zap.Logger) {
	if notifications == nil {
		logger.Info("ticket notifications disabled")
		return
	}
	notifications.RegisterHandlers()
	logger.Info("ticket notification handlers registered")
}
