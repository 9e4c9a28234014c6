package worker

import (
	"github.com/spec-kit/gym-targets/internal/events"
	"github.com/spec-kit/gym-targets/internal/service"
)

// StartEventWorkers subscribes the event consumers: mail notifications and,
// when configured, the Redis publisher feeding the external mail service.
func StartEventWorkers(dispatcher events.Dispatcher, notificationService *service.NotificationService, publisher *events.RedisPublisher) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if publisher != nil && dispatcher != nil {
		publisher.Attach(dispatcher)
	}
}
