package worker

import (
	"context"

	"github.com/comexdesk/broker-portal/internal/events"
	"github.com/comexdesk/broker-portal/internal/service"
	"github.com/comexdesk/broker-portal/internal/session"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// WireForcedSignOut connects soft-delete events to the session
// resolver's compensating sign-out step.
func WireForcedSignOut(dispatcher events.Dispatcher, resolver *session.Resolver) {
	if dispatcher == nil || resolver == nil {
		return
	}
	dispatcher.Subscribe(events.EventAccountDeleted, func(ctx context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.AccountDeletedPayload)
		if !ok {
			return nil
		}
		resolver.OnProfileDeleted(ctx, payload.PrincipalID)
		return nil
	})
}
