// Package service holds the business rules behind the HTTP handlers. Services
// return *models.AppError values that handlers map to status codes.
package service

import (
	"context"
	"log/slog"

	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/observability"
	"murmur/internal/repository"
)

// Notifier delivers real-time events. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, recipient uint, ev notifications.Event)
}

// notify sends ev from actorID to recipient, loading the actor summary.
func notify(ctx context.Context, n Notifier, users repository.UserRepository, recipient, actorID uint, ev notifications.Event) {
	if n == nil || recipient == actorID {
		return
	}
	ev.Actor = models.UserSummary{ID: actorID}
	if actor, err := users.GetByID(ctx, actorID); err == nil {
		ev.Actor = models.NewUserSummary(actor)
	} else {
		middleware.Logger.WarnContext(ctx, "load notification actor", slog.Uint64("actor_id", uint64(actorID)), slog.String("error", err.Error()))
	}
	n.Notify(ctx, recipient, ev)
}

func countInteraction(kind, action string) {
	observability.Interactions.WithLabelValues(kind, action).Inc()
}
