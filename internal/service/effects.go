package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"dealership/internal/cache"
	"dealership/internal/metrics"
	"dealership/internal/middleware"
	"dealership/internal/model"
	"dealership/internal/notify"
	"dealership/internal/repository"
	"dealership/internal/websocket"
	"dealership/internal/workflow"
	"dealership/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher pushes live events to the back office.
type Publisher interface {
	Publish(eventType string, data interface{})
}

// Effects bundles the post-commit side effects shared by the services.
// Failures here are logged and never fail the request.
type Effects struct {
	Cache     cache.TrackingCache
	Notifier  notify.Notifier
	Publisher Publisher
	Log       *zap.Logger
}

func (fx Effects) withDefaults() Effects {
	if fx.Log == nil {
		fx.Log = zap.NewNop()
	}
	if fx.Cache == nil {
		fx.Cache = cache.Noop()
	}
	if fx.Notifier == nil {
		fx.Notifier = notify.NewLog(fx.Log)
	}
	if fx.Publisher == nil {
		fx.Publisher = nopPublisher{}
	}
	return fx
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

// statusChanger applies workflow transitions and persists them. It is shared
// by the application and payment services so both write history the same way.
type statusChanger struct {
	apps repository.ApplicationRepository
	fx   Effects
	now  func() time.Time
}

// apply runs trigger against app and stores the result. It must be called
// inside a transaction that holds the application row lock.
func (sc *statusChanger) apply(ctx context.Context, app *model.Application, trigger workflow.Trigger, p workflow.Payload) (model.Application, model.StatusHistory, error) {
	next, err := workflow.Transition(*app, trigger, p, sc.now())
	if err != nil {
		return *app, model.StatusHistory{}, err
	}
	entry := next.History[len(next.History)-1]

	if err := sc.apps.Update(ctx, &next); err != nil {
		return *app, model.StatusHistory{}, fmt.Errorf("failed to update application: %w", err)
	}
	if err := sc.apps.AppendHistory(ctx, &entry); err != nil {
		return *app, model.StatusHistory{}, fmt.Errorf("failed to append status history: %w", err)
	}
	next.History[len(next.History)-1] = entry
	return next, entry, nil
}

// announce runs the side effects of a committed transition.
func (sc *statusChanger) announce(ctx context.Context, app model.Application, entry model.StatusHistory) {
	log := sc.fx.Log.With(zap.String("tracking_id", app.TrackingID))

	if err := sc.fx.Cache.Invalidate(ctx, app.TrackingID); err != nil {
		log.Warn("tracking cache invalidation failed", zap.Error(err))
	}
	metrics.ApplicationTransitions.WithLabelValues(string(entry.FromStatus), string(entry.Status)).Inc()

	log.Info("application status changed",
		zap.String("from", string(entry.FromStatus)),
		zap.String("to", string(entry.Status)),
		zap.String("trigger", entry.Trigger))

	if entry.FromStatus != entry.Status {
		if err := sc.fx.Notifier.StatusChanged(ctx, app, entry); err != nil {
			log.Warn("status notification failed", zap.Error(err))
		}
	}
	sc.fx.Publisher.Publish(websocket.EventApplicationStatusChanged, map[string]interface{}{
		"applicationId": app.ID,
		"trackingId":    app.TrackingID,
		"from":          entry.FromStatus,
		"to":            entry.Status,
		"trigger":       entry.Trigger,
	})
}

// actorFrom returns the back-office user of ctx, or nil for public calls.
func actorFrom(ctx context.Context) *uuid.UUID {
	if s, ok := middleware.SessionFrom(ctx); ok {
		id := s.UserID
		return &id
	}
	return nil
}

func writeAudit(ctx context.Context, repo repository.AuditRepository, action, entityID, entityName string, details interface{}) error {
	raw, _ := json.Marshal(details)
	entry := &model.AuditLog{
		UserID:     actorFrom(ctx),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(raw),
	}
	if err := repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func parseID(id, resource string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperror.NotFound(resource)
	}
	return parsed, nil
}
