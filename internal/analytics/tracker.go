// Package analytics records storefront interactions.
//
// Tracking is fire-and-forget: failures are logged and never reach the caller.
package analytics

import (
	"context"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// Tracker receives named storefront events
type Tracker interface {
	Track(ctx context.Context, eventType string, payload map[string]interface{})
}

// Publisher forwards events to an external sink
type Publisher interface {
	PublishAnalytics(ctx context.Context, clientID string, event models.AnalyticsEvent) error
}

// Nop discards every event
type Nop struct{}

// Track does nothing
func (Nop) Track(context.Context, string, map[string]interface{}) {}

// EventLog appends events to the client's stored event log and optionally
// forwards them to a publisher
type EventLog struct {
	repo      *store.Repository
	clientID  string
	publisher Publisher
	now       func() time.Time
	logger    *zap.Logger
}

// NewEventLog creates a tracker for one client. publisher may be nil.
func NewEventLog(repo *store.Repository, clientID string, publisher Publisher) *EventLog {
	return &EventLog{
		repo:      repo,
		clientID:  clientID,
		publisher: publisher,
		now:       time.Now,
		logger:    util.GetLogger(),
	}
}

// Track records the event
func (l *EventLog) Track(ctx context.Context, eventType string, payload map[string]interface{}) {
	event := models.AnalyticsEvent{
		Type:      eventType,
		Payload:   payload,
		Timestamp: l.now().UTC(),
	}

	events, err := store.Load(ctx, l.repo, store.KeyEvents, []models.AnalyticsEvent{})
	if err != nil {
		l.logger.Warn("Failed to read event log", zap.Error(err))
	} else if err := l.repo.Save(ctx, store.KeyEvents, append(events, event)); err != nil {
		l.logger.Warn("Failed to append event log", zap.Error(err))
	}

	if l.publisher == nil {
		return
	}
	if err := l.publisher.PublishAnalytics(ctx, l.clientID, event); err != nil {
		util.AnalyticsPublishFailed.Inc()
		l.logger.Warn("Failed to publish analytics event",
			zap.String("type", eventType),
			zap.String("client_id", l.clientID),
			zap.Error(err))
	}
}

// Events returns the stored event log
func (l *EventLog) Events(ctx context.Context) ([]models.AnalyticsEvent, error) {
	return store.Load(ctx, l.repo, store.KeyEvents, []models.AnalyticsEvent{})
}
