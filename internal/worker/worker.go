package worker

import (
	"context"
	"errors"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// Opener opens the storefront of one client
type Opener interface {
	Open(ctx context.Context, clientID string) (*service.Storefront, error)
}

// Source delivers messages to a handler until ctx is cancelled
type Source interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// ModerationWorker applies review approvals published by the moderation backend
type ModerationWorker struct {
	consumer     Source
	eventHandler *broker.EventHandler
	storefronts  Opener
	logger       *zap.Logger
}

// NewModerationWorker creates a worker consuming from consumer
func NewModerationWorker(consumer Source, storefronts Opener) *ModerationWorker {
	w := &ModerationWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		storefronts:  storefronts,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnReviewApproved(w.handleReviewApproved)
	return w
}

func (w *ModerationWorker) handleReviewApproved(ctx context.Context, event *models.ReviewApprovedEvent) error {
	ctx, span := util.StartSpan(ctx, "ModerationWorker.ReviewApproved")
	defer span.End()

	if !service.ValidClientID(event.ClientID) {
		w.logger.Warn("Approval with invalid client id",
			zap.String("client_id", event.ClientID),
			zap.String("review_id", event.ReviewID))
		return nil
	}

	sf, err := w.storefronts.Open(ctx, event.ClientID)
	if err != nil {
		return err
	}

	err = sf.Reviews.Approve(ctx, event.ProductID, event.ReviewID)
	if errors.Is(err, service.ErrNotFound) {
		// nothing to retry, commit the message
		w.logger.Warn("Approval for unknown review",
			zap.String("client_id", event.ClientID),
			zap.String("product_id", event.ProductID),
			zap.String("review_id", event.ReviewID))
		return nil
	}
	return err
}

// Start blocks consuming moderation events
func (w *ModerationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting moderation worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop closes the consumer
func (w *ModerationWorker) Stop() error {
	w.logger.Info("Stopping moderation worker")
	return w.consumer.Close()
}
