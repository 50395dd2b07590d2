package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"dhaba-pos/internal/util"

	"go.uber.org/zap"
)

// LocalSink delivers events to event handlers in-process. It stands in for
// Kafka when no brokers are configured, so kitchen displays and stock alerts
// keep working on a single node. Events go through the same JSON encoding as
// the Kafka path.
type LocalSink struct {
	handlers []*EventHandler
	logger   *zap.Logger
}

// NewLocalSink creates a sink that dispatches straight to handlers
func NewLocalSink(handlers ...*EventHandler) *LocalSink {
	return &LocalSink{handlers: handlers, logger: util.Named("local-events")}
}

// PublishEvent encodes event and dispatches it synchronously to every handler
func (s *LocalSink) PublishEvent(ctx context.Context, key string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var errs []error
	for _, h := range s.handlers {
		if err := h.Dispatch(ctx, payload); err != nil {
			s.logger.Error("Local event handler failed", zap.String("key", key), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
