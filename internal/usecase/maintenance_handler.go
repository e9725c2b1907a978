package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pkgkafka "FolioPull/pkg/kafka"
	applogger "FolioPull/pkg/logger"
)

const (
	ActionRefresh = "refresh"
	ActionPrune   = "prune"
)

// MaintenanceHandler runs refresh or prune requests arriving on a Kafka
// topic, so other services can trigger them without the HTTP API.
type MaintenanceHandler struct {
	topic       string
	entryID     string
	coordinator *Coordinator
	logger      *applogger.Logger
}

func NewMaintenanceHandler(topic, entryID string, coordinator *Coordinator, l *applogger.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{topic: topic, entryID: entryID, coordinator: coordinator, logger: l}
}

func (h *MaintenanceHandler) Topic() string { return h.topic }

// incoming message schema: {action, entry_id}
func (h *MaintenanceHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Action  string `json:"action"`
		EntryID string `json:"entry_id"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.logger.Warn("malformed maintenance command", applogger.Error(err))
		return nil
	}
	if m.EntryID != "" && m.EntryID != h.entryID {
		return nil
	}

	ctx = context.WithoutCancel(ctx)
	switch m.Action {
	case ActionRefresh:
		_, err := h.coordinator.Refresh(ctx)
		if errors.Is(err, ErrRefreshInProgress) {
			return nil
		}
		return err
	case ActionPrune:
		res, err := h.coordinator.Prune(ctx)
		if err != nil {
			return fmt.Errorf("prune: %w", err)
		}
		h.logger.Info("prune via kafka", applogger.Int("pruned", res.Pruned), applogger.Bool("skipped", res.Skipped))
		return nil
	default:
		h.logger.Warn("unknown maintenance action", applogger.String("action", m.Action))
		return nil
	}
}

var _ pkgkafka.MessageHandler = (*MaintenanceHandler)(nil)
