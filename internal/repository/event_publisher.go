package repository

import (
	"context"
	"time"

	"FolioPull/internal/domain/models"
	"FolioPull/internal/domain/repository"
	pkgkafka "FolioPull/pkg/kafka"

	"github.com/google/uuid"
)

const (
	EventSnapshot = "snapshot"
	EventPrune    = "prune"
)

// SnapshotEvent summarises one refresh.
type SnapshotEvent struct {
	EventID      string          `json:"event_id"`
	Type         string          `json:"type"`
	EntryID      string          `json:"entry_id"`
	ServerOnline bool            `json:"server_online"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Accounts     int             `json:"accounts"`
	Holdings     int             `json:"holdings"`
	Watchlist    int             `json:"watchlist"`
	Providers    map[string]bool `json:"providers"`
}

// PruneEvent lists entities removed by reconciliation.
type PruneEvent struct {
	EventID string    `json:"event_id"`
	Type    string    `json:"type"`
	EntryID string    `json:"entry_id"`
	Removed []string  `json:"removed"`
	At      time.Time `json:"at"`
}

// NewSnapshotEvent builds the summary published after a refresh.
func NewSnapshotEvent(entryID string, s models.Snapshot) SnapshotEvent {
	ev := SnapshotEvent{
		EventID:      uuid.New().String(),
		Type:         EventSnapshot,
		EntryID:      entryID,
		ServerOnline: s.ServerOnline,
		UpdatedAt:    s.UpdatedAt,
		Accounts:     len(s.IncludedAccounts()),
		Watchlist:    len(s.Watchlist),
		Providers:    make(map[string]bool, len(s.Providers)),
	}
	for id := range s.AccountHoldings {
		ev.Holdings += len(s.ActiveHoldings(id))
	}
	for code, h := range s.Providers {
		ev.Providers[code] = h.IsActive
	}
	return ev
}

// KafkaPublisher implements EventPublisher for Kafka, keyed by entry id.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

var _ repository.EventPublisher = (*KafkaPublisher)(nil)

func (p *KafkaPublisher) PublishSnapshot(ctx context.Context, entryID string, s models.Snapshot) error {
	return p.producer.Publish(ctx, p.topic, []byte(entryID), NewSnapshotEvent(entryID, s))
}

func (p *KafkaPublisher) PublishPrune(ctx context.Context, entryID string, removed []string) error {
	return p.producer.Publish(ctx, p.topic, []byte(entryID), PruneEvent{
		EventID: uuid.New().String(),
		Type:    EventPrune,
		EntryID: entryID,
		Removed: removed,
		At:      time.Now().UTC(),
	})
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops every event. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishSnapshot(context.Context, string, models.Snapshot) error { return nil }
func (NopPublisher) PublishPrune(context.Context, string, []string) error           { return nil }
func (NopPublisher) Close() error                                                   { return nil }
