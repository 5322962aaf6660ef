package storage

import (
	"context"

	"github.com/soltown/promenade/internal/model"
)

// Storage defines the interface for durable persistence: player progression
// records keyed by display name, and the append-only chat log.
type Storage interface {
	// Player record operations
	SavePlayerRecord(ctx context.Context, record *model.PlayerRecord) error
	GetPlayerRecord(ctx context.Context, name string) (*model.PlayerRecord, error)
	ListPlayerRecords(ctx context.Context) ([]*model.PlayerRecord, error)

	// Chat log operations
	AppendChatMessage(ctx context.Context, msg *model.ChatMessage) error
	RecentChatMessages(ctx context.Context, limit int) ([]*model.ChatMessage, error)

	// Ping verifies the backing store is reachable
	Ping(ctx context.Context) error

	// Close releases any held resources
	Close() error
}
