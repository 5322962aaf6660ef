package memory

import (
	"context"
	"sync"

	"github.com/soltown/promenade/internal/model"
	"github.com/soltown/promenade/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	records map[string]*model.PlayerRecord
	chatLog []*model.ChatMessage
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		records: make(map[string]*model.PlayerRecord),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player record operations

func (s *Storage) SavePlayerRecord(ctx context.Context, record *model.PlayerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *record
	clone.RewardedTargets = append([]string(nil), record.RewardedTargets...)
	s.records[record.Name] = &clone
	return nil
}

func (s *Storage) GetPlayerRecord(ctx context.Context, name string) (*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[name]
	if !ok {
		return nil, model.ErrRecordNotFound
	}
	clone := *record
	clone.RewardedTargets = append([]string(nil), record.RewardedTargets...)
	return &clone, nil
}

func (s *Storage) ListPlayerRecords(ctx context.Context) ([]*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]*model.PlayerRecord, 0, len(s.records))
	for _, record := range s.records {
		clone := *record
		clone.RewardedTargets = append([]string(nil), record.RewardedTargets...)
		records = append(records, &clone)
	}
	return records, nil
}

// Chat log operations

func (s *Storage) AppendChatMessage(ctx context.Context, msg *model.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *msg
	s.chatLog = append(s.chatLog, &clone)
	return nil
}

func (s *Storage) RecentChatMessages(ctx context.Context, limit int) ([]*model.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		return []*model.ChatMessage{}, nil
	}
	start := len(s.chatLog) - limit
	if start < 0 {
		start = 0
	}
	msgs := make([]*model.ChatMessage, 0, len(s.chatLog)-start)
	for _, msg := range s.chatLog[start:] {
		clone := *msg
		msgs = append(msgs, &clone)
	}
	return msgs, nil
}

// Ping always succeeds for in-memory storage
func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}
