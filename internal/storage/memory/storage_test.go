package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/soltown/promenade/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

// Player record tests

func (s *StorageSuite) TestSaveAndGetPlayerRecord() {
	record := &model.PlayerRecord{
		Name:            "Larry",
		Score:           42,
		RewardedTargets: []string{"object:cat-1"},
	}

	err := s.storage.SavePlayerRecord(s.ctx, record)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetPlayerRecord(s.ctx, "Larry")
	s.Require().NoError(err)
	s.Equal(42, retrieved.Score)
	s.Equal([]string{"object:cat-1"}, retrieved.RewardedTargets)
}

func (s *StorageSuite) TestGetPlayerRecordNotFound() {
	_, err := s.storage.GetPlayerRecord(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrRecordNotFound)
}

func (s *StorageSuite) TestRecordsAreCopiedNotShared() {
	record := &model.PlayerRecord{Name: "Larry", Score: 1, RewardedTargets: []string{"a"}}
	_ = s.storage.SavePlayerRecord(s.ctx, record)

	// Mutating the caller's record must not change the stored one
	record.Score = 99
	record.RewardedTargets[0] = "b"

	retrieved, err := s.storage.GetPlayerRecord(s.ctx, "Larry")
	s.Require().NoError(err)
	s.Equal(1, retrieved.Score)
	s.Equal([]string{"a"}, retrieved.RewardedTargets)
}

func (s *StorageSuite) TestListPlayerRecords() {
	_ = s.storage.SavePlayerRecord(s.ctx, &model.PlayerRecord{Name: "Larry", Score: 10})
	_ = s.storage.SavePlayerRecord(s.ctx, &model.PlayerRecord{Name: "Moe", Score: 20})

	records, err := s.storage.ListPlayerRecords(s.ctx)
	s.Require().NoError(err)
	s.Len(records, 2)
}

// Chat log tests

func (s *StorageSuite) TestChatLogAppendAndRecent() {
	for _, text := range []string{"one", "two", "three"} {
		_ = s.storage.AppendChatMessage(s.ctx, &model.ChatMessage{SenderName: "Larry", Message: text})
	}

	msgs, err := s.storage.RecentChatMessages(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(msgs, 2)
	s.Equal("two", msgs[0].Message)
	s.Equal("three", msgs[1].Message)
}

func (s *StorageSuite) TestRecentChatMessagesMoreThanLogged() {
	_ = s.storage.AppendChatMessage(s.ctx, &model.ChatMessage{SenderName: "Larry", Message: "hi"})

	msgs, err := s.storage.RecentChatMessages(s.ctx, 50)
	s.Require().NoError(err)
	s.Len(msgs, 1)
}
