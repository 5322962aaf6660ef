package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/soltown/promenade/internal/dependencies/mocks"
	"github.com/soltown/promenade/internal/game"
	"github.com/soltown/promenade/internal/model"
	"github.com/soltown/promenade/internal/storage"
	"github.com/soltown/promenade/internal/storage/memory"
	"github.com/soltown/promenade/internal/testutil"
)

type RouterSuite struct {
	suite.Suite
	storage  *memory.Storage
	registry *game.Registry
	server   *httptest.Server
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := testutil.NopLogger()
	s.storage = memory.New()

	rnd := mocks.NewMockRandom()
	clk := mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.registry = game.NewRegistry(s.storage, clk, rnd, logger)

	router := NewRouter(RouterConfig{
		Logger:           logger,
		Registry:         s.registry,
		Storage:          s.storage,
		WSHandler:        http.NotFoundHandler(),
		LeaderboardLimit: 10,
	})
	s.server = httptest.NewServer(router)
}

func (s *RouterSuite) TearDownTest() {
	s.server.Close()
}

func (s *RouterSuite) TestHealthzOK() {
	resp, err := http.Get(s.server.URL + "/healthz")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var body map[string]string
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Equal("ok", body["status"])
}

func (s *RouterSuite) TestHealthzDegradedWhenStoreUnreachable() {
	router := NewRouter(RouterConfig{
		Logger:           testutil.NopLogger(),
		Registry:         s.registry,
		Storage:          unreachableStore{},
		WSHandler:        http.NotFoundHandler(),
		LeaderboardLimit: 10,
	})
	server := httptest.NewServer(router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/healthz")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)
}

func (s *RouterSuite) TestLeaderboard() {
	ctx := context.Background()
	s.registry.Register(ctx, "conn-ava", "Ava", "", "")
	s.registry.Register(ctx, "conn-ben", "Ben", "", "")
	_, ok := s.registry.AddScore(ctx, "conn-ava", 700)
	s.Require().True(ok)

	resp, err := http.Get(s.server.URL + "/api/v1/leaderboard")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)

	var body struct {
		Leaderboard []model.LeaderboardEntry `json:"leaderboard"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Require().Len(body.Leaderboard, 2)
	s.Equal("Ava", body.Leaderboard[0].Name)
	s.Equal(700, body.Leaderboard[0].Score)
	s.Equal("Ben", body.Leaderboard[1].Name)
}

func (s *RouterSuite) TestLeaderboardLimitParam() {
	ctx := context.Background()
	s.registry.Register(ctx, "conn-ava", "Ava", "", "")
	s.registry.Register(ctx, "conn-ben", "Ben", "", "")

	resp, err := http.Get(s.server.URL + "/api/v1/leaderboard?limit=1")
	s.Require().NoError(err)
	defer resp.Body.Close()

	var body struct {
		Leaderboard []model.LeaderboardEntry `json:"leaderboard"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.Len(body.Leaderboard, 1)
}

func (s *RouterSuite) TestLeaderboardBadLimit() {
	resp, err := http.Get(s.server.URL + "/api/v1/leaderboard?limit=zero")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

// unreachableStore fails every operation
type unreachableStore struct{}

var errUnreachable = errors.New("storage unreachable")

func (unreachableStore) SavePlayerRecord(context.Context, *model.PlayerRecord) error {
	return errUnreachable
}

func (unreachableStore) GetPlayerRecord(context.Context, string) (*model.PlayerRecord, error) {
	return nil, errUnreachable
}

func (unreachableStore) ListPlayerRecords(context.Context) ([]*model.PlayerRecord, error) {
	return nil, errUnreachable
}

func (unreachableStore) AppendChatMessage(context.Context, *model.ChatMessage) error {
	return errUnreachable
}

func (unreachableStore) RecentChatMessages(context.Context, int) ([]*model.ChatMessage, error) {
	return nil, errUnreachable
}

func (unreachableStore) Ping(context.Context) error { return errUnreachable }

func (unreachableStore) Close() error { return nil }

var _ storage.Storage = unreachableStore{}
