package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/soltown/promenade/internal/broadcast"
	"github.com/soltown/promenade/internal/dependencies/clock"
	"github.com/soltown/promenade/internal/game"
	"github.com/soltown/promenade/internal/model"
	"github.com/soltown/promenade/internal/storage"
)

// Session states. A dropped connection is fully torn down; reconnecting is a
// brand-new Connecting flow that re-resolves progression by display name.
type state int

const (
	stateConnecting state = iota
	stateActive
	stateClosed
)

// Manager owns the dependencies shared by all sessions and opens one Session
// per accepted connection.
type Manager struct {
	registry *game.Registry
	router   *broadcast.Router
	store    storage.Storage
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger
}

// NewManager creates a session manager
func NewManager(
	registry *game.Registry,
	router *broadcast.Router,
	store storage.Storage,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		registry: registry,
		router:   router,
		store:    store,
		clock:    clk,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "session")),
	}
}

// Session drives one connection's protocol from open to close. All inbound
// events for a connection are handled by its single reader goroutine, so two
// zone transitions from the same connection can never interleave: the second
// queues behind the first.
type Session struct {
	id model.ConnID
	m  *Manager

	mu    sync.Mutex
	state state

	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// Open registers a participant for a new connection and runs the join flow:
// initial snapshot and chat history to the new connection only, then a global
// join announcement to everyone else. The connection must already be attached
// to the router.
func (m *Manager) Open(ctx context.Context, id model.ConnID, name, platform, handle string) *Session {
	s := &Session{
		id:     id,
		m:      m,
		state:  stateConnecting,
		done:   make(chan struct{}),
		logger: m.logger.With(slog.String("conn_id", string(id))),
	}

	p := m.registry.Register(ctx, id, name, platform, handle)
	m.router.Subscribe(id, p.Zone)

	m.router.SendTo(id, model.EventGameState, model.GameStatePayload{
		Player:      p,
		AllPlayers:  m.registry.ListAll(),
		Leaderboard: m.registry.Leaderboard(ctx, m.cfg.LeaderboardLimit),
	})
	s.sendChatHistory(ctx)

	m.router.SendToAll(model.EventPlayerJoined, p, id)

	s.mu.Lock()
	s.state = stateActive
	s.mu.Unlock()

	go s.syncLoop()

	s.logger.Info("session opened",
		slog.String("name", p.Name),
		slog.String("zone", string(p.Zone)))
	return s
}

// ID returns the session's connection id
func (s *Session) ID() model.ConnID {
	return s.id
}

// Close tears the session down: the periodic sync stops, the participant is
// deregistered, and everyone else hears the departure. Idempotent.
func (s *Session) Close(ctx context.Context) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.state = stateClosed
		s.mu.Unlock()
		close(s.done)

		s.m.registry.Deregister(ctx, s.id)
		s.m.router.SendToAll(model.EventPlayerLeft, model.PlayerRefPayload{ID: s.id}, s.id)
		s.m.router.Detach(s.id)

		s.logger.Info("session closed")
	})
}

// HandleMessage dispatches one inbound event. Malformed payloads and events
// referencing missing participants are dropped whole: no partial application,
// no error surfaced to the client.
func (s *Session) HandleMessage(ctx context.Context, event model.EventType, payload json.RawMessage) {
	s.mu.Lock()
	active := s.state == stateActive
	s.mu.Unlock()
	if !active {
		return
	}

	switch event {
	case model.EventPlayerMove:
		s.handleMove(payload)
	case model.EventChangeScene:
		s.handleChangeScene(payload)
	case model.EventEnterBuilding:
		s.handleEnterBuilding(payload)
	case model.EventExitBuilding:
		s.handleExitBuilding(payload)
	case model.EventFistBump:
		s.handleFistBump(ctx, payload)
	case model.EventChatMessage:
		s.handleChat(ctx, payload)
	case model.EventDateResult:
		s.handleDateResult(ctx, payload)
	default:
		s.logger.Debug("unknown event dropped", slog.String("event", string(event)))
	}
}

func (s *Session) handleMove(payload json.RawMessage) {
	var move model.MovePayload
	if err := json.Unmarshal(payload, &move); err != nil {
		s.logger.Debug("malformed move dropped", slog.Any("error", err))
		return
	}

	p, err := s.m.registry.Update(s.id, model.PartialTransform{
		X:         move.X,
		Y:         move.Y,
		Facing:    move.Facing,
		AnimState: move.AnimState,
	})
	if err != nil {
		return
	}

	s.m.router.SendToZone(p.Zone, model.EventPlayerUpdate, p)
}

func (s *Session) handleChangeScene(payload json.RawMessage) {
	var change model.ChangeScenePayload
	if err := json.Unmarshal(payload, &change); err != nil || !model.IsOutdoorZone(change.Scene) {
		s.logger.Debug("malformed scene change dropped")
		return
	}
	s.transition(change.Scene, coord(change.X, game.SpawnXMin), coord(change.Y, game.SpawnY))
}

func (s *Session) handleEnterBuilding(payload json.RawMessage) {
	var enter model.EnterBuildingPayload
	if err := json.Unmarshal(payload, &enter); err != nil || enter.BuildingID == "" {
		s.logger.Debug("malformed building entry dropped")
		return
	}
	s.transition(model.InteriorZone(enter.BuildingID), game.SpawnXMin, game.SpawnY)
}

func (s *Session) handleExitBuilding(payload json.RawMessage) {
	var exit model.ExitBuildingPayload
	if err := json.Unmarshal(payload, &exit); err != nil || !model.IsOutdoorZone(exit.TargetScene) {
		s.logger.Debug("malformed building exit dropped")
		return
	}
	s.transition(exit.TargetScene, coord(exit.X, game.SpawnXMin), coord(exit.Y, game.SpawnY))
}

// transition runs the zone-transition contract: swap registry membership
// atomically first, then notify the old zone, snapshot the new zone for the
// mover, and announce to the new zone. Because membership swaps before any
// notification, no observer sees the participant in two zones or missing
// from the snapshot it requested.
func (s *Session) transition(zone model.ZoneID, x, y float64) {
	old, p, err := s.m.registry.MoveZone(s.id, zone, x, y)
	if err != nil {
		return
	}
	s.m.router.Subscribe(s.id, zone)

	if old != zone {
		s.m.router.SendToZone(old, model.EventPlayerLeftScene, model.PlayerRefPayload{ID: s.id, Scene: zone})
	}
	s.m.router.SendTo(s.id, model.EventSceneState, model.SceneStatePayload{
		Scene:   zone,
		Players: s.m.registry.ListZone(zone),
	})
	if old != zone {
		s.m.router.SendToZone(zone, model.EventPlayerJoinedScene, p, s.id)
	}
}

// handleFistBump validates player targets against server-side proximity;
// object targets are taken on trust from the client. A failed validation or
// an already-rewarded target is a silent drop.
func (s *Session) handleFistBump(ctx context.Context, payload json.RawMessage) {
	var bump model.FistBumpPayload
	if err := json.Unmarshal(payload, &bump); err != nil || bump.TargetID == "" {
		s.logger.Debug("malformed fist bump dropped")
		return
	}

	switch bump.Type {
	case model.BumpTargetPlayer:
		s.bumpPlayer(ctx, model.ConnID(bump.TargetID))
	case model.BumpTargetObject:
		s.bumpObject(ctx, bump.TargetID)
	default:
		s.logger.Debug("fist bump with unknown target type dropped",
			slog.String("type", bump.Type))
	}
}

func (s *Session) bumpPlayer(ctx context.Context, targetID model.ConnID) {
	var target *model.Participant
	for _, near := range s.m.registry.Nearby(s.id, s.m.cfg.BumpRadius) {
		if near.ID == targetID {
			t := near
			target = &t
			break
		}
	}
	if target == nil {
		// Out of range, different zone, or no longer connected
		return
	}

	p, ok := s.m.registry.RecordInteraction(ctx, s.id, "player:"+target.Name)
	if !ok {
		return
	}

	s.m.router.SendTo(s.id, model.EventFistBumpSuccess, model.FistBumpSuccessPayload{TargetID: string(targetID)})
	s.m.router.SendTo(targetID, model.EventFistBumpReceived, model.FistBumpReceivedPayload{FromID: s.id})
	s.m.router.SendToZone(p.Zone, model.EventFistBumpAnimation, model.FistBumpAnimationPayload{
		ActorID:  s.id,
		TargetID: string(targetID),
	})
	s.m.router.SendTo(s.id, model.EventScoreUpdate, model.ScoreUpdatePayload{
		Score:     p.Score,
		StyleTier: p.StyleTier,
	})
}

func (s *Session) bumpObject(ctx context.Context, targetID string) {
	p, ok := s.m.registry.RecordInteraction(ctx, s.id, "object:"+targetID)
	if !ok {
		return
	}

	s.m.router.SendTo(s.id, model.EventFistBumpSuccess, model.FistBumpSuccessPayload{TargetID: targetID})
	s.m.router.SendToZone(p.Zone, model.EventFistBumpAnimation, model.FistBumpAnimationPayload{
		ActorID:  s.id,
		TargetID: targetID,
	})
	s.m.router.SendTo(s.id, model.EventScoreUpdate, model.ScoreUpdatePayload{
		Score:     p.Score,
		StyleTier: p.StyleTier,
	})
}

// handleChat logs the message best-effort and broadcasts to the sender's
// zone. Delivery is independent of whether the durable log write succeeded.
func (s *Session) handleChat(ctx context.Context, payload json.RawMessage) {
	var chat model.ChatPayload
	if err := json.Unmarshal(payload, &chat); err != nil || chat.Message == "" {
		s.logger.Debug("malformed chat message dropped")
		return
	}

	p, ok := s.m.registry.Get(s.id)
	if !ok {
		return
	}

	msg := model.ChatMessage{
		SenderID:   s.id,
		SenderName: p.Name,
		Message:    chat.Message,
		Timestamp:  s.m.clock.Now(),
	}
	if err := s.m.store.AppendChatMessage(ctx, &msg); err != nil {
		s.logger.Warn("chat log write failed", slog.Any("error", err))
	}

	s.m.router.SendToZone(p.Zone, model.EventChatMessage, msg)
}

func (s *Session) handleDateResult(ctx context.Context, payload json.RawMessage) {
	var result model.DateResultPayload
	if err := json.Unmarshal(payload, &result); err != nil || result.Points == nil || *result.Points < 0 {
		s.logger.Debug("malformed date result dropped")
		return
	}

	p, ok := s.m.registry.AddScore(ctx, s.id, *result.Points)
	if !ok {
		return
	}

	s.m.router.SendTo(s.id, model.EventScoreUpdate, model.ScoreUpdatePayload{
		Score:     p.Score,
		StyleTier: p.StyleTier,
	})
	s.m.router.SendToAll(model.EventLeaderboardUpdate, model.LeaderboardUpdatePayload{
		Leaderboard: s.m.registry.Leaderboard(ctx, s.m.cfg.LeaderboardLimit),
	})
}

func (s *Session) sendChatHistory(ctx context.Context) {
	msgs, err := s.m.store.RecentChatMessages(ctx, s.m.cfg.ChatHistory)
	if err != nil {
		s.logger.Warn("chat history unavailable", slog.Any("error", err))
		return
	}
	history := make([]model.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, *m)
	}
	s.m.router.SendTo(s.id, model.EventChatHistory, model.ChatHistoryPayload{Messages: history})
}

// syncLoop re-sends the full current-zone member list at a fixed interval,
// independent of discrete events, self-healing any missed update.
func (s *Session) syncLoop() {
	ticker := time.NewTicker(s.m.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.syncOnce()
		case <-s.done:
			return
		}
	}
}

func (s *Session) syncOnce() {
	p, ok := s.m.registry.Get(s.id)
	if !ok {
		return
	}
	s.m.router.SendTo(s.id, model.EventSceneSync, model.SceneSyncPayload{
		Players: s.m.registry.ListZone(p.Zone),
	})
}

// coord unwraps an optional coordinate, falling back to a default
func coord(v *float64, def float64) float64 {
	if v != nil {
		return *v
	}
	return def
}
