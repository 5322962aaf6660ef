package game

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/soltown/promenade/internal/dependencies/clock"
	"github.com/soltown/promenade/internal/dependencies/random"
	"github.com/soltown/promenade/internal/model"
	"github.com/soltown/promenade/internal/storage"
)

// Spawn constants, matching the street-level layout the clients render
const (
	SpawnXMin   = 100.0
	SpawnXRange = 200.0
	SpawnY      = 900.0
)

// participant colors assigned round-robin-by-chance at registration
var palette = []int{
	0xff6b6b, // red
	0x4ecdc4, // teal
	0x45b7d1, // blue
	0xffa07a, // light salmon
	0x98d8c8, // mint
	0xf7dc6f, // yellow
	0xbb8fce, // purple
	0x85c1e2, // light blue
}

// progression is the in-memory authoritative view of one display name's
// durable record. It is shared by every live connection under that name and
// survives disconnects for the lifetime of the process.
type progression struct {
	score    int
	rewarded map[string]struct{}
	platform string
	handle   string
}

// Registry is the single source of truth for live participants, their zone
// membership, and the progression of every display name seen this process.
//
// All mutations run under one mutex. Persistence never happens while the
// lock is held: writes go to memory first, then the durable record is saved
// best-effort, with failures logged rather than retried.
type Registry struct {
	store  storage.Storage
	clock  clock.Clock
	random random.Random
	logger *slog.Logger

	mu           sync.RWMutex
	participants map[model.ConnID]*model.Participant
	zones        map[model.ZoneID]map[model.ConnID]struct{}
	progress     map[string]*progression
}

// NewRegistry creates an empty registry backed by the given store
func NewRegistry(store storage.Storage, clk clock.Clock, rnd random.Random, logger *slog.Logger) *Registry {
	return &Registry{
		store:        store,
		clock:        clk,
		random:       rnd,
		logger:       logger.With(slog.String("component", "registry")),
		participants: make(map[model.ConnID]*model.Participant),
		zones:        make(map[model.ZoneID]map[model.ConnID]struct{}),
		progress:     make(map[string]*progression),
	}
}

// DefaultName derives a display name from a connection id when the client
// does not supply one.
func DefaultName(id model.ConnID) string {
	s := string(id)
	if len(s) > 6 {
		s = s[:6]
	}
	return "Player_" + s
}

// Register creates a live participant for a new connection, resuming the
// durable progression stored under its display name. A store failure is not
// fatal: the participant starts with zero progression and a warning is
// logged, trading consistency for session availability.
func (r *Registry) Register(ctx context.Context, id model.ConnID, name, platform, handle string) model.Participant {
	if name == "" {
		name = DefaultName(id)
	}

	// Load durable progression before taking the lock
	record, err := r.store.GetPlayerRecord(ctx, name)
	if err != nil && !errors.Is(err, model.ErrRecordNotFound) {
		r.logger.Warn("loading player record failed, starting with zero progression",
			slog.String("name", name),
			slog.Any("error", err))
	}

	zone := model.OutdoorZones[r.random.Intn(len(model.OutdoorZones))]
	now := r.clock.Now()

	r.mu.Lock()
	prog, ok := r.progress[name]
	if !ok {
		prog = &progression{rewarded: make(map[string]struct{})}
		if record != nil {
			prog.score = record.Score
			for _, t := range record.RewardedTargets {
				prog.rewarded[t] = struct{}{}
			}
			prog.platform = record.SocialPlatform
			prog.handle = record.SocialHandle
		}
		r.progress[name] = prog
	}
	if platform != "" {
		prog.platform = platform
	}
	if handle != "" {
		prog.handle = handle
	}

	p := &model.Participant{
		ID:             id,
		Name:           name,
		Zone:           zone,
		X:              SpawnXMin + r.random.Float64()*SpawnXRange,
		Y:              SpawnY,
		Facing:         model.FacingRight,
		AnimState:      model.AnimIdle,
		Color:          palette[r.random.Intn(len(palette))],
		Score:          prog.score,
		StyleTier:      model.StyleTier(prog.score),
		SocialPlatform: prog.platform,
		SocialHandle:   prog.handle,
		LastUpdate:     now,
	}
	r.participants[id] = p
	r.addToZoneLocked(id, zone)
	out := *p
	r.mu.Unlock()

	r.persistProgress(ctx, name)
	return out
}

// Update merges the present fields of a partial transform into the live
// participant and refreshes its last-update timestamp. A zone change swaps
// the membership index in the same critical section, so no reader ever sees
// the participant in two zones or none.
func (r *Registry) Update(id model.ConnID, partial model.PartialTransform) (model.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[id]
	if !ok {
		return model.Participant{}, model.ErrParticipantNotFound
	}

	if partial.Zone != nil && *partial.Zone != p.Zone {
		r.removeFromZoneLocked(id, p.Zone)
		p.Zone = *partial.Zone
		r.addToZoneLocked(id, p.Zone)
	}
	if partial.X != nil {
		p.X = *partial.X
	}
	if partial.Y != nil {
		p.Y = *partial.Y
	}
	if partial.Facing != nil {
		p.Facing = *partial.Facing
	}
	if partial.AnimState != nil {
		p.AnimState = *partial.AnimState
	}
	p.LastUpdate = r.clock.Now()

	return *p, nil
}

// MoveZone atomically relocates a participant to a new zone and position,
// returning the zone it left.
func (r *Registry) MoveZone(id model.ConnID, zone model.ZoneID, x, y float64) (model.ZoneID, model.Participant, error) {
	if !model.ValidZone(zone) {
		return "", model.Participant{}, model.ErrUnknownZone
	}

	r.mu.Lock()
	p, ok := r.participants[id]
	if !ok {
		r.mu.Unlock()
		return "", model.Participant{}, model.ErrParticipantNotFound
	}

	old := p.Zone
	if zone != old {
		r.removeFromZoneLocked(id, old)
		p.Zone = zone
		r.addToZoneLocked(id, zone)
	}
	p.X = x
	p.Y = y
	p.LastUpdate = r.clock.Now()
	out := *p
	r.mu.Unlock()

	return old, out, nil
}

// RecordInteraction awards score for targetID iff it has never been rewarded
// for this participant's display name. This is the system's one idempotence
// guarantee: at most one reward per (name, target) pair for the lifetime of
// the durable record, across reconnects.
func (r *Registry) RecordInteraction(ctx context.Context, id model.ConnID, targetID string) (model.Participant, bool) {
	r.mu.Lock()
	p, ok := r.participants[id]
	if !ok {
		r.mu.Unlock()
		return model.Participant{}, false
	}
	prog := r.progress[p.Name]
	if _, done := prog.rewarded[targetID]; done {
		r.mu.Unlock()
		return model.Participant{}, false
	}
	prog.rewarded[targetID] = struct{}{}
	prog.score++
	r.applyScoreLocked(p.Name, prog.score)
	name := p.Name
	out := *p
	r.mu.Unlock()

	r.persistProgress(ctx, name)
	return out, true
}

// AddScore raises the participant's score by amount. It is used for scripted
// outcomes that are not keyed by a repeatable target id. Score never
// decreases: a negative amount is rejected.
func (r *Registry) AddScore(ctx context.Context, id model.ConnID, amount int) (model.Participant, bool) {
	if amount < 0 {
		return model.Participant{}, false
	}

	r.mu.Lock()
	p, ok := r.participants[id]
	if !ok {
		r.mu.Unlock()
		return model.Participant{}, false
	}
	prog := r.progress[p.Name]
	prog.score += amount
	r.applyScoreLocked(p.Name, prog.score)
	name := p.Name
	out := *p
	r.mu.Unlock()

	r.persistProgress(ctx, name)
	return out, true
}

// Deregister removes a live participant. Idempotent: removing an unknown
// connection is a no-op. The display name's progression stays cached so the
// leaderboard keeps covering names with zero current connections.
func (r *Registry) Deregister(ctx context.Context, id model.ConnID) bool {
	r.mu.Lock()
	p, ok := r.participants[id]
	if !ok {
		r.mu.Unlock()
		return false
	}
	r.removeFromZoneLocked(id, p.Zone)
	delete(r.participants, id)
	name := p.Name
	r.mu.Unlock()

	r.persistProgress(ctx, name)
	return true
}

// Get returns a snapshot of one live participant
func (r *Registry) Get(id model.ConnID) (model.Participant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.participants[id]
	if !ok {
		return model.Participant{}, false
	}
	return *p, true
}

// ListZone returns a snapshot of the participants currently in a zone,
// ordered by connection id for reproducibility.
func (r *Registry) ListZone(zone model.ZoneID) []model.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.zones[zone]
	out := make([]model.Participant, 0, len(members))
	for id := range members {
		out = append(out, *r.participants[id])
	}
	sortParticipants(out)
	return out
}

// ListAll returns a snapshot of every live participant
func (r *Registry) ListAll() []model.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, *p)
	}
	sortParticipants(out)
	return out
}

// Nearby returns the participants in the same zone as id, excluding id
// itself, within Euclidean radius of its position.
func (r *Registry) Nearby(id model.ConnID, radius float64) []model.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.participants[id]
	if !ok {
		return nil
	}

	var out []model.Participant
	for otherID := range r.zones[p.Zone] {
		if otherID == id {
			continue
		}
		other := r.participants[otherID]
		dx := other.X - p.X
		dy := other.Y - p.Y
		if math.Sqrt(dx*dx+dy*dy) <= radius {
			out = append(out, *other)
		}
	}
	sortParticipants(out)
	return out
}

// Leaderboard ranks every known display name by score, highest first, ties
// broken by name. It covers names with zero current connections: durable
// records are merged with the live cache, and the cache wins where both
// exist since in-memory state is authoritative for active sessions.
func (r *Registry) Leaderboard(ctx context.Context, limit int) []model.LeaderboardEntry {
	records, err := r.store.ListPlayerRecords(ctx)
	if err != nil {
		r.logger.Warn("listing player records failed, leaderboard built from live sessions only",
			slog.Any("error", err))
	}

	scores := make(map[string]int, len(records))
	for _, rec := range records {
		scores[rec.Name] = rec.Score
	}

	r.mu.RLock()
	for name, prog := range r.progress {
		scores[name] = prog.score
	}
	r.mu.RUnlock()

	entries := make([]model.LeaderboardEntry, 0, len(scores))
	for name, score := range scores {
		entries = append(entries, model.LeaderboardEntry{Name: name, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Name < entries[j].Name
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// applyScoreLocked pushes a name's new score onto every live participant
// sharing that name. Caller holds the write lock.
func (r *Registry) applyScoreLocked(name string, score int) {
	for _, p := range r.participants {
		if p.Name == name {
			p.Score = score
			p.StyleTier = model.StyleTier(score)
		}
	}
}

func (r *Registry) addToZoneLocked(id model.ConnID, zone model.ZoneID) {
	members, ok := r.zones[zone]
	if !ok {
		members = make(map[model.ConnID]struct{})
		r.zones[zone] = members
	}
	members[id] = struct{}{}
}

func (r *Registry) removeFromZoneLocked(id model.ConnID, zone model.ZoneID) {
	members := r.zones[zone]
	delete(members, id)
	if len(members) == 0 {
		delete(r.zones, zone)
	}
}

// persistProgress writes the durable record for a display name. It runs
// outside the registry lock; a failed write is logged and not retried, so
// in-memory state stays authoritative for the rest of the session.
func (r *Registry) persistProgress(ctx context.Context, name string) {
	r.mu.RLock()
	prog, ok := r.progress[name]
	if !ok {
		r.mu.RUnlock()
		return
	}
	record := &model.PlayerRecord{
		Name:            name,
		Score:           prog.score,
		RewardedTargets: make([]string, 0, len(prog.rewarded)),
		SocialPlatform:  prog.platform,
		SocialHandle:    prog.handle,
		LastActive:      r.clock.Now(),
	}
	for t := range prog.rewarded {
		record.RewardedTargets = append(record.RewardedTargets, t)
	}
	r.mu.RUnlock()
	sort.Strings(record.RewardedTargets)

	if err := r.store.SavePlayerRecord(ctx, record); err != nil {
		r.logger.Warn("persisting player record failed",
			slog.String("name", name),
			slog.Any("error", err))
	}
}

func sortParticipants(ps []model.Participant) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
}
