package session

import "time"

// Config holds per-session behavior settings
type Config struct {
	// SyncInterval is how often each connection is re-sent its full current
	// zone snapshot. The periodic snapshot is the convergence mechanism;
	// discrete broadcasts are only the low-latency path.
	SyncInterval time.Duration

	// BumpRadius is the maximum distance for a player-to-player fist bump
	BumpRadius float64

	// ChatHistory is how many recent chat messages a new connection replays
	ChatHistory int

	// LeaderboardLimit caps the leaderboard sent in snapshots and updates
	LeaderboardLimit int
}

// DefaultConfig returns sensible defaults for session configuration
func DefaultConfig() Config {
	return Config{
		SyncInterval:     100 * time.Millisecond,
		BumpRadius:       100,
		ChatHistory:      50,
		LeaderboardLimit: 10,
	}
}
