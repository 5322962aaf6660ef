package model

import "time"

// ConnID uniquely identifies a live connection. It is ephemeral: a reconnect
// gets a fresh ConnID, and durable progression is keyed by display name instead.
type ConnID string

// Facing is the horizontal direction a participant is looking
type Facing string

const (
	FacingLeft  Facing = "left"
	FacingRight Facing = "right"
)

// AnimState is the participant's current animation state
type AnimState string

const (
	AnimIdle AnimState = "idle"
	AnimWalk AnimState = "walk"
)

const (
	// MaxStyleTier is the highest tier score can unlock
	MaxStyleTier = 4
	// StyleTierStep is the score required per tier
	StyleTierStep = 500
)

// StyleTier derives the progression bucket for a score: floor(score/500), clamped
func StyleTier(score int) int {
	tier := score / StyleTierStep
	if tier > MaxStyleTier {
		return MaxStyleTier
	}
	return tier
}

// Participant is one live session's transform and progression view
type Participant struct {
	ID   ConnID `json:"id"`
	Name string `json:"name"`

	Zone      ZoneID    `json:"scene"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Facing    Facing    `json:"facing"`
	AnimState AnimState `json:"animState"`

	Color     int `json:"color"`
	Score     int `json:"score"`
	StyleTier int `json:"styleTier"`

	SocialPlatform string `json:"socialPlatform,omitempty"`
	SocialHandle   string `json:"socialHandle,omitempty"`

	LastUpdate time.Time `json:"lastUpdate"`
}

// PartialTransform carries the fields of a transform update that were actually
// present in the inbound event. Nil fields are left untouched on merge.
type PartialTransform struct {
	Zone      *ZoneID
	X         *float64
	Y         *float64
	Facing    *Facing
	AnimState *AnimState
}

// LeaderboardEntry is one row of the score leaderboard
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}
