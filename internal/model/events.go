package model

// EventType identifies an event on the per-connection channel
type EventType string

// Inbound events (client -> server)
const (
	EventPlayerMove    EventType = "playerMove"
	EventChangeScene   EventType = "changeScene"
	EventEnterBuilding EventType = "enterBuilding"
	EventExitBuilding  EventType = "exitBuilding"
	EventFistBump      EventType = "fistBump"
	EventChatMessage   EventType = "chatMessage"
	EventDateResult    EventType = "dateResult"
)

// Outbound events (server -> client)
const (
	EventGameState         EventType = "gameState"
	EventPlayerJoined      EventType = "playerJoined"
	EventPlayerLeft        EventType = "playerLeft"
	EventPlayerUpdate      EventType = "playerUpdate"
	EventPlayerJoinedScene EventType = "playerJoinedScene"
	EventPlayerLeftScene   EventType = "playerLeftScene"
	EventSceneState        EventType = "sceneState"
	EventSceneSync         EventType = "sceneSync"
	EventFistBumpAnimation EventType = "fistBumpAnimation"
	EventFistBumpSuccess   EventType = "fistBumpSuccess"
	EventFistBumpReceived  EventType = "fistBumpReceived"
	EventChatHistory       EventType = "chatHistory"
	EventScoreUpdate       EventType = "scoreUpdate"
	EventLeaderboardUpdate EventType = "leaderboardUpdate"
)

// Fist bump target kinds
const (
	BumpTargetPlayer = "player"
	BumpTargetObject = "object"
)

// Inbound payloads. Pointer fields distinguish "absent" from zero values;
// events missing a required field are dropped whole, never partially applied.

// MovePayload updates the sender's transform
type MovePayload struct {
	X         *float64   `json:"x"`
	Y         *float64   `json:"y"`
	Facing    *Facing    `json:"facing"`
	AnimState *AnimState `json:"animState"`
}

// ChangeScenePayload moves the sender to an outdoor scene
type ChangeScenePayload struct {
	Scene ZoneID   `json:"scene"`
	X     *float64 `json:"x"`
	Y     *float64 `json:"y"`
}

// EnterBuildingPayload moves the sender into a building interior
type EnterBuildingPayload struct {
	BuildingID   string `json:"buildingId"`
	BuildingType string `json:"buildingType"`
	Difficulty   int    `json:"difficulty,omitempty"`
}

// ExitBuildingPayload moves the sender back to an outdoor scene
type ExitBuildingPayload struct {
	TargetScene ZoneID   `json:"targetScene"`
	X           *float64 `json:"x"`
	Y           *float64 `json:"y"`
}

// FistBumpPayload requests a paired interaction with a player or object
type FistBumpPayload struct {
	TargetID string `json:"targetId"`
	Type     string `json:"type"`
}

// ChatPayload carries one chat message
type ChatPayload struct {
	Message string `json:"message"`
}

// DateResultPayload reports a scripted-outcome score award
type DateResultPayload struct {
	Points *int `json:"points"`
}

// Outbound payloads

// GameStatePayload is the initial full-state snapshot sent to a new connection
type GameStatePayload struct {
	Player      Participant        `json:"player"`
	AllPlayers  []Participant      `json:"allPlayers"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// SceneStatePayload is the member snapshot delivered to a transitioning connection
type SceneStatePayload struct {
	Scene   ZoneID        `json:"scene"`
	Players []Participant `json:"players"`
}

// SceneSyncPayload is the periodic full zone snapshot
type SceneSyncPayload struct {
	Players []Participant `json:"players"`
}

// PlayerRefPayload references a participant by id for left/leftScene events
type PlayerRefPayload struct {
	ID    ConnID `json:"id"`
	Scene ZoneID `json:"scene,omitempty"`
}

// FistBumpAnimationPayload tells a zone to play the bump animation
type FistBumpAnimationPayload struct {
	ActorID  ConnID `json:"player1Id"`
	TargetID string `json:"player2Id"`
}

// FistBumpSuccessPayload confirms a bump to the actor
type FistBumpSuccessPayload struct {
	TargetID string `json:"targetId"`
}

// FistBumpReceivedPayload notifies the bumped player
type FistBumpReceivedPayload struct {
	FromID ConnID `json:"fromId"`
}

// ChatHistoryPayload replays recent chat to a new connection
type ChatHistoryPayload struct {
	Messages []ChatMessage `json:"messages"`
}

// ScoreUpdatePayload pushes a participant's new score to them
type ScoreUpdatePayload struct {
	Score     int `json:"score"`
	StyleTier int `json:"styleTier"`
}

// LeaderboardUpdatePayload broadcasts a changed leaderboard
type LeaderboardUpdatePayload struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}
