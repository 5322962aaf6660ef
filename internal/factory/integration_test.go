package factory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/soltown/promenade/internal/model"
	"github.com/soltown/promenade/internal/session"
)

type IntegrationSuite struct {
	suite.Suite
	app      *TestApp
	ctx      context.Context
	channels map[model.ConnID]<-chan []byte
	sessions map[model.ConnID]*session.Session
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
	s.channels = make(map[model.ConnID]<-chan []byte)
	s.sessions = make(map[model.ConnID]*session.Session)
}

type envelope struct {
	Type    model.EventType `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// connect attaches a connection to the router and opens its session,
// mirroring what the websocket handler does for a real client
func (s *IntegrationSuite) connect(id model.ConnID, name string) *session.Session {
	s.channels[id] = s.app.Router.Attach(id)
	sess := s.app.Sessions.Open(s.ctx, id, name, "", "")
	s.sessions[id] = sess
	return sess
}

// drain empties a connection's queue and returns the decoded envelopes
func (s *IntegrationSuite) drain(id model.ConnID) []envelope {
	var out []envelope
	for {
		select {
		case raw, ok := <-s.channels[id]:
			if !ok {
				return out
			}
			var env envelope
			s.Require().NoError(json.Unmarshal(raw, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func (s *IntegrationSuite) firstOfType(envs []envelope, t model.EventType) (envelope, bool) {
	for _, env := range envs {
		if env.Type == t {
			return env, true
		}
	}
	return envelope{}, false
}

func (s *IntegrationSuite) send(id model.ConnID, event model.EventType, payload any) {
	raw, err := json.Marshal(payload)
	s.Require().NoError(err)
	s.sessions[id].HandleMessage(s.ctx, event, raw)
}

func (s *IntegrationSuite) TestJoinAndLeaveVisibleToOthers() {
	s.connect("conn-ava", "Ava")
	s.drain("conn-ava")

	s.connect("conn-ben", "Ben")

	avaEvents := s.drain("conn-ava")
	joined, ok := s.firstOfType(avaEvents, model.EventPlayerJoined)
	s.Require().True(ok, "existing player should hear the new join")
	var p model.Participant
	s.Require().NoError(json.Unmarshal(joined.Payload, &p))
	s.Equal("Ben", p.Name)

	benEvents := s.drain("conn-ben")
	state, ok := s.firstOfType(benEvents, model.EventGameState)
	s.Require().True(ok)
	var gs model.GameStatePayload
	s.Require().NoError(json.Unmarshal(state.Payload, &gs))
	s.Equal("Ben", gs.Player.Name)
	s.Len(gs.AllPlayers, 2)

	s.sessions["conn-ben"].Close(s.ctx)
	avaEvents = s.drain("conn-ava")
	left, ok := s.firstOfType(avaEvents, model.EventPlayerLeft)
	s.Require().True(ok)
	var ref model.PlayerRefPayload
	s.Require().NoError(json.Unmarshal(left.Payload, &ref))
	s.Equal(model.ConnID("conn-ben"), ref.ID)
}

func (s *IntegrationSuite) TestZoneTransitionScopesChat() {
	s.connect("conn-ava", "Ava")
	s.connect("conn-ben", "Ben")
	s.drain("conn-ava")
	s.drain("conn-ben")

	// Both spawn in the same scene; move Ben elsewhere
	s.send("conn-ben", model.EventChangeScene, model.ChangeScenePayload{Scene: model.ZoneBar})

	avaEvents := s.drain("conn-ava")
	_, ok := s.firstOfType(avaEvents, model.EventPlayerLeftScene)
	s.True(ok, "old zone should hear the departure")

	s.drain("conn-ben")

	// Ava chats; only her zone hears it
	s.send("conn-ava", model.EventChatMessage, model.ChatPayload{Message: "hello?"})
	avaEvents = s.drain("conn-ava")
	_, ok = s.firstOfType(avaEvents, model.EventChatMessage)
	s.True(ok)

	benEvents := s.drain("conn-ben")
	_, ok = s.firstOfType(benEvents, model.EventChatMessage)
	s.False(ok, "chat must not cross zones")
}

func (s *IntegrationSuite) TestProgressionSurvivesReconnect() {
	s.connect("conn-1", "Ava")
	s.drain("conn-1")

	points := 300
	s.send("conn-1", model.EventDateResult, model.DateResultPayload{Points: &points})
	s.sessions["conn-1"].Close(s.ctx)

	record, err := s.app.Storage.GetPlayerRecord(s.ctx, "Ava")
	s.Require().NoError(err)
	s.Equal(300, record.Score)

	// Same name, new connection: progression resumes
	s.connect("conn-2", "Ava")
	events := s.drain("conn-2")
	state, ok := s.firstOfType(events, model.EventGameState)
	s.Require().True(ok)
	var gs model.GameStatePayload
	s.Require().NoError(json.Unmarshal(state.Payload, &gs))
	s.Equal(300, gs.Player.Score)
}

func (s *IntegrationSuite) TestFistBumpRewardOnceAcrossConnections() {
	s.connect("conn-ava", "Ava")
	s.connect("conn-ben", "Ben")
	s.drain("conn-ava")
	s.drain("conn-ben")

	bump := model.FistBumpPayload{TargetID: "conn-ben", Type: model.BumpTargetPlayer}
	s.send("conn-ava", model.EventFistBump, bump)

	avaEvents := s.drain("conn-ava")
	_, ok := s.firstOfType(avaEvents, model.EventFistBumpSuccess)
	s.Require().True(ok)
	benEvents := s.drain("conn-ben")
	_, ok = s.firstOfType(benEvents, model.EventFistBumpReceived)
	s.True(ok)

	// Second bump of the same person is a silent no-op
	s.send("conn-ava", model.EventFistBump, bump)
	avaEvents = s.drain("conn-ava")
	_, ok = s.firstOfType(avaEvents, model.EventFistBumpSuccess)
	s.False(ok)
}

func (s *IntegrationSuite) TestLeaderboardIncludesOfflinePlayers() {
	s.Require().NoError(s.app.Storage.SavePlayerRecord(s.ctx, &model.PlayerRecord{
		Name:  "Ghost",
		Score: 900,
	}))

	s.connect("conn-ava", "Ava")
	events := s.drain("conn-ava")
	state, ok := s.firstOfType(events, model.EventGameState)
	s.Require().True(ok)

	var gs model.GameStatePayload
	s.Require().NoError(json.Unmarshal(state.Payload, &gs))
	s.Require().NotEmpty(gs.Leaderboard)
	s.Equal("Ghost", gs.Leaderboard[0].Name)
	s.Equal(900, gs.Leaderboard[0].Score)
}
