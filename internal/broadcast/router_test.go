package broadcast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/soltown/promenade/internal/model"
	"github.com/soltown/promenade/internal/testutil"
)

type RouterSuite struct {
	suite.Suite
	router *Router
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	s.router = NewRouter(testutil.NopLogger())
}

func (s *RouterSuite) drain(ch <-chan []byte) []Envelope {
	var out []Envelope
	for {
		select {
		case msg := <-ch:
			var env Envelope
			s.Require().NoError(json.Unmarshal(msg, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func (s *RouterSuite) TestSendToZoneScopesDelivery() {
	a := s.router.Attach("a")
	b := s.router.Attach("b")
	c := s.router.Attach("c")
	s.router.Subscribe("a", model.ZoneCity)
	s.router.Subscribe("b", model.ZoneCity)
	s.router.Subscribe("c", model.ZoneBeach)

	s.router.SendToZone(model.ZoneCity, model.EventChatMessage, map[string]string{"message": "hi"})

	s.Len(s.drain(a), 1)
	s.Len(s.drain(b), 1)
	s.Empty(s.drain(c))
}

func (s *RouterSuite) TestSendToZoneExcludes() {
	a := s.router.Attach("a")
	b := s.router.Attach("b")
	s.router.Subscribe("a", model.ZoneCity)
	s.router.Subscribe("b", model.ZoneCity)

	s.router.SendToZone(model.ZoneCity, model.EventPlayerUpdate, nil, "a")

	s.Empty(s.drain(a))
	s.Len(s.drain(b), 1)
}

func (s *RouterSuite) TestSubscribeMovesZoneMembership() {
	a := s.router.Attach("a")
	s.router.Subscribe("a", model.ZoneCity)
	s.router.Subscribe("a", model.ZoneBeach)

	s.router.SendToZone(model.ZoneCity, model.EventPlayerUpdate, nil)
	s.Empty(s.drain(a))

	s.router.SendToZone(model.ZoneBeach, model.EventPlayerUpdate, nil)
	s.Len(s.drain(a), 1)
}

func (s *RouterSuite) TestSendToAll() {
	a := s.router.Attach("a")
	b := s.router.Attach("b")
	s.router.Subscribe("a", model.ZoneCity)
	// b never subscribed to a zone; global events still reach it

	s.router.SendToAll(model.EventLeaderboardUpdate, nil)

	s.Len(s.drain(a), 1)
	s.Len(s.drain(b), 1)
}

func (s *RouterSuite) TestSendToAllExcludesSender() {
	a := s.router.Attach("a")
	b := s.router.Attach("b")

	s.router.SendToAll(model.EventPlayerJoined, nil, "a")

	s.Empty(s.drain(a))
	s.Len(s.drain(b), 1)
}

func (s *RouterSuite) TestDetachedConnectionSkippedMidFanout() {
	a := s.router.Attach("a")
	b := s.router.Attach("b")
	s.router.Subscribe("a", model.ZoneCity)
	s.router.Subscribe("b", model.ZoneCity)
	s.router.Detach("a")

	// Broadcast after detach must not panic and must still reach b
	s.router.SendToZone(model.ZoneCity, model.EventChatMessage, nil)

	_, open := <-a
	s.False(open, "detached channel is closed")
	s.Len(s.drain(b), 1)
}

func (s *RouterSuite) TestDetachIsIdempotent() {
	s.router.Attach("a")
	s.router.Detach("a")
	s.router.Detach("a")
	s.Equal(0, s.router.ClientCount())
}

func (s *RouterSuite) TestFullBufferDropsInsteadOfBlocking() {
	a := s.router.Attach("a")
	s.router.Subscribe("a", model.ZoneCity)

	for i := 0; i < sendBufferSize+10; i++ {
		s.router.SendToZone(model.ZoneCity, model.EventSceneSync, nil)
	}

	s.Len(s.drain(a), sendBufferSize)
}

func (s *RouterSuite) TestEnvelopeShape() {
	a := s.router.Attach("a")
	s.router.SendTo("a", model.EventScoreUpdate, model.ScoreUpdatePayload{Score: 105, StyleTier: 0})

	msgs := s.drain(a)
	s.Require().Len(msgs, 1)
	s.Equal(model.EventScoreUpdate, msgs[0].Type)
}
