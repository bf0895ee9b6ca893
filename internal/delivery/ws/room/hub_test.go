package ws_room

import (
	"context"
	"sync"
	"testing"
	"time"

	infra_memory_poll "github.com/humanbelnik/livepoll/internal/infra/memory/poll"
	"github.com/humanbelnik/livepoll/internal/model"
	"github.com/humanbelnik/livepoll/internal/service/chat"
	"github.com/humanbelnik/livepoll/internal/service/membership"
	usecase_poll "github.com/humanbelnik/livepoll/internal/usecase/poll"
	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
)

type HubUnitSuite struct {
	suite.Suite
}

type fakePeer struct {
	id string

	mu     sync.Mutex
	events []Event
	closed bool
	full   bool
}

func newPeer(id string) *fakePeer {
	return &fakePeer{id: id}
}

func (p *fakePeer) ID() model.ConnID { return p.id }

func (p *fakePeer) Send(ev Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.full {
		return false
	}
	p.events = append(p.events, ev)
	return true
}

func (p *fakePeer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *fakePeer) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

func (p *fakePeer) last() Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return Event{}
	}
	return p.events[len(p.events)-1]
}

func (p *fakePeer) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

func (p *fakePeer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

var fixedNow = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

type resources struct {
	hub     *Hub
	usecase *usecase_poll.Usecase
	repo    *infra_memory_poll.Driver
	tracker *membership.Tracker
	ctx     context.Context
}

func initResources() *resources {
	repo := infra_memory_poll.New()
	tracker := membership.New()
	clock := func() time.Time { return fixedNow }
	uc := usecase_poll.New(repo, tracker, usecase_poll.WithClock(clock))
	hub := NewHub(tracker, chat.New(), uc, WithClock(clock))
	uc.SetPublisher(hub)

	return &resources{hub: hub, usecase: uc, repo: repo, tracker: tracker, ctx: context.Background()}
}

func (r *resources) connect(ids ...string) []*fakePeer {
	peers := make([]*fakePeer, len(ids))
	for i, id := range ids {
		peers[i] = newPeer(id)
		r.hub.Attach(peers[i])
	}
	return peers
}

func (r *resources) send(connID, frame string) {
	r.hub.Dispatch(r.ctx, connID, []byte(frame))
}

func (r *resources) createPoll(t provider.T) *model.Poll {
	exp := fixedNow.Add(time.Minute)
	poll, err := r.usecase.Create(r.ctx, usecase_poll.CreateInput{
		Question:  "Largest planet?",
		Options:   []string{"Jupiter", "Mars"},
		CreatedBy: "teacher",
		ExpiresAt: &exp,
	})
	t.Require().NoError(err)
	return poll
}

func (s *HubUnitSuite) TestNewQuestionReachesEveryone(t provider.T) {
	t.Parallel()
	r := initResources()
	peers := r.connect("a", "b")

	poll := r.createPoll(t)

	for _, p := range peers {
		t.Require().Equal([]string{EventNewQuestion}, p.types())
		t.Assert().Equal(poll.ID, p.last().Payload.(*model.Poll).ID)
	}
}

func (s *HubUnitSuite) TestJoinPoll(t provider.T) {
	t.Parallel()

	t.Run("Should accept bare id and object form", func(t provider.T) {
		t.Parallel()
		r := initResources()
		r.connect("a", "b", "teacher")

		r.send("a", `{"type":"join_poll","payload":"p1"}`)
		r.send("b", `{"type":"join_poll","payload":{"pollId":"p1"}}`)
		r.send("teacher", `{"type":"join_poll","payload":{"pollId":"p1","role":"teacher"}}`)

		t.Assert().Equal(2, r.tracker.CountConnected("p1"))
	})

	t.Run("Should be idempotent", func(t provider.T) {
		t.Parallel()
		r := initResources()
		r.connect("a")

		r.send("a", `{"type":"join_poll","payload":"p1"}`)
		r.send("a", `{"type":"join_poll","payload":"p1"}`)

		t.Assert().Equal(1, r.tracker.CountConnected("p1"))
	})

	t.Run("Should stop counting a teacher once it joins chat", func(t provider.T) {
		t.Parallel()
		r := initResources()
		r.connect("t")

		r.send("t", `{"type":"join_poll","payload":"p1"}`)
		t.Require().Equal(1, r.tracker.CountConnected("p1"))

		r.send("t", `{"type":"join_chat","payload":{"username":"Ms T","role":"teacher"}}`)
		t.Assert().Zero(r.tracker.CountConnected("p1"))
	})
}

func (s *HubUnitSuite) TestVoteFanOut(t provider.T) {
	t.Parallel()

	t.Run("Should end poll after every student voted", func(t provider.T) {
		t.Parallel()
		r := initResources()
		peers := r.connect("a", "b", "outsider")
		poll := r.createPoll(t)
		for _, p := range peers {
			p.reset()
		}
		r.send("a", `{"type":"join_poll","payload":"`+poll.ID+`"}`)
		r.send("b", `{"type":"join_poll","payload":"`+poll.ID+`"}`)

		_, err := r.usecase.Vote(r.ctx, poll.ID, "alice", 0)
		t.Require().NoError(err)
		t.Assert().Equal([]string{EventPollUpdated}, peers[0].types())

		_, err = r.usecase.Vote(r.ctx, poll.ID, "bob", 1)
		t.Require().NoError(err)

		t.Assert().Equal([]string{EventPollUpdated, EventPollUpdated, EventPollEnded}, peers[0].types())
		t.Assert().Equal([]string{EventPollUpdated, EventPollUpdated, EventPollEnded}, peers[1].types())
		t.Assert().Empty(peers[2].types())
		t.Assert().Equal(PollEndedPayload{PollID: poll.ID}, peers[1].last().Payload)
	})

	t.Run("Should drop vote notice already recorded by REST", func(t provider.T) {
		t.Parallel()
		r := initResources()
		peers := r.connect("a", "b")
		poll := r.createPoll(t)
		r.send("a", `{"type":"join_poll","payload":"`+poll.ID+`"}`)
		r.send("b", `{"type":"join_poll","payload":"`+poll.ID+`"}`)
		_, err := r.usecase.Vote(r.ctx, poll.ID, "alice", 0)
		t.Require().NoError(err)
		peers[0].reset()

		r.send("a", `{"type":"vote_cast","payload":{"pollId":"`+poll.ID+`","studentId":"alice","updatedPoll":{"question":"forged"}}}`)

		t.Assert().Empty(peers[0].types())
		t.Assert().Equal(1, r.tracker.CountVoted(poll.ID))
	})

	t.Run("Should ignore vote notice without stored vote", func(t provider.T) {
		t.Parallel()
		r := initResources()
		peers := r.connect("a")
		poll := r.createPoll(t)
		r.send("a", `{"type":"join_poll","payload":"`+poll.ID+`"}`)
		peers[0].reset()

		r.send("a", `{"type":"vote_cast","payload":{"pollId":"`+poll.ID+`","studentId":"mallory"}}`)

		t.Assert().Empty(peers[0].types())
		t.Assert().Zero(r.tracker.CountVoted(poll.ID))
	})

	t.Run("Should track stored vote announced over websocket", func(t provider.T) {
		t.Parallel()
		r := initResources()
		peers := r.connect("a")
		poll := r.createPoll(t)
		r.send("a", `{"type":"join_poll","payload":"`+poll.ID+`"}`)
		peers[0].reset()
		_, err := r.repo.AppendVote(r.ctx, poll.ID, "alice", 1)
		t.Require().NoError(err)

		r.send("a", `{"type":"vote_cast","payload":{"pollId":"`+poll.ID+`","studentId":"alice"}}`)

		t.Assert().Equal([]string{EventPollUpdated, EventPollEnded}, peers[0].types())
		updated := peers[0].events[0].Payload.(*model.Poll)
		t.Assert().Equal(1, updated.Options[1].Votes)
	})
}

func (s *HubUnitSuite) TestGetLatestPoll(t provider.T) {
	t.Parallel()
	r := initResources()
	peers := r.connect("a")

	r.send("a", `{"type":"get_latest_poll"}`)
	t.Require().Empty(peers[0].types())

	poll := r.createPoll(t)
	peers[0].reset()
	r.send("a", `{"type":"join_poll","payload":"unknown"}`)
	r.send("a", `{"type":"join_poll","payload":"`+poll.ID+`"}`)

	r.send("a", `{"type":"get_latest_poll"}`)

	t.Require().Equal([]string{EventPollUpdated}, peers[0].types())
	t.Assert().Equal(poll.ID, peers[0].last().Payload.(*model.Poll).ID)
}

func (s *HubUnitSuite) TestChat(t provider.T) {
	t.Parallel()

	t.Run("Should reject case-insensitive duplicate and free name on disconnect", func(t provider.T) {
		t.Parallel()
		r := initResources()
		peers := r.connect("c1", "c2", "c3")

		r.send("c1", `{"type":"join_chat","payload":{"username":"Alice","role":"student"}}`)
		t.Require().Equal([]string{EventJoinSuccess, EventChatUsers}, peers[0].types())

		r.send("c2", `{"type":"join_chat","payload":{"username":"alice","role":"student"}}`)
		t.Require().Equal([]string{EventUsernameTaken}, peers[1].types())
		t.Assert().Len(peers[0].types(), 2)

		r.hub.Detach("c1")
		r.send("c3", `{"type":"join_chat","payload":{"username":"alice","role":"student"}}`)
		t.Assert().Equal([]string{EventJoinSuccess, EventChatUsers}, peers[2].types())
	})

	t.Run("Should broadcast roster on disconnect", func(t provider.T) {
		t.Parallel()
		r := initResources()
		peers := r.connect("c1", "c2")
		r.send("c1", `{"type":"join_chat","payload":{"username":"Alice","role":"student"}}`)
		r.send("c2", `{"type":"join_chat","payload":{"username":"Bob","role":"student"}}`)
		peers[1].reset()

		r.hub.Detach("c1")

		t.Require().Equal([]string{EventChatUsers}, peers[1].types())
		t.Assert().Equal([]model.ChatUser{{SocketID: "c2", Username: "Bob", Role: model.RoleStudent}}, peers[1].last().Payload)
	})

	t.Run("Should stamp messages with server identity and time", func(t provider.T) {
		t.Parallel()
		r := initResources()
		peers := r.connect("c1", "c2", "lurker")
		r.send("c1", `{"type":"join_chat","payload":{"username":"Alice","role":"student"}}`)
		r.send("c2", `{"type":"join_chat","payload":{"username":"Bob","role":"teacher"}}`)
		for _, p := range peers {
			p.reset()
		}

		r.send("c1", `{"type":"chat_message","payload":{"message":"hi","username":"Forged","role":"teacher"}}`)
		r.send("lurker", `{"type":"chat_message","payload":{"message":"spam"}}`)

		want := model.ChatMessage{Username: "Alice", Role: model.RoleStudent, Message: "hi", Timestamp: fixedNow}
		t.Assert().Equal(want, peers[1].last().Payload)
		t.Assert().Len(peers[0].types(), 1)
		t.Assert().Empty(peers[2].types())
	})

	t.Run("Should report invalid identity", func(t provider.T) {
		t.Parallel()
		r := initResources()
		peers := r.connect("c1")

		r.send("c1", `{"type":"join_chat","payload":{"username":"Alice","role":"admin"}}`)

		t.Require().Equal([]string{EventError}, peers[0].types())
	})
}

func (s *HubUnitSuite) TestKick(t provider.T) {
	t.Parallel()

	t.Run("Should ignore kick from a student", func(t provider.T) {
		t.Parallel()
		r := initResources()
		peers := r.connect("s1", "s2")
		r.send("s1", `{"type":"join_chat","payload":{"username":"Alice","role":"student"}}`)
		r.send("s2", `{"type":"join_chat","payload":{"username":"Bob","role":"student"}}`)
		for _, p := range peers {
			p.reset()
		}

		r.send("s1", `{"type":"kick_user","payload":{"socketId":"s2"}}`)

		t.Assert().Empty(peers[0].types())
		t.Assert().Empty(peers[1].types())
		t.Assert().False(peers[1].isClosed())
	})

	t.Run("Should eject student on teacher request", func(t provider.T) {
		t.Parallel()
		r := initResources()
		peers := r.connect("t", "s")
		r.send("t", `{"type":"join_chat","payload":{"username":"Ms T","role":"teacher"}}`)
		r.send("s", `{"type":"join_chat","payload":{"username":"Bob","role":"student"}}`)
		for _, p := range peers {
			p.reset()
		}

		r.send("t", `{"type":"kick_user","payload":{"socketId":"s"}}`)

		t.Assert().Equal([]string{EventKickedOut}, peers[1].types())
		t.Assert().True(peers[1].isClosed())
		t.Require().Equal([]string{EventChatUsers}, peers[0].types())
		t.Assert().Equal([]model.ChatUser{{SocketID: "t", Username: "Ms T", Role: model.RoleTeacher}}, peers[0].last().Payload)

		r.hub.Detach("s")
		t.Assert().Len(peers[0].types(), 1)
	})

	t.Run("Should refuse self eject", func(t provider.T) {
		t.Parallel()
		r := initResources()
		peers := r.connect("t")
		r.send("t", `{"type":"join_chat","payload":{"username":"Ms T","role":"teacher"}}`)
		peers[0].reset()

		r.send("t", `{"type":"kick_user","payload":{"socketId":"t"}}`)

		t.Assert().Empty(peers[0].types())
		t.Assert().False(peers[0].isClosed())
	})
}

func (s *HubUnitSuite) TestDisconnectKeepsVotes(t provider.T) {
	t.Parallel()
	r := initResources()
	r.connect("a", "b")
	poll := r.createPoll(t)
	r.send("a", `{"type":"join_poll","payload":"`+poll.ID+`"}`)
	r.send("b", `{"type":"join_poll","payload":"`+poll.ID+`"}`)
	_, err := r.usecase.Vote(r.ctx, poll.ID, "alice", 0)
	t.Require().NoError(err)

	r.hub.Detach("a")

	t.Assert().Equal(1, r.tracker.CountConnected(poll.ID))
	t.Assert().Equal(1, r.tracker.CountVoted(poll.ID))
}

func (s *HubUnitSuite) TestMalformedFrames(t provider.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		frame string
		code  string
	}{
		{"Should reject non-json", `not json`, ErrCodeInvalidMessage},
		{"Should reject unknown type", `{"type":"shout"}`, ErrCodeInvalidMessage},
		{"Should reject missing poll id", `{"type":"join_poll"}`, ErrCodeInvalidPayload},
		{"Should reject vote without student", `{"type":"vote_cast","payload":{"pollId":"p"}}`, ErrCodeInvalidPayload},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t provider.T) {
			t.Parallel()
			r := initResources()
			peers := r.connect("a")

			r.send("a", tc.frame)

			t.Require().Equal([]string{EventError}, peers[0].types())
			t.Assert().Equal(tc.code, peers[0].last().Payload.(ErrorPayload).Code)
		})
	}
}

func (s *HubUnitSuite) TestFullBufferDropsOnlyThatPeer(t provider.T) {
	t.Parallel()
	r := initResources()
	peers := r.connect("slow", "fast")
	peers[0].full = true

	r.createPoll(t)

	t.Assert().Empty(peers[0].types())
	t.Assert().Equal([]string{EventNewQuestion}, peers[1].types())
}

func TestHubUnitSuite(t *testing.T) {
	suite.RunSuite(t, new(HubUnitSuite))
}
