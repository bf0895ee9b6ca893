package ws_room

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/humanbelnik/livepoll/internal/model"
	"github.com/humanbelnik/livepoll/internal/service/chat"
	"github.com/humanbelnik/livepoll/internal/service/membership"
	usecase_poll "github.com/humanbelnik/livepoll/internal/usecase/poll"
)

// Peer is one live connection as the hub sees it.
type Peer interface {
	ID() model.ConnID
	// Send queues ev without blocking and reports whether it was accepted.
	Send(ev Event) bool
	// Close flushes queued events and ends the connection.
	Close()
}

type PollService interface {
	Get(ctx context.Context, pollID model.PollID) (*model.Poll, error)
	ConfirmVote(ctx context.Context, pollID model.PollID, studentID string) error
}

type peerState struct {
	peer Peer
	// poll rooms in join order
	polls []model.PollID
	// role announced on join_poll, empty when unknown
	role model.Role
}

// Hub routes client events to the membership tracker, the chat gate and the
// poll usecase, and fans server events out to peers.
type Hub struct {
	mu    sync.RWMutex
	peers map[model.ConnID]*peerState
	rooms map[model.PollID]map[model.ConnID]struct{}

	tracker *membership.Tracker
	gate    *chat.Gate
	polls   PollService

	now    func() time.Time
	logger *slog.Logger
}

type HubOption func(*Hub)

func WithLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) {
		h.now = now
	}
}

func NewHub(
	tracker *membership.Tracker,
	gate *chat.Gate,
	polls PollService,
	opts ...HubOption,
) *Hub {
	h := &Hub{
		peers:   make(map[model.ConnID]*peerState),
		rooms:   make(map[model.PollID]map[model.ConnID]struct{}),
		tracker: tracker,
		gate:    gate,
		polls:   polls,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Attach(p Peer) {
	h.mu.Lock()
	h.peers[p.ID()] = &peerState{peer: p}
	h.mu.Unlock()

	h.logger.Info("client connected", slog.String("conn_id", p.ID()))
}

// Detach forgets a closed connection. Its votes stay recorded.
func (h *Hub) Detach(connID model.ConnID) {
	h.mu.Lock()
	state, ok := h.peers[connID]
	if ok {
		delete(h.peers, connID)
		for _, pollID := range state.polls {
			h.leaveRoomLocked(connID, pollID)
		}
	}
	h.mu.Unlock()

	h.tracker.LeaveAll(connID)
	if h.gate.Leave(connID) {
		h.broadcastRoster()
	}

	h.logger.Info("client disconnected", slog.String("conn_id", connID))
}

func (h *Hub) leaveRoomLocked(connID model.ConnID, pollID model.PollID) {
	room, ok := h.rooms[pollID]
	if !ok {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(h.rooms, pollID)
	}
}

// Dispatch handles one raw client frame. Handlers run to completion in the
// caller's goroutine, so events of one connection are processed in order.
func (h *Hub) Dispatch(ctx context.Context, connID model.ConnID, data []byte) {
	in, err := Decode(data)
	if err != nil {
		h.logger.Debug("rejected client frame", slog.String("conn_id", connID), slog.String("error", err.Error()))
		code, msg := ErrCodeInvalidMessage, "Invalid message format"
		switch {
		case errors.Is(err, ErrUnknownEvent):
			msg = "Unknown message type"
		case errors.Is(err, ErrInvalidPayload):
			code, msg = ErrCodeInvalidPayload, "Invalid payload"
		}
		h.sendTo(connID, Event{Type: EventError, Payload: ErrorPayload{Code: code, Message: msg}})
		return
	}

	switch req := in.(type) {
	case JoinPollRequest:
		h.joinPoll(connID, req)
	case VoteCastRequest:
		h.voteCast(ctx, connID, req)
	case GetLatestPollRequest:
		h.getLatestPoll(ctx, connID)
	case JoinChatRequest:
		h.joinChat(connID, req)
	case KickUserRequest:
		h.kickUser(connID, req)
	case ChatMessageRequest:
		h.chatMessage(connID, req)
	}
}

func (h *Hub) joinPoll(connID model.ConnID, req JoinPollRequest) {
	h.mu.Lock()
	state, ok := h.peers[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if req.Role.Valid() {
		state.role = req.Role
	}
	if i := slices.Index(state.polls, req.PollID); i >= 0 {
		state.polls = slices.Delete(state.polls, i, i+1)
	}
	state.polls = append(state.polls, req.PollID)
	room, ok := h.rooms[req.PollID]
	if !ok {
		room = make(map[model.ConnID]struct{})
		h.rooms[req.PollID] = room
	}
	room[connID] = struct{}{}
	role := state.role
	h.mu.Unlock()

	if chatRole, ok := h.gate.RoleOf(connID); ok {
		role = chatRole
	}
	if role == model.RoleTeacher {
		h.logger.Debug("teacher watching poll", slog.String("conn_id", connID), slog.String("poll_id", req.PollID))
		return
	}

	h.tracker.Join(connID, req.PollID)
	h.logger.Info("student joined poll",
		slog.String("conn_id", connID),
		slog.String("poll_id", req.PollID),
		slog.Int("connected", h.tracker.CountConnected(req.PollID)))
}

func (h *Hub) voteCast(ctx context.Context, connID model.ConnID, req VoteCastRequest) {
	err := h.polls.ConfirmVote(ctx, req.PollID, req.StudentID)
	switch {
	case err == nil:
	case errors.Is(err, membership.ErrDuplicateVote):
		h.logger.Debug("duplicate vote ignored", slog.String("poll_id", req.PollID), slog.String("student_id", req.StudentID))
	case errors.Is(err, usecase_poll.ErrVoteNotStored), errors.Is(err, usecase_poll.ErrResourceNotFound):
		h.logger.Warn("vote notice without stored vote",
			slog.String("conn_id", connID),
			slog.String("poll_id", req.PollID),
			slog.String("student_id", req.StudentID))
	default:
		h.logger.Error("failed to confirm vote", slog.String("poll_id", req.PollID), slog.String("error", err.Error()))
	}
}

// getLatestPoll answers with the room the peer joined most recently, not the
// first one it joined.
func (h *Hub) getLatestPoll(ctx context.Context, connID model.ConnID) {
	h.mu.RLock()
	state, ok := h.peers[connID]
	var pollID model.PollID
	if ok && len(state.polls) > 0 {
		pollID = state.polls[len(state.polls)-1]
	}
	h.mu.RUnlock()

	if pollID == model.EmptyPollID {
		return
	}

	poll, err := h.polls.Get(ctx, pollID)
	if err != nil {
		if !errors.Is(err, usecase_poll.ErrResourceNotFound) {
			h.logger.Error("failed to fetch poll", slog.String("poll_id", pollID), slog.String("error", err.Error()))
		}
		return
	}
	h.sendTo(connID, Event{Type: EventPollUpdated, Payload: poll})
}

func (h *Hub) joinChat(connID model.ConnID, req JoinChatRequest) {
	err := h.gate.Join(connID, req.Username, req.Role)
	switch {
	case errors.Is(err, chat.ErrIdentityTaken):
		h.logger.Info("username taken", slog.String("username", req.Username))
		h.sendTo(connID, Event{Type: EventUsernameTaken, Payload: UsernameTakenPayload{
			Message: "Username already taken, please choose another.",
		}})
		return
	case err != nil:
		h.sendTo(connID, Event{Type: EventError, Payload: ErrorPayload{
			Code:    ErrCodeInvalidChatID,
			Message: "Username and a valid role are required",
		}})
		return
	}

	if req.Role == model.RoleTeacher {
		h.stopCounting(connID)
	}

	h.sendTo(connID, Event{Type: EventJoinSuccess})
	h.broadcastRoster()
	h.logger.Info("chat joined", slog.String("username", req.Username), slog.String("role", string(req.Role)))
}

// stopCounting drops a teacher from the connected-student sets of the
// poll rooms it joined before announcing its role.
func (h *Hub) stopCounting(connID model.ConnID) {
	h.mu.RLock()
	var polls []model.PollID
	if state, ok := h.peers[connID]; ok {
		polls = append(polls, state.polls...)
	}
	h.mu.RUnlock()

	for _, pollID := range polls {
		h.tracker.Leave(connID, pollID)
	}
}

func (h *Hub) kickUser(connID model.ConnID, req KickUserRequest) {
	target, err := h.gate.Eject(connID, req.SocketID)
	if err != nil {
		h.logger.Info("kick denied",
			slog.String("conn_id", connID),
			slog.String("target", req.SocketID),
			slog.String("reason", err.Error()))
		return
	}

	h.mu.RLock()
	state, ok := h.peers[target.SocketID]
	h.mu.RUnlock()
	if ok {
		state.peer.Send(Event{Type: EventKickedOut})
		state.peer.Close()
	}

	h.broadcastRoster()
	h.logger.Info("user kicked out", slog.String("username", target.Username), slog.String("by", connID))
}

func (h *Hub) chatMessage(connID model.ConnID, req ChatMessageRequest) {
	msg, err := h.gate.Message(connID, req.Message, h.now())
	if err != nil {
		h.logger.Debug("chat message dropped", slog.String("conn_id", connID), slog.String("reason", err.Error()))
		return
	}
	h.broadcastChat(Event{Type: EventChatMessage, Payload: msg})
}

func (h *Hub) broadcastRoster() {
	h.broadcastChat(Event{Type: EventChatUsers, Payload: h.gate.Roster()})
}

// broadcastChat sends ev to every connection holding a chat identity.
func (h *Hub) broadcastChat(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, state := range h.peers {
		if h.gate.IsMember(id) {
			h.deliver(state.peer, ev)
		}
	}
}

func (h *Hub) sendTo(connID model.ConnID, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if state, ok := h.peers[connID]; ok {
		h.deliver(state.peer, ev)
	}
}

func (h *Hub) broadcastToRoom(pollID model.PollID, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id := range h.rooms[pollID] {
		if state, ok := h.peers[id]; ok {
			h.deliver(state.peer, ev)
		}
	}
}

func (h *Hub) broadcastAll(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, state := range h.peers {
		h.deliver(state.peer, ev)
	}
}

func (h *Hub) deliver(p Peer, ev Event) {
	if !p.Send(ev) {
		h.logger.Warn("event dropped", slog.String("conn_id", p.ID()), slog.String("event", ev.Type))
	}
}

func (h *Hub) NewQuestion(poll *model.Poll) {
	h.broadcastAll(Event{Type: EventNewQuestion, Payload: poll})
}

func (h *Hub) PollUpdated(poll *model.Poll) {
	h.broadcastToRoom(poll.ID, Event{Type: EventPollUpdated, Payload: poll})
}

func (h *Hub) PollEnded(pollID model.PollID) {
	h.broadcastToRoom(pollID, Event{Type: EventPollEnded, Payload: PollEndedPayload{PollID: pollID}})
	h.logger.Info("poll ended", slog.String("poll_id", pollID))
}
