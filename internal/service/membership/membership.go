package membership

import (
	"errors"
	"sync"

	"github.com/humanbelnik/livepoll/internal/model"
)

var ErrDuplicateVote = errors.New("duplicate vote")

// Record is a point-in-time copy of one poll's room.
type Record struct {
	Connected int
	Voted     int
	// Completed latches once a vote made the room complete.
	Completed bool
}

// AllVoted is the live completion rule: every connected student voted and
// at least one student is connected.
func (r Record) AllVoted() bool {
	return r.Connected > 0 && r.Voted >= r.Connected
}

type Outcome struct {
	Accepted  bool
	Completed bool
}

type room struct {
	connected map[model.ConnID]struct{}
	// voters never shrink for the poll's lifetime, disconnects included
	voters    map[string]struct{}
	completed bool
}

func newRoom() *room {
	return &room{
		connected: make(map[model.ConnID]struct{}),
		voters:    make(map[string]struct{}),
	}
}

type Tracker struct {
	mu    sync.Mutex
	rooms map[model.PollID]*room
}

func New() *Tracker {
	return &Tracker{
		rooms: make(map[model.PollID]*room),
	}
}

func (t *Tracker) room(pollID model.PollID) *room {
	r, ok := t.rooms[pollID]
	if !ok {
		r = newRoom()
		t.rooms[pollID] = r
	}
	return r
}

func (t *Tracker) Join(connID model.ConnID, pollID model.PollID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.room(pollID).connected[connID] = struct{}{}
}

// Leave drops connID from a single room.
func (t *Tracker) Leave(connID model.ConnID, pollID model.PollID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r, ok := t.rooms[pollID]; ok {
		delete(r.connected, connID)
	}
}

// LeaveAll is called once per connection, on disconnect.
func (t *Tracker) LeaveAll(connID model.ConnID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, r := range t.rooms {
		delete(r.connected, connID)
	}
}

func (t *Tracker) CountConnected(pollID model.PollID) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r, ok := t.rooms[pollID]; ok {
		return len(r.connected)
	}
	return 0
}

func (t *Tracker) CountVoted(pollID model.PollID) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r, ok := t.rooms[pollID]; ok {
		return len(r.voters)
	}
	return 0
}

func (t *Tracker) HasVoted(pollID model.PollID, voterID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if r, ok := t.rooms[pollID]; ok {
		_, voted := r.voters[voterID]
		return voted
	}
	return false
}

func (t *Tracker) Record(pollID model.PollID) Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.rooms[pollID]
	if !ok {
		return Record{}
	}
	return Record{
		Connected: len(r.connected),
		Voted:     len(r.voters),
		Completed: r.completed,
	}
}

// RecordVote accepts voterID once per poll. Callers must only invoke it after
// the vote was durably stored. It never publishes anything; completion is
// reported back for the caller to fan out.
func (t *Tracker) RecordVote(pollID model.PollID, voterID string) (Outcome, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r := t.room(pollID)
	if _, ok := r.voters[voterID]; ok {
		return Outcome{}, ErrDuplicateVote
	}
	r.voters[voterID] = struct{}{}

	complete := len(r.connected) > 0 && len(r.voters) >= len(r.connected)
	if complete {
		r.completed = true
	}
	return Outcome{Accepted: true, Completed: complete}, nil
}
