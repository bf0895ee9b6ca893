// Package lifecycle derives a poll's state and the status snapshot from the
// latest poll, its room record and the wall clock. Nothing here is stored:
// every caller recomputes on read so the REST status endpoint and the
// realtime completion checks cannot disagree.
package lifecycle

import (
	"time"

	"github.com/humanbelnik/livepoll/internal/model"
	"github.com/humanbelnik/livepoll/internal/service/membership"
)

type State int

// None stands for "no poll exists". Created only covers a poll that was
// built but not yet persisted and is never returned by StateOf.
const (
	None State = iota
	Created
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case None:
		return "none"
	case Created:
		return "created"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// StateOf returns None for a nil poll and Closed for a superseded poll, an expired poll, or one whose
// room completed. A stored poll is otherwise Open.
func StateOf(poll *model.Poll, latest bool, rec membership.Record, now time.Time) State {
	if poll == nil {
		return None
	}
	if !latest || poll.Expired(now) || rec.Completed || rec.AllVoted() {
		return Closed
	}
	return Open
}

func AcceptsVotes(poll *model.Poll, latest bool, rec membership.Record, now time.Time) bool {
	return StateOf(poll, latest, rec, now) == Open
}

// CanCreate gates the creation of a new poll: allowed when nothing was ever
// created or when the latest poll is no longer open.
func CanCreate(latest *model.Poll, rec membership.Record, now time.Time) bool {
	if latest == nil {
		return true
	}
	return StateOf(latest, true, rec, now) == Closed
}

func Status(latest *model.Poll, rec membership.Record, now time.Time) model.Status {
	if latest == nil {
		return model.Status{Active: false}
	}
	return model.Status{
		Active:        true,
		PollID:        latest.ID,
		Question:      latest.Question,
		TotalStudents: rec.Connected,
		TotalVotes:    rec.Voted,
		Expired:       latest.Expired(now),
		AllVoted:      rec.AllVoted(),
		ExpiresAt:     latest.ExpiresAt,
	}
}
