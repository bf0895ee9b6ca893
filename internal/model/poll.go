package model

import (
	"time"

	"github.com/google/uuid"
)

type PollID = string

const EmptyPollID PollID = ""

func NewPollID() PollID {
	return uuid.New().String()
}

type Option struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

type Response struct {
	StudentID           string `json:"studentId"`
	SelectedOptionIndex int    `json:"selectedOptionIndex"`
}

type Poll struct {
	ID        PollID     `json:"_id"`
	Question  string     `json:"question"`
	Options   []Option   `json:"options"`
	CreatedBy string     `json:"createdBy"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Responses []Response `json:"responses"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// HasVoted reports whether studentID already has a durable response.
func (p *Poll) HasVoted(studentID string) bool {
	for _, r := range p.Responses {
		if r.StudentID == studentID {
			return true
		}
	}
	return false
}

func (p *Poll) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
}

// Clone returns a deep copy so that stores can hand polls out without
// sharing option and response slices with callers.
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	c := *p
	c.Options = append([]Option(nil), p.Options...)
	c.Responses = append([]Response(nil), p.Responses...)
	if p.ExpiresAt != nil {
		t := *p.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}

type Order int

const (
	NewestFirst Order = iota
	OldestFirst
)
