package model

import "time"

type Status struct {
	Active        bool       `json:"active"`
	PollID        PollID     `json:"pollId,omitempty"`
	Question      string     `json:"question,omitempty"`
	TotalStudents int        `json:"totalStudents"`
	TotalVotes    int        `json:"totalVotes"`
	Expired       bool       `json:"expired"`
	AllVoted      bool       `json:"allVoted"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}
