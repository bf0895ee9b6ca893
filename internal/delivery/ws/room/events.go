package ws_room

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/humanbelnik/livepoll/internal/model"
)

// Inbound event names.
const (
	EventJoinPoll      = "join_poll"
	EventVoteCast      = "vote_cast"
	EventGetLatestPoll = "get_latest_poll"
	EventJoinChat      = "join_chat"
	EventKickUser      = "kick_user"
	EventChatMessage   = "chat_message"
)

// Outbound event names.
const (
	EventNewQuestion   = "new_question"
	EventPollUpdated   = "poll_updated"
	EventPollEnded     = "poll_ended"
	EventJoinSuccess   = "join_success"
	EventUsernameTaken = "username_taken"
	EventChatUsers     = "chat_users"
	EventKickedOut     = "kicked_out"
	EventError         = "error"
)

const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeInvalidPayload = "INVALID_PAYLOAD"
	ErrCodeInvalidChatID  = "INVALID_IDENTITY"
)

var (
	ErrUnknownEvent   = errors.New("unknown event type")
	ErrInvalidPayload = errors.New("invalid payload")
)

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PollEndedPayload struct {
	PollID model.PollID `json:"pollId"`
}

type UsernameTakenPayload struct {
	Message string `json:"message"`
}

// Envelope is the raw frame a client sends.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound is one decoded client event: exactly one of the concrete
// *Request types below.
type Inbound interface {
	event() string
}

// JoinPollRequest accepts either a bare poll id or {pollId, role}.
type JoinPollRequest struct {
	PollID model.PollID `json:"pollId"`
	Role   model.Role   `json:"role,omitempty"`
}

// VoteCastRequest is a client's notice that it voted. UpdatedPoll is read
// off the wire only to be discarded.
type VoteCastRequest struct {
	PollID      model.PollID    `json:"pollId"`
	StudentID   string          `json:"studentId"`
	UpdatedPoll json.RawMessage `json:"updatedPoll,omitempty"`
}

type GetLatestPollRequest struct{}

type JoinChatRequest struct {
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
}

type KickUserRequest struct {
	SocketID model.ConnID `json:"socketId"`
}

// ChatMessageRequest carries only the text; sender identity and timestamp
// come from the server.
type ChatMessageRequest struct {
	Message string `json:"message"`
}

func (JoinPollRequest) event() string      { return EventJoinPoll }
func (VoteCastRequest) event() string      { return EventVoteCast }
func (GetLatestPollRequest) event() string { return EventGetLatestPoll }
func (JoinChatRequest) event() string      { return EventJoinChat }
func (KickUserRequest) event() string      { return EventKickUser }
func (ChatMessageRequest) event() string   { return EventChatMessage }

func (r *JoinPollRequest) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		r.PollID = id
		return nil
	}

	type plain JoinPollRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = JoinPollRequest(p)
	return nil
}

// Decode parses a raw frame into its Inbound variant.
func Decode(data []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	switch env.Type {
	case EventJoinPoll:
		var req JoinPollRequest
		if err := decodePayload(env.Payload, &req); err != nil || req.PollID == model.EmptyPollID {
			return nil, ErrInvalidPayload
		}
		return req, nil
	case EventVoteCast:
		var req VoteCastRequest
		if err := decodePayload(env.Payload, &req); err != nil || req.PollID == model.EmptyPollID || req.StudentID == "" {
			return nil, ErrInvalidPayload
		}
		return req, nil
	case EventGetLatestPoll:
		return GetLatestPollRequest{}, nil
	case EventJoinChat:
		var req JoinChatRequest
		if err := decodePayload(env.Payload, &req); err != nil {
			return nil, ErrInvalidPayload
		}
		return req, nil
	case EventKickUser:
		var req KickUserRequest
		if err := decodePayload(env.Payload, &req); err != nil || req.SocketID == "" {
			return nil, ErrInvalidPayload
		}
		return req, nil
	case EventChatMessage:
		var req ChatMessageRequest
		if err := decodePayload(env.Payload, &req); err != nil {
			return nil, ErrInvalidPayload
		}
		return req, nil
	}
	return nil, ErrUnknownEvent
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return ErrInvalidPayload
	}
	return json.Unmarshal(raw, v)
}
