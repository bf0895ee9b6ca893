package model

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

type ConnID = string

type ChatUser struct {
	SocketID ConnID `json:"socketId"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

type ChatMessage struct {
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
