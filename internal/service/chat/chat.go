package chat

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/humanbelnik/livepoll/internal/model"
)

var (
	ErrIdentityTaken   = errors.New("username already taken")
	ErrInvalidIdentity = errors.New("invalid username or role")
	ErrNotJoined       = errors.New("sender has not joined the chat")
	ErrEmptyMessage    = errors.New("empty message")
	ErrUnauthorized    = errors.New("only teachers can eject users")
	ErrSelfEject       = errors.New("cannot eject yourself")
	ErrUnknownTarget   = errors.New("eject target not found")
)

type identity struct {
	username string
	role     model.Role
	seq      uint64
}

// Gate owns the chat roster. At most one connection holds a given username,
// compared case-insensitively.
type Gate struct {
	mu    sync.Mutex
	users map[model.ConnID]identity
	seq   uint64
}

func New() *Gate {
	return &Gate{
		users: make(map[model.ConnID]identity),
	}
}

func (g *Gate) Join(connID model.ConnID, username string, role model.Role) error {
	username = strings.TrimSpace(username)
	if username == "" || !role.Valid() {
		return ErrInvalidIdentity
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	for id, u := range g.users {
		if id != connID && strings.EqualFold(u.username, username) {
			return ErrIdentityTaken
		}
	}

	seq := g.seq
	if prev, ok := g.users[connID]; ok {
		seq = prev.seq
	} else {
		g.seq++
	}
	g.users[connID] = identity{username: username, role: role, seq: seq}
	return nil
}

// Leave reports whether connID held an identity.
func (g *Gate) Leave(connID model.ConnID) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.users[connID]; !ok {
		return false
	}
	delete(g.users, connID)
	return true
}

// Eject removes target on behalf of a registered teacher. Teachers may eject
// other teachers but not themselves.
func (g *Gate) Eject(requester, target model.ConnID) (model.ChatUser, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	req, ok := g.users[requester]
	if !ok || req.role != model.RoleTeacher {
		return model.ChatUser{}, ErrUnauthorized
	}
	if requester == target {
		return model.ChatUser{}, ErrSelfEject
	}
	u, ok := g.users[target]
	if !ok {
		return model.ChatUser{}, ErrUnknownTarget
	}
	delete(g.users, target)

	return model.ChatUser{SocketID: target, Username: u.username, Role: u.role}, nil
}

// Message stamps text with the server clock.
func (g *Gate) Message(connID model.ConnID, text string, now time.Time) (model.ChatMessage, error) {
	g.mu.Lock()
	u, ok := g.users[connID]
	g.mu.Unlock()

	if !ok {
		return model.ChatMessage{}, ErrNotJoined
	}
	if strings.TrimSpace(text) == "" {
		return model.ChatMessage{}, ErrEmptyMessage
	}

	return model.ChatMessage{
		Username:  u.username,
		Role:      u.role,
		Message:   text,
		Timestamp: now,
	}, nil
}

func (g *Gate) RoleOf(connID model.ConnID) (model.Role, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, ok := g.users[connID]
	return u.role, ok
}

func (g *Gate) IsMember(connID model.ConnID) bool {
	_, ok := g.RoleOf(connID)
	return ok
}

// Roster lists identities in join order.
func (g *Gate) Roster() []model.ChatUser {
	g.mu.Lock()
	defer g.mu.Unlock()

	type entry struct {
		user model.ChatUser
		seq  uint64
	}
	entries := make([]entry, 0, len(g.users))
	for id, u := range g.users {
		entries = append(entries, entry{
			user: model.ChatUser{SocketID: id, Username: u.username, Role: u.role},
			seq:  u.seq,
		})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.seq, b.seq)
	})

	users := make([]model.ChatUser, len(entries))
	for i, e := range entries {
		users[i] = e.user
	}
	return users
}
