package session

import (
	"strings"
	"sync"
)

// User holds profile-sourced identity. Users live independently of
// sessions and are never evicted.
type User struct {
	UserID    int64
	FirstName string
	LastName  string
}

// FullName joins the profile name parts.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Users is an in-memory profile registry.
type Users struct {
	mu    sync.RWMutex
	users map[int64]User
}

// NewUsers creates an empty registry.
func NewUsers() *Users {
	return &Users{users: make(map[int64]User)}
}

// GetOrCreate returns the stored user, recording the provided profile
// name on first sight.
func (s *Users) GetOrCreate(id int64, first, last string) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u
	}
	u := User{UserID: id, FirstName: first, LastName: last}
	s.users[id] = u
	return u
}

// SetName overwrites the stored profile name.
func (s *Users) SetName(id int64, first, last string) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := User{UserID: id, FirstName: first, LastName: last}
	s.users[id] = u
	return u
}
