package auth

import (
	"context"
	"errors"
	"sync"
	"time"
)

// LocalUserRepository is an in-memory UserRepository, backing the "local
// table" half of principal resolution (§4.7). Like the in-memory audit
// logger, it exists so the auth package has no database dependency of its
// own; a durable store is a drop-in replacement for the same interface.
type LocalUserRepository struct {
	mu    sync.RWMutex
	byID  map[string]*User
	names map[string]string // username -> id
}

// NewLocalUserRepository constructs an empty repository.
func NewLocalUserRepository() *LocalUserRepository {
	return &LocalUserRepository{
		byID:  make(map[string]*User),
		names: make(map[string]string),
	}
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// GetByID retrieves a user by ID
func (r *LocalUserRepository) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(u), nil
}

// GetByUsername retrieves a user by username
func (r *LocalUserRepository) GetByUsername(_ context.Context, username string) (*User, error) {
	if username == "" {
		return nil, errors.New("username cannot be empty")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.names[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return cloneUser(r.byID[id]), nil
}

// Create creates a new user
func (r *LocalUserRepository) Create(_ context.Context, u *User) error {
	if u == nil || u.ID == "" || u.Username == "" || u.PasswordHash == "" {
		return errors.New("user ID, username, and password hash are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[u.Username]; exists {
		return ErrUserExists
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.byID[u.ID] = cloneUser(u)
	r.names[u.Username] = u.ID
	return nil
}

// Update updates an existing user
func (r *LocalUserRepository) Update(_ context.Context, u *User) error {
	if u == nil || u.ID == "" {
		return errors.New("user ID is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.byID[u.ID]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = existing.PasswordHash
	u.CreatedAt = existing.CreatedAt
	u.UpdatedAt = time.Now()
	r.byID[u.ID] = cloneUser(u)
	return nil
}

// UpdateLastLogin updates the user's last login timestamp
func (r *LocalUserRepository) UpdateLastLogin(_ context.Context, userID string, loginTime time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.LastLogin = &loginTime
	return nil
}

// UpdatePassword updates the user's password hash
func (r *LocalUserRepository) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[userID]
	if !ok {
		return ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.PasswordChanged = time.Now()
	return nil
}

// MemorySessionRepository is an in-memory SessionRepository. Session count
// stays small (one per logged-in operator) so no eviction policy beyond
// CleanExpired is needed.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	byID     map[string]*Session
	byToken  map[string]string // tokenID -> sessionID
}

// NewMemorySessionRepository constructs an empty repository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		byID:    make(map[string]*Session),
		byToken: make(map[string]string),
	}
}

func cloneSession(s *Session) *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

// GetByID retrieves a session by ID
func (r *MemorySessionRepository) GetByID(_ context.Context, id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return cloneSession(s), nil
}

// GetByTokenID retrieves a session by token ID (jti)
func (r *MemorySessionRepository) GetByTokenID(_ context.Context, tokenID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byToken[tokenID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return cloneSession(r.byID[id]), nil
}

// Create creates a new session
func (r *MemorySessionRepository) Create(_ context.Context, s *Session) error {
	if s == nil || s.ID == "" || s.UserID == "" || s.TokenID == "" {
		return errors.New("session ID, user ID, and token ID are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s.CreatedAt = time.Now()
	r.byID[s.ID] = cloneSession(s)
	r.byToken[s.TokenID] = s.ID
	return nil
}

// UpdateLastActivity updates the session's last activity time
func (r *MemorySessionRepository) UpdateLastActivity(_ context.Context, sessionID string, activityTime time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	s.LastActivity = activityTime
	return nil
}

// Revoke revokes a session
func (r *MemorySessionRepository) Revoke(_ context.Context, sessionID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	now := time.Now()
	s.Revoked = true
	s.RevokedAt = &now
	s.RevokedReason = reason
	return nil
}

// RevokeAllForUser revokes all sessions for a user
func (r *MemorySessionRepository) RevokeAllForUser(_ context.Context, userID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, s := range r.byID {
		if s.UserID == userID && !s.Revoked {
			s.Revoked = true
			s.RevokedAt = &now
			s.RevokedReason = reason
		}
	}
	return nil
}

// RevokeAllForUserExcept revokes all sessions for a user except the specified one
func (r *MemorySessionRepository) RevokeAllForUserExcept(_ context.Context, userID, exceptSessionID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for id, s := range r.byID {
		if s.UserID == userID && id != exceptSessionID && !s.Revoked {
			s.Revoked = true
			s.RevokedAt = &now
			s.RevokedReason = reason
		}
	}
	return nil
}

// GetActiveForUser retrieves all active sessions for a user, newest activity
// first.
func (r *MemorySessionRepository) GetActiveForUser(_ context.Context, userID string) ([]*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	now := time.Now()
	var out []*Session
	for _, s := range r.byID {
		if s.UserID == userID && !s.Revoked && s.ExpiresAt.After(now) {
			out = append(out, cloneSession(s))
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].LastActivity.After(out[j-1].LastActivity); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

// CleanExpired removes expired sessions
func (r *MemorySessionRepository) CleanExpired(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	count := 0
	for id, s := range r.byID {
		if s.ExpiresAt.Before(now) {
			delete(r.byID, id)
			delete(r.byToken, s.TokenID)
			count++
		}
	}
	return count, nil
}
