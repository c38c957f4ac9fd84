// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// User represents an authenticated user in the system.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session represents an active user session.
type Session struct {
	Token     string
	UserID    int64
	UserAgent string
	IP        string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserRepository defines the port for user persistence operations.
// Lookups return (nil, nil) when the user does not exist.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, username, passwordHash string) (*User, error)
	Count(ctx context.Context) (int, error)
	ListIDs(ctx context.Context) ([]int64, error)
}

// SessionRepository defines the port for session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}

// Role distinguishes end users from the batch scheduler.
type Role string

const (
	RoleUser      Role = "user"
	RoleScheduler Role = "scheduler"
)

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID int64
	Role   Role
}

// Authorize resolves the user an operation targets. A zero target means the
// principal itself. Users may only act on themselves; the scheduler may act
// on anyone but must name a target.
func (p Principal) Authorize(target int64) (int64, error) {
	switch p.Role {
	case RoleScheduler:
		if target <= 0 {
			return 0, &ValidationError{Field: "userId", Value: target, Reason: "required for scheduler calls"}
		}
		return target, nil
	case RoleUser:
		if target == 0 || target == p.UserID {
			return p.UserID, nil
		}
	}
	return 0, ErrForbidden
}
