package db

import (
	"context"
	"errors"
)

var (
	// ErrNotFound signals an absent record. It is an answer, not a failure.
	ErrNotFound = errors.New("record not found")
	// ErrUserExists is returned when a username is already taken
	ErrUserExists = errors.New("username already exists")
)

// UserStore persists user identities
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)
}

// MessageStore is the append-only chat log
type MessageStore interface {
	// AppendMessage assigns the next id and the current time
	AppendMessage(ctx context.Context, userID *int64, role Role, content string) (*Message, error)
	// ListMessages returns the newest limit messages oldest-first. A nil
	// userID selects every user and limit <= 0 means no limit.
	ListMessages(ctx context.Context, userID *int64, limit int) ([]Message, error)
}

// SettingsStore keeps at most one Settings record per user
type SettingsStore interface {
	// GetSettings returns ErrNotFound when the user has no record
	GetSettings(ctx context.Context, userID int64) (*Settings, error)
	// UpsertSettings merges update into the existing record, or creates one
	// with defaults for omitted fields
	UpsertSettings(ctx context.Context, userID int64, update SettingsUpdate) (*Settings, error)
}

// Database defines the interface for all persistence operations.
// Each backend (memory, postgres, redis, sqlite) implements it.
type Database interface {
	UserStore
	MessageStore
	SettingsStore
	Close() error
}
