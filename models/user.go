package models

import (
	"context"
	"time"
)

// Identity is a registered user. Entries are never mutated or removed.
type Identity struct {
	Id             int64     `json:"id"`
	Username       string    `json:"username"`
	CredentialHash string    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UserRepository stores identities keyed by username. Insert must check for
// an existing username and append in a single critical section, returning
// errors.ErrUserAlreadyExists when the name is taken. FindByUsername returns
// (nil, nil) when no identity matches.
type UserRepository interface {
	Exists(ctx context.Context, username string) (bool, error)
	Insert(ctx context.Context, identity *Identity) error
	FindByUsername(ctx context.Context, username string) (*Identity, error)
}
