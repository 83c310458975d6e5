package data

import (
	"context"

	"github.com/PaulBabatuyi/semx/internal/normalize"
)

// UsersStore performs user record operations.
type UsersStore struct {
	// db is the shared document store; all sets live in the same snapshot
	db *DocumentStore
}

// NewUsersStore returns a UsersStore over the shared document store.
func NewUsersStore(db *DocumentStore) *UsersStore {
	return &UsersStore{db: db}
}

// CreateUser inserts a new user with an already-hashed password.
// The duplicate check and the insert happen under one write lock.
func (u *UsersStore) CreateUser(ctx context.Context, user User) (*User, error) {
	user.Email = normalize.Email(user.Email)
	if user.ID == "" {
		user.ID = NewID()
	}

	err := u.db.Update(ctx, func(doc *Document) error {
		if doc.userByEmail(user.Email) != nil {
			return ErrUserExists
		}
		doc.Users = append(doc.Users, user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail finds a user by (normalized) email.
func (u *UsersStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return u.find(ctx, func(doc *Document) *User { return doc.userByEmail(normalize.Email(email)) })
}

// GetUserByID finds a user by id.
func (u *UsersStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	return u.find(ctx, func(doc *Document) *User { return doc.user(id) })
}

func (u *UsersStore) find(ctx context.Context, lookup func(*Document) *User) (*User, error) {
	var found User
	err := u.db.View(ctx, func(doc *Document) error {
		p := lookup(doc)
		if p == nil {
			return ErrUserNotFound
		}
		found = *p // copy out; the snapshot must not escape the lock
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// SetAvailability overwrites the user's availability flag.
func (u *UsersStore) SetAvailability(ctx context.Context, id string, available bool) (*User, error) {
	var updated User
	err := u.db.Update(ctx, func(doc *Document) error {
		p := doc.user(id)
		if p == nil {
			return ErrUserNotFound
		}
		p.IsAvailable = available
		updated = *p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
