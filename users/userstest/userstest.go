// Package userstest provides an in-memory users.Repository for tests.
package userstest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/users"
)

// Repo enforces the same uniqueness rules as the database.
type Repo struct {
	mu      sync.Mutex
	nextID  int
	byID    map[int]*users.User
	creates int
}

func NewRepo() *Repo {
	return &Repo{byID: map[int]*users.User{}}
}

func (r *Repo) Create(_ context.Context, u *users.User) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Username == u.Username {
			return nil, users.ErrDuplicateUsername
		}
		if existing.Email == u.Email {
			return nil, users.ErrDuplicateEmail
		}
	}
	r.nextID++
	r.creates++
	stored := *u
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.byID[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (r *Repo) find(match func(*users.User) bool) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if match(u) {
			out := *u
			return &out, nil
		}
	}
	return nil, apperror.NewNotFoundError("user not found", nil)
}

func (r *Repo) FindByID(_ context.Context, id int) (*users.User, error) {
	return r.find(func(u *users.User) bool { return u.ID == id })
}

func (r *Repo) FindByUsername(_ context.Context, username string) (*users.User, error) {
	return r.find(func(u *users.User) bool { return u.Username == username })
}

func (r *Repo) FindByEmail(_ context.Context, email string) (*users.User, error) {
	return r.find(func(u *users.User) bool { return u.Email == strings.ToLower(email) })
}

func (r *Repo) UpdatePassword(_ context.Context, id int, hashed string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return apperror.NewNotFoundError("user not found", nil)
	}
	u.HashedPassword = hashed
	u.UpdatedAt = time.Now()
	return nil
}

// Remove deletes a user behind the service's back.
func (r *Repo) Remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
}

// Creates returns the number of successful Create calls.
func (r *Repo) Creates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creates
}
