package users

import (
	"context"

	"github.com/user/redditclone-go/apperror"
)

var (
	// ErrDuplicateUsername is returned by Create when the username is taken.
	ErrDuplicateUsername = apperror.NewConflictError("username already exists", nil)
	// ErrDuplicateEmail is returned by Create when the email is taken.
	ErrDuplicateEmail = apperror.NewConflictError("email already exists", nil)
)

// Repository is the storage contract for users.
// Lookups that find nothing return an apperror NotFound error.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdatePassword(ctx context.Context, id int, hashedPassword string) error
}
