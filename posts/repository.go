package posts

import (
	"context"
)

// Repository is the storage contract for posts.
// FindByID returns an apperror NotFound error when the post does not exist.
type Repository interface {
	List(ctx context.Context, limit int, cursor *Cursor) ([]Post, error)
	FindByID(ctx context.Context, id int) (*Post, error)
	Create(ctx context.Context, post *Post) (*Post, error)
	UpdateTitle(ctx context.Context, id int, title string) (*Post, error)
	Delete(ctx context.Context, id int) error
}
