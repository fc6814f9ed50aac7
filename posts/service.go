// Package posts, as part of the posts module.
// This file, `service.go`, contains the business rules for posts: page size
// limits, cursor handling, authentication and ownership checks. Storage is
// delegated to a Repository.
package posts

import (
	"context"
	"strings"

	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/auth"
	"github.com/user/redditclone-go/logging"
	"github.com/user/redditclone-go/session"
)

// MaxPageSize caps the number of posts a single List call returns.
const MaxPageSize = 50

// Service implements the post operations.
type Service struct {
	repo Repository
	log  logging.Logger
}

// NewService creates a new Service backed by repo.
func NewService(repo Repository, log logging.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// List returns a page of posts, newest first.
// A non-positive limit means "as many as allowed"; anything above MaxPageSize is capped.
// cursor, when given, is a value produced by CursorAfter or a FormatTimestamp timestamp.
func (s *Service) List(ctx context.Context, limit int, cursor *string) ([]Post, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	if cursor == nil || *cursor == "" {
		return s.repo.List(ctx, limit, nil)
	}

	c, err := ParseCursor(*cursor)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, limit, &c)
}

// Get returns the post, or nil when it does not exist.
func (s *Service) Get(ctx context.Context, id int) (*Post, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// Create stores a new post owned by the logged-in user.
func (s *Service) Create(ctx context.Context, sess *session.Session, input CreateInput) (*Post, error) {
	userID, err := auth.RequireAuth(sess)
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperror.NewValidationError("title must not be empty", nil)
	}

	p, err := s.repo.Create(ctx, &Post{Title: title, Text: input.Text, CreatorID: userID})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "post created", "postID", p.ID, "creatorID", userID)
	return p, nil
}

// Update changes the title of a post owned by the logged-in user and returns
// the post as stored afterwards. A nil title leaves the post untouched.
// It returns nil when the post does not exist.
func (s *Service) Update(ctx context.Context, sess *session.Session, id int, title *string) (*Post, error) {
	userID, err := auth.RequireAuth(sess)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil || existing == nil {
		return nil, err
	}
	if existing.CreatorID != userID {
		return nil, apperror.NewUnauthorizedError("not authorized", nil)
	}

	if title == nil {
		return existing, nil
	}
	if strings.TrimSpace(*title) == "" {
		return nil, apperror.NewValidationError("title must not be empty", nil)
	}

	updated, err := s.repo.UpdateTitle(ctx, id, strings.TrimSpace(*title))
	if err != nil {
		// Deleted between the read and the update.
		if apperror.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return updated, nil
}

// Delete removes a post owned by the logged-in user. Deleting a post that does
// not exist succeeds.
func (s *Service) Delete(ctx context.Context, sess *session.Session, id int) (bool, error) {
	userID, err := auth.RequireAuth(sess)
	if err != nil {
		return false, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return true, nil
	}
	if existing.CreatorID != userID {
		return false, apperror.NewUnauthorizedError("not authorized", nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return false, err
	}
	s.log.Info(ctx, "post deleted", "postID", id, "userID", userID)
	return true, nil
}
