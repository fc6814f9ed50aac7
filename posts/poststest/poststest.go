// Package poststest provides an in-memory posts.Repository for tests.
package poststest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/posts"
)

type Repo struct {
	mu     sync.Mutex
	nextID int
	posts  map[int]posts.Post
}

func NewRepo() *Repo {
	return &Repo{posts: map[int]posts.Post{}}
}

func (r *Repo) List(_ context.Context, limit int, cursor *posts.Cursor) ([]posts.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]posts.Post, 0, len(r.posts))
	for _, p := range r.posts {
		if cursor != nil && !cursor.Includes(p) {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *Repo) FindByID(_ context.Context, id int) (*posts.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, apperror.NewNotFoundError("post not found", nil)
	}
	return &p, nil
}

// Create keeps a preset CreatedAt so tests can lay posts out in time.
func (r *Repo) Create(_ context.Context, post *posts.Post) (*posts.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p := *post
	p.ID = r.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = p.CreatedAt
	r.posts[p.ID] = p
	return &p, nil
}

func (r *Repo) UpdateTitle(_ context.Context, id int, title string) (*posts.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, apperror.NewNotFoundError("post not found", nil)
	}
	p.Title = title
	p.UpdatedAt = time.Now()
	r.posts[id] = p
	return &p, nil
}

func (r *Repo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}
