// Package posts, as part of the posts module.
// This file, `models.go`, defines the Post entity and the input structs
// used when creating posts.
package posts

import "time"

// Post is a single link/text submission.
// CreatorID is always taken from the session of the user who created it,
// never from client input.
type Post struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"` // Empty when the post has no body.
	CreatorID int       `json:"creatorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateInput is the client-supplied part of a new post.
type CreateInput struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}
