package web

import (
	"github.com/user/redditclone-go/apperror"
)

// User is the part of a user the pages display.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Post as listed on the home page. CreatedAt is a Unix-millisecond timestamp;
// Cursor continues the listing after this post.
type Post struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Text      string `json:"text"`
	CreatorID int    `json:"creatorId"`
	CreatedAt string `json:"createdAt"`
	Cursor    string `json:"cursor"`
}

type userResponse struct {
	Errors []apperror.FieldError `json:"errors"`
	User   *User                 `json:"user"`
}

// pageData is passed to every template.
type pageData struct {
	Me         *User
	Form       map[string]string
	Errors     map[string]string
	Posts      []Post
	NextCursor string
	Next       string
	Token      string
	Sent       bool
}

const userFields = `id username email`

const (
	meQuery = `query { me { ` + userFields + ` } }`

	postsQuery = `query Posts($limit: Int!, $cursor: String) {
  posts(limit: $limit, cursor: $cursor) { id title text creatorId createdAt cursor }
}`

	loginMutation = `mutation Login($usernameOrEmail: String!, $password: String!) {
  login(usernameOrEmail: $usernameOrEmail, password: $password) {
    errors { field message code }
    user { ` + userFields + ` }
  }
}`

	registerMutation = `mutation Register($options: UsernamePasswordInput!) {
  register(options: $options) {
    errors { field message code }
    user { ` + userFields + ` }
  }
}`

	logoutMutation = `mutation { logout }`

	forgotPasswordMutation = `mutation ForgotPassword($email: String!) { forgotPassword(email: $email) }`

	changePasswordMutation = `mutation ChangePassword($token: String!, $newPassword: String!) {
  changePassword(token: $token, newPassword: $newPassword) {
    errors { field message code }
    user { ` + userFields + ` }
  }
}`

	createPostMutation = `mutation CreatePost($input: PostInput!) {
  createPost(input: $input) { id }
}`
)
