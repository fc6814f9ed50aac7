// Package auth, as part of the authentication module.
// This file, `dto.go`, defines the Data Transfer Objects (DTOs) that enter and
// leave the auth service: the registration input and the user-or-errors result.
package auth

import (
	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/users"
)

// RegisterInput carries the registration form.
// The `validate` tags are read by go-playground/validator; only the email format
// is checked that way, the remaining rules live in validateRegister.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"`
}

// UserResponse is the result of every operation that logs a user in.
// Exactly one of Errors and User is set.
type UserResponse struct {
	Errors []apperror.FieldError `json:"errors,omitempty"`
	User   *users.User           `json:"user,omitempty"`
}

func fieldErrors(field string, code apperror.Code, message string) *UserResponse {
	return &UserResponse{Errors: apperror.NewFieldErrors(field, code, message)}
}
