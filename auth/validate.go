package auth

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/user/redditclone-go/apperror"
)

const (
	minUsernameLength = 3
	minPasswordLength = 4

	msgInvalidEmail  = "email is invalid"
	msgShortUsername = "username cannot be empty or less than 2 characters long"
	msgUsernameHasAt = "username cannot contain an @ symbol"
	msgWeakPassword  = "password cannot be empty or less than 3 characters long"
	msgUsernameTaken = "username already exists"
	msgEmailTaken    = "email already exists"
	msgUnknownUser   = "that username doesn't exist"
	msgBadPassword   = "incorrect password"
	msgTokenExpired  = "token expired"
	msgUserGone      = "user no longer exists"
)

// validateRegister checks the registration input and returns the first problem
// found, or nil. The order of the checks is part of the contract: clients see
// the email error before any username error, and so on.
func validateRegister(v *validator.Validate, input RegisterInput) []apperror.FieldError {
	if err := v.Struct(input); err != nil {
		return apperror.NewFieldErrors("email", apperror.CodeInvalidEmail, msgInvalidEmail)
	}

	if utf8.RuneCountInString(input.Username) < minUsernameLength {
		return apperror.NewFieldErrors("username", apperror.CodeInvalidUsername, msgShortUsername)
	}

	if strings.Contains(input.Username, "@") {
		return apperror.NewFieldErrors("username", apperror.CodeInvalidUsername, msgUsernameHasAt)
	}

	if errs := validatePassword("password", input.Password); errs != nil {
		return errs
	}

	return nil
}

func validatePassword(field, password string) []apperror.FieldError {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return apperror.NewFieldErrors(field, apperror.CodeWeakPassword, msgWeakPassword)
	}
	return nil
}
