package apperror

// Code identifies the kind of a FieldError independently of its message, so
// clients and tests do not have to match on human-readable text.
type Code string

const (
	CodeInvalidEmail       Code = "INVALID_EMAIL"
	CodeInvalidUsername    Code = "INVALID_USERNAME"
	CodeWeakPassword       Code = "WEAK_PASSWORD"
	CodeDuplicateField     Code = "DUPLICATE_FIELD"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
	CodeUserGone           Code = "USER_GONE"
)

// FieldError describes one validation failure on one input field.
// It is returned inside response payloads, never raised as an error.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    Code   `json:"code"`
}

// NewFieldErrors is a shorthand for the common single-failure case.
func NewFieldErrors(field string, code Code, message string) []FieldError {
	return []FieldError{{Field: field, Message: message, Code: code}}
}

// ToErrorMap flattens field errors into field -> message, keeping the first
// message per field. Forms use it to place messages next to their inputs.
func ToErrorMap(errs []FieldError) map[string]string {
	m := make(map[string]string, len(errs))
	for _, e := range errs {
		if _, seen := m[e.Field]; !seen {
			m[e.Field] = e.Message
		}
	}
	return m
}
