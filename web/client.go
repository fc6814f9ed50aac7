package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/graphql-go/graphql"

	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/auth"
)

// Client runs GraphQL operations against the schema in-process. The context
// passed to Do must carry the graph.RequestContext of the current request so
// that resolvers see the browser's session.
type Client struct {
	schema *graphql.Schema
}

func NewClient(schema *graphql.Schema) *Client {
	return &Client{schema: schema}
}

// Error is returned when an operation produced GraphQL errors. Status is the
// highest HTTP status the resolvers attached to them; errors raised by the
// GraphQL layer itself (bad query, bad variables) count as 400.
type Error struct {
	Messages []string
	Status   int
}

// Public reports whether the messages may be shown to the user.
func (e *Error) Public() bool {
	return e.Status < http.StatusInternalServerError
}

func (e *Error) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

// IsNotAuthenticated reports whether err carries the auth gate's message.
func IsNotAuthenticated(err error) bool {
	gqlErr, ok := err.(*Error)
	if !ok {
		return false
	}
	for _, m := range gqlErr.Messages {
		if strings.Contains(m, auth.NotAuthenticatedMessage) {
			return true
		}
	}
	return false
}

// Do executes query and decodes the response data into out.
func (c *Client) Do(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error {
	result := graphql.Do(graphql.Params{
		Schema:         *c.schema,
		RequestString:  query,
		VariableValues: vars,
		Context:        ctx,
	})
	if result.HasErrors() {
		gqlErr := &Error{Messages: make([]string, 0, len(result.Errors)), Status: http.StatusBadRequest}
		for _, e := range result.Errors {
			gqlErr.Messages = append(gqlErr.Messages, e.Message)
			if status, ok := e.Extensions["status"].(int); ok && status > gqlErr.Status {
				gqlErr.Status = status
			}
		}
		return gqlErr
	}
	if out == nil {
		return nil
	}

	raw, err := json.Marshal(result.Data)
	if err != nil {
		return apperror.NewInternalError("failed to encode graphql data", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperror.NewInternalError(fmt.Sprintf("failed to decode graphql data into %T", out), err)
	}
	return nil
}
