package graph

import (
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"
)

// NewHandler serves the schema over HTTP (GET and POST). The GraphQL
// Playground is served to browsers outside production.
// Requests must already carry a RequestContext (see ContextMiddleware).
func NewHandler(schema *graphql.Schema, production bool) http.Handler {
	return handler.New(&handler.Config{
		Schema:     schema,
		Pretty:     !production,
		Playground: !production,
	})
}
