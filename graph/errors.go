package graph

import (
	"context"
	"net/http"

	"github.com/user/redditclone-go/apperror"
)

// resolverError is an error as reported in the GraphQL response. The HTTP
// status of the underlying AppError travels in the error's extensions.
type resolverError struct {
	message string
	status  int
}

func (e *resolverError) Error() string {
	return e.message
}

// Extensions is picked up by graphql-go when formatting the error.
func (e *resolverError) Extensions() map[string]interface{} {
	return map[string]interface{}{"status": e.status}
}

// errInternal is what clients see for any failure they are not meant to know about.
var errInternal = &resolverError{message: "internal error", status: http.StatusInternalServerError}

// publicError converts err into the error reported in the GraphQL response.
// Client-facing AppErrors keep their message (without the cause); everything
// else is logged and replaced by errInternal.
func (r *Resolver) publicError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := apperror.FromError(err); ok && appErr.Public() {
		return &resolverError{message: appErr.Message, status: appErr.StatusCode()}
	}
	r.logger(ctx).Error(ctx, "resolver failed", "error", err)
	return errInternal
}
