package graph

import (
	"context"

	"github.com/graphql-go/graphql"

	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/auth"
	"github.com/user/redditclone-go/logging"
	"github.com/user/redditclone-go/posts"
	"github.com/user/redditclone-go/session"
)

// Resolver holds the services the schema resolves against.
type Resolver struct {
	auth  *auth.Service
	posts *posts.Service
	log   logging.Logger
}

func NewResolver(authService *auth.Service, postService *posts.Service, log logging.Logger) *Resolver {
	return &Resolver{auth: authService, posts: postService, log: log}
}

func (r *Resolver) logger(ctx context.Context) logging.Logger {
	if rc := RequestContextFrom(ctx); rc != nil && rc.Logger != nil {
		return rc.Logger
	}
	return r.log
}

// session returns the request's session. Operations that write to the session
// cannot run without one.
func (r *Resolver) session(ctx context.Context) (*session.Session, error) {
	rc := RequestContextFrom(ctx)
	if rc == nil || rc.Session == nil {
		return nil, apperror.NewInternalError("request has no session", nil)
	}
	return rc.Session, nil
}

func optionalString(args map[string]interface{}, name string) *string {
	v, ok := args[name].(string)
	if !ok {
		return nil
	}
	return &v
}

// userResponse turns a service result into the value resolved for a
// UserResponse field.
func (r *Resolver) userResponse(ctx context.Context, res *auth.UserResponse, err error) (interface{}, error) {
	if err != nil {
		return nil, r.publicError(ctx, err)
	}
	return res, nil
}

// Query

func (r *Resolver) hello(p graphql.ResolveParams) (interface{}, error) {
	return "hello world", nil
}

func (r *Resolver) listPosts(p graphql.ResolveParams) (interface{}, error) {
	limit, _ := p.Args["limit"].(int)
	list, err := r.posts.List(p.Context, limit, optionalString(p.Args, "cursor"))
	if err != nil {
		return nil, r.publicError(p.Context, err)
	}
	return list, nil
}

func (r *Resolver) post(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(int)
	post, err := r.posts.Get(p.Context, id)
	if err != nil {
		return nil, r.publicError(p.Context, err)
	}
	if post == nil {
		return nil, nil
	}
	return post, nil
}

func (r *Resolver) me(p graphql.ResolveParams) (interface{}, error) {
	sess, err := r.session(p.Context)
	if err != nil {
		return nil, r.publicError(p.Context, err)
	}
	user, err := r.auth.Me(p.Context, sess)
	if err != nil {
		return nil, r.publicError(p.Context, err)
	}
	if user == nil {
		return nil, nil
	}
	return user, nil
}

// Mutation

func (r *Resolver) createPost(p graphql.ResolveParams) (interface{}, error) {
	sess, err := r.session(p.Context)
	if err != nil {
		return nil, r.publicError(p.Context, err)
	}
	in, _ := p.Args["input"].(map[string]interface{})
	input := posts.CreateInput{}
	input.Title, _ = in["title"].(string)
	input.Text, _ = in["text"].(string)

	post, err := r.posts.Create(p.Context, sess, input)
	if err != nil {
		return nil, r.publicError(p.Context, err)
	}
	return post, nil
}

func (r *Resolver) updatePost(p graphql.ResolveParams) (interface{}, error) {
	sess, err := r.session(p.Context)
	if err != nil {
		return nil, r.publicError(p.Context, err)
	}
	id, _ := p.Args["id"].(int)

	post, err := r.posts.Update(p.Context, sess, id, optionalString(p.Args, "title"))
	if err != nil {
		return nil, r.publicError(p.Context, err)
	}
	if post == nil {
		return nil, nil
	}
	return post, nil
}

func (r *Resolver) deletePost(p graphql.ResolveParams) (interface{}, error) {
	sess, err := r.session(p.Context)
	if err != nil {
		return nil, r.publicError(p.Context, err)
	}
	id, _ := p.Args["id"].(int)

	ok, err := r.posts.Delete(p.Context, sess, id)
	if err != nil {
		return nil, r.publicError(p.Context, err)
	}
	return ok, nil
}

func (r *Resolver) register(p graphql.ResolveParams) (interface{}, error) {
	sess, err := r.session(p.Context)
	if err != nil {
		return nil, r.publicError(p.Context, err)
	}
	opts, _ := p.Args["options"].(map[string]interface{})
	input := auth.RegisterInput{}
	input.Username, _ = opts["username"].(string)
	input.Email, _ = opts["email"].(string)
	input.Password, _ = opts["password"].(string)

	res, err := r.auth.Register(p.Context, sess, input)
	return r.userResponse(p.Context, res, err)
}

func (r *Resolver) login(p graphql.ResolveParams) (interface{}, error) {
	sess, err := r.session(p.Context)
	if err != nil {
		return nil, r.publicError(p.Context, err)
	}
	usernameOrEmail, _ := p.Args["usernameOrEmail"].(string)
	password, _ := p.Args["password"].(string)

	res, err := r.auth.Login(p.Context, sess, usernameOrEmail, password)
	return r.userResponse(p.Context, res, err)
}

func (r *Resolver) logout(p graphql.ResolveParams) (interface{}, error) {
	sess, err := r.session(p.Context)
	if err != nil {
		return nil, r.publicError(p.Context, err)
	}
	return r.auth.Logout(p.Context, sess), nil
}

func (r *Resolver) forgotPassword(p graphql.ResolveParams) (interface{}, error) {
	email, _ := p.Args["email"].(string)
	return r.auth.ForgotPassword(p.Context, email), nil
}

func (r *Resolver) changePassword(p graphql.ResolveParams) (interface{}, error) {
	sess, err := r.session(p.Context)
	if err != nil {
		return nil, r.publicError(p.Context, err)
	}
	token, _ := p.Args["token"].(string)
	newPassword, _ := p.Args["newPassword"].(string)

	res, err := r.auth.ChangePassword(p.Context, sess, token, newPassword)
	return r.userResponse(p.Context, res, err)
}
