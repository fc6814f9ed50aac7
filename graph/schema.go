// Package graph exposes the application over GraphQL.
// The schema is declared explicitly with graphql-go object and field
// definitions; each field resolves through a method on Resolver, which
// delegates to the auth and posts services.
package graph

import (
	"github.com/graphql-go/graphql"

	"github.com/user/redditclone-go/apperror"
	"github.com/user/redditclone-go/auth"
	"github.com/user/redditclone-go/posts"
	"github.com/user/redditclone-go/users"
)

var (
	nonNullInt    = graphql.NewNonNull(graphql.Int)
	nonNullString = graphql.NewNonNull(graphql.String)
)

// Timestamps are sent as Unix milliseconds.

func postTimestamp(created bool) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		var post posts.Post
		switch src := p.Source.(type) {
		case posts.Post:
			post = src
		case *posts.Post:
			post = *src
		default:
			return nil, nil
		}
		if created {
			return posts.FormatTimestamp(post.CreatedAt), nil
		}
		return posts.FormatTimestamp(post.UpdatedAt), nil
	}
}

func userTimestamp(created bool) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		var user users.User
		switch src := p.Source.(type) {
		case users.User:
			user = src
		case *users.User:
			user = *src
		default:
			return nil, nil
		}
		if created {
			return posts.FormatTimestamp(user.CreatedAt), nil
		}
		return posts.FormatTimestamp(user.UpdatedAt), nil
	}
}

// NewSchema builds the GraphQL schema over r.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: nonNullInt},
			"username":  &graphql.Field{Type: nonNullString},
			"email":     &graphql.Field{Type: nonNullString},
			"createdAt": &graphql.Field{Type: nonNullString, Resolve: userTimestamp(true)},
			"updatedAt": &graphql.Field{Type: nonNullString, Resolve: userTimestamp(false)},
		},
	})

	postType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Post",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: nonNullInt},
			"title":     &graphql.Field{Type: nonNullString},
			"text":      &graphql.Field{Type: nonNullString},
			"creatorId": &graphql.Field{Type: nonNullInt},
			"createdAt": &graphql.Field{Type: nonNullString, Resolve: postTimestamp(true)},
			"updatedAt": &graphql.Field{Type: nonNullString, Resolve: postTimestamp(false)},
			"cursor": &graphql.Field{
				Type:        nonNullString,
				Description: "Pass as posts(cursor:) to get the posts after this one.",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					switch src := p.Source.(type) {
					case posts.Post:
						return posts.CursorAfter(src), nil
					case *posts.Post:
						return posts.CursorAfter(*src), nil
					}
					return nil, nil
				},
			},
		},
	})

	fieldErrorType := graphql.NewObject(graphql.ObjectConfig{
		Name: "FieldError",
		Fields: graphql.Fields{
			"field":   &graphql.Field{Type: nonNullString},
			"message": &graphql.Field{Type: nonNullString},
			"code": &graphql.Field{
				Type: nonNullString,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					fe, _ := p.Source.(apperror.FieldError)
					return string(fe.Code), nil
				},
			},
		},
	})

	userResponseType := graphql.NewObject(graphql.ObjectConfig{
		Name: "UserResponse",
		Fields: graphql.Fields{
			"errors": &graphql.Field{
				Type: graphql.NewList(graphql.NewNonNull(fieldErrorType)),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					res, _ := p.Source.(*auth.UserResponse)
					if res == nil || len(res.Errors) == 0 {
						return nil, nil
					}
					return res.Errors, nil
				},
			},
			"user": &graphql.Field{
				Type: userType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					res, _ := p.Source.(*auth.UserResponse)
					if res == nil || res.User == nil {
						return nil, nil
					}
					return res.User, nil
				},
			},
		},
	})

	postInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PostInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"title": &graphql.InputObjectFieldConfig{Type: nonNullString},
			"text":  &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	usernamePasswordInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UsernamePasswordInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"username": &graphql.InputObjectFieldConfig{Type: nonNullString},
			"email":    &graphql.InputObjectFieldConfig{Type: nonNullString},
			"password": &graphql.InputObjectFieldConfig{Type: nonNullString},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"hello": &graphql.Field{Type: nonNullString, Resolve: r.hello},
			"posts": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(postType))),
				Args: graphql.FieldConfigArgument{
					"limit":  &graphql.ArgumentConfig{Type: nonNullInt},
					"cursor": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.listPosts,
			},
			"post": &graphql.Field{
				Type:    postType,
				Args:    graphql.FieldConfigArgument{"id": &graphql.ArgumentConfig{Type: nonNullInt}},
				Resolve: r.post,
			},
			"me": &graphql.Field{Type: userType, Resolve: r.me},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createPost": &graphql.Field{
				Type:    graphql.NewNonNull(postType),
				Args:    graphql.FieldConfigArgument{"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(postInput)}},
				Resolve: r.createPost,
			},
			"updatePost": &graphql.Field{
				Type: postType,
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: nonNullInt},
					"title": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.updatePost,
			},
			"deletePost": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Args:    graphql.FieldConfigArgument{"id": &graphql.ArgumentConfig{Type: nonNullInt}},
				Resolve: r.deletePost,
			},
			"register": &graphql.Field{
				Type:    graphql.NewNonNull(userResponseType),
				Args:    graphql.FieldConfigArgument{"options": &graphql.ArgumentConfig{Type: graphql.NewNonNull(usernamePasswordInput)}},
				Resolve: r.register,
			},
			"login": &graphql.Field{
				Type: graphql.NewNonNull(userResponseType),
				Args: graphql.FieldConfigArgument{
					"usernameOrEmail": &graphql.ArgumentConfig{Type: nonNullString},
					"password":        &graphql.ArgumentConfig{Type: nonNullString},
				},
				Resolve: r.login,
			},
			"logout": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean), Resolve: r.logout},
			"forgotPassword": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Args:    graphql.FieldConfigArgument{"email": &graphql.ArgumentConfig{Type: nonNullString}},
				Resolve: r.forgotPassword,
			},
			"changePassword": &graphql.Field{
				Type: graphql.NewNonNull(userResponseType),
				Args: graphql.FieldConfigArgument{
					"token":       &graphql.ArgumentConfig{Type: nonNullString},
					"newPassword": &graphql.ArgumentConfig{Type: nonNullString},
				},
				Resolve: r.changePassword,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}
