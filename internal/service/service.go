// Package service contains interface for service business-logic.
package service

import (
	"context"
	"errors"

	"github.com/Decentr-net/hesiod/internal/entities"
)

//go:generate mockgen -destination=./mock/service.go -package=mock -source=service.go

// ErrNotFound ...
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned when the chosen username belongs to another account.
var ErrUsernameTaken = errors.New("username is taken")

// ErrNotPermitted is returned when the requester is not allowed to perform
// the mutation (self-like, foreign delete, missing post).
var ErrNotPermitted = errors.New("not permitted")

// PostWithComments ...
type PostWithComments struct {
	entities.Post
	Comments []*entities.Comment
}

// Service ...
type Service interface {
	// ResolveIdentity derives a pseudonymous token from the external
	// identifier and resolves the local account. ErrNotFound with a non-empty
	// token means the caller has to finish registration.
	ResolveIdentity(ctx context.Context, externalID string) (*entities.Account, string, error)
	RegisterAccount(ctx context.Context, username, identityToken string) (*entities.Account, error)
	RegisterLocalAccount(ctx context.Context, username string) (*entities.Account, error)
	LoginAccount(ctx context.Context, username string) (*entities.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*entities.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*entities.Account, error)

	ListFeed(ctx context.Context) ([]*PostWithComments, error)
	SearchPosts(ctx context.Context, keyword string) ([]*entities.Post, error)
	ListAccountPosts(ctx context.Context, username string) ([]*entities.Post, error)
	CreatePost(ctx context.Context, title, body, author string) (*entities.Post, error)
	AddComment(ctx context.Context, postID int64, body, author string) (*entities.Comment, error)
	LikePost(ctx context.Context, postID int64, likedBy string) (*entities.Post, error)
	DeletePost(ctx context.Context, postID int64, requester string) error

	Avatar(ctx context.Context, username string) ([]byte, error)
}
