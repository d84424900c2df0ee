// Package storage contains a storage interface.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Decentr-net/hesiod/internal/entities"
)

//go:generate mockgen -destination=./mock/storage.go -package=mock -source=storage.go

// ErrNotFound ...
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert violates a uniqueness constraint.
var ErrConflict = errors.New("already exists")

// Storage provides methods for interacting with database.
type Storage interface {
	GetAccountByUsername(ctx context.Context, username string) (*entities.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*entities.Account, error)
	GetAccountByIdentityToken(ctx context.Context, token string) (*entities.Account, error)
	CreateAccount(ctx context.Context, p *CreateAccountParams) (*entities.Account, error)

	GetAvatar(ctx context.Context, username string) ([]byte, error)
	SetAvatar(ctx context.Context, username string, image []byte) error

	ListPosts(ctx context.Context, p *ListPostsParams) ([]*entities.Post, error)
	GetPost(ctx context.Context, id int64) (*entities.Post, error)
	CreatePost(ctx context.Context, p *CreatePostParams) (*entities.Post, error)
	// DeletePost removes the post owned by author. ErrNotFound is returned
	// when there is no such post or author is not its owner.
	DeletePost(ctx context.Context, id int64, author string) error
	// LikePost increments the post's like counter by one in a single
	// statement. ErrNotFound is returned when there is no such post or the
	// post belongs to likedBy.
	LikePost(ctx context.Context, id int64, likedBy string) (*entities.Post, error)

	ListComments(ctx context.Context, postID int64) ([]*entities.Comment, error)
	CreateComment(ctx context.Context, p *CreateCommentParams) (*entities.Comment, error)
}

// CreateAccountParams ...
type CreateAccountParams struct {
	Username      string
	IdentityToken string
	CreatedAt     time.Time
}

// ListPostsParams ...
type ListPostsParams struct {
	Author        *string
	TitleContains *string
}

// CreatePostParams ...
type CreatePostParams struct {
	Title     string
	Body      string
	Author    string
	CreatedAt time.Time
}

// CreateCommentParams ...
type CreateCommentParams struct {
	PostID    int64
	Body      string
	Author    string
	CreatedAt time.Time
}
