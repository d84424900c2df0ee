// Package impl is implementation of service interface.
package impl

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Decentr-net/hesiod/internal/avatar"
	"github.com/Decentr-net/hesiod/internal/entities"
	"github.com/Decentr-net/hesiod/internal/service"
	"github.com/Decentr-net/hesiod/internal/storage"
)

type srv struct {
	s           storage.Storage
	identityKey []byte
}

// New creates new instance of service.
func New(s storage.Storage, identityKey []byte) service.Service {
	return srv{
		s:           s,
		identityKey: identityKey,
	}
}

func (s srv) ResolveIdentity(ctx context.Context, externalID string) (*entities.Account, string, error) {
	token := s.deriveToken(externalID)

	a, err := s.s.GetAccountByIdentityToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, token, service.ErrNotFound
		}

		return nil, "", fmt.Errorf("failed to get account by token: %w", err)
	}

	return a, token, nil
}

func (s srv) RegisterAccount(ctx context.Context, username, identityToken string) (*entities.Account, error) {
	a, err := s.s.CreateAccount(ctx, &storage.CreateAccountParams{
		Username:      username,
		IdentityToken: identityToken,
		CreatedAt:     time.Now().UTC(),
	})

	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, service.ErrUsernameTaken
		}

		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return a, nil
}

func (s srv) RegisterLocalAccount(ctx context.Context, username string) (*entities.Account, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random: %w", err)
	}

	return s.RegisterAccount(ctx, username, hex.EncodeToString(b))
}

func (s srv) LoginAccount(ctx context.Context, username string) (*entities.Account, error) {
	a, err := s.s.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, service.ErrNotFound
		}

		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return a, nil
}

func (s srv) GetAccountByID(ctx context.Context, id int64) (*entities.Account, error) {
	a, err := s.s.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, service.ErrNotFound
		}

		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return a, nil
}

func (s srv) GetAccountByUsername(ctx context.Context, username string) (*entities.Account, error) {
	return s.LoginAccount(ctx, username)
}

func (s srv) ListFeed(ctx context.Context) ([]*service.PostWithComments, error) {
	pp, err := s.s.ListPosts(ctx, &storage.ListPostsParams{})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	out := make([]*service.PostWithComments, len(pp))
	for i, p := range pp {
		cc, err := s.s.ListComments(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list comments: %w", err)
		}

		out[i] = &service.PostWithComments{
			Post:     *p,
			Comments: cc,
		}
	}

	return out, nil
}

func (s srv) SearchPosts(ctx context.Context, keyword string) ([]*entities.Post, error) {
	pp, err := s.s.ListPosts(ctx, &storage.ListPostsParams{TitleContains: &keyword})
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}

	return pp, nil
}

func (s srv) ListAccountPosts(ctx context.Context, username string) ([]*entities.Post, error) {
	pp, err := s.s.ListPosts(ctx, &storage.ListPostsParams{Author: &username})
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return pp, nil
}

func (s srv) CreatePost(ctx context.Context, title, body, author string) (*entities.Post, error) {
	p, err := s.s.CreatePost(ctx, &storage.CreatePostParams{
		Title:     title,
		Body:      body,
		Author:    author,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return p, nil
}

func (s srv) AddComment(ctx context.Context, postID int64, body, author string) (*entities.Comment, error) {
	c, err := s.s.CreateComment(ctx, &storage.CreateCommentParams{
		PostID:    postID,
		Body:      body,
		Author:    author,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, service.ErrNotFound
		}

		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return c, nil
}

func (s srv) LikePost(ctx context.Context, postID int64, likedBy string) (*entities.Post, error) {
	p, err := s.s.LikePost(ctx, postID, likedBy)
	if err != nil {
		// a missing post and a self-like are indistinguishable here, both are rejected
		if errors.Is(err, storage.ErrNotFound) {
			return nil, service.ErrNotPermitted
		}

		return nil, fmt.Errorf("failed to like post: %w", err)
	}

	return p, nil
}

func (s srv) DeletePost(ctx context.Context, postID int64, requester string) error {
	if err := s.s.DeletePost(ctx, postID, requester); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return service.ErrNotPermitted
		}

		return fmt.Errorf("failed to delete post: %w", err)
	}

	return nil
}

func (s srv) Avatar(ctx context.Context, username string) ([]byte, error) {
	image, err := s.s.GetAvatar(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, service.ErrNotFound
		}

		return nil, fmt.Errorf("failed to get avatar: %w", err)
	}

	if len(image) > 0 {
		return image, nil
	}

	image, err = avatar.Generate([]rune(username)[0])
	if err != nil {
		return nil, fmt.Errorf("failed to generate avatar: %w", err)
	}

	if err := s.s.SetAvatar(ctx, username, image); err != nil {
		return nil, fmt.Errorf("failed to cache avatar: %w", err)
	}

	return image, nil
}

func (s srv) deriveToken(externalID string) string {
	h := hmac.New(sha256.New, s.identityKey)
	h.Write([]byte(externalID)) // nolint:errcheck

	return hex.EncodeToString(h.Sum(nil))
}
