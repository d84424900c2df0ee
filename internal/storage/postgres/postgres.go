// Package postgres is implementation of storage interface.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Decentr-net/hesiod/internal/entities"
	"github.com/Decentr-net/hesiod/internal/storage"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type pg struct {
	ext sqlx.ExtContext
}

type accountDTO struct {
	ID            int64     `db:"id"`
	Username      string    `db:"username"`
	IdentityToken string    `db:"identity_token"`
	Avatar        []byte    `db:"avatar"`
	CreatedAt     time.Time `db:"created_at"`
}

type postDTO struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Body      string    `db:"body"`
	Author    string    `db:"author"`
	Likes     uint32    `db:"likes"`
	CreatedAt time.Time `db:"created_at"`
}

type commentDTO struct {
	ID        int64     `db:"id"`
	PostID    int64     `db:"post_id"`
	Body      string    `db:"body"`
	Author    string    `db:"author"`
	CreatedAt time.Time `db:"created_at"`
}

func (s pg) GetAccountByUsername(ctx context.Context, username string) (*entities.Account, error) {
	return s.getAccount(ctx, `username = $1`, username)
}

func (s pg) GetAccountByID(ctx context.Context, id int64) (*entities.Account, error) {
	return s.getAccount(ctx, `id = $1`, id)
}

func (s pg) GetAccountByIdentityToken(ctx context.Context, token string) (*entities.Account, error) {
	return s.getAccount(ctx, `identity_token = $1`, token)
}

func (s pg) getAccount(ctx context.Context, where string, arg interface{}) (*entities.Account, error) {
	var a accountDTO

	if err := sqlx.GetContext(ctx, s.ext, &a, fmt.Sprintf(`
			SELECT id, username, identity_token, avatar, created_at FROM account
			WHERE %s
		`, where), arg,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return toAccount(&a), nil
}

func (s pg) CreateAccount(ctx context.Context, p *storage.CreateAccountParams) (*entities.Account, error) {
	var a accountDTO

	if err := sqlx.GetContext(ctx, s.ext, &a, `
			INSERT INTO account(username, identity_token, created_at)
			VALUES($1, $2, $3)
			RETURNING id, username, identity_token, avatar, created_at
		`,
		p.Username, p.IdentityToken, p.CreatedAt.UTC(),
	); err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == uniqueViolation {
			return nil, storage.ErrConflict
		}

		return nil, fmt.Errorf("failed to exec: %w", err)
	}

	return toAccount(&a), nil
}

func (s pg) GetAvatar(ctx context.Context, username string) ([]byte, error) {
	var avatar []byte

	if err := sqlx.GetContext(ctx, s.ext, &avatar,
		`SELECT avatar FROM account WHERE username = $1`, username,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return avatar, nil
}

func (s pg) SetAvatar(ctx context.Context, username string, image []byte) error {
	res, err := s.ext.ExecContext(ctx,
		`UPDATE account SET avatar = $2 WHERE username = $1`, username, image,
	)
	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) ListPosts(ctx context.Context, p *storage.ListPostsParams) ([]*entities.Post, error) {
	query := `SELECT id, title, body, author, likes, created_at FROM post`
	args := make([]interface{}, 0, 2)

	where := ""
	if p.Author != nil {
		args = append(args, *p.Author)
		where = fmt.Sprintf(`author = $%d`, len(args))
	}
	if p.TitleContains != nil {
		args = append(args, "%"+*p.TitleContains+"%")
		if where != "" {
			where += " AND "
		}
		where += fmt.Sprintf(`title LIKE $%d`, len(args))
	}
	if where != "" {
		query += " WHERE " + where
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var pp []*postDTO
	if err := sqlx.SelectContext(ctx, s.ext, &pp, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	out := make([]*entities.Post, len(pp))
	for i, v := range pp {
		out[i] = toPost(v)
	}

	return out, nil
}

func (s pg) GetPost(ctx context.Context, id int64) (*entities.Post, error) {
	var p postDTO

	if err := sqlx.GetContext(ctx, s.ext, &p, `
			SELECT id, title, body, author, likes, created_at FROM post WHERE id = $1
		`, id,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to query: %w", err)
	}

	return toPost(&p), nil
}

func (s pg) CreatePost(ctx context.Context, p *storage.CreatePostParams) (*entities.Post, error) {
	var out postDTO

	if err := sqlx.GetContext(ctx, s.ext, &out, `
			INSERT INTO post(title, body, author, created_at)
			VALUES($1, $2, $3, $4)
			RETURNING id, title, body, author, likes, created_at
		`,
		p.Title, p.Body, p.Author, p.CreatedAt.UTC(),
	); err != nil {
		return nil, fmt.Errorf("failed to exec: %w", err)
	}

	return toPost(&out), nil
}

func (s pg) DeletePost(ctx context.Context, id int64, author string) error {
	res, err := s.ext.ExecContext(ctx,
		`DELETE FROM post WHERE id = $1 AND author = $2`, id, author,
	)
	if err != nil {
		return fmt.Errorf("failed to exec: %w", err)
	}

	if c, _ := res.RowsAffected(); c == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s pg) LikePost(ctx context.Context, id int64, likedBy string) (*entities.Post, error) {
	var p postDTO

	// single statement, safe under concurrent likes
	if err := sqlx.GetContext(ctx, s.ext, &p, `
			UPDATE post SET likes = likes + 1
			WHERE id = $1 AND author <> $2
			RETURNING id, title, body, author, likes, created_at
		`,
		id, likedBy,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to exec: %w", err)
	}

	return toPost(&p), nil
}

func (s pg) ListComments(ctx context.Context, postID int64) ([]*entities.Comment, error) {
	var cc []*commentDTO

	if err := sqlx.SelectContext(ctx, s.ext, &cc, `
			SELECT id, post_id, body, author, created_at FROM comment
			WHERE post_id = $1
			ORDER BY id
		`, postID,
	); err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	out := make([]*entities.Comment, len(cc))
	for i, v := range cc {
		out[i] = toComment(v)
	}

	return out, nil
}

func (s pg) CreateComment(ctx context.Context, p *storage.CreateCommentParams) (*entities.Comment, error) {
	var c commentDTO

	if err := sqlx.GetContext(ctx, s.ext, &c, `
			INSERT INTO comment(post_id, body, author, created_at)
			VALUES($1, $2, $3, $4)
			RETURNING id, post_id, body, author, created_at
		`,
		p.PostID, p.Body, p.Author, p.CreatedAt.UTC(),
	); err != nil {
		if err, ok := err.(*pq.Error); ok && err.Code == foreignKeyViolation {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to exec: %w", err)
	}

	return toComment(&c), nil
}

// New creates new instance of pg.
func New(db *sql.DB) storage.Storage {
	return pg{
		ext: sqlx.NewDb(db, "postgres"),
	}
}

func toAccount(a *accountDTO) *entities.Account {
	return &entities.Account{
		ID:            a.ID,
		Username:      a.Username,
		IdentityToken: a.IdentityToken,
		Avatar:        a.Avatar,
		CreatedAt:     a.CreatedAt,
	}
}

func toPost(p *postDTO) *entities.Post {
	return &entities.Post{
		ID:        p.ID,
		Title:     p.Title,
		Body:      p.Body,
		Author:    p.Author,
		Likes:     p.Likes,
		CreatedAt: p.CreatedAt,
	}
}

func toComment(c *commentDTO) *entities.Comment {
	return &entities.Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		Body:      c.Body,
		Author:    c.Author,
		CreatedAt: c.CreatedAt,
	}
}
