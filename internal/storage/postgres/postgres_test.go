//+build integration

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	m "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Decentr-net/hesiod/internal/storage"
)

var (
	db  *sql.DB
	ctx = context.Background()
	s   storage.Storage
)

func TestMain(m *testing.M) {
	shutdown := setup()

	s = New(db)

	code := m.Run()
	shutdown()
	os.Exit(code)
}

func setup() func() {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:12",
		Env:          map[string]string{"POSTGRES_PASSWORD": "root"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp"),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
	})
	if err != nil {
		logrus.WithError(err).Fatalf("failed to create container")
	}

	if err := c.Start(ctx); err != nil {
		logrus.WithError(err).Fatal("failed to start container")
	}

	host, err := c.Host(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("failed to get host")
	}

	port, err := c.MappedPort(ctx, "5432")
	if err != nil {
		logrus.WithError(err).Fatal("failed to map port")
	}

	dsn := fmt.Sprintf("host=%s port=%d user=postgres password=root sslmode=disable", host, port.Int())

	db, err = sql.Open("postgres", dsn)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open connection")
	}

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("failed to ping postgres")
	}

	shutdownFn := func() {
		if c != nil {
			c.Terminate(ctx)
		}
	}

	migrate("postgres", "root", host, "postgres", port.Int())

	return shutdownFn
}

func migrate(username, password, hostname, dbname string, port int) {
	_, currFile, _, ok := runtime.Caller(0)
	if !ok {
		logrus.Fatal("failed to get current file location")
	}

	migrations := filepath.Join(currFile, "../../../../scripts/migrations/postgres/")

	migrator, err := m.New(
		fmt.Sprintf("file://%s", migrations),
		fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			username, password, hostname, port, dbname),
	)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create migrator")
	}
	defer migrator.Close()

	if err := migrator.Up(); err != nil {
		logrus.WithError(err).Fatal("failed to migrate")
	}
}

func cleanup(t *testing.T) {
	_, err := db.ExecContext(ctx, `DELETE FROM comment`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM post`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM account`)
	require.NoError(t, err)
}

func createAccount(t *testing.T, username, token string) {
	_, err := s.CreateAccount(ctx, &storage.CreateAccountParams{
		Username:      username,
		IdentityToken: token,
		CreatedAt:     time.Now(),
	})
	require.NoError(t, err)
}

func TestPg_CreateAccount(t *testing.T) {
	defer cleanup(t)

	expected := storage.CreateAccountParams{
		Username:      "alice",
		IdentityToken: "token",
		CreatedAt:     time.Now(),
	}

	created, err := s.CreateAccount(ctx, &expected)
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	a, err := s.GetAccountByUsername(ctx, expected.Username)
	require.NoError(t, err)
	require.Equal(t, created.ID, a.ID)
	require.Equal(t, expected.Username, a.Username)
	require.Equal(t, expected.IdentityToken, a.IdentityToken)
	require.Empty(t, a.Avatar)
	require.Equal(t, expected.CreatedAt.UTC().Unix(), a.CreatedAt.Unix())

	a, err = s.GetAccountByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, expected.Username, a.Username)

	a, err = s.GetAccountByIdentityToken(ctx, expected.IdentityToken)
	require.NoError(t, err)
	require.Equal(t, expected.Username, a.Username)
}

func TestPg_CreateAccount_duplicateUsername(t *testing.T) {
	defer cleanup(t)

	createAccount(t, "alice", "token")

	_, err := s.CreateAccount(ctx, &storage.CreateAccountParams{
		Username:      "alice",
		IdentityToken: "another",
		CreatedAt:     time.Now(),
	})
	require.True(t, errors.Is(err, storage.ErrConflict))

	// the original row is untouched
	a, err := s.GetAccountByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "token", a.IdentityToken)
}

func TestPg_CreateAccount_duplicateToken(t *testing.T) {
	defer cleanup(t)

	createAccount(t, "alice", "token")

	_, err := s.CreateAccount(ctx, &storage.CreateAccountParams{
		Username:      "bob",
		IdentityToken: "token",
		CreatedAt:     time.Now(),
	})
	require.True(t, errors.Is(err, storage.ErrConflict))
}

func TestPg_GetAccount_notFound(t *testing.T) {
	defer cleanup(t)

	_, err := s.GetAccountByUsername(ctx, "ghost")
	require.Equal(t, storage.ErrNotFound, err)

	_, err = s.GetAccountByID(ctx, 1)
	require.Equal(t, storage.ErrNotFound, err)

	_, err = s.GetAccountByIdentityToken(ctx, "token")
	require.Equal(t, storage.ErrNotFound, err)
}

func TestPg_Avatar(t *testing.T) {
	defer cleanup(t)

	createAccount(t, "alice", "token")

	image, err := s.GetAvatar(ctx, "alice")
	require.NoError(t, err)
	require.Empty(t, image)

	require.NoError(t, s.SetAvatar(ctx, "alice", []byte{1, 2, 3}))

	image, err = s.GetAvatar(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, image)
}

func TestPg_Avatar_notFound(t *testing.T) {
	defer cleanup(t)

	_, err := s.GetAvatar(ctx, "ghost")
	require.Equal(t, storage.ErrNotFound, err)

	require.Equal(t, storage.ErrNotFound, s.SetAvatar(ctx, "ghost", []byte{1}))
}

func TestPg_CreatePost(t *testing.T) {
	defer cleanup(t)

	createAccount(t, "alice", "token")

	expected := storage.CreatePostParams{
		Title:     "title",
		Body:      "body",
		Author:    "alice",
		CreatedAt: time.Now(),
	}

	created, err := s.CreatePost(ctx, &expected)
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Zero(t, created.Likes)

	p, err := s.GetPost(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, expected.Title, p.Title)
	require.Equal(t, expected.Body, p.Body)
	require.Equal(t, expected.Author, p.Author)
	require.Equal(t, expected.CreatedAt.UTC().Unix(), p.CreatedAt.Unix())
}

func TestPg_GetPost_notFound(t *testing.T) {
	defer cleanup(t)

	_, err := s.GetPost(ctx, 1)
	require.Equal(t, storage.ErrNotFound, err)
}

func TestPg_ListPosts(t *testing.T) {
	defer cleanup(t)

	createAccount(t, "alice", "token")
	createAccount(t, "bob", "token2")

	for i, v := range []storage.CreatePostParams{
		{Title: "go tips", Body: "b", Author: "alice"},
		{Title: "fitness tips", Body: "b", Author: "bob"},
		{Title: "travel", Body: "b", Author: "alice"},
	} {
		v.CreatedAt = time.Unix(int64(i+1), 0)
		_, err := s.CreatePost(ctx, &v)
		require.NoError(t, err)
	}

	author := "alice"
	keyword := "tips"
	empty := ""

	tt := []struct {
		name   string
		p      storage.ListPostsParams
		titles []string
	}{
		{
			name:   "all_newest_first",
			p:      storage.ListPostsParams{},
			titles: []string{"travel", "fitness tips", "go tips"},
		},
		{
			name:   "by_author",
			p:      storage.ListPostsParams{Author: &author},
			titles: []string{"travel", "go tips"},
		},
		{
			name:   "by_keyword",
			p:      storage.ListPostsParams{TitleContains: &keyword},
			titles: []string{"fitness tips", "go tips"},
		},
		{
			// an empty keyword gives the full listing
			name:   "by_empty_keyword",
			p:      storage.ListPostsParams{TitleContains: &empty},
			titles: []string{"travel", "fitness tips", "go tips"},
		},
		{
			name:   "by_author_and_keyword",
			p:      storage.ListPostsParams{Author: &author, TitleContains: &keyword},
			titles: []string{"go tips"},
		},
	}

	for i := range tt {
		tc := tt[i]
		t.Run(tc.name, func(t *testing.T) {
			pp, err := s.ListPosts(ctx, &tc.p)
			require.NoError(t, err)
			require.Len(t, pp, len(tc.titles))
			for i, v := range tc.titles {
				assert.Equal(t, v, pp[i].Title)
			}
		})
	}
}

func TestPg_ListPosts_sameTimestamp(t *testing.T) {
	defer cleanup(t)

	createAccount(t, "alice", "token")

	ts := time.Unix(1, 0)

	first, err := s.CreatePost(ctx, &storage.CreatePostParams{Title: "first", Body: "b", Author: "alice", CreatedAt: ts})
	require.NoError(t, err)
	second, err := s.CreatePost(ctx, &storage.CreatePostParams{Title: "second", Body: "b", Author: "alice", CreatedAt: ts})
	require.NoError(t, err)
	require.Greater(t, second.ID, first.ID)

	pp, err := s.ListPosts(ctx, &storage.ListPostsParams{})
	require.NoError(t, err)
	require.Len(t, pp, 2)
	assert.Equal(t, second.ID, pp[0].ID)
	assert.Equal(t, first.ID, pp[1].ID)
}

func TestPg_LikePost(t *testing.T) {
	defer cleanup(t)

	createAccount(t, "alice", "token")

	p, err := s.CreatePost(ctx, &storage.CreatePostParams{Title: "t", Body: "b", Author: "alice", CreatedAt: time.Now()})
	require.NoError(t, err)

	for i, likedBy := range []string{"bob", "carol", "dave"} {
		liked, err := s.LikePost(ctx, p.ID, likedBy)
		require.NoError(t, err)
		require.EqualValues(t, i+1, liked.Likes)
	}

	p, err = s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, p.Likes)
}

func TestPg_LikePost_own(t *testing.T) {
	defer cleanup(t)

	createAccount(t, "alice", "token")

	p, err := s.CreatePost(ctx, &storage.CreatePostParams{Title: "t", Body: "b", Author: "alice", CreatedAt: time.Now()})
	require.NoError(t, err)

	_, err = s.LikePost(ctx, p.ID, "alice")
	require.Equal(t, storage.ErrNotFound, err)

	p, err = s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	require.Zero(t, p.Likes)
}

func TestPg_LikePost_notFound(t *testing.T) {
	defer cleanup(t)

	_, err := s.LikePost(ctx, 1, "bob")
	require.Equal(t, storage.ErrNotFound, err)
}

func TestPg_DeletePost(t *testing.T) {
	defer cleanup(t)

	createAccount(t, "alice", "token")

	p, err := s.CreatePost(ctx, &storage.CreatePostParams{Title: "t", Body: "b", Author: "alice", CreatedAt: time.Now()})
	require.NoError(t, err)

	_, err = s.CreateComment(ctx, &storage.CreateCommentParams{PostID: p.ID, Body: "c", Author: "bob", CreatedAt: time.Now()})
	require.NoError(t, err)

	require.NoError(t, s.DeletePost(ctx, p.ID, "alice"))

	_, err = s.GetPost(ctx, p.ID)
	require.Equal(t, storage.ErrNotFound, err)

	// comments go with the post
	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comment WHERE post_id = $1`, p.ID).Scan(&count))
	require.Zero(t, count)
}

func TestPg_DeletePost_foreign(t *testing.T) {
	defer cleanup(t)

	createAccount(t, "alice", "token")

	p, err := s.CreatePost(ctx, &storage.CreatePostParams{Title: "t", Body: "b", Author: "alice", CreatedAt: time.Now()})
	require.NoError(t, err)

	require.Equal(t, storage.ErrNotFound, s.DeletePost(ctx, p.ID, "bob"))

	_, err = s.GetPost(ctx, p.ID)
	require.NoError(t, err)
}

func TestPg_CreateComment(t *testing.T) {
	defer cleanup(t)

	createAccount(t, "alice", "token")

	p, err := s.CreatePost(ctx, &storage.CreatePostParams{Title: "t", Body: "b", Author: "alice", CreatedAt: time.Now()})
	require.NoError(t, err)

	first, err := s.CreateComment(ctx, &storage.CreateCommentParams{PostID: p.ID, Body: "first", Author: "bob", CreatedAt: time.Now()})
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	_, err = s.CreateComment(ctx, &storage.CreateCommentParams{PostID: p.ID, Body: "second", Author: "carol", CreatedAt: time.Now()})
	require.NoError(t, err)

	cc, err := s.ListComments(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, cc, 2)
	assert.Equal(t, "first", cc[0].Body)
	assert.Equal(t, "second", cc[1].Body)
}

func TestPg_CreateComment_missingPost(t *testing.T) {
	defer cleanup(t)

	_, err := s.CreateComment(ctx, &storage.CreateCommentParams{PostID: 1, Body: "c", Author: "bob", CreatedAt: time.Now()})
	require.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestPg_ListComments_empty(t *testing.T) {
	defer cleanup(t)

	cc, err := s.ListComments(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, cc)
}
