package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratep "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jessevdk/go-flags"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/Decentr-net/hesiod/internal/storage"
	"github.com/Decentr-net/hesiod/internal/storage/postgres"
)

var opts = struct {
	Seed               string `long:"seed" env:"SEED" default:"seed.json" description:"path to seed file"`
	Postgres           string `long:"postgres" env:"POSTGRES" default:"host=localhost port=5432 user=postgres password=root sslmode=disable" description:"postgres dsn"`
	PostgresMigrations string `long:"postgres.migrations" env:"POSTGRES_MIGRATIONS" default:"scripts/migrations/postgres" description:"postgres migrations directory"`
}{}

type seed struct {
	Accounts []struct {
		Username      string `json:"username"`
		IdentityToken string `json:"identityToken"`
	} `json:"accounts"`
	Posts []struct {
		Title    string `json:"title"`
		Body     string `json:"body"`
		Author   string `json:"author"`
		Comments []struct {
			Body   string `json:"body"`
			Author string `json:"author"`
		} `json:"comments"`
	} `json:"posts"`
}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "seeddb"
	parser.LongDescription = "Sample data importer"

	_, err := parser.Parse()

	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("error occurred while parsing flags")
	}

	logrus.Info("seeddb started")
	logrus.Infof("%+v", opts)

	b, err := ioutil.ReadFile(opts.Seed)
	if err != nil {
		logrus.WithError(err).Fatal("failed to read seed")
	}

	var sd seed

	if err := json.Unmarshal(b, &sd); err != nil {
		logrus.WithError(err).Fatal("failed to unmarshal seed")
	}

	db := mustGetDB()
	s := postgres.New(db)

	ctx := context.Background()
	t := time.Now().UTC()

	logrus.Info("import accounts")
	for i, v := range sd.Accounts {
		if _, err := s.CreateAccount(ctx, &storage.CreateAccountParams{
			Username:      v.Username,
			IdentityToken: v.IdentityToken,
			CreatedAt:     t,
		}); err != nil {
			logrus.WithError(err).Fatal("failed to put account into db")
		}

		if i%20 == 0 {
			logrus.Infof("%d of %d accounts imported", i+1, len(sd.Accounts))
		}
	}

	logrus.Info("import posts")
	for i, v := range sd.Posts {
		p, err := s.CreatePost(ctx, &storage.CreatePostParams{
			Title:     v.Title,
			Body:      v.Body,
			Author:    v.Author,
			CreatedAt: t.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			logrus.WithError(err).Fatal("failed to put post into db")
		}

		for _, c := range v.Comments {
			if _, err := s.CreateComment(ctx, &storage.CreateCommentParams{
				PostID:    p.ID,
				Body:      c.Body,
				Author:    c.Author,
				CreatedAt: t.Add(time.Duration(i) * time.Second),
			}); err != nil {
				logrus.WithError(err).Fatal("failed to put comment into db")
			}
		}

		if i%20 == 0 {
			logrus.Infof("%d of %d posts imported", i+1, len(sd.Posts))
		}
	}

	logrus.Info("done")
}

func mustGetDB() *sql.DB {
	db, err := sql.Open("postgres", opts.Postgres)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create postgres connection")
	}

	if err := db.PingContext(context.Background()); err != nil {
		logrus.WithError(err).Fatal("failed to ping postgres")
	}

	driver, err := migratep.WithInstance(db, &migratep.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create database migrate driver")
	}

	migrator, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", opts.PostgresMigrations), "postgres", driver)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create migrator")
	}

	switch err := migrator.Up(); err {
	case nil:
		logrus.Info("database was migrated")
	case migrate.ErrNoChange:
		logrus.Info("database is up-to-date")
	default:
		logrus.WithError(err).Fatal("failed to migrate db")
	}

	return db
}
