// Package entities contains main entities of service.
package entities

import (
	"time"
)

// Account ...
type Account struct {
	ID            int64
	Username      string
	IdentityToken string
	Avatar        []byte
	CreatedAt     time.Time
}

// Post ...
type Post struct {
	ID        int64
	Title     string
	Body      string
	Author    string
	Likes     uint32
	CreatedAt time.Time
}

// Comment ...
type Comment struct {
	ID        int64
	PostID    int64
	Body      string
	Author    string
	CreatedAt time.Time
}
