// Package server Hesiod
//
// Hesiod is a blogging service: accounts linked to an external identity
// provider, posts, comments, likes and generated letter avatars.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Produces:
//     - application/json
//     Consumes:
//     - application/json
//
// swagger:meta
package server

import (
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"

	"github.com/Decentr-net/go-api"

	mm "github.com/Decentr-net/hesiod/internal/middleware"
	"github.com/Decentr-net/hesiod/internal/oauth"
	"github.com/Decentr-net/hesiod/internal/service"
	"github.com/Decentr-net/hesiod/internal/session"
)

const maxBodySize = 64 * 1024

const avatarCacheTTL = 10 * time.Minute

type server struct {
	s  service.Service
	sm *session.Manager
	o  *oauth.Client
}

// SetupRouter setups handlers to chi router.
func SetupRouter(s service.Service, sm *session.Manager, o *oauth.Client, r chi.Router, timeout time.Duration) {
	r.Use(
		api.LoggerMiddleware,
		middleware.StripSlashes,
		cors.AllowAll().Handler,
		api.RequestIDMiddleware,
		api.RecovererMiddleware,
		api.TimeoutMiddleware(timeout),
		api.BodyLimiterMiddleware(maxBodySize),
	)

	srv := server{
		s:  s,
		sm: sm,
		o:  o,
	}

	r.Get("/auth/external", srv.beginExternalAuth)
	r.Get("/auth/external/callback", srv.externalAuthCallback)

	r.Get("/registerUsername", srv.registerUsernamePage)
	r.Post("/registerUsername", srv.registerUsername)
	r.Get("/register", srv.registerPage)
	r.Post("/register", srv.register)
	r.Get("/login", srv.loginPage)
	r.Post("/login", srv.login)
	r.Get("/logout", srv.logout)

	r.Get("/", srv.home)
	r.Post("/keywords", srv.searchPosts)
	r.Get("/avatar/{username}", mm.Cached(avatarCacheTTL, srv.avatar))
	r.Get("/error", srv.errorPage)

	r.Post("/posts", sm.Authenticated(srv.createPost))
	r.Post("/comments", sm.Authenticated(srv.createComment))
	r.Post("/like/{id}", sm.Authenticated(srv.likePost))
	r.Post("/delete/{id}", sm.Authenticated(srv.deletePost))
	r.Get("/profile", sm.Authenticated(srv.profile))
}
