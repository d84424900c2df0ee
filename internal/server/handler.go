package server

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/Decentr-net/go-api"

	"github.com/Decentr-net/hesiod/internal/entities"
	"github.com/Decentr-net/hesiod/internal/oauth"
	"github.com/Decentr-net/hesiod/internal/service"
	"github.com/Decentr-net/hesiod/internal/session"
)

const oauthStateCookie = "hesiod_oauth_state"

func (s server) beginExternalAuth(w http.ResponseWriter, r *http.Request) {
	state, err := oauth.State()
	if err != nil {
		api.WriteInternalErrorf(r.Context(), w, "failed to create state: %s", err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
	})

	http.Redirect(w, r, s.o.AuthURL(state), http.StatusFound)
}

func (s server) externalAuthCallback(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(oauthStateCookie)
	if err != nil || c.Value == "" || c.Value != r.URL.Query().Get("state") {
		api.WriteError(w, http.StatusBadRequest, "invalid state")
		return
	}

	externalID, err := s.o.ExternalID(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		http.Redirect(w, r, "/error", http.StatusSeeOther)
		return
	}

	account, token, err := s.s.ResolveIdentity(r.Context(), externalID)

	switch {
	case err == nil:
		if err := s.sm.Write(w, session.Session{AccountID: account.ID}); err != nil {
			api.WriteInternalErrorf(r.Context(), w, "failed to write session: %s", err.Error())
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	case errors.Is(err, service.ErrNotFound):
		// no local account yet, ask for a username
		if err := s.sm.Write(w, session.Session{PendingToken: token}); err != nil {
			api.WriteInternalErrorf(r.Context(), w, "failed to write session: %s", err.Error())
			return
		}

		http.Redirect(w, r, "/registerUsername", http.StatusSeeOther)
	default:
		http.Redirect(w, r, "/error", http.StatusSeeOther)
	}
}

func (s server) registerUsernamePage(w http.ResponseWriter, r *http.Request) {
	api.WriteOK(w, http.StatusOK, PageResponse{Error: r.URL.Query().Get("error")})
}

func (s server) registerUsername(w http.ResponseWriter, r *http.Request) {
	sess := s.sm.Read(r)
	if !sess.PendingRegistration() {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	username := r.PostFormValue("username")
	if username == "" {
		http.Redirect(w, r, "/registerUsername?error="+url.QueryEscape("username is required"), http.StatusSeeOther)
		return
	}

	account, err := s.s.RegisterAccount(r.Context(), username, sess.PendingToken)
	if err != nil {
		// the pending token stays in the session so the caller can retry
		if errors.Is(err, service.ErrUsernameTaken) {
			http.Redirect(w, r, "/registerUsername?error="+url.QueryEscape("username is taken"), http.StatusSeeOther)
			return
		}

		api.WriteInternalErrorf(r.Context(), w, "failed to register account: %s", err.Error())
		return
	}

	if err := s.sm.Write(w, session.Session{AccountID: account.ID}); err != nil {
		api.WriteInternalErrorf(r.Context(), w, "failed to write session: %s", err.Error())
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s server) registerPage(w http.ResponseWriter, r *http.Request) {
	api.WriteOK(w, http.StatusOK, PageResponse{Error: r.URL.Query().Get("error")})
}

func (s server) register(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	if username == "" {
		http.Redirect(w, r, "/register?error="+url.QueryEscape("username is required"), http.StatusSeeOther)
		return
	}

	if _, err := s.s.RegisterLocalAccount(r.Context(), username); err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			http.Redirect(w, r, "/register?error="+url.QueryEscape("username is taken"), http.StatusSeeOther)
			return
		}

		api.WriteInternalErrorf(r.Context(), w, "failed to register account: %s", err.Error())
		return
	}

	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s server) loginPage(w http.ResponseWriter, r *http.Request) {
	api.WriteOK(w, http.StatusOK, PageResponse{Error: r.URL.Query().Get("error")})
}

func (s server) login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("loginusername")

	account, err := s.s.LoginAccount(r.Context(), username)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			http.Redirect(w, r, "/login?error="+url.QueryEscape("Invalid username"), http.StatusSeeOther)
			return
		}

		api.WriteInternalErrorf(r.Context(), w, "failed to login: %s", err.Error())
		return
	}

	if err := s.sm.Write(w, session.Session{AccountID: account.ID}); err != nil {
		api.WriteInternalErrorf(r.Context(), w, "failed to write session: %s", err.Error())
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s server) logout(w http.ResponseWriter, r *http.Request) {
	s.sm.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s server) home(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET / Blog Home
	//
	// Returns posts with their comments, newest post first, and the current
	// user context when the session is authenticated.
	//
	// ---
	// produces:
	// - application/json
	// responses:
	//   '200':
	//     description: Feed
	//     schema:
	//       "$ref": "#/definitions/HomeResponse"
	//   '500':
	//     description: internal server error
	//     schema:
	//       "$ref": "#/definitions/Error"

	feed, err := s.s.ListFeed(r.Context())
	if err != nil {
		api.WriteInternalErrorf(r.Context(), w, "failed to list feed: %s", err.Error())
		return
	}

	resp := HomeResponse{
		Posts: make([]PostWithComments, len(feed)),
	}

	for i, v := range feed {
		resp.Posts[i] = PostWithComments{
			Post:     *toAPIPost(&v.Post),
			Comments: toAPIComments(v.Comments),
		}
	}

	if account := s.currentAccount(r); account != nil {
		resp.User = toAPIUser(account)
	}

	api.WriteOK(w, http.StatusOK, resp)
}

func (s server) searchPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.s.SearchPosts(r.Context(), r.PostFormValue("keyword"))
	if err != nil {
		api.WriteInternalErrorf(r.Context(), w, "failed to search posts: %s", err.Error())
		return
	}

	api.WriteOK(w, http.StatusOK, SearchResponse{Posts: toAPIPosts(posts)})
}

func (s server) createPost(w http.ResponseWriter, r *http.Request) {
	account := s.currentAccount(r)
	if account == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	title, body := r.PostFormValue("title"), r.PostFormValue("content")
	if title == "" || body == "" {
		api.WriteError(w, http.StatusBadRequest, "title and content are required")
		return
	}

	if _, err := s.s.CreatePost(r.Context(), title, body, account.Username); err != nil {
		api.WriteInternalErrorf(r.Context(), w, "failed to create post: %s", err.Error())
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s server) createComment(w http.ResponseWriter, r *http.Request) {
	account := s.currentAccount(r)
	if account == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	postID, err := strconv.ParseInt(r.PostFormValue("postId"), 10, 64)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid postId")
		return
	}

	if _, err := s.s.AddComment(r.Context(), postID, r.PostFormValue("comment"), account.Username); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, "post not found")
			return
		}

		api.WriteInternalErrorf(r.Context(), w, "failed to add comment: %s", err.Error())
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s server) likePost(w http.ResponseWriter, r *http.Request) {
	// swagger:operation POST /like/{id} Blog LikePost
	//
	// Increments the post's like counter. Authors can not like their own
	// posts.
	//
	// ---
	// produces:
	// - application/json
	// parameters:
	// - name: id
	//   in: path
	//   required: true
	//   type: integer
	// responses:
	//   '200':
	//     description: updated post
	//     schema:
	//       "$ref": "#/definitions/LikeResponse"
	//   '400':
	//     description: not permitted
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '500':
	//     description: internal server error
	//     schema:
	//       "$ref": "#/definitions/Error"

	account := s.currentAccount(r)
	if account == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	post, err := s.s.LikePost(r.Context(), id, account.Username)
	if err != nil {
		if errors.Is(err, service.ErrNotPermitted) {
			api.WriteError(w, http.StatusBadRequest, "you can not like this post")
			return
		}

		api.WriteInternalErrorf(r.Context(), w, "failed to like post: %s", err.Error())
		return
	}

	api.WriteOK(w, http.StatusOK, LikeResponse{Post: *toAPIPost(post)})
}

func (s server) deletePost(w http.ResponseWriter, r *http.Request) {
	account := s.currentAccount(r)
	if account == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	if err := s.s.DeletePost(r.Context(), id, account.Username); err != nil {
		if errors.Is(err, service.ErrNotPermitted) {
			api.WriteError(w, http.StatusBadRequest, "you can not delete this post")
			return
		}

		api.WriteInternalErrorf(r.Context(), w, "failed to delete post: %s", err.Error())
		return
	}

	api.WriteOK(w, http.StatusOK, Message{Message: "post deleted"})
}

func (s server) profile(w http.ResponseWriter, r *http.Request) {
	account := s.currentAccount(r)
	if account == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	posts, err := s.s.ListAccountPosts(r.Context(), account.Username)
	if err != nil {
		api.WriteInternalErrorf(r.Context(), w, "failed to list posts: %s", err.Error())
		return
	}

	api.WriteOK(w, http.StatusOK, ProfileResponse{
		User:  *toAPIUser(account),
		Posts: toAPIPosts(posts),
	})
}

func (s server) avatar(w http.ResponseWriter, r *http.Request) {
	// swagger:operation GET /avatar/{username} Blog GetAvatar
	//
	// Returns the account's avatar. The image is generated on first request
	// and cached on the account afterwards.
	//
	// ---
	// produces:
	// - image/png
	// parameters:
	// - name: username
	//   in: path
	//   required: true
	//   type: string
	// responses:
	//   '200':
	//     description: PNG image
	//   '404':
	//     description: account not found
	//     schema:
	//       "$ref": "#/definitions/Error"
	//   '500':
	//     description: internal server error
	//     schema:
	//       "$ref": "#/definitions/Error"

	username := chi.URLParam(r, "username")
	if username == "" {
		api.WriteError(w, http.StatusBadRequest, "invalid username")
		return
	}

	image, err := s.s.Avatar(r.Context(), username)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, "account not found")
			return
		}

		api.WriteInternalErrorf(r.Context(), w, "failed to get avatar: %s", err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(image)
}

func (s server) errorPage(w http.ResponseWriter, r *http.Request) {
	api.WriteOK(w, http.StatusOK, Error{Error: "something went wrong"})
}

// currentAccount resolves the session's account, nil for anonymous or stale
// sessions.
func (s server) currentAccount(r *http.Request) *entities.Account {
	sess := s.sm.Read(r)
	if !sess.Authenticated() {
		return nil
	}

	account, err := s.s.GetAccountByID(r.Context(), sess.AccountID)
	if err != nil {
		return nil
	}

	return account
}

func toAPIUser(a *entities.Account) *User {
	return &User{
		ID:          a.ID,
		Username:    a.Username,
		MemberSince: uint64(a.CreatedAt.Unix()),
	}
}

func toAPIPost(p *entities.Post) *Post {
	return &Post{
		ID:        p.ID,
		Title:     p.Title,
		Body:      p.Body,
		Author:    p.Author,
		Likes:     p.Likes,
		CreatedAt: uint64(p.CreatedAt.Unix()),
	}
}

func toAPIPosts(pp []*entities.Post) []Post {
	out := make([]Post, len(pp))
	for i, v := range pp {
		out[i] = *toAPIPost(v)
	}

	return out
}

func toAPIComments(cc []*entities.Comment) []Comment {
	out := make([]Comment, len(cc))
	for i, v := range cc {
		out[i] = Comment{
			ID:        v.ID,
			PostID:    v.PostID,
			Body:      v.Body,
			Author:    v.Author,
			CreatedAt: uint64(v.CreatedAt.Unix()),
		}
	}

	return out
}
