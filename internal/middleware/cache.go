// Package middleware ...
package middleware

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/Decentr-net/hesiod/internal/middleware/memory"
)

// Storage ...
type Storage interface {
	Get(key string) *memory.Response
	Set(key string, r memory.Response, duration time.Duration)
}

// Cached ...
func Cached(ttl time.Duration, handler func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
	storage := memory.NewStorage()

	return func(w http.ResponseWriter, r *http.Request) {
		if cached := storage.Get(r.RequestURI); cached != nil {
			for k, v := range cached.Header {
				w.Header()[k] = v
			}
			_, _ = w.Write(cached.Content)

			return
		}

		c := httptest.NewRecorder()
		handler(c, r)

		for k, v := range c.Header() {
			w.Header()[k] = v
		}

		w.WriteHeader(c.Code)
		content := c.Body.Bytes()

		if c.Code == http.StatusOK {
			storage.Set(r.RequestURI, memory.Response{Header: c.Header(), Content: content}, ttl)
		}

		_, _ = w.Write(content)
	}
}
