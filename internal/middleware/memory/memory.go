// Package memory is an in-memory ttl storage for cached responses.
package memory

import (
	"net/http"
	"sync"
	"time"
)

// Response is a cached response.
type Response struct {
	Header  http.Header
	Content []byte
}

type entry struct {
	response  Response
	expiresAt time.Time
}

// Storage ...
type Storage struct {
	mu sync.RWMutex
	m  map[string]entry
}

// NewStorage creates new instance of Storage.
func NewStorage() *Storage {
	return &Storage{
		m: make(map[string]entry),
	}
}

// Get returns cached response or nil when the key is absent or expired.
func (s *Storage) Get(key string) *Response {
	s.mu.RLock()
	e, ok := s.m[key]
	s.mu.RUnlock()

	if !ok {
		return nil
	}

	if time.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.m, key)
		s.mu.Unlock()

		return nil
	}

	return &e.response
}

// Set stores response for duration.
func (s *Storage) Set(key string, r Response, duration time.Duration) {
	s.mu.Lock()
	s.m[key] = entry{
		response:  r,
		expiresAt: time.Now().Add(duration),
	}
	s.mu.Unlock()
}
