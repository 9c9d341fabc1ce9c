package httpserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/reloveshop/storefront/internal/identity"
	"github.com/reloveshop/storefront/internal/store"
)

const (
	sessionCookieName = "storefrontSession"
	accessCookieName  = "accessToken"

	ctxStoreKey = "session_store"
)

// Sessions maps browsing sessions to their state stores. A store is
// created lazily on first sight of a session id.
type Sessions struct {
	mu     sync.Mutex
	stores map[string]*store.Store
}

func NewSessions() *Sessions {
	return &Sessions{stores: map[string]*store.Store{}}
}

func (s *Sessions) Get(id string) *store.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stores[id]
	if !ok {
		st = store.New()
		s.stores[id] = st
	}
	return st
}

func sessionStore(c echo.Context) *store.Store {
	return c.Get(ctxStoreKey).(*store.Store)
}

func createCookie(name, value, path string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// accessCookie maps the session's persistence mode onto cookie
// lifetime: a persistent session carries an expiry, a tab-scoped one is
// a plain session cookie.
func accessCookie(sess *identity.Session) *http.Cookie {
	ck := createCookie(accessCookieName, sess.Token, "/", time.Time{})
	if sess.Persist {
		ck.Expires = sess.ExpiresAt
	}
	return ck
}

func deleteCookie(name string) *http.Cookie {
	return createCookie(name, "", "/", time.Now().Add(-time.Hour))
}
