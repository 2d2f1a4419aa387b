package session

import (
	"context"
	"net/http"
	"strings"
	"time"

	"rpc-auth-go/internal/auth"
	"rpc-auth-go/internal/logging"
)

// UserLookup finds a user by name without checking credentials.
type UserLookup interface {
	Lookup(username string) (auth.User, bool)
}

// Middleware resolves the user of a request from a bearer token or a
// session cookie and stores it in the request context. Requests with
// neither pass through untouched.
type Middleware struct {
	Users      UserLookup
	Store      Store
	Issuer     *JWTIssuer
	CookieName string
	// TTL, when set, slides the session expiry on every use.
	TTL time.Duration

	logger *logging.Logger
}

func NewMiddleware(users UserLookup, store Store, issuer *JWTIssuer, cookieName string, ttl time.Duration) *Middleware {
	return &Middleware{
		Users:      users,
		Store:      store,
		Issuer:     issuer,
		CookieName: cookieName,
		TTL:        ttl,
		logger:     logging.Get("rpcauth.session"),
	}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.UserIsLogged(auth.UserFromContext(r.Context())) {
			next.ServeHTTP(w, r)
			return
		}
		if u := m.resolve(r); u != nil {
			r = r.WithContext(auth.WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) resolve(r *http.Request) auth.User {
	if tok, ok := bearerToken(r.Header.Get("Authorization")); ok && m.Issuer != nil {
		sub, err := m.Issuer.Verify(tok)
		if err != nil {
			m.logger.Printf("[REJECT] token err=%v", err)
			return nil
		}
		return m.lookup(sub)
	}

	if m.Store == nil || m.CookieName == "" {
		return nil
	}
	c, err := r.Cookie(m.CookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	sess, err := m.Store.Get(r.Context(), c.Value)
	if err != nil {
		if err != ErrNotFound {
			m.logger.Printf("[ERROR] session lookup id=%s err=%v", c.Value, err)
		}
		return nil
	}
	if m.TTL > 0 {
		if _, err := m.Store.Refresh(context.WithoutCancel(r.Context()), sess.ID, m.TTL); err != nil {
			m.logger.Printf("[ERROR] session refresh id=%s err=%v", sess.ID, err)
		}
	}
	return m.lookup(sess.Username)
}

func (m *Middleware) lookup(username string) auth.User {
	if m.Users == nil {
		return nil
	}
	u, ok := m.Users.Lookup(username)
	if !ok {
		m.logger.Printf("[REJECT] unknown user=%s", username)
		return nil
	}
	return u
}

func bearerToken(header string) (string, bool) {
	scheme, tok, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}
