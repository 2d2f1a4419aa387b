package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"rpc-auth-go/internal/auth"
)

func TestGuard(t *testing.T) {
	alice := auth.NewUser("alice", false, []string{"reports.view"}, nil)

	// resolves alice when the X-User header says so
	res := auth.ResolverFunc(func(r *http.Request) auth.User {
		if r.Header.Get("X-User") == "alice" {
			return alice
		}
		return auth.Anonymous
	})
	rules := auth.NewRules(
		auth.Requires("login", res, auth.Bool(auth.UserIsLogged)),
		auth.Requires("perm", res, func(u auth.User) (bool, error) {
			return auth.UserHasPerm(u, "reports.export"), nil
		}),
	)

	var seen auth.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = auth.UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	// 1. anonymous: challenge
	rr := httptest.NewRecorder()
	auth.Guard(res, "rpc", rules)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: status %d", rr.Code)
	}
	if got := rr.Header().Get("WWW-Authenticate"); got != `Basic realm="rpc"` {
		t.Fatalf("anonymous: challenge %q", got)
	}

	// 2. logged in without the permission: forbidden
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-User", "alice")
	rr = httptest.NewRecorder()
	auth.Guard(res, "rpc", rules)(next).ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("alice: status %d", rr.Code)
	}

	// 3. login only: passes and the user reaches the handler
	rr = httptest.NewRecorder()
	auth.Guard(res, "rpc", auth.NewRules(rules.All()[0]))(next).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("login only: status %d", rr.Code)
	}
	if seen == nil || seen.Username() != "alice" {
		t.Fatalf("handler saw %v", seen)
	}
}

func TestUserFromContextDefaultsToAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if u := auth.UserFromContext(req.Context()); !u.IsAnonymous() {
		t.Fatalf("got %v", u)
	}
	ctx := auth.WithUser(req.Context(), auth.NewUser("bob", false, nil, nil))
	if u := auth.UserFromContext(ctx); u.Username() != "bob" {
		t.Fatalf("got %v", u)
	}
	if u := auth.ContextResolver.GetUser(req.WithContext(ctx)); u.Username() != "bob" {
		t.Fatalf("ContextResolver got %v", u)
	}
}
