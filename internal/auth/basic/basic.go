// Package basic resolves the user of a request from HTTP Basic
// credentials and builds authorization rules on top of it.
//
// A user already attached to the request context by upstream session
// processing always wins. Otherwise the Authorization header is read;
// missing or malformed credentials, or credentials the Authenticator
// rejects, resolve to auth.Anonymous. Resolution never fails: deciding
// whether an anonymous request may proceed is left to the rules.
package basic

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/text/unicode/norm"

	"rpc-auth-go/internal/auth"
	"rpc-auth-go/internal/logging"
)

// ErrInvalidCredentials is returned by an Authenticator that rejects a
// username/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticator checks a username/password pair against a user store.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (auth.User, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, username, password string) (auth.User, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, username, password string) (auth.User, error) {
	return f(ctx, username, password)
}

// Resolver implements auth.Resolver for HTTP Basic credentials.
type Resolver struct {
	Authenticator Authenticator
	Logger        *logging.Logger
}

// NewResolver returns a Resolver checking credentials with a.
func NewResolver(a Authenticator) *Resolver {
	return &Resolver{
		Authenticator: a,
		Logger:        logging.Get("rpcauth.auth.basic"),
	}
}

// GetUser returns the user r acts as, possibly auth.Anonymous.
func (res *Resolver) GetUser(r *http.Request) auth.User {
	if u := auth.UserFromContext(r.Context()); auth.UserIsLogged(u) {
		return u
	}

	username, password, ok := ParseCredentials(r.Header.Get("Authorization"))
	if !ok || res.Authenticator == nil {
		return auth.Anonymous
	}

	u, err := res.Authenticator.Authenticate(r.Context(), username, password)
	if err != nil || u == nil {
		if res.Logger != nil {
			res.Logger.Printf("[REJECT] user=%q err=%v", username, err)
		}
		return auth.Anonymous
	}
	return u
}

// CheckUser resolves the user of r and runs validate on it.
func (res *Resolver) CheckUser(r *http.Request, validate auth.Validator) (bool, error) {
	return validate(res.GetUser(r))
}

// ParseCredentials extracts the username and password from a Basic
// Authorization header value. The scheme is case-insensitive, the
// password may contain colons, and the username is NFKC normalized.
func ParseCredentials(header string) (username, password string, ok bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "basic") {
		return "", "", false
	}
	payload, err := base64.StdEncoding.DecodeString(fields[1])
	if err != nil {
		return "", "", false
	}
	user, pass, found := bytes.Cut(payload, []byte(":"))
	if !found {
		return "", "", false
	}
	return norm.NFKC.String(string(user)), string(pass), true
}
