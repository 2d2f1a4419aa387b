package auth

import (
	"context"
	"net/http"
)

// ctxKey is an unexported type to prevent collisions
// with context keys from other packages.
type ctxKey string

// CtxKeyUser is the context key used to store the user
// attached by upstream session processing.
const CtxKeyUser ctxKey = "rpcauth_user"

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, CtxKeyUser, u)
}

// UserFromContext returns the user attached to ctx, or Anonymous.
func UserFromContext(ctx context.Context) User {
	if u, ok := ctx.Value(CtxKeyUser).(User); ok && u != nil {
		return u
	}
	return Anonymous
}

// Resolver finds the user a request acts as. It never fails; requests
// without usable credentials resolve to Anonymous.
type Resolver interface {
	GetUser(r *http.Request) User
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(r *http.Request) User

func (f ResolverFunc) GetUser(r *http.Request) User { return f(r) }

// ContextResolver resolves to whatever user upstream middleware attached.
var ContextResolver Resolver = ResolverFunc(func(r *http.Request) User {
	return UserFromContext(r.Context())
})

// Validator checks a resolved user.
type Validator func(u User) (bool, error)

// Bool adapts a plain predicate to a Validator.
func Bool(pred func(User) bool) Validator {
	return func(u User) (bool, error) { return pred(u), nil }
}

// Requires builds a rule that resolves the user with res and validates it.
func Requires(name string, res Resolver, validate Validator, params ...string) Rule {
	return NewRule(name, func(r *http.Request) (bool, error) {
		return validate(res.GetUser(r))
	}, params...)
}
