package httpapi

import (
	"context"

	"rpc-auth-go/internal/audit"
	"rpc-auth-go/internal/auth/basic"
	"rpc-auth-go/internal/config"
	"rpc-auth-go/internal/registry"
	"rpc-auth-go/internal/session"
)

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Accounter reports session start and stop to an accounting backend.
type Accounter interface {
	AccountingStart(ctx context.Context, username, sessionID string) error
	AccountingStop(ctx context.Context, username, sessionID string) error
}

type Server struct {
	cfg      *config.Config
	reg      *registry.Registry
	settings *config.Settings
	basic    *basic.Resolver
	sessions *session.Middleware
	store    session.Store
	issuer   *session.JWTIssuer
	audit    *audit.Logger
	acct     Accounter
}

type AuthorizeReq struct {
	Methods []string `json:"methods"`
}

type AuthorizeResult struct {
	Method     string          `json:"method"`
	Authorized bool            `json:"authorized"`
	Fault      *registry.Fault `json:"fault,omitempty"`
}

type SettingReq struct {
	Value any `json:"value"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
