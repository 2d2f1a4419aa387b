package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"rpc-auth-go/internal/audit"
	"rpc-auth-go/internal/auth"
	"rpc-auth-go/internal/auth/basic"
	"rpc-auth-go/internal/config"
	"rpc-auth-go/internal/logging"
	"rpc-auth-go/internal/registry"
	"rpc-auth-go/internal/session"
)

// Deps are the collaborators of the admin API. Store, Issuer, Audit and
// Accounting may be nil.
type Deps struct {
	Registry   *registry.Registry
	Settings   *config.Settings
	Basic      *basic.Resolver
	Sessions   *session.Middleware
	Store      session.Store
	Issuer     *session.JWTIssuer
	Audit      *audit.Logger
	Accounting Accounter
}

var logger = logging.Get("rpcauth.http")

func New(cfg *config.Config, d Deps) *Server {
	return &Server{
		cfg:      cfg,
		reg:      d.Registry,
		settings: d.Settings,
		basic:    d.Basic,
		sessions: d.Sessions,
		store:    d.Store,
		issuer:   d.Issuer,
		audit:    d.Audit,
		acct:     d.Accounting,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) sessionTTL() time.Duration {
	return time.Duration(s.cfg.Session.TTLSeconds) * time.Second
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	registerSwagger(r, s.cfg.Server.SwaggerUI)

	if s.sessions != nil {
		r.Use(s.sessions.Handler)
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{
			"status":  "ok",
			"name":    s.cfg.Server.Name,
			"version": s.cfg.Server.Version,
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"status": "ok"}
		if p, ok := s.store.(Pinger); ok {
			resp["store_ping"] = p.Ping(r.Context()) == nil
		}
		writeJSON(w, 200, resp)
	})

	r.Get("/api/v1/methods", s.listMethods)
	r.Get("/api/v1/methods/{name}", s.getMethod)
	r.Post("/api/v1/authorize", s.authorize)
	r.Delete("/api/v1/session", s.deleteSession)

	realm := s.cfg.Auth.Realm
	r.Group(func(r chi.Router) {
		r.Use(auth.Guard(s.basic, realm, auth.NewRules(s.basic.LoginRequired())))
		r.Get("/api/v1/whoami", s.whoami)
		r.Post("/api/v1/token", s.issueToken)
		r.Post("/api/v1/session", s.createSession)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Guard(s.basic, realm, auth.NewRules(s.basic.SuperuserRequired())))
		r.Get("/api/v1/settings", s.listSettings)
		r.Put("/api/v1/settings/{name}", s.putSetting)
		r.Delete("/api/v1/settings/{name}", s.deleteSetting)
		r.Delete("/api/v1/users/{username}/sessions", s.revokeSessions)
	})

	return r
}

func (s *Server) listMethods(w http.ResponseWriter, r *http.Request) {
	cat := s.reg.Catalog(s.cfg.Server.Version)
	w.Header().Set("X-Catalog-Version", cat.Version.Version)
	w.Header().Set("X-Catalog-Checksum", cat.Version.Checksum)
	writeJSON(w, 200, cat)
}

func (s *Server) getMethod(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	m, ok := s.reg.Method(name)
	if !ok {
		writeJSON(w, 404, map[string]any{"fault": registry.AsFault(s.reg.Authorize(r, name))})
		return
	}
	writeJSON(w, 200, m.Info())
}

// authorize answers, for each method of the request body, whether the
// caller may invoke it. Each method is evaluated on its own.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) {
	var req AuthorizeReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, 400, map[string]any{"fault": &registry.Fault{
			Code:    registry.CodeParseError,
			Message: "Parse error",
		}})
		return
	}
	if len(req.Methods) == 0 {
		writeJSON(w, 400, map[string]any{"fault": &registry.Fault{
			Code:    registry.CodeInvalidRequest,
			Message: "Invalid request: methods must not be empty",
		}})
		return
	}

	// resolve once so every rule sees the same user
	u := s.basic.GetUser(r)
	if auth.UserIsLogged(u) {
		r = r.WithContext(auth.WithUser(r.Context(), u))
	}

	errs := s.reg.AuthorizeBatch(r, req.Methods)
	out := make([]AuthorizeResult, 0, len(errs))
	for i, err := range errs {
		res := AuthorizeResult{Method: req.Methods[i], Authorized: err == nil}
		typ := audit.AuthzAllow
		if err != nil {
			res.Fault = registry.AsFault(err)
			typ = audit.AuthzDeny
		}
		s.audit.Write(typ, map[string]any{
			"method": res.Method,
			"user":   u.Username(),
			"ip":     clientIP(r),
		})
		out = append(out, res)
	}

	writeJSON(w, 200, map[string]any{
		"user":    u.Username(),
		"results": out,
	})
}

func (s *Server) whoami(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	resp := map[string]any{
		"username":  u.Username(),
		"superuser": u.IsSuperuser(),
	}
	if su, ok := u.(*auth.StaticUser); ok {
		resp["permissions"] = su.Permissions()
		groups := make([]string, 0)
		for _, g := range su.Groups() {
			groups = append(groups, g.Name)
		}
		resp["groups"] = groups
	}
	writeJSON(w, 200, resp)
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	if s.issuer == nil {
		writeJSON(w, 501, ErrorResponse{Error: "tokens_disabled"})
		return
	}
	u := auth.UserFromContext(r.Context())
	tok, expiresIn, err := s.issuer.Issue(r.Context(), u.Username())
	if err != nil {
		writeJSON(w, 500, ErrorResponse{Error: "token_issue_failed"})
		return
	}
	s.audit.Write(audit.TokenIssue, map[string]any{
		"user":       u.Username(),
		"ip":         clientIP(r),
		"expires_in": expiresIn,
	})
	writeJSON(w, 200, map[string]any{
		"access_token": tok,
		"token_type":   "Bearer",
		"expires_in":   expiresIn,
	})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, 501, ErrorResponse{Error: "sessions_disabled"})
		return
	}
	u := auth.UserFromContext(r.Context())
	ttl := s.sessionTTL()
	sess := session.New(u.Username(), clientIP(r), "basic", ttl)
	if err := s.store.Save(r.Context(), sess); err != nil {
		writeJSON(w, 500, ErrorResponse{Error: "session_save_failed"})
		return
	}

	if s.acct != nil {
		if err := s.acct.AccountingStart(r.Context(), sess.Username, sess.ID); err != nil {
			logger.Printf("[ACCT] start user=%s session=%s err=%v", sess.Username, sess.ID, err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   sess.TTL,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.audit.Write(audit.SessionCreate, map[string]any{
		"user":    sess.Username,
		"ip":      sess.IP,
		"session": sess.ID,
		"ttl":     sess.TTL,
	})
	writeJSON(w, 200, map[string]any{
		"session_id": sess.ID,
		"ttl":        sess.TTL,
	})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, 501, ErrorResponse{Error: "sessions_disabled"})
		return
	}
	c, err := r.Cookie(s.cfg.Session.CookieName)
	if err != nil || c.Value == "" {
		writeJSON(w, 200, map[string]any{"deleted": false})
		return
	}
	sess, err := s.store.Get(r.Context(), c.Value)
	if err != nil && !errors.Is(err, session.ErrNotFound) {
		writeJSON(w, 500, ErrorResponse{Error: "session_lookup_failed"})
		return
	}
	existed, err := s.store.Delete(r.Context(), c.Value)
	if err != nil {
		writeJSON(w, 500, ErrorResponse{Error: "session_delete_failed"})
		return
	}
	if existed && sess != nil && s.acct != nil {
		if err := s.acct.AccountingStop(r.Context(), sess.Username, sess.ID); err != nil {
			logger.Printf("[ACCT] stop user=%s session=%s err=%v", sess.Username, sess.ID, err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	s.audit.Write(audit.SessionDelete, map[string]any{
		"session": c.Value,
		"result":  map[bool]string{true: "ok", false: "not_found"}[existed],
	})
	writeJSON(w, 200, map[string]any{"deleted": existed})
}

// revokeSessions drops every cookie session of a user. Bearer tokens stay
// valid until they expire.
func (s *Server) revokeSessions(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, 501, ErrorResponse{Error: "sessions_disabled"})
		return
	}
	username := chi.URLParam(r, "username")
	n, err := s.store.DeleteUser(r.Context(), username)
	if err != nil {
		writeJSON(w, 500, ErrorResponse{Error: "session_delete_failed"})
		return
	}
	s.audit.Write(audit.SessionDelete, map[string]any{
		"user":    username,
		"by":      auth.UserFromContext(r.Context()).Username(),
		"revoked": n,
	})
	writeJSON(w, 200, map[string]any{"username": username, "revoked": n})
}

func (s *Server) listSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{"settings": s.settings.Snapshot()})
}

func (s *Server) settingResp(name string) map[string]any {
	v, _ := s.settings.Get(name)
	return map[string]any{
		"name":     name,
		"value":    v,
		"user_set": s.settings.IsUserSet(name),
	}
}

func (s *Server) putSetting(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "name")))
	var req SettingReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, 400, ErrorResponse{Error: "bad_json"})
		return
	}
	s.settings.Set(name, req.Value)
	s.audit.Write(audit.SettingsChange, map[string]any{
		"user":    auth.UserFromContext(r.Context()).Username(),
		"setting": name,
		"action":  "set",
	})
	writeJSON(w, 200, s.settingResp(name))
}

func (s *Server) deleteSetting(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "name")))
	s.settings.Unset(name)
	s.audit.Write(audit.SettingsChange, map[string]any{
		"user":    auth.UserFromContext(r.Context()).Username(),
		"setting": name,
		"action":  "unset",
	})
	writeJSON(w, 200, s.settingResp(name))
}
