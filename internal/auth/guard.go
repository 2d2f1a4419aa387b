package auth

import (
	"encoding/json"
	"fmt"
	"net/http"

	"rpc-auth-go/internal/logging"
)

var logger = logging.Get("rpcauth.auth")

// Guard returns middleware that lets a request through only when every
// rule passes. The resolved user is attached to the request context
// before the rules run. A denied anonymous request gets 401 with a Basic
// challenge for realm; a denied known user gets 403.
func Guard(res Resolver, realm string, rules Rules) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := res.GetUser(r)
			if UserIsLogged(u) {
				r = r.WithContext(WithUser(r.Context(), u))
			}

			failed, err := rules.Denied(r)
			if err != nil {
				logger.Printf("[ERROR] path=%s err=%v", r.URL.Path, err)
				writeDenied(w, http.StatusInternalServerError, "authorization error")
				return
			}
			if failed != nil {
				if !UserIsLogged(u) {
					w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", realm))
					writeDenied(w, http.StatusUnauthorized, "authentication required")
					return
				}
				logger.Printf("[DENY] user=%s path=%s rule=%s", u.Username(), r.URL.Path, failed)
				writeDenied(w, http.StatusForbidden, "permission denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeDenied(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"authorized": false, "error": msg})
}
