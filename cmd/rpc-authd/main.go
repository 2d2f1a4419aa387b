package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"

	"rpc-auth-go/internal/audit"
	"rpc-auth-go/internal/auth/basic"
	"rpc-auth-go/internal/config"
	httpapi "rpc-auth-go/internal/http"
	"rpc-auth-go/internal/logging"
	"rpc-auth-go/internal/registry"
	"rpc-auth-go/internal/session"
	"rpc-auth-go/internal/users"
)

// httpService runs the admin API under the supervisor.
type httpService struct {
	addr    string
	handler http.Handler
}

func (s *httpService) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return ctx.Err()
	}
}

func (s *httpService) String() string { return "http " + s.addr }

// backend builds the credential checker and the lookup used for session
// and token users. The accounter is nil unless RADIUS accounting is on.
func backend(cfg *config.Config) (basic.Authenticator, session.UserLookup, httpapi.Accounter, error) {
	dir := users.NewDirectory()
	if cfg.Auth.UsersFile != "" {
		d, err := users.LoadDirectory(cfg.Auth.UsersFile)
		if err != nil {
			return nil, nil, nil, err
		}
		dir = d
	}

	if cfg.Auth.Backend != "radius" {
		return dir, dir, nil, nil
	}

	secret, err := config.ResolveSecret(cfg.Radius.SecretRef)
	if err != nil {
		return nil, nil, nil, err
	}
	rb := users.NewRadiusBackend(
		cfg.Radius.Server,
		[]byte(secret),
		cfg.Radius.NASIdentifier,
		time.Duration(cfg.Radius.TimeoutSeconds)*time.Second,
		dir,
	)
	if cfg.Radius.AcctServer == "" {
		return rb, rb, nil, nil
	}
	rb.AcctServer = cfg.Radius.AcctServer
	return rb, rb, rb, nil
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	logging.SetOutput("", os.Stderr)

	cfgPath := os.Getenv("RPCAUTH_CONFIG")
	if cfgPath == "" {
		cfgPath = "/app/config/rpcauth.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[BOOT] load config failed: %v", err)
	}

	// audit secret
	auditSecret := ""
	if cfg.Audit.Enabled {
		auditSecret, err = config.ResolveSecret(cfg.Audit.SecretRef)
		if err != nil {
			log.Fatalf("[BOOT] resolve audit secret failed: %v", err)
		}
	}
	aud := audit.New(cfg.Audit.Enabled, auditSecret)

	authn, lookup, acct, err := backend(cfg)
	if err != nil {
		log.Fatalf("[BOOT] user backend %s failed: %v", cfg.Auth.Backend, err)
	}
	basicRes := basic.NewResolver(authn)

	settings := config.NewSettings(cfg.Settings)
	reg := registry.New(settings)
	if err := reg.Bind(cfg.Methods, basicRes); err != nil {
		log.Fatalf("[BOOT] method bindings: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	supervisor := suture.NewSimple("rpc-authd")

	var store session.Store
	if cfg.Redis.Enabled {
		redisPwd := ""
		if cfg.Redis.AuthRef != "" {
			redisPwd, _ = config.ResolveSecret(cfg.Redis.AuthRef)
		}
		rs := session.NewRedisStore(session.NewRedisClient(cfg, redisPwd), cfg.Redis.Prefix)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rs.Ping(pingCtx); err != nil {
			log.Printf("[BOOT] redis ping failed: %v", err)
		}
		cancel()
		store = rs
	} else {
		ms := session.NewMemoryStore(nil)
		supervisor.Add(ms)
		store = ms
	}

	var issuer *session.JWTIssuer
	if cfg.JWT.SecretRef != "" {
		secret, err := config.ResolveSecret(cfg.JWT.SecretRef)
		if err != nil {
			log.Fatalf("[BOOT] resolve jwt secret failed: %v", err)
		}
		issuer = session.NewJWTIssuer([]byte(secret), cfg.JWT.Issuer, time.Duration(cfg.JWT.TTLSeconds)*time.Second)
	} else {
		log.Printf("[BOOT] jwt.secret_ref not set, bearer tokens disabled")
	}

	ttl := time.Duration(cfg.Session.TTLSeconds) * time.Second
	srv := httpapi.New(cfg, httpapi.Deps{
		Registry:   reg,
		Settings:   settings,
		Basic:      basicRes,
		Sessions:   session.NewMiddleware(lookup, store, issuer, cfg.Session.CookieName, ttl),
		Store:      store,
		Issuer:     issuer,
		Audit:      aud,
		Accounting: acct,
	})

	supervisor.Add(&httpService{addr: cfg.Addr(), handler: srv.Router()})

	log.Printf("[BOOT] starting %s on %s backend=%s methods=%d", cfg.Server.Name, cfg.Addr(), cfg.Auth.Backend, len(reg.Methods()))
	if err := supervisor.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
	log.Printf("[BOOT] stopped")
}
