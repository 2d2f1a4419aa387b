// Package registry records RPC methods with the rules guarding them and
// answers whether a request may call a method. It never invokes methods.
package registry

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/thejerf/abtime"

	"rpc-auth-go/internal/auth"
	"rpc-auth-go/internal/config"
	"rpc-auth-go/internal/logging"
)

// Method is the registration record of one RPC procedure.
type Method struct {
	Name      string
	Help      string
	Signature []string
	Rules     auth.Rules
}

type Registry struct {
	mu       sync.RWMutex
	methods  map[string]Method
	settings *config.Settings
	clock    abtime.AbstractTime
	logger   *logging.Logger
}

// New returns an empty registry. settings may be nil.
func New(settings *config.Settings) *Registry {
	if settings == nil {
		settings = config.NewSettings(nil)
	}
	return &Registry{
		methods:  make(map[string]Method),
		settings: settings,
		clock:    abtime.NewRealTime(),
		logger:   logging.Get("rpcauth.registry"),
	}
}

// WithClock sets the clock stamping catalogs.
func (reg *Registry) WithClock(clock abtime.AbstractTime) *Registry {
	reg.clock = clock
	return reg
}

func (reg *Registry) Register(m Method) error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return fmt.Errorf("method name must be set")
	}
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.methods[m.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateMethod, m.Name)
	}
	m.Signature = append([]string(nil), m.Signature...)
	reg.methods[m.Name] = m
	return nil
}

func (reg *Registry) Method(name string) (Method, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	m, ok := reg.methods[name]
	return m, ok
}

// Methods returns every registered method sorted by name.
func (reg *Registry) Methods() []Method {
	reg.mu.RLock()
	out := make([]Method, 0, len(reg.methods))
	for _, m := range reg.methods {
		out = append(out, m)
	}
	reg.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Authorize evaluates the rules of the named method for r. It returns nil
// when every rule passes and a *Fault otherwise.
func (reg *Registry) Authorize(r *http.Request, name string) error {
	m, ok := reg.Method(name)
	if !ok {
		return methodNotFound(name)
	}

	rule, err := m.Rules.Denied(r)
	if err != nil {
		if reg.settings.Bool(config.SettingLogExceptions) {
			reg.logger.Printf("[ERROR] method=%s err=%v", name, err)
		}
		return internalError(err)
	}
	if rule != nil {
		if reg.settings.Bool(config.SettingLogExceptions) {
			reg.logger.Printf("[DENY] method=%s rule=%s", name, rule)
		}
		return authenticationFailed(name)
	}
	return nil
}

// AuthorizeBatch authorizes each name independently, the way a multicall
// isolates the faults of its sub-calls. The result is index aligned with
// names.
func (reg *Registry) AuthorizeBatch(r *http.Request, names []string) []error {
	out := make([]error, len(names))
	for i, name := range names {
		out[i] = reg.Authorize(r, name)
	}
	return out
}
