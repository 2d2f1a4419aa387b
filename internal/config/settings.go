package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Built-in setting names.
const (
	SettingLogExceptions     = "log_exceptions"
	SettingDocFormat         = "doc_format"
	SettingDefaultEntryPoint = "default_entry_point"
	SettingHandlers          = "handlers"
	SettingXMLRPCAllowNone   = "xmlrpc_allow_none"
	SettingXMLRPCBuiltins    = "xmlrpc_use_builtin_types"
	SettingJSONRPCDateFormat = "jsonrpc_date_format"
)

// DefaultSettings returns the built-in defaults. Each call returns a
// fresh map.
func DefaultSettings() map[string]any {
	return map[string]any{
		SettingLogExceptions:     true,
		SettingDocFormat:         "",
		SettingDefaultEntryPoint: "__default_entry_point__",
		SettingHandlers:          []any{"jsonrpc", "xmlrpc"},
		SettingXMLRPCAllowNone:   true,
		SettingXMLRPCBuiltins:    true,
		SettingJSONRPCDateFormat: time.RFC3339,
	}
}

// Settings resolves a setting from the user layer first and falls back to
// the defaults. Nothing is cached: a Set is visible on the next lookup.
type Settings struct {
	mu       sync.RWMutex
	user     map[string]any
	defaults map[string]any
}

// NewSettings layers user over the built-in defaults.
func NewSettings(user map[string]any) *Settings {
	return NewSettingsWithDefaults(user, DefaultSettings())
}

// NewSettingsWithDefaults layers user over defaults. Both maps are copied.
func NewSettingsWithDefaults(user, defaults map[string]any) *Settings {
	s := &Settings{
		user:     make(map[string]any, len(user)),
		defaults: make(map[string]any, len(defaults)),
	}
	for k, v := range defaults {
		s.defaults[normName(k)] = v
	}
	for k, v := range user {
		s.user[normName(k)] = v
	}
	return s
}

func normName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns the user value for name if set, the default otherwise.
func (s *Settings) Get(name string) (any, bool) {
	name = normName(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.user[name]; ok {
		return v, true
	}
	v, ok := s.defaults[name]
	return v, ok
}

// Set overrides name in the user layer.
func (s *Settings) Set(name string, v any) {
	s.mu.Lock()
	s.user[normName(name)] = v
	s.mu.Unlock()
}

// Unset removes name from the user layer, exposing the default again.
func (s *Settings) Unset(name string) {
	s.mu.Lock()
	delete(s.user, normName(name))
	s.mu.Unlock()
}

// IsUserSet reports whether name is set in the user layer.
func (s *Settings) IsUserSet(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.user[normName(name)]
	return ok
}

// Names returns every known setting name, sorted.
func (s *Settings) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool, len(s.user)+len(s.defaults))
	for k := range s.defaults {
		seen[k] = true
	}
	for k := range s.user {
		seen[k] = true
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns the effective value of every setting.
func (s *Settings) Snapshot() map[string]any {
	out := make(map[string]any)
	for _, name := range s.Names() {
		v, _ := s.Get(name)
		out[name] = v
	}
	return out
}

func (s *Settings) String(name string) string {
	v, ok := s.Get(name)
	if !ok || v == nil {
		return ""
	}
	if str, ok := v.(string); ok {
		return str
	}
	return fmt.Sprint(v)
}

func (s *Settings) Bool(name string) bool {
	v, _ := s.Get(name)
	switch b := v.(type) {
	case bool:
		return b
	case string:
		ok, _ := strconv.ParseBool(b)
		return ok
	case int:
		return b != 0
	case float64:
		return b != 0
	}
	return false
}

func (s *Settings) Int(name string) int {
	v, _ := s.Get(name)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, _ := strconv.Atoi(strings.TrimSpace(n))
		return i
	}
	return 0
}

// Duration accepts Go duration strings or a number of seconds.
func (s *Settings) Duration(name string) time.Duration {
	v, _ := s.Get(name)
	switch d := v.(type) {
	case time.Duration:
		return d
	case string:
		if p, err := time.ParseDuration(strings.TrimSpace(d)); err == nil {
			return p
		}
	}
	return time.Duration(s.Int(name)) * time.Second
}
