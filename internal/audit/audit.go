package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	AuthzAllow     = "authz.allow"
	AuthzDeny      = "authz.deny"
	TokenIssue     = "token.issue"
	SessionCreate  = "session.create"
	SessionDelete  = "session.delete"
	SettingsChange = "settings.change"
)

// Logger writes HMAC signed JSON lines, one per event.
type Logger struct {
	Enabled bool
	Secret  []byte

	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

func New(enabled bool, secret string) *Logger {
	return &Logger{
		Enabled: enabled,
		Secret:  []byte(secret),
		out:     os.Stdout,
		now:     time.Now,
	}
}

// SetOutput redirects events to w.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.out = w
	l.mu.Unlock()
}

func (l *Logger) Sign(payload []byte) string {
	m := hmac.New(sha256.New, l.Secret)
	m.Write(payload)
	return hex.EncodeToString(m.Sum(nil))
}

// Verify reports whether line is a signed event produced with this
// logger's secret.
func (l *Logger) Verify(line []byte) bool {
	var event map[string]any
	if err := json.Unmarshal(line, &event); err != nil {
		return false
	}
	sig, ok := event["sig"].(string)
	if !ok {
		return false
	}
	delete(event, "sig")
	b, err := json.Marshal(event)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(sig), []byte(l.Sign(b)))
}

// Write emits event of type typ. The fields id, type and ts are filled
// in unless already present.
func (l *Logger) Write(typ string, event map[string]any) {
	if l == nil || !l.Enabled {
		return
	}
	tmp := make(map[string]any, len(event)+4)
	for k, v := range event {
		if k == "sig" {
			continue
		}
		tmp[k] = v
	}
	if _, ok := tmp["id"]; !ok {
		tmp["id"] = uuid.NewString()
	}
	if _, ok := tmp["type"]; !ok {
		tmp["type"] = typ
	}
	if _, ok := tmp["ts"]; !ok {
		tmp["ts"] = l.now().Unix()
	}

	// sign without sig, then add it
	b, err := json.Marshal(tmp)
	if err != nil {
		return
	}
	tmp["sig"] = l.Sign(b)
	out, _ := json.Marshal(tmp)

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(append(out, '\n'))
}
