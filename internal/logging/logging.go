// Package logging provides named, hierarchical loggers on top of the
// standard log package.
//
// Names are dot separated; "rpcauth.auth.basic" is a child of
// "rpcauth.auth". A message written to a logger goes to its own outputs
// and, while propagation is on, to the outputs of every ancestor up to
// the root. Get attaches a discard output to a logger that would
// otherwise reach no output at all, so library code stays quiet in
// programs that never configure logging.
package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
)

// DefaultFlags are the log flags every logger uses.
const DefaultFlags = log.Ldate | log.Ltime | log.Lmicroseconds

type Logger struct {
	name   string
	parent *Logger

	mu        sync.RWMutex
	outputs   []io.Writer
	propagate bool

	std *log.Logger
}

type registry struct {
	mu      sync.Mutex
	root    *Logger
	loggers map[string]*Logger
}

var reg = newRegistry()

func newRegistry() *registry {
	r := &registry{loggers: make(map[string]*Logger)}
	r.root = newLogger("", nil)
	return r
}

func newLogger(name string, parent *Logger) *Logger {
	l := &Logger{name: name, parent: parent, propagate: true}
	prefix := ""
	if name != "" {
		prefix = "[" + name + "] "
	}
	l.std = log.New(l, prefix, DefaultFlags)
	return l
}

// lookup returns the logger for name, creating it and its ancestors.
func (r *registry) lookup(name string) *Logger {
	name = strings.Trim(name, ".")
	if name == "" {
		return r.root
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.loggers[name]; ok {
		return l
	}
	parent := r.root
	parts := strings.Split(name, ".")
	for i := range parts {
		n := strings.Join(parts[:i+1], ".")
		l, ok := r.loggers[n]
		if !ok {
			l = newLogger(n, parent)
			r.loggers[n] = l
		}
		parent = l
	}
	return parent
}

// Get returns the named logger. When neither the logger nor any ancestor
// reachable through propagation has an output, a discard output is
// attached to it.
func Get(name string) *Logger {
	l := reg.lookup(name)
	if !l.HasHandlers() {
		l.AddOutput(io.Discard)
	}
	return l
}

// Root returns the root logger.
func Root() *Logger { return reg.root }

// SetOutput replaces the outputs of the named logger with w.
// An empty name configures the root.
func SetOutput(name string, w io.Writer) {
	l := reg.lookup(name)
	l.mu.Lock()
	l.outputs = []io.Writer{w}
	l.mu.Unlock()
}

// SetPropagate controls whether the named logger forwards to its parent.
func SetPropagate(name string, on bool) {
	l := reg.lookup(name)
	l.mu.Lock()
	l.propagate = on
	l.mu.Unlock()
}

// Reset clears the outputs of every logger and turns propagation back on.
// Loggers keep their identity, so ones held in package variables see
// outputs configured afterwards. Meant for tests.
func Reset() {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.root.reset()
	for _, l := range reg.loggers {
		l.reset()
	}
}

func (l *Logger) reset() {
	l.mu.Lock()
	l.outputs = nil
	l.propagate = true
	l.mu.Unlock()
}

func (l *Logger) Name() string { return l.name }

// AddOutput attaches w to the logger.
func (l *Logger) AddOutput(w io.Writer) {
	l.mu.Lock()
	l.outputs = append(l.outputs, w)
	l.mu.Unlock()
}

// HasHandlers reports whether a message written to l reaches any output,
// walking up the hierarchy while propagation is on.
func (l *Logger) HasHandlers() bool {
	for c := l; c != nil; c = c.parent {
		c.mu.RLock()
		n, propagate := len(c.outputs), c.propagate
		c.mu.RUnlock()
		if n > 0 {
			return true
		}
		if !propagate {
			break
		}
	}
	return false
}

// Write sends p to the outputs of l and of its ancestors.
func (l *Logger) Write(p []byte) (int, error) {
	for c := l; c != nil; c = c.parent {
		c.mu.RLock()
		outs, propagate := c.outputs, c.propagate
		c.mu.RUnlock()
		for _, w := range outs {
			_, _ = w.Write(p)
		}
		if !propagate {
			break
		}
	}
	return len(p), nil
}

func (l *Logger) Printf(format string, args ...any) {
	_ = l.std.Output(2, fmt.Sprintf(format, args...))
}

func (l *Logger) Println(args ...any) {
	_ = l.std.Output(2, fmt.Sprintln(args...))
}
