package users

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"rpc-auth-go/internal/auth"
	"rpc-auth-go/internal/auth/basic"
)

var (
	ErrUnknownUser  = errors.New("unknown user")
	ErrUserDisabled = errors.New("user disabled")
	ErrUnknownGroup = errors.New("unknown group")
	ErrDuplicate    = errors.New("duplicate entry")
)

// GroupRecord is a group and the permissions its members inherit.
type GroupRecord struct {
	ID          int64    `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Permissions []string `yaml:"permissions" json:"permissions"`
}

// UserRecord is one entry of the users file.
type UserRecord struct {
	Username     string   `yaml:"username" json:"username"`
	PasswordHash string   `yaml:"password_hash" json:"-"`
	Superuser    bool     `yaml:"superuser" json:"superuser"`
	Disabled     bool     `yaml:"disabled" json:"disabled"`
	Permissions  []string `yaml:"permissions" json:"permissions"`
	Groups       []string `yaml:"groups" json:"groups"`
}

type directoryYAML struct {
	Groups []GroupRecord `yaml:"groups"`
	Users  []UserRecord  `yaml:"users"`
}

// Directory is an in-memory user store. A user's effective permissions
// are its own plus those of its groups.
type Directory struct {
	mu     sync.RWMutex
	users  map[string]*UserRecord
	groups map[string]*GroupRecord
}

func NewDirectory() *Directory {
	return &Directory{
		users:  make(map[string]*UserRecord),
		groups: make(map[string]*GroupRecord),
	}
}

// LoadDirectory reads a users file.
func LoadDirectory(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDirectory(data)
}

// ParseDirectory decodes a users document. Users may only reference
// groups declared in the same document.
func ParseDirectory(data []byte) (*Directory, error) {
	var doc directoryYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	d := NewDirectory()
	// explicit ids first so auto ids never take one a later group declares
	for _, explicit := range []bool{true, false} {
		for i := range doc.Groups {
			if (doc.Groups[i].ID != 0) != explicit {
				continue
			}
			if err := d.AddGroup(doc.Groups[i]); err != nil {
				return nil, fmt.Errorf("groups[%d]: %w", i, err)
			}
		}
	}
	for i := range doc.Users {
		if err := d.AddUser(doc.Users[i]); err != nil {
			return nil, fmt.Errorf("users[%d]: %w", i, err)
		}
	}
	return d, nil
}

func (d *Directory) AddGroup(g GroupRecord) error {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return errors.New("group name must be set")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.groups[g.Name]; ok {
		return fmt.Errorf("%w: group %s", ErrDuplicate, g.Name)
	}
	used := make(map[int64]bool, len(d.groups))
	for _, other := range d.groups {
		used[other.ID] = true
	}
	if g.ID == 0 {
		// lowest free id
		g.ID = 1
		for used[g.ID] {
			g.ID++
		}
	} else if used[g.ID] {
		return fmt.Errorf("%w: group id %d", ErrDuplicate, g.ID)
	}
	g.Permissions = append([]string(nil), g.Permissions...)
	d.groups[g.Name] = &g
	return nil
}

func (d *Directory) AddUser(u UserRecord) error {
	u.Username = strings.TrimSpace(u.Username)
	if u.Username == "" {
		return errors.New("username must be set")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.users[u.Username]; ok {
		return fmt.Errorf("%w: user %s", ErrDuplicate, u.Username)
	}
	for _, g := range u.Groups {
		if _, ok := d.groups[g]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownGroup, g)
		}
	}
	u.Permissions = append([]string(nil), u.Permissions...)
	u.Groups = append([]string(nil), u.Groups...)
	d.users[u.Username] = &u
	return nil
}

// SetPassword stores a bcrypt hash of password for username.
func (d *Directory) SetPassword(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[username]
	if !ok {
		return ErrUnknownUser
	}
	u.PasswordHash = string(hash)
	return nil
}

// Group returns the handle of the named group.
func (d *Directory) Group(name string) (auth.Group, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	g, ok := d.groups[name]
	if !ok {
		return auth.Group{}, false
	}
	return auth.Group{ID: g.ID, Name: g.Name}, true
}

// GroupNames returns every group name, sorted.
func (d *Directory) GroupNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.groups))
	for n := range d.groups {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the user named username without checking credentials.
// Disabled users are not returned.
func (d *Directory) Lookup(username string) (auth.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rec, ok := d.users[username]
	if !ok || rec.Disabled {
		return nil, false
	}
	return d.buildLocked(rec.Username, rec.Superuser, rec.Permissions, rec.Groups), true
}

// Authenticate implements basic.Authenticator.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (auth.User, error) {
	d.mu.RLock()
	rec, ok := d.users[username]
	var (
		hash     string
		disabled bool
	)
	if ok {
		hash, disabled = rec.PasswordHash, rec.Disabled
	}
	d.mu.RUnlock()

	if !ok || hash == "" {
		// keep timing close to a real comparison
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, basic.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, basic.ErrInvalidCredentials
	}
	if disabled {
		return nil, ErrUserDisabled
	}

	u, _ := d.Lookup(username)
	if u == nil {
		return nil, ErrUnknownUser
	}
	return u, nil
}

// Resolve builds a user for username with extra group names attached,
// merging whatever the directory knows about username. Used by backends
// that authenticate elsewhere.
func (d *Directory) Resolve(username string, extraGroups []string) auth.User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var (
		superuser bool
		perms     []string
		groups    []string
	)
	if rec, ok := d.users[username]; ok && !rec.Disabled {
		superuser = rec.Superuser
		perms = rec.Permissions
		groups = rec.Groups
	}
	groups = append(append([]string(nil), groups...), extraGroups...)
	return d.buildLocked(username, superuser, perms, groups)
}

func (d *Directory) buildLocked(username string, superuser bool, perms, groupNames []string) auth.User {
	all := append([]string(nil), perms...)
	groups := make([]auth.Group, 0, len(groupNames))
	seen := make(map[string]bool, len(groupNames))
	for _, name := range groupNames {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		g, ok := d.groups[name]
		if !ok {
			groups = append(groups, auth.Group{Name: name})
			continue
		}
		groups = append(groups, auth.Group{ID: g.ID, Name: g.Name})
		all = append(all, g.Permissions...)
	}
	return auth.NewUser(username, superuser, all, groups)
}

var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.MinCost)
