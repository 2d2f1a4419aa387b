package auth

import "sort"

// User is the identity a request acts as. The auth layer only consumes
// users; they are produced by a user directory, a RADIUS backend or the
// session middleware.
type User interface {
	Username() string
	IsAnonymous() bool
	IsSuperuser() bool

	// HasPerm reports whether the user holds the named permission.
	HasPerm(perm string) bool
	// HasPerms reports whether the user holds every named permission.
	HasPerms(perms []string) bool

	// InGroup resolves ref and reports membership. It fails with
	// ErrGroupType when ref carries neither a handle nor a name.
	InGroup(ref GroupRef) (bool, error)
}

// Anonymous is the user of a request without valid credentials.
var Anonymous User = anonymousUser{}

type anonymousUser struct{}

func (anonymousUser) Username() string       { return "" }
func (anonymousUser) IsAnonymous() bool      { return true }
func (anonymousUser) IsSuperuser() bool      { return false }
func (anonymousUser) HasPerm(string) bool    { return false }
func (anonymousUser) HasPerms([]string) bool { return false }
func (anonymousUser) InGroup(ref GroupRef) (bool, error) {
	if err := ref.validate(); err != nil {
		return false, err
	}
	return false, nil
}

// StaticUser is a User with a fixed set of permissions and groups.
type StaticUser struct {
	Name      string
	Superuser bool

	perms  map[string]struct{}
	groups []Group
}

// NewUser returns a StaticUser holding the given permissions and groups.
func NewUser(name string, superuser bool, perms []string, groups []Group) *StaticUser {
	u := &StaticUser{
		Name:      name,
		Superuser: superuser,
		perms:     make(map[string]struct{}, len(perms)),
		groups:    append([]Group(nil), groups...),
	}
	for _, p := range perms {
		u.perms[p] = struct{}{}
	}
	return u
}

func (u *StaticUser) Username() string  { return u.Name }
func (u *StaticUser) IsAnonymous() bool { return false }
func (u *StaticUser) IsSuperuser() bool { return u.Superuser }

// HasPerm does not apply the superuser shortcut; predicates do.
func (u *StaticUser) HasPerm(perm string) bool {
	_, ok := u.perms[perm]
	return ok
}

func (u *StaticUser) HasPerms(perms []string) bool {
	for _, p := range perms {
		if !u.HasPerm(p) {
			return false
		}
	}
	return true
}

func (u *StaticUser) InGroup(ref GroupRef) (bool, error) {
	if err := ref.validate(); err != nil {
		return false, err
	}
	for _, g := range u.groups {
		if ref.Matches(g) {
			return true, nil
		}
	}
	return false, nil
}

// Permissions returns the user's permissions, sorted.
func (u *StaticUser) Permissions() []string {
	out := make([]string, 0, len(u.perms))
	for p := range u.perms {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Groups returns a copy of the user's groups.
func (u *StaticUser) Groups() []Group {
	return append([]Group(nil), u.groups...)
}
