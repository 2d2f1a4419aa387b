package auth

import (
	"errors"
	"fmt"
	"strings"
)

// ErrGroupType is returned when a group identifier is neither a group
// handle nor a group name.
var ErrGroupType = errors.New("group must be a name or a Group")

// Group is a handle on a group known to the user directory.
type Group struct {
	ID   int64  `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type groupRefKind uint8

const (
	groupRefInvalid groupRefKind = iota
	groupRefHandle
	groupRefName
)

// GroupRef identifies a group either by handle or by name.
// The zero value is invalid.
type GroupRef struct {
	kind   groupRefKind
	handle Group
	name   string
}

// GroupByName refers to a group by its name.
func GroupByName(name string) GroupRef {
	return GroupRef{kind: groupRefName, name: name}
}

// GroupByHandle refers to a specific group.
func GroupByHandle(g Group) GroupRef {
	return GroupRef{kind: groupRefHandle, handle: g}
}

// GroupsByName is a shorthand for a list of GroupByName refs.
func GroupsByName(names ...string) []GroupRef {
	out := make([]GroupRef, 0, len(names))
	for _, n := range names {
		out = append(out, GroupByName(n))
	}
	return out
}

// Matches reports whether g is the group ref points at. A handle matches
// on ID when both IDs are set, on name otherwise.
func (ref GroupRef) Matches(g Group) bool {
	switch ref.kind {
	case groupRefHandle:
		if ref.handle.ID != 0 && g.ID != 0 {
			return ref.handle.ID == g.ID
		}
		return ref.handle.Name == g.Name
	case groupRefName:
		return ref.name == g.Name
	}
	return false
}

// Name returns the group name the ref carries.
func (ref GroupRef) Name() string {
	if ref.kind == groupRefHandle {
		return ref.handle.Name
	}
	return ref.name
}

// IsHandle reports whether ref was built from a Group.
func (ref GroupRef) IsHandle() bool { return ref.kind == groupRefHandle }

func (ref GroupRef) String() string {
	switch ref.kind {
	case groupRefHandle:
		return fmt.Sprintf("group#%d(%s)", ref.handle.ID, ref.handle.Name)
	case groupRefName:
		return ref.name
	}
	return "<invalid group>"
}

func (ref GroupRef) validate() error {
	if ref.kind == groupRefInvalid {
		return ErrGroupType
	}
	return nil
}

// ParseGroupRef converts an untyped identifier, typically decoded from
// YAML, into a GroupRef. Strings become name refs, Group values become
// handle refs. Anything else fails with ErrGroupType.
func ParseGroupRef(v any) (GroupRef, error) {
	switch g := v.(type) {
	case GroupRef:
		if err := g.validate(); err != nil {
			return GroupRef{}, err
		}
		return g, nil
	case string:
		return GroupByName(strings.TrimSpace(g)), nil
	case Group:
		return GroupByHandle(g), nil
	case *Group:
		if g == nil {
			break
		}
		return GroupByHandle(*g), nil
	}
	return GroupRef{}, fmt.Errorf("%w: got %T", ErrGroupType, v)
}

// ParseGroupRefs accepts a single identifier or a list of them.
func ParseGroupRefs(v any) ([]GroupRef, error) {
	switch list := v.(type) {
	case []any:
		out := make([]GroupRef, 0, len(list))
		for _, it := range list {
			ref, err := ParseGroupRef(it)
			if err != nil {
				return nil, err
			}
			out = append(out, ref)
		}
		return out, nil
	case []string:
		return GroupsByName(list...), nil
	case []GroupRef:
		return append([]GroupRef(nil), list...), nil
	}
	ref, err := ParseGroupRef(v)
	if err != nil {
		return nil, err
	}
	return []GroupRef{ref}, nil
}
