package auth_test

import (
	"errors"
	"testing"

	"rpc-auth-go/internal/auth"
)

var (
	groupA = auth.Group{ID: 1, Name: "A"}
	groupB = auth.Group{ID: 2, Name: "B"}
	groupC = auth.Group{ID: 3, Name: "C"}
)

func testUsers() (anon, plain, withPerms, member, super auth.User) {
	anon = auth.Anonymous
	plain = auth.NewUser("plain", false, nil, nil)
	withPerms = auth.NewUser("perms", false, []string{"A", "B"}, nil)
	member = auth.NewUser("member", false, nil, []auth.Group{groupA, groupB})
	super = auth.NewUser("root", true, nil, nil)
	return
}

func TestUserIsLoggedAndSuperuser(t *testing.T) {
	anon, plain, _, _, super := testUsers()

	cases := []struct {
		name      string
		u         auth.User
		logged    bool
		superuser bool
	}{
		{"nil", nil, false, false},
		{"anonymous", anon, false, false},
		{"plain", plain, true, false},
		{"superuser", super, true, true},
	}
	for _, tc := range cases {
		if got := auth.UserIsLogged(tc.u); got != tc.logged {
			t.Errorf("%s: UserIsLogged = %v, want %v", tc.name, got, tc.logged)
		}
		if got := auth.UserIsSuperuser(tc.u); got != tc.superuser {
			t.Errorf("%s: UserIsSuperuser = %v, want %v", tc.name, got, tc.superuser)
		}
	}
}

func TestPermissionPredicates(t *testing.T) {
	anon, plain, withPerms, _, super := testUsers()

	cases := []struct {
		name  string
		u     auth.User
		perms []string
		all   bool
		any   bool
	}{
		{"holder A,B", withPerms, []string{"A", "B"}, true, true},
		{"holder A,C", withPerms, []string{"A", "C"}, false, true},
		{"holder C,D", withPerms, []string{"C", "D"}, false, false},
		{"plain", plain, []string{"A"}, false, false},
		{"anonymous", anon, []string{"A"}, false, false},
		{"superuser C,D", super, []string{"C", "D"}, true, true},
	}
	for _, tc := range cases {
		if got := auth.UserHasAllPerms(tc.u, tc.perms); got != tc.all {
			t.Errorf("%s: UserHasAllPerms = %v, want %v", tc.name, got, tc.all)
		}
		if got := auth.UserHasAnyPerm(tc.u, tc.perms); got != tc.any {
			t.Errorf("%s: UserHasAnyPerm = %v, want %v", tc.name, got, tc.any)
		}
	}

	if !auth.UserHasPerm(withPerms, "A") {
		t.Fatal("holder of A lacks A")
	}
	if auth.UserHasPerm(withPerms, "C") {
		t.Fatal("holder of A,B has C")
	}
	if !auth.UserHasPerm(super, "anything") {
		t.Fatal("superuser must hold every permission")
	}
	if auth.UserHasPerm(nil, "A") {
		t.Fatal("nil user holds A")
	}
}

func TestGroupPredicates(t *testing.T) {
	anon, plain, _, member, super := testUsers()

	cases := []struct {
		name string
		u    auth.User
		refs []auth.GroupRef
		one  bool // UserInGroup(refs[0])
		any  bool
		all  bool
	}{
		{"member A,B", member, auth.GroupsByName("A", "B"), true, true, true},
		{"member A,C", member, auth.GroupsByName("A", "C"), true, true, false},
		{"member C", member, auth.GroupsByName("C"), false, false, false},
		{"member by handle", member, []auth.GroupRef{auth.GroupByHandle(groupB)}, true, true, true},
		{"member by foreign handle", member, []auth.GroupRef{auth.GroupByHandle(groupC)}, false, false, false},
		{"plain", plain, auth.GroupsByName("A"), false, false, false},
		{"anonymous", anon, auth.GroupsByName("A"), false, false, false},
		{"superuser", super, auth.GroupsByName("C", "D"), true, true, true},
	}
	for _, tc := range cases {
		one, err := auth.UserInGroup(tc.u, tc.refs[0])
		if err != nil || one != tc.one {
			t.Errorf("%s: UserInGroup = %v, %v, want %v", tc.name, one, err, tc.one)
		}
		inAny, err := auth.UserInAnyGroup(tc.u, tc.refs)
		if err != nil || inAny != tc.any {
			t.Errorf("%s: UserInAnyGroup = %v, %v, want %v", tc.name, inAny, err, tc.any)
		}
		inAll, err := auth.UserInAllGroups(tc.u, tc.refs)
		if err != nil || inAll != tc.all {
			t.Errorf("%s: UserInAllGroups = %v, %v, want %v", tc.name, inAll, err, tc.all)
		}
	}
}

func TestUserInGroupInvalidRef(t *testing.T) {
	_, _, _, member, super := testUsers()

	for _, u := range []auth.User{auth.Anonymous, member, super} {
		_, err := auth.UserInGroup(u, auth.GroupRef{})
		if !errors.Is(err, auth.ErrGroupType) {
			t.Errorf("%s: err = %v, want ErrGroupType", u.Username(), err)
		}
	}

	_, err := auth.UserInAnyGroup(member, []auth.GroupRef{auth.GroupByName("C"), {}})
	if !errors.Is(err, auth.ErrGroupType) {
		t.Fatalf("UserInAnyGroup err = %v, want ErrGroupType", err)
	}
}
