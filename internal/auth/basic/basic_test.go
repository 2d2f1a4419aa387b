package basic_test

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"rpc-auth-go/internal/auth"
	"rpc-auth-go/internal/auth/basic"
)

// fakeAuthenticator accepts fixed username/password pairs.
type fakeAuthenticator struct {
	users map[string]string
	perms map[string][]string
	calls int
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, username, password string) (auth.User, error) {
	f.calls++
	if pw, ok := f.users[username]; !ok || pw != password {
		return nil, basic.ErrInvalidCredentials
	}
	return auth.NewUser(username, username == "root", f.perms[username], []auth.Group{{ID: 1, Name: "ops"}}), nil
}

func newFake() *fakeAuthenticator {
	return &fakeAuthenticator{
		users: map[string]string{
			"alice": "secret",
			"root":  "toor",
			"carol": "a:b:c",
		},
		perms: map[string][]string{
			"alice": {"reports.view"},
		},
	}
}

func basicHeader(userpass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(userpass))
}

func requestWith(header string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/rpc", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	return req
}

func TestParseCredentials(t *testing.T) {
	cases := []struct {
		header string
		user   string
		pass   string
		ok     bool
	}{
		{basicHeader("alice:secret"), "alice", "secret", true},
		{"basic " + base64.StdEncoding.EncodeToString([]byte("alice:secret")), "alice", "secret", true},
		{"BASIC " + base64.StdEncoding.EncodeToString([]byte("alice:secret")), "alice", "secret", true},
		{basicHeader("carol:a:b:c"), "carol", "a:b:c", true},
		{basicHeader("empty:"), "empty", "", true},
		{basicHeader("ａlice:pw"), "alice", "pw", true}, // fullwidth a
		{basicHeader("nocolon"), "", "", false},
		{"Basic !!!notbase64", "", "", false},
		{"Bearer abc", "", "", false},
		{"Basic", "", "", false},
		{"Basic a b", "", "", false},
		{"", "", "", false},
	}
	for _, tc := range cases {
		user, pass, ok := basic.ParseCredentials(tc.header)
		if ok != tc.ok || user != tc.user || pass != tc.pass {
			t.Errorf("%q: got (%q, %q, %v), want (%q, %q, %v)", tc.header, user, pass, ok, tc.user, tc.pass, tc.ok)
		}
	}
}

func TestGetUser(t *testing.T) {
	fake := newFake()
	res := basic.NewResolver(fake)

	if u := res.GetUser(requestWith(basicHeader("alice:secret"))); u.Username() != "alice" {
		t.Fatalf("valid credentials resolved to %q", u.Username())
	}
	if u := res.GetUser(requestWith(basicHeader("carol:a:b:c"))); u.Username() != "carol" {
		t.Fatalf("password with colons resolved to %q", u.Username())
	}

	for _, h := range []string{"", basicHeader("alice:wrong"), basicHeader("nobody:x"), "Basic ###", "Digest abc"} {
		if u := res.GetUser(requestWith(h)); !u.IsAnonymous() {
			t.Errorf("%q resolved to %q", h, u.Username())
		}
	}
}

func TestGetUserPrefersContextUser(t *testing.T) {
	fake := newFake()
	res := basic.NewResolver(fake)

	req := requestWith(basicHeader("root:toor"))
	req = req.WithContext(auth.WithUser(req.Context(), auth.NewUser("session-user", false, nil, nil)))

	if u := res.GetUser(req); u.Username() != "session-user" {
		t.Fatalf("got %q, want the context user", u.Username())
	}
	if fake.calls != 0 {
		t.Fatalf("authenticator called %d times", fake.calls)
	}
}

func TestGetUserWithoutAuthenticator(t *testing.T) {
	res := &basic.Resolver{}
	if u := res.GetUser(requestWith(basicHeader("alice:secret"))); !u.IsAnonymous() {
		t.Fatalf("got %q", u.Username())
	}
}

func TestCheckUser(t *testing.T) {
	res := basic.NewResolver(newFake())

	ok, err := res.CheckUser(requestWith(basicHeader("alice:secret")), auth.Bool(auth.UserIsLogged))
	if err != nil || !ok {
		t.Fatalf("CheckUser = %v, %v", ok, err)
	}

	boom := errors.New("boom")
	_, err = res.CheckUser(requestWith(""), func(auth.User) (bool, error) { return false, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("validator error lost: %v", err)
	}
}

func TestRules(t *testing.T) {
	res := basic.NewResolver(newFake())

	alice := basicHeader("alice:secret")
	root := basicHeader("root:toor")

	cases := []struct {
		name   string
		rule   auth.Rule
		header string
		want   bool
	}{
		{"login anonymous", res.LoginRequired(), "", false},
		{"login alice", res.LoginRequired(), alice, true},
		{"superuser alice", res.SuperuserRequired(), alice, false},
		{"superuser root", res.SuperuserRequired(), root, true},
		{"perm held", res.PermissionsRequired("reports.view"), alice, true},
		{"perm missing", res.PermissionsRequired("reports.export"), alice, false},
		{"perms partial", res.PermissionsRequired("reports.view", "reports.export"), alice, false},
		{"perms root", res.PermissionsRequired("reports.view", "reports.export"), root, true},
		{"group member", res.GroupMemberRequired(auth.GroupByName("ops")), alice, true},
		{"group other", res.GroupMemberRequired(auth.GroupByName("finance")), alice, false},
		{"any group", res.GroupMemberRequired(auth.GroupsByName("finance", "ops")...), alice, true},
		{"group anonymous", res.GroupMemberRequired(auth.GroupByName("ops")), "", false},
	}
	for _, tc := range cases {
		ok, err := tc.rule.Eval(requestWith(tc.header))
		if err != nil || ok != tc.want {
			t.Errorf("%s: Eval = %v, %v, want %v", tc.name, ok, err, tc.want)
		}
	}
}

func TestRuleNames(t *testing.T) {
	res := basic.NewResolver(newFake())

	cases := []struct {
		rule auth.Rule
		want string
	}{
		{res.LoginRequired(), "basic.login_required"},
		{res.SuperuserRequired(), "basic.superuser_required"},
		{res.PermissionsRequired("a"), "basic.permission_required(a)"},
		{res.PermissionsRequired("a", "b"), "basic.permissions_required(a,b)"},
		{res.GroupMemberRequired(auth.GroupByName("g")), "basic.group_required(g)"},
		{res.GroupMemberRequired(auth.GroupsByName("g", "h")...), "basic.any_group_required(g,h)"},
	}
	for _, tc := range cases {
		if got := tc.rule.String(); got != tc.want {
			t.Errorf("got %q, want %q", got, tc.want)
		}
	}
}

func TestTwoRulesOnOneMethod(t *testing.T) {
	res := basic.NewResolver(newFake())
	rules := auth.NewRules(res.LoginRequired(), res.PermissionsRequired("reports.view"))

	if rules.Len() != 2 {
		t.Fatalf("Len = %d", rules.Len())
	}
	if ok, _ := rules.Allow(requestWith(basicHeader("alice:secret"))); !ok {
		t.Fatal("alice should pass both rules")
	}
	if ok, _ := rules.Allow(requestWith("")); ok {
		t.Fatal("anonymous passed")
	}
}
