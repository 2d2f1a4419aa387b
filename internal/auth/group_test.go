package auth_test

import (
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"

	"rpc-auth-go/internal/auth"
)

func TestParseGroupRef(t *testing.T) {
	g := auth.Group{ID: 7, Name: "ops"}

	cases := []struct {
		in      any
		name    string
		handle  bool
		wantErr bool
	}{
		{"ops", "ops", false, false},
		{"  ops ", "ops", false, false},
		{g, "ops", true, false},
		{&g, "ops", true, false},
		{auth.GroupByName("ops"), "ops", false, false},
		{42, "", false, true},
		{nil, "", false, true},
		{(*auth.Group)(nil), "", false, true},
		{auth.GroupRef{}, "", false, true},
	}
	for _, tc := range cases {
		ref, err := auth.ParseGroupRef(tc.in)
		if tc.wantErr {
			if !errors.Is(err, auth.ErrGroupType) {
				t.Errorf("%#v: err = %v, want ErrGroupType", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%#v: unexpected error %v", tc.in, err)
			continue
		}
		if ref.Name() != tc.name || ref.IsHandle() != tc.handle {
			t.Errorf("%#v: got %s handle=%v", tc.in, ref, ref.IsHandle())
		}
	}
}

func TestParseGroupRefs(t *testing.T) {
	refs, err := auth.ParseGroupRefs([]any{"a", auth.Group{ID: 2, Name: "b"}})
	if err != nil {
		t.Fatal(err)
	}
	got := []string{refs[0].String(), refs[1].String()}
	if diffs := deep.Equal(got, []string{"a", "group#2(b)"}); diffs != nil {
		spew.Dump(diffs)
		t.Fatal("unexpected refs")
	}

	refs, err = auth.ParseGroupRefs("single")
	if err != nil || len(refs) != 1 || refs[0].Name() != "single" {
		t.Fatalf("single value: %v %v", refs, err)
	}

	if _, err := auth.ParseGroupRefs([]any{"a", 3.5}); !errors.Is(err, auth.ErrGroupType) {
		t.Fatalf("mixed list err = %v", err)
	}
}

func TestGroupRefMatches(t *testing.T) {
	renamed := auth.Group{ID: 1, Name: "renamed"}
	orig := auth.Group{ID: 1, Name: "orig"}
	nameOnly := auth.Group{Name: "orig"}

	if !auth.GroupByHandle(orig).Matches(renamed) {
		t.Fatal("handles with the same id must match")
	}
	if !auth.GroupByHandle(nameOnly).Matches(orig) {
		t.Fatal("handle without id must match by name")
	}
	if auth.GroupByName("orig").Matches(renamed) {
		t.Fatal("name ref matched another name")
	}
	if (auth.GroupRef{}).Matches(orig) {
		t.Fatal("zero ref matched")
	}
}
