package config_test

import (
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"

	"rpc-auth-go/internal/config"
)

func TestSettingsUserWinsOverDefault(t *testing.T) {
	s := config.NewSettingsWithDefaults(
		map[string]any{"FOO": "user"},
		map[string]any{"foo": "default", "bar": "default"},
	)

	if v, _ := s.Get("foo"); v != "user" {
		t.Fatalf("foo = %v", v)
	}
	if v, _ := s.Get("bar"); v != "default" {
		t.Fatalf("bar = %v", v)
	}
	if _, ok := s.Get("baz"); ok {
		t.Fatal("unknown setting found")
	}
}

func TestSettingsRuntimeOverride(t *testing.T) {
	s := config.NewSettings(nil)

	if !s.Bool(config.SettingLogExceptions) {
		t.Fatal("log_exceptions default is true")
	}
	if s.IsUserSet(config.SettingLogExceptions) {
		t.Fatal("default reported as user set")
	}

	s.Set(config.SettingLogExceptions, false)
	if s.Bool(config.SettingLogExceptions) {
		t.Fatal("runtime change not visible on next lookup")
	}

	s.Unset(config.SettingLogExceptions)
	if !s.Bool(config.SettingLogExceptions) {
		t.Fatal("default not restored after Unset")
	}
}

func TestSettingsDoesNotAliasInputs(t *testing.T) {
	user := map[string]any{"a": 1}
	s := config.NewSettings(user)
	user["a"] = 2

	if s.Int("a") != 1 {
		t.Fatalf("a = %d", s.Int("a"))
	}

	d := config.DefaultSettings()
	d[config.SettingDocFormat] = "changed"
	if config.DefaultSettings()[config.SettingDocFormat] != "" {
		t.Fatal("DefaultSettings returned a shared map")
	}
}

func TestSettingsConversions(t *testing.T) {
	s := config.NewSettingsWithDefaults(map[string]any{
		"str_bool": "true",
		"int_str":  " 42 ",
		"float":    float64(7),
		"dur":      "90s",
		"dur_int":  30,
		"num":      12,
		"json_one": float64(1),
		"json_off": float64(0),
	}, nil)

	// JSON numbers decode to float64
	if !s.Bool("json_one") || s.Bool("json_off") {
		t.Fatal("Bool of float64")
	}
	if !s.Bool("str_bool") || s.Bool("missing") {
		t.Fatal("Bool")
	}
	if s.Int("int_str") != 42 || s.Int("float") != 7 {
		t.Fatal("Int")
	}
	if s.Duration("dur") != 90*time.Second || s.Duration("dur_int") != 30*time.Second {
		t.Fatal("Duration")
	}
	if s.String("num") != "12" || s.String("missing") != "" {
		t.Fatal("String")
	}
}

func TestSettingsNamesAndSnapshot(t *testing.T) {
	s := config.NewSettingsWithDefaults(map[string]any{"b": 2}, map[string]any{"a": 1, "b": 1})

	if diffs := deep.Equal(s.Names(), []string{"a", "b"}); diffs != nil {
		spew.Dump(diffs)
		t.Fatal("Names")
	}
	if diffs := deep.Equal(s.Snapshot(), map[string]any{"a": 1, "b": 2}); diffs != nil {
		spew.Dump(diffs)
		t.Fatal("Snapshot")
	}
}
