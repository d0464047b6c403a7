package config

import "testing"

func TestParseEnvKeepsUnsetFields(t *testing.T) {
	t.Setenv("PARSE_ENV_TEST_PORT", "9191")

	target := struct {
		Port int    `env:"PARSE_ENV_TEST_PORT"`
		Name string `env:"PARSE_ENV_TEST_NAME_UNSET"`
	}{Port: 1, Name: "kept"}

	if err := ParseEnv(&target); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if target.Port != 9191 {
		t.Fatalf("expected port override, got %d", target.Port)
	}
	if target.Name != "kept" {
		t.Fatalf("expected unset field to keep value, got %q", target.Name)
	}
}

func TestParseEnvRejectsMalformedValue(t *testing.T) {
	t.Setenv("PARSE_ENV_TEST_BAD_INT", "not-a-number")

	target := struct {
		Count int `env:"PARSE_ENV_TEST_BAD_INT"`
	}{}
	if err := ParseEnv(&target); err == nil {
		t.Fatalf("expected parse error")
	}
}
