package internal

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if !cfg.Vault.Watch || cfg.SQLite.Path != "./larder.db" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestMatchingConfig_Bounds(t *testing.T) {
	for _, v := range []float64{0, -0.5, 1.01} {
		cfg := MatchingConfig{Similarity: v}
		if err := cfg.Validate(); err == nil {
			t.Errorf("similarity %v should fail", v)
		}
	}
	cfg := MatchingConfig{Similarity: 1}
	if err := cfg.Validate(); err != nil {
		t.Errorf("similarity 1 should pass: %v", err)
	}
}

func TestUnitsConfig_Precision(t *testing.T) {
	cfg := UnitsConfig{Precision: 11}
	if err := cfg.Validate(); err == nil {
		t.Error("precision 11 should fail")
	}

	cfg = UnitsConfig{Precision: 1}
	tbl, err := cfg.Table()
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Precision() != 1 {
		t.Errorf("precision = %d, want 1", tbl.Precision())
	}
}

func TestUnitsConfig_MissingFile(t *testing.T) {
	cfg := UnitsConfig{Path: filepath.Join(t.TempDir(), "nope.yaml"), Precision: 3}
	if _, err := cfg.Table(); err == nil {
		t.Error("missing units file should fail")
	}
}
