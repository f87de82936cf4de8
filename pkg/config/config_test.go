package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("LARDER_TEST_NAME", "kitchen")
	t.Setenv("LARDER_TEST_EMPTY", "")
	p := writeFile(t, "name: ${LARDER_TEST_NAME}\nport: ${LARDER_TEST_PORT:-9090}\ntoken: \"${LARDER_TEST_EMPTY:-fallback}\"\n")

	var cfg sample
	if err := Load(p, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "kitchen" || cfg.Port != 9090 || cfg.Token != "fallback" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_KeepsDefaults(t *testing.T) {
	p := writeFile(t, "name: only-name\n")
	cfg := sample{Port: 8080}
	if err := Load(p, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 || cfg.Name != "only-name" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg := sample{Port: 1}
	if err := Load(writeFile(t, ""), &cfg); err != nil {
		t.Errorf("empty file should keep defaults: %v", err)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	var cfg sample
	err := Load(writeFile(t, "name: x\nport: 1\ncolour: blue\n"), &cfg)
	if err == nil || !strings.Contains(err.Error(), "colour") {
		t.Errorf("unknown key error = %v", err)
	}
}

func TestLoad_ValidationFails(t *testing.T) {
	var cfg sample
	err := Load(writeFile(t, "name: x\n"), &cfg)
	if err == nil || !strings.Contains(err.Error(), "config validation failed") {
		t.Errorf("validation error = %v", err)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	def := writeFile(t, "port: 7\n")
	var cfg sample
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), def, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 7 {
		t.Errorf("port = %d, want 7", cfg.Port)
	}
	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"), "", &cfg); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file without default = %v, want ErrNotFound", err)
	}
}
