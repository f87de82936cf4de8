package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/larder/internal/identity"
	"github.com/starford/larder/internal/units"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
	Units    UnitsConfig       `yaml:"units"`
	Matching MatchingConfig    `yaml:"matching"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Units.Validate(); err != nil {
		return err
	}
	if err := c.Matching.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig points at the directory of recipe, store and ingredient files.
// Watch re-indexes files as they change on disk.
type VaultConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// UnitsConfig selects the unit conversion table. An empty Path keeps the
// built-in table; Precision is the number of decimal places kept after a
// conversion.
type UnitsConfig struct {
	Path      string `yaml:"path"`
	Precision int32  `yaml:"precision"`
}

// Validate validates the units configuration.
func (c *UnitsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Precision, validation.Min(int32(0)), validation.Max(int32(10))),
	)
}

// Table loads the configured conversion table.
func (c *UnitsConfig) Table() (*units.Table, error) {
	t := units.Default()
	if c.Path != "" {
		var err error
		if t, err = units.Load(c.Path); err != nil {
			return nil, err
		}
	}
	return t.WithPrecision(c.Precision), nil
}

// MatchingConfig tunes fuzzy ingredient matching.
type MatchingConfig struct {
	Similarity float64 `yaml:"similarity"`
}

// Validate validates the matching configuration.
func (c *MatchingConfig) Validate() error {
	if c.Similarity <= 0 || c.Similarity > 1 {
		return fmt.Errorf("matching: similarity must be in (0, 1], got %v", c.Similarity)
	}
	return nil
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:  "./vault",
			Watch: true,
		},
		SQLite: SQLiteConfig{
			Path: "./larder.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Units: UnitsConfig{
			Precision: units.DefaultPrecision,
		},
		Matching: MatchingConfig{
			Similarity: identity.DefaultThreshold,
		},
	}
}
