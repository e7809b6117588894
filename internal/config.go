package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/techdocs/internal/auth"
	"github.com/starford/techdocs/internal/watcher"
)

// Auth modes.
const (
	AuthModeJWT      = string(auth.ModeJWT)
	AuthModeDisabled = string(auth.ModeDisabled)
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Docs     DocsConfig        `yaml:"docs"`
	Auth     AuthConfig        `yaml:"auth"`
	Index    IndexConfig       `yaml:"index"`
	Watcher  WatcherConfig     `yaml:"watcher"`
	Markdown MarkdownConfig    `yaml:"markdown"`
	Web      WebConfig         `yaml:"web"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Docs.Validate(); err != nil {
		return fmt.Errorf("docs: %w", err)
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Index.Validate(); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	return c.Watcher.Validate()
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
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.CORSOrigins, validation.Each(validation.Required)),
	)
}

// DocsConfig holds the path to the document root.
type DocsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the docs configuration.
func (c *DocsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// UserConfig is one account allowed to log in.
type UserConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// Validate validates a user entry.
func (u UserConfig) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Username, validation.Required),
		validation.Field(&u.Password, validation.Required),
		validation.Field(&u.Role, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "jwt" (default): every /api route except login requires a Bearer JWT
//     signed with JWTSecret.
//   - "disabled": no authentication required, suitable for local dev.
type AuthConfig struct {
	Mode        string        `yaml:"mode"`
	JWTSecret   string        `yaml:"jwt_secret"`
	TokenExpiry time.Duration `yaml:"token_expiry"`
	Users       []UserConfig  `yaml:"users"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeJWT
	}
	if c.TokenExpiry == 0 {
		c.TokenExpiry = auth.DefaultExpiry
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeJWT, AuthModeDisabled)),
		validation.Field(&c.TokenExpiry, validation.Min(time.Minute)),
		validation.Field(&c.Users),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if c.Mode == AuthModeJWT && c.JWTSecret == "" {
		return fmt.Errorf("auth: mode is %q but jwt_secret is empty", AuthModeJWT)
	}
	seen := make(map[string]struct{}, len(c.Users))
	for _, u := range c.Users {
		if _, dup := seen[u.Username]; dup {
			return fmt.Errorf("auth: duplicate user %q", u.Username)
		}
		seen[u.Username] = struct{}{}
	}
	return nil
}

// AuthEnabled returns true when authentication is enforced.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeJWT
}

// Credentials converts the configured users for the authenticator.
func (c *AuthConfig) Credentials() []auth.Credentials {
	out := make([]auth.Credentials, 0, len(c.Users))
	for _, u := range c.Users {
		out = append(out, auth.Credentials{Username: u.Username, Password: u.Password, Role: u.Role})
	}
	return out
}

// IndexConfig holds the optional SQLite search index configuration.
type IndexConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// WatcherConfig holds filesystem watcher configuration.
type WatcherConfig struct {
	Enabled bool     `yaml:"enabled"`
	Ignore  []string `yaml:"ignore"`
}

// Validate validates the watcher configuration.
func (c *WatcherConfig) Validate() error {
	return watcher.ValidatePatterns(c.Ignore)
}

// MarkdownConfig holds HTML rendering options.
type MarkdownConfig struct {
	UnsafeHTML bool `yaml:"unsafe_html"`
	HardWraps  bool `yaml:"hard_wraps"`
}

// WebConfig points at the built front-end bundles. Empty directories are not
// served.
type WebConfig struct {
	EditorDir string `yaml:"editor_dir"`
	ViewerDir string `yaml:"viewer_dir"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:        3006,
				CORSOrigins: []string{"http://localhost:5173", "http://localhost:5174"},
			},
		},
		Docs: DocsConfig{
			Path: "./docs",
		},
		Auth: AuthConfig{
			Mode:        AuthModeJWT,
			TokenExpiry: auth.DefaultExpiry,
		},
		Index: IndexConfig{
			Enabled: true,
			Path:    "./techdocs.db",
		},
		Watcher: WatcherConfig{
			Enabled: true,
			Ignore:  append([]string(nil), watcher.DefaultIgnore...),
		},
	}
}
