package internal

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.JWTSecret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.App.HTTP.Address() != ":3006" {
		t.Errorf("address = %q", cfg.App.HTTP.Address())
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsJWT(t *testing.T) {
	cfg := AuthConfig{Mode: "", JWTSecret: "x"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to jwt: %v", err)
	}
	if cfg.Mode != AuthModeJWT {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeJWT)
	}
	if cfg.TokenExpiry != 24*time.Hour {
		t.Errorf("token expiry = %v, want 24h", cfg.TokenExpiry)
	}
}

func TestAuthConfig_JWTModeEmptySecret(t *testing.T) {
	cfg := AuthConfig{Mode: "jwt"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("jwt mode with empty secret should fail")
	}
	if !strings.Contains(err.Error(), "jwt_secret is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", JWTSecret: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestAuthConfig_Users(t *testing.T) {
	cfg := AuthConfig{Mode: "jwt", JWTSecret: "x", Users: []UserConfig{
		{Username: "admin", Password: "pw", Role: "admin"},
		{Username: "", Password: "pw", Role: "viewer"},
	}}
	if err := cfg.Validate(); err == nil {
		t.Error("user without a name should fail validation")
	}

	cfg.Users[1].Username = "admin"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate user") {
		t.Errorf("duplicate user err = %v", err)
	}

	cfg.Users[1].Username = "reader"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid users: %v", err)
	}
	creds := cfg.Credentials()
	if len(creds) != 2 || creds[1].Username != "reader" || creds[1].Role != "viewer" {
		t.Errorf("credentials = %+v", creds)
	}
}

func TestIndexConfig_PathRequiredWhenEnabled(t *testing.T) {
	cfg := IndexConfig{Enabled: true}
	if err := cfg.Validate(); err == nil {
		t.Error("enabled index without path should fail")
	}
	cfg.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled index without path should pass: %v", err)
	}
}

func TestWatcherConfig_BadPattern(t *testing.T) {
	cfg := WatcherConfig{Ignore: []string{"[unclosed"}}
	if err := cfg.Validate(); err == nil {
		t.Error("malformed ignore glob should fail")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.JWTSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestHTTPConfig_PortRange(t *testing.T) {
	cfg := HTTPConfig{Port: 70000}
	if err := cfg.Validate(); err == nil {
		t.Error("out of range port should fail")
	}
}
