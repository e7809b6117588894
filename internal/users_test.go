package internal

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/techdocs/internal/apperr"
	pkgconfig "github.com/starford/techdocs/pkg/config"
)

const sampleConfig = `app:
  http:
    port: 3006
auth:
  mode: jwt
  jwt_secret: ${JWT_SECRET}
  users:
    - username: admin
      password: admin123
      role: admin
`

func TestUsers_AddListRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := AddUser(path, UserConfig{Username: "reader", Password: "pw", Role: "viewer"}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if err := AddUser(path, UserConfig{Username: "reader", Password: "x", Role: "viewer"}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("duplicate add err = %v, want ErrConflict", err)
	}
	if err := AddUser(path, UserConfig{Username: "nopw", Role: "viewer"}); !errors.Is(err, apperr.ErrInvalidPath) {
		t.Errorf("invalid add err = %v, want ErrInvalidPath", err)
	}

	users, err := ListUsers(path)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 || users[1].Username != "reader" || users[1].Role != "viewer" {
		t.Errorf("users = %+v", users)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "${JWT_SECRET}") {
		t.Errorf("env placeholder lost:\n%s", data)
	}

	if err := RemoveUser(path, "admin"); err != nil {
		t.Fatalf("RemoveUser: %v", err)
	}
	if err := RemoveUser(path, "admin"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second remove err = %v, want ErrNotFound", err)
	}

	t.Setenv("JWT_SECRET", "s3cret")
	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("config no longer loads: %v", err)
	}
	if len(cfg.Auth.Users) != 1 || cfg.Auth.Users[0].Username != "reader" {
		t.Errorf("loaded users = %+v", cfg.Auth.Users)
	}
}

func TestUsers_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new", "config.yaml")

	users, err := ListUsers(path)
	if err != nil || len(users) != 0 {
		t.Fatalf("ListUsers on missing file = %v, %v", users, err)
	}
	if err := AddUser(path, UserConfig{Username: "admin", Password: "pw", Role: "admin"}); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	users, err = ListUsers(path)
	if err != nil || len(users) != 1 {
		t.Errorf("users = %+v, %v", users, err)
	}
}
