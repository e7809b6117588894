package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port == 0 {
		return os.ErrInvalid
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TECHDOCS_TEST_NAME", "docs")
	p := writeConfig(t, "name: ${TECHDOCS_TEST_NAME}\nport: 3006\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "docs" || s.Port != 3006 {
		t.Errorf("loaded %+v", s)
	}
}

func TestLoad_Validates(t *testing.T) {
	p := writeConfig(t, "name: x\n")
	var s sample
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	def := writeConfig(t, "port: 1\n")
	own := writeConfig(t, "port: 2\n")
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	var s sample
	used, err := LoadWithDefaults(missing, def, &s)
	if err != nil {
		t.Fatalf("fallback: %v", err)
	}
	if used != def || s.Port != 1 {
		t.Errorf("fallback loaded %q port=%d", used, s.Port)
	}

	s = sample{}
	used, err = LoadWithDefaults(own, def, &s)
	if err != nil {
		t.Fatalf("own file: %v", err)
	}
	if used != own || s.Port != 2 {
		t.Errorf("own file loaded %q port=%d", used, s.Port)
	}

	if _, err := LoadWithDefaults(missing, "", &s); err == nil {
		t.Error("expected error without a default file")
	}
	if _, err := LoadWithDefaults(missing, missing, &s); err == nil {
		t.Error("expected error when the default is the missing file")
	}
}

func TestDocumentRoundTripKeepsPlaceholders(t *testing.T) {
	p := writeConfig(t, "# main config\nname: ${SECRET_NAME}\nport: 3006\n")

	doc, err := LoadDocument(p)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if err := SaveDocument(p, doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "${SECRET_NAME}") {
		t.Errorf("placeholder lost:\n%s", data)
	}
	if !strings.Contains(string(data), "# main config") {
		t.Errorf("comment lost:\n%s", data)
	}

	info, err := os.Stat(p)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestLoadDocument_Missing(t *testing.T) {
	doc, err := LoadDocument(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if len(doc.Content) != 1 {
		t.Errorf("content = %d nodes, want 1", len(doc.Content))
	}
}
