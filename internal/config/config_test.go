// ABOUTME: Tests for configuration loading and validation
// ABOUTME: Covers env var expansion, duration parsing and required-field checks

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "login.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: /var/lib/fold/login.db
auth:
  request_token_secret: test-secret
  request_token_ttl: 30m
  remote_user_header: X-Remote-User
  public_prefixes:
    - /s/
    - /public/
backends:
  extra:
    sso:
      driver: trustedheader
      args: ["https://idp.example.com/logout"]
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.Server.HTTPAddr, ":8080")
	}
	if cfg.Auth.RequestTokenTTL != 30*time.Minute {
		t.Errorf("RequestTokenTTL = %v, want 30m", cfg.Auth.RequestTokenTTL)
	}
	if cfg.Auth.RemoteUserHeader != "X-Remote-User" {
		t.Errorf("RemoteUserHeader = %q, want %q", cfg.Auth.RemoteUserHeader, "X-Remote-User")
	}
	if len(cfg.Auth.PublicPrefixes) != 2 {
		t.Errorf("PublicPrefixes = %v, want 2 entries", cfg.Auth.PublicPrefixes)
	}

	spec, ok := cfg.Backends.Extra["sso"]
	if !ok {
		t.Fatal("backends.extra.sso missing")
	}
	if spec.Driver != "trustedheader" {
		t.Errorf("driver = %q, want %q", spec.Driver, "trustedheader")
	}
	if len(spec.Args) != 1 || spec.Args[0] != "https://idp.example.com/logout" {
		t.Errorf("args = %v, want logout URL", spec.Args)
	}

	if !cfg.Backends.DefaultEnabled() {
		t.Error("DefaultEnabled() = false, want true when use_default is unset")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("FOLD_TEST_SECRET", "from-env")

	path := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: /tmp/login.db
auth:
  request_token_secret: ${FOLD_TEST_SECRET}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.RequestTokenSecret != "from-env" {
		t.Errorf("RequestTokenSecret = %q, want %q", cfg.Auth.RequestTokenSecret, "from-env")
	}
}

func TestLoad_DefaultTTL(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: /tmp/login.db
auth:
  request_token_secret: test-secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.RequestTokenTTL != time.Hour {
		t.Errorf("RequestTokenTTL = %v, want default 1h", cfg.Auth.RequestTokenTTL)
	}
}

func TestLoad_DisableDefaultBackend(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: ":8080"
database:
  path: /tmp/login.db
auth:
  request_token_secret: test-secret
backends:
  use_default: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backends.DefaultEnabled() {
		t.Error("DefaultEnabled() = true, want false when use_default: false")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing http_addr",
			content: `
database:
  path: /tmp/login.db
auth:
  request_token_secret: s
`,
			wantErr: "http_addr",
		},
		{
			name: "missing database path",
			content: `
server:
  http_addr: ":8080"
auth:
  request_token_secret: s
`,
			wantErr: "database.path",
		},
		{
			name: "missing request token secret",
			content: `
server:
  http_addr: ":8080"
database:
  path: /tmp/login.db
`,
			wantErr: "request_token_secret",
		},
		{
			name: "extra backend without driver",
			content: `
server:
  http_addr: ":8080"
database:
  path: /tmp/login.db
auth:
  request_token_secret: s
backends:
  extra:
    broken:
      args: ["x"]
`,
			wantErr: "driver is required",
		},
		{
			name: "bad duration",
			content: `
server:
  http_addr: ":8080"
database:
  path: /tmp/login.db
auth:
  request_token_secret: s
  request_token_ttl: soon
`,
			wantErr: "request_token_ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() should have failed")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
