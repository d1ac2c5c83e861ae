package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/flowvana/flowlight/internal/auth"
)

func setupContextTestDir(t *testing.T) string {
	t.Helper()
	keyring.MockInit()
	dir := t.TempDir()
	contextsDirFunc = func() (string, error) { return dir, nil }
	t.Cleanup(func() { contextsDirFunc = defaultContextsDir })
	return dir
}

func TestSaveAndLoadContextConfig(t *testing.T) {
	dir := setupContextTestDir(t)

	cfg := ContextConfig{
		Headers:     map[string]string{"X-Team": "growth"},
		Cookies:     map[string]string{"session": "abc123"},
		Environment: map[string]string{"API_URL": "https://example.com"},
		Metadata:    map[string]any{"region": "us-east-1"},
	}
	if err := SaveContextConfig("test-ctx", cfg); err != nil {
		t.Fatalf("SaveContextConfig: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "test-ctx.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != SecretFilePerm {
		t.Errorf("perm = %o, want %o", perm, SecretFilePerm)
	}

	loaded, err := LoadContextConfig("test-ctx")
	if err != nil {
		t.Fatalf("LoadContextConfig: %v", err)
	}
	if loaded.Headers["X-Team"] != "growth" {
		t.Errorf("header mismatch: got %q", loaded.Headers["X-Team"])
	}
	if loaded.Cookies["session"] != "abc123" {
		t.Errorf("cookie mismatch: got %q", loaded.Cookies["session"])
	}
	if loaded.Environment["API_URL"] != "https://example.com" {
		t.Errorf("env mismatch: got %q", loaded.Environment["API_URL"])
	}
	if loaded.Metadata["region"] != "us-east-1" {
		t.Errorf("metadata mismatch: got %v", loaded.Metadata["region"])
	}
}

func TestLoadContextConfig_NotFound(t *testing.T) {
	setupContextTestDir(t)

	cfg, err := LoadContextConfig("nonexistent")
	if err != nil {
		t.Fatalf("expected nil error for missing config, got: %v", err)
	}
	if cfg.Headers != nil || cfg.Cookies != nil || cfg.Environment != nil || cfg.Metadata != nil {
		t.Errorf("expected empty config, got: %+v", cfg)
	}
}

func TestContextNameValidation(t *testing.T) {
	setupContextTestDir(t)

	for _, name := range []string{"", "..", "a/b", `a\b`} {
		if _, err := contextConfigPath(name); err == nil {
			t.Errorf("contextConfigPath(%q) should fail", name)
		}
	}
}

func TestContextCredentialsRoundTrip(t *testing.T) {
	setupContextTestDir(t)

	cred := &Credentials{BearerToken: "tok-123", Tokens: map[string]string{"docs": "d-1"}}
	if err := SaveContextCredentials("prod", cred); err != nil {
		t.Fatalf("SaveContextCredentials: %v", err)
	}
	got, err := LoadContextCredentials("prod")
	if err != nil {
		t.Fatalf("LoadContextCredentials: %v", err)
	}
	if got == nil || got.BearerToken != "tok-123" || got.Tokens["docs"] != "d-1" {
		t.Fatalf("credentials = %+v", got)
	}
	if !ContextExists("prod") {
		t.Error("context with only credentials should exist")
	}

	if err := SaveContextCredentials("prod", nil); err != nil {
		t.Fatalf("SaveContextCredentials(nil): %v", err)
	}
	got, err = LoadContextCredentials("prod")
	if err != nil || got != nil {
		t.Errorf("expected no credentials after delete, got %+v, %v", got, err)
	}
}

func TestDeleteContext(t *testing.T) {
	dir := setupContextTestDir(t)

	if err := SaveContextConfig("doomed", ContextConfig{Headers: map[string]string{"X-Test": "value"}}); err != nil {
		t.Fatalf("SaveContextConfig: %v", err)
	}
	if err := SaveContextCredentials("doomed", &Credentials{BearerToken: "x"}); err != nil {
		t.Fatalf("SaveContextCredentials: %v", err)
	}
	if err := DeleteContext("doomed"); err != nil {
		t.Fatalf("DeleteContext: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "doomed.json")); !os.IsNotExist(err) {
		t.Errorf("config file should be gone, stat err = %v", err)
	}
	if ContextExists("doomed") {
		t.Error("context should not exist after delete")
	}
	if err := DeleteContext("doomed"); err != nil {
		t.Errorf("deleting a missing context should be a no-op, got %v", err)
	}
}

func TestListContexts(t *testing.T) {
	dir := setupContextTestDir(t)

	if err := SaveContextConfig("zeta", ContextConfig{Cookies: map[string]string{"a": "1", "b": "2"}}); err != nil {
		t.Fatal(err)
	}
	if err := SaveContextConfig("alpha", ContextConfig{Headers: map[string]string{"h": "v"}}); err != nil {
		t.Fatal(err)
	}
	if err := SaveContextCredentials("alpha", &Credentials{BearerToken: "t"}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	list, err := ListContexts()
	if err != nil {
		t.Fatalf("ListContexts: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("got %d contexts, want 3: %+v", len(list), list)
	}
	if list[0].Name != "alpha" || !list[0].HasCredentials || list[0].HeaderCount != 1 {
		t.Errorf("alpha = %+v", list[0])
	}
	if list[1].Name != "broken" || list[1].LoadError == "" {
		t.Errorf("broken = %+v", list[1])
	}
	if list[2].Name != "zeta" || list[2].CookieCount != 2 || list[2].HasCredentials {
		t.Errorf("zeta = %+v", list[2])
	}
}

func TestContextResolver(t *testing.T) {
	setupContextTestDir(t)
	if err := keyring.Set(auth.KeychainService, "global", "from-keychain"); err != nil {
		t.Fatal(err)
	}

	ctx := Context{
		Credentials: &Credentials{Tokens: map[string]string{"docs": "from-context"}},
		Cookies:     map[string]string{"session": "cookie-tok"},
		Environment: map[string]string{"DOCS_TOKEN": "env-tok"},
	}
	r := ctx.Resolver()

	tests := []struct {
		src  auth.Source
		want string
	}{
		{auth.Source{From: auth.FromCookie, Name: "session"}, "cookie-tok"},
		{auth.Source{From: auth.FromKeychain, Key: "docs"}, "from-context"},
		{auth.Source{From: auth.FromKeychain, Key: "global"}, "from-keychain"},
		{auth.Source{From: auth.FromEnv, Name: "DOCS_TOKEN"}, "env-tok"},
	}
	for _, tt := range tests {
		got, err := r.Token(&auth.Config{Type: auth.TypeBearer, Source: tt.src})
		if err != nil {
			t.Errorf("%+v: %v", tt.src, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%+v: got %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestRenderContextMasksSecrets(t *testing.T) {
	out := RenderContext(Context{
		Name:        "prod",
		Credentials: &Credentials{BearerToken: "abcdefghijklmnop"},
		Cookies:     map[string]string{"session": "short"},
	})
	for _, secret := range []string{"abcdefghijklmnop", "short"} {
		if strings.Contains(out, secret) {
			t.Errorf("rendered context leaks %q:\n%s", secret, out)
		}
	}
	if !strings.Contains(out, "abcd****mnop") {
		t.Errorf("expected masked bearer token in:\n%s", out)
	}
	if got := RenderContext(Context{}); !strings.Contains(got, "No context configured") {
		t.Errorf("empty context rendered as %q", got)
	}
}
