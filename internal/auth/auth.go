// Package auth resolves bearer tokens described by search-space and flow
// step auth configs.
//
// A config names a source for the token:
//
//	{"type": "Bearer", "source": {"from": "cookie", "name": "session"}}
//
// Supported sources are "cookie" (the active context's cookie jar),
// "keychain" (an OS keychain entry, optionally JSON with a dotted path) and
// "env" (an environment variable). Any other source resolves to no token.
package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/zalando/go-keyring"

	"github.com/flowvana/flowlight/internal/jsonpath"
)

// TypeBearer is the only token type understood by Resolver.
const TypeBearer = "Bearer"

// Source kinds.
const (
	FromCookie   = "cookie"
	FromKeychain = "keychain"
	FromEnv      = "env"
)

// KeychainService is the keychain service name tokens are stored under.
const KeychainService = "flowlight"

var (
	// ErrTokenNotFound means the source was understood but held no token.
	ErrTokenNotFound = errors.New("auth token not found")
	// ErrUnsupportedAuth means the config names a type or source this
	// resolver cannot read from.
	ErrUnsupportedAuth = errors.New("unsupported auth config")
)

// Config describes where a bearer token comes from.
type Config struct {
	Type   string `json:"type" yaml:"type"`
	Source Source `json:"source" yaml:"source"`
}

// Source locates the token. Flow steps historically spell the kind as
// "type"; search spaces use "from". Both are accepted.
type Source struct {
	From string `json:"from,omitempty" yaml:"from,omitempty"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Key  string `json:"key,omitempty" yaml:"key,omitempty"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Kind returns the source kind, preferring From over Type.
func (s Source) Kind() string {
	if s.From != "" {
		return s.From
	}
	return s.Type
}

// CookieJar looks cookies up by name.
type CookieJar interface {
	Cookie(name string) (string, bool)
}

// Cookies is a name → value cookie jar.
type Cookies map[string]string

// Cookie implements CookieJar.
func (c Cookies) Cookie(name string) (string, bool) {
	v, ok := c[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ParseCookieHeader parses a "a=b; c=d" cookie string. Later duplicates win.
func ParseCookieHeader(header string) Cookies {
	out := Cookies{}
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		out[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return out
}

// Resolver reads tokens from the configured sources.
type Resolver struct {
	cookies  CookieJar
	keychain func(service, key string) (string, error)
	env      func(key string) (string, bool)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCookies sets the cookie jar used for "cookie" sources.
func WithCookies(jar CookieJar) Option {
	return func(r *Resolver) { r.cookies = jar }
}

// WithKeychain overrides the keychain lookup.
func WithKeychain(get func(service, key string) (string, error)) Option {
	return func(r *Resolver) { r.keychain = get }
}

// WithEnv overrides the environment lookup.
func WithEnv(lookup func(key string) (string, bool)) Option {
	return func(r *Resolver) { r.env = lookup }
}

// NewResolver returns a Resolver backed by the OS keychain and process
// environment unless overridden.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		keychain: keyring.Get,
		env:      os.LookupEnv,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Token returns the bearer token described by cfg.
func (r *Resolver) Token(cfg *Config) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("%w: no auth config", ErrUnsupportedAuth)
	}
	if cfg.Type != TypeBearer {
		return "", fmt.Errorf("%w: type %q", ErrUnsupportedAuth, cfg.Type)
	}

	switch cfg.Source.Kind() {
	case FromCookie:
		if r.cookies == nil {
			return "", fmt.Errorf("%w: cookie %q (no cookie jar)", ErrTokenNotFound, cfg.Source.Name)
		}
		if v, ok := r.cookies.Cookie(cfg.Source.Name); ok {
			return v, nil
		}
		return "", fmt.Errorf("%w: cookie %q", ErrTokenNotFound, cfg.Source.Name)

	case FromKeychain:
		return r.keychainToken(cfg.Source)

	case FromEnv:
		name := cfg.Source.Name
		if name == "" {
			name = cfg.Source.Key
		}
		if v, ok := r.env(name); ok && v != "" {
			return v, nil
		}
		return "", fmt.Errorf("%w: env %q", ErrTokenNotFound, name)
	}

	return "", fmt.Errorf("%w: source %q", ErrUnsupportedAuth, cfg.Source.Kind())
}

// keychainToken reads a keychain entry. With a path, the entry is parsed as
// JSON and the path walked; without one the raw value is the token.
func (r *Resolver) keychainToken(src Source) (string, error) {
	key := src.Key
	if key == "" {
		key = src.Name
	}
	if key == "" {
		key = "auth"
	}

	raw, err := r.keychain(KeychainService, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("%w: keychain %q", ErrTokenNotFound, key)
		}
		return "", fmt.Errorf("reading keychain %q: %w", key, err)
	}

	if src.Path == "" {
		if raw == "" {
			return "", fmt.Errorf("%w: keychain %q", ErrTokenNotFound, key)
		}
		return raw, nil
	}

	var doc any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return "", fmt.Errorf("parsing keychain %q: %w", key, err)
	}
	token := jsonpath.Resolve(doc, src.Path)
	if token == "" {
		return "", fmt.Errorf("%w: keychain %q path %q", ErrTokenNotFound, key, src.Path)
	}
	return token, nil
}

// IsMissing reports whether err means "no token available" as opposed to
// a failure reading a source.
func IsMissing(err error) bool {
	return errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrUnsupportedAuth)
}
