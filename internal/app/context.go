package app

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/flowvana/flowlight/internal/auth"
)

// GetContext loads a named context. An empty name is an empty context.
func GetContext(name string) (Context, error) {
	if name == "" {
		return Context{}, nil
	}
	ctx, err := LoadContext(name)
	if err != nil {
		return Context{}, fmt.Errorf("loading context %q: %w", name, err)
	}
	return ctx, nil
}

// CookieJar exposes the context's cookies to auth sources.
func (c Context) CookieJar() auth.CookieJar {
	return auth.Cookies(c.Cookies)
}

// LookupEnv consults the context environment before the process one.
func (c Context) LookupEnv(key string) (string, bool) {
	if v, ok := c.Environment[key]; ok {
		return v, true
	}
	return os.LookupEnv(key)
}

// KeychainLookup returns a keychain reader that answers from the context's
// stored tokens before the OS keychain.
func (c Context) KeychainLookup() func(service, key string) (string, error) {
	return func(service, key string) (string, error) {
		if c.Credentials != nil {
			if v, ok := c.Credentials.Tokens[key]; ok {
				return v, nil
			}
		}
		return keyring.Get(service, key)
	}
}

// Resolver builds the token resolver for this context.
func (c Context) Resolver() *auth.Resolver {
	return auth.NewResolver(
		auth.WithCookies(c.CookieJar()),
		auth.WithKeychain(c.KeychainLookup()),
		auth.WithEnv(c.LookupEnv),
	)
}

// BearerToken returns the backend bearer token, if any.
func (c Context) BearerToken() string {
	if c.Credentials == nil {
		return ""
	}
	return c.Credentials.BearerToken
}

// SetKeychainToken stores a token for "keychain" auth sources.
func SetKeychainToken(key, value string) error {
	if key == "" {
		return errors.New("token key is required")
	}
	if err := keyring.Set(auth.KeychainService, key, value); err != nil {
		return fmt.Errorf("writing keychain token %q: %w", key, err)
	}
	return nil
}

// DeleteKeychainToken removes a token stored by SetKeychainToken.
func DeleteKeychainToken(key string) error {
	err := keyring.Delete(auth.KeychainService, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting keychain token %q: %w", key, err)
	}
	return nil
}

// RenderContext returns a human-friendly view of ctx with secrets masked.
func RenderContext(ctx Context) string {
	s := Styles
	var sb strings.Builder

	empty := ctx.Credentials == nil &&
		len(ctx.Headers) == 0 &&
		len(ctx.Cookies) == 0 &&
		len(ctx.Environment) == 0 &&
		len(ctx.Metadata) == 0
	if empty {
		return s.Dim.Render("No context configured")
	}

	title := "Context"
	if ctx.Name != "" {
		title += " " + ctx.Name
	}
	sb.WriteString(s.Header.Render(title))

	item := func(key, sep, value string) {
		sb.WriteString("\n  ")
		sb.WriteString(s.Bullet.Render("•"))
		sb.WriteString(" ")
		sb.WriteString(s.Key.Render(key))
		sb.WriteString(s.Dim.Render(sep))
		sb.WriteString(value)
	}
	section := func(name string) {
		sb.WriteString("\n\n")
		sb.WriteString(s.Dim.Render(name + ":"))
	}

	if ctx.Credentials != nil {
		section("Credentials")
		if ctx.Credentials.BearerToken != "" {
			item("Bearer", ": ", maskSecret(ctx.Credentials.BearerToken))
		}
		for _, k := range sortedKeys(ctx.Credentials.Tokens) {
			item(k, ": ", maskSecret(ctx.Credentials.Tokens[k]))
		}
	}

	if len(ctx.Headers) > 0 {
		section("Headers")
		for _, k := range sortedKeys(ctx.Headers) {
			item(k, ": ", ctx.Headers[k])
		}
	}

	if len(ctx.Cookies) > 0 {
		section("Cookies")
		for _, k := range sortedKeys(ctx.Cookies) {
			item(k, "=", maskSecret(ctx.Cookies[k]))
		}
	}

	if len(ctx.Environment) > 0 {
		section("Environment")
		for _, k := range sortedKeys(ctx.Environment) {
			item(k, "=", maskSecret(ctx.Environment[k]))
		}
	}

	if len(ctx.Metadata) > 0 {
		section("Metadata")
		keys := make([]string, 0, len(ctx.Metadata))
		for k := range ctx.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			item(k, ": ", fmt.Sprintf("%v", ctx.Metadata[k]))
		}
	}

	return sb.String()
}

// RenderContextList returns a human-friendly list of context summaries.
func RenderContextList(summaries []ContextSummary) string {
	s := Styles
	if len(summaries) == 0 {
		return s.Dim.Render("No contexts configured")
	}

	var sb strings.Builder
	sb.WriteString(s.Header.Render("Contexts"))
	for _, cs := range summaries {
		sb.WriteString("\n  ")
		sb.WriteString(s.Key.Render(cs.Name))

		if cs.LoadError != "" {
			sb.WriteString(s.Dim.Render(" (error: " + cs.LoadError + ")"))
			continue
		}

		var parts []string
		if cs.HasCredentials {
			parts = append(parts, "credentials")
		}
		if cs.HeaderCount > 0 {
			parts = append(parts, fmt.Sprintf("%d headers", cs.HeaderCount))
		}
		if cs.CookieCount > 0 {
			parts = append(parts, fmt.Sprintf("%d cookies", cs.CookieCount))
		}
		if cs.EnvCount > 0 {
			parts = append(parts, fmt.Sprintf("%d env", cs.EnvCount))
		}
		if cs.MetadataCount > 0 {
			parts = append(parts, fmt.Sprintf("%d metadata", cs.MetadataCount))
		}
		if len(parts) > 0 {
			sb.WriteString(s.Dim.Render(" (" + strings.Join(parts, ", ") + ")"))
		}
	}
	return sb.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}
