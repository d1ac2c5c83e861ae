package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func bearer(src Source) *Config {
	return &Config{Type: TypeBearer, Source: src}
}

func TestTokenFromCookie(t *testing.T) {
	r := NewResolver(WithCookies(ParseCookieHeader("theme=dark; session=abc123; x=1")))

	tok, err := r.Token(bearer(Source{From: FromCookie, Name: "session"}))
	require.NoError(t, err)
	assert.Equal(t, "abc123", tok)

	_, err = r.Token(bearer(Source{From: FromCookie, Name: "missing"}))
	assert.ErrorIs(t, err, ErrTokenNotFound)
	assert.True(t, IsMissing(err))
}

func TestTokenLegacyTypeField(t *testing.T) {
	r := NewResolver(WithCookies(Cookies{"jwt": "t0k"}))
	tok, err := r.Token(bearer(Source{Type: FromCookie, Name: "jwt"}))
	require.NoError(t, err)
	assert.Equal(t, "t0k", tok)
}

func TestTokenNoCookieJar(t *testing.T) {
	_, err := NewResolver().Token(bearer(Source{From: FromCookie, Name: "session"}))
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokenUnsupported(t *testing.T) {
	r := NewResolver(WithCookies(Cookies{"session": "abc"}))

	_, err := r.Token(nil)
	assert.ErrorIs(t, err, ErrUnsupportedAuth)

	_, err = r.Token(&Config{Type: "Basic", Source: Source{From: FromCookie, Name: "session"}})
	assert.ErrorIs(t, err, ErrUnsupportedAuth)

	_, err = r.Token(bearer(Source{From: "localStorage", Name: "session"}))
	assert.ErrorIs(t, err, ErrUnsupportedAuth)
	assert.True(t, IsMissing(err))
}

func TestTokenFromEnv(t *testing.T) {
	env := map[string]string{"API_TOKEN": "from-env"}
	r := NewResolver(WithEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))

	tok, err := r.Token(bearer(Source{From: FromEnv, Name: "API_TOKEN"}))
	require.NoError(t, err)
	assert.Equal(t, "from-env", tok)

	_, err = r.Token(bearer(Source{From: FromEnv, Name: "NOPE"}))
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokenFromKeychain(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set(KeychainService, "raw", "plain-token"))
	require.NoError(t, keyring.Set(KeychainService, "auth", `{"user":{"token":"nested-token"}}`))

	r := NewResolver()

	tok, err := r.Token(bearer(Source{From: FromKeychain, Key: "raw"}))
	require.NoError(t, err)
	assert.Equal(t, "plain-token", tok)

	tok, err = r.Token(bearer(Source{From: FromKeychain, Path: "user.token"}))
	require.NoError(t, err)
	assert.Equal(t, "nested-token", tok)

	_, err = r.Token(bearer(Source{From: FromKeychain, Key: "absent"}))
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestTokenKeychainReadFailure(t *testing.T) {
	boom := errors.New("keychain locked")
	r := NewResolver(WithKeychain(func(string, string) (string, error) { return "", boom }))

	_, err := r.Token(bearer(Source{From: FromKeychain, Key: "k"}))
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsMissing(err))
}

func TestParseCookieHeader(t *testing.T) {
	c := ParseCookieHeader(" a=1 ;b = two; junk; c=x=y; a=3")
	assert.Equal(t, Cookies{"a": "3", "b": "two", "c": "x=y"}, c)
}
