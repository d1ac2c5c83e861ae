package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/zalando/go-keyring"
)

// Credentials are the secret half of a context, kept in the OS keychain.
// BearerToken authenticates the backend client.
type Credentials struct {
	BearerToken string            `json:"bearerToken,omitempty"`
	Tokens      map[string]string `json:"tokens,omitempty"`
}

// Context is a fully loaded named context. Cookies stand in for the
// browser's cookie jar when resolving search space auth.
type Context struct {
	Name        string            `json:"name,omitempty"`
	Credentials *Credentials      `json:"credentials,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Cookies     map[string]string `json:"cookies,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
}

// ContextConfig holds the non-secret fields of a named context, stored as
// <config dir>/contexts/<name>.json.
type ContextConfig struct {
	Headers     map[string]string `json:"headers,omitempty"`
	Cookies     map[string]string `json:"cookies,omitempty"`
	Environment map[string]string `json:"environment,omitempty"`
	Metadata    map[string]any    `json:"metadata,omitempty"`
}

// ContextSummary is a compact representation for listing contexts.
type ContextSummary struct {
	Name           string `json:"name"`
	HasCredentials bool   `json:"hasCredentials"`
	HeaderCount    int    `json:"headerCount,omitempty"`
	CookieCount    int    `json:"cookieCount,omitempty"`
	EnvCount       int    `json:"envCount,omitempty"`
	MetadataCount  int    `json:"metadataCount,omitempty"`
	LoadError      string `json:"loadError,omitempty"`
}

// contextsDirFunc resolves the contexts directory. Tests point it at a temp dir.
var contextsDirFunc = defaultContextsDir

func defaultContextsDir() (string, error) {
	globalPath, err := GlobalConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(globalPath, ContextsDir), nil
}

func contextConfigPath(name string) (string, error) {
	if err := validContextName(name); err != nil {
		return "", err
	}
	dir, err := contextsDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".json"), nil
}

func validContextName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid context name %q", name)
	}
	return nil
}

// LoadContextConfig reads the non-secret part of a context. A missing file
// is an empty config.
func LoadContextConfig(name string) (ContextConfig, error) {
	path, err := contextConfigPath(name)
	if err != nil {
		return ContextConfig{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ContextConfig{}, nil
		}
		return ContextConfig{}, fmt.Errorf("reading context config %q: %w", name, err)
	}
	var cfg ContextConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return ContextConfig{}, fmt.Errorf("parsing context config %q: %w", name, err)
	}
	return cfg, nil
}

// SaveContextConfig writes the non-secret part of a context. The file may
// hold session cookies, so it is not world readable.
func SaveContextConfig(name string, cfg ContextConfig) error {
	path, err := contextConfigPath(name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling context config: %w", err)
	}
	return AtomicWriteFile(path, data, SecretFilePerm)
}

// LoadContextCredentials reads credentials from the keychain; nil when
// none are stored.
func LoadContextCredentials(name string) (*Credentials, error) {
	secret, err := keyring.Get(KeychainService, name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading keychain for context %q: %w", name, err)
	}
	var cred Credentials
	if err := json.Unmarshal([]byte(secret), &cred); err != nil {
		return nil, fmt.Errorf("parsing keychain credentials for context %q: %w", name, err)
	}
	return &cred, nil
}

// SaveContextCredentials stores cred as JSON in the keychain. A nil cred
// deletes the entry.
func SaveContextCredentials(name string, cred *Credentials) error {
	if cred == nil {
		return DeleteContextCredentials(name)
	}
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	if err := keyring.Set(KeychainService, name, string(data)); err != nil {
		return fmt.Errorf("writing keychain for context %q: %w", name, err)
	}
	return nil
}

// DeleteContextCredentials removes the keychain entry, if any.
func DeleteContextCredentials(name string) error {
	err := keyring.Delete(KeychainService, name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("deleting keychain for context %q: %w", name, err)
	}
	return nil
}

// LoadContext assembles a Context from its file and keychain entry.
func LoadContext(name string) (Context, error) {
	cfg, err := LoadContextConfig(name)
	if err != nil {
		return Context{}, err
	}
	cred, err := LoadContextCredentials(name)
	if err != nil {
		return Context{}, err
	}
	return Context{
		Name:        name,
		Credentials: cred,
		Headers:     cfg.Headers,
		Cookies:     cfg.Cookies,
		Environment: cfg.Environment,
		Metadata:    cfg.Metadata,
	}, nil
}

// DeleteContext removes both the file and the keychain entry.
func DeleteContext(name string) error {
	path, err := contextConfigPath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing context config %q: %w", name, err)
	}
	return DeleteContextCredentials(name)
}

// ContextExists reports whether a context has a file or a keychain entry.
func ContextExists(name string) bool {
	path, err := contextConfigPath(name)
	if err != nil {
		return false
	}
	if _, err := os.Stat(path); err == nil {
		return true
	}
	_, err = keyring.Get(KeychainService, name)
	return err == nil
}

// ListContexts summarizes every context file, sorted by name.
func ListContexts() ([]ContextSummary, error) {
	dir, err := contextsDirFunc()
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading contexts directory: %w", err)
	}

	var summaries []ContextSummary
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		cfg, err := LoadContextConfig(name)
		if err != nil {
			summaries = append(summaries, ContextSummary{Name: name, LoadError: err.Error()})
			continue
		}
		_, kerr := keyring.Get(KeychainService, name)
		summaries = append(summaries, ContextSummary{
			Name:           name,
			HasCredentials: kerr == nil,
			HeaderCount:    len(cfg.Headers),
			CookieCount:    len(cfg.Cookies),
			EnvCount:       len(cfg.Environment),
			MetadataCount:  len(cfg.Metadata),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})
	return summaries, nil
}
