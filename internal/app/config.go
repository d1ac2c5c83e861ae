package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/flowvana/flowlight/internal/flows"
	"github.com/flowvana/flowlight/internal/search"
)

// ConfigVersion is written into new config files.
const ConfigVersion = "1.0.0"

// supportedConfig is the range of config versions this build reads.
const supportedConfig = "^1"

// ErrUnsupportedConfigVersion is returned for configs outside supportedConfig.
var ErrUnsupportedConfigVersion = errors.New("unsupported config version")

// Config is the flowlight configuration file.
type Config struct {
	Version     string               `yaml:"version" json:"version"`
	BaseURL     string               `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	ProjectID   string               `yaml:"project_id,omitempty" json:"project_id,omitempty"`
	Context     string               `yaml:"context,omitempty" json:"context,omitempty"`
	Placeholder string               `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
	SearchHook  search.HookConfig    `yaml:"search_hook,omitempty" json:"search_hook,omitempty"`
	Spaces      []search.SpaceConfig `yaml:"spaces,omitempty" json:"spaces,omitempty"`
	Flows       []flows.Config       `yaml:"flows,omitempty" json:"flows,omitempty"`
	Suggestions []string             `yaml:"suggestions,omitempty" json:"suggestions,omitempty"`
}

// DefaultPlaceholder is the palette input placeholder.
const DefaultPlaceholder = "Ask anything, or type / to search a space"

// DefaultSuggestions are shown when the config has none.
var DefaultSuggestions = []string{
	"What can you help me with?",
	"Show me available flows",
	"Search the knowledge base",
}

// InputPlaceholder returns the configured placeholder or the default.
func (c *Config) InputPlaceholder() string {
	if c.Placeholder != "" {
		return c.Placeholder
	}
	return DefaultPlaceholder
}

// SuggestionList returns the configured suggestions or the defaults.
func (c *Config) SuggestionList() []string {
	if len(c.Suggestions) > 0 {
		return c.Suggestions
	}
	return DefaultSuggestions
}

// DefaultConfigPath returns <config dir>/flowlight/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := GlobalConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFile), nil
}

// ResolveConfigPath returns path, or the default path when empty.
func ResolveConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return DefaultConfigPath()
}

// LoadConfig reads the config at path (the default path when empty). A
// missing file at the default location is an empty config; a missing
// explicit path is an error.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	path, err := ResolveConfigPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &Config{Version: ConfigVersion}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes and checks a YAML config.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := checkVersion(cfg.Version); err != nil {
		return nil, err
	}
	if cfg.Version == "" {
		cfg.Version = ConfigVersion
	}
	return &cfg, nil
}

func checkVersion(v string) error {
	if v == "" {
		return nil
	}
	ver, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrUnsupportedConfigVersion, v, err)
	}
	c, err := semver.NewConstraint(supportedConfig)
	if err != nil {
		return err
	}
	if !c.Check(ver) {
		return fmt.Errorf("%w: %s (supported: %s)", ErrUnsupportedConfigVersion, v, supportedConfig)
	}
	return nil
}

// SaveConfig writes cfg to path (the default path when empty).
func SaveConfig(path string, cfg *Config) (string, error) {
	path, err := ResolveConfigPath(path)
	if err != nil {
		return "", err
	}
	if cfg.Version == "" {
		cfg.Version = ConfigVersion
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	if err := AtomicWriteFile(path, data, FilePerm); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfig writes a starter config. It refuses to overwrite unless force.
func InitConfig(path, baseURL, projectID string, force bool) error {
	resolved, err := ResolveConfigPath(path)
	if err != nil {
		return Fail(err)
	}
	if _, err := os.Stat(resolved); err == nil && !force {
		return Fail(fmt.Errorf("%s already exists (use --force to overwrite)", resolved))
	}
	cfg := &Config{
		Version:     ConfigVersion,
		BaseURL:     baseURL,
		ProjectID:   projectID,
		Context:     DefaultContextName,
		Suggestions: DefaultSuggestions,
	}
	if _, err := SaveConfig(resolved, cfg); err != nil {
		return Fail(err)
	}
	return okText("Wrote " + resolved)
}
