package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spiffcs/firstissue/internal/classify"
	"github.com/spiffcs/firstissue/internal/model"
	"github.com/spiffcs/firstissue/internal/urlutil"
)

// Config represents the application configuration
type Config struct {
	DefaultFormat  string   `yaml:"default_format,omitempty" json:"default_format,omitempty"`
	Language       string   `yaml:"language,omitempty" json:"language,omitempty"`
	Label          string   `yaml:"label,omitempty" json:"label,omitempty"`
	Sort           string   `yaml:"sort,omitempty" json:"sort,omitempty"`
	SecondarySort  string   `yaml:"secondary_sort,omitempty" json:"secondary_sort,omitempty"`
	MonitoredRepos []string `yaml:"monitored_repos,omitempty" json:"monitored_repos,omitempty"`
	Categories     []string `yaml:"categories,omitempty" json:"categories,omitempty"`
	ExcludeRepos   []string `yaml:"exclude_repos,omitempty" json:"exclude_repos,omitempty"`

	// CacheDisabled is a pointer so a local file can turn the cache back on.
	CacheDisabled *bool `yaml:"cache_disabled,omitempty" json:"cache_disabled,omitempty"`
}

// Defaults applied when neither config file sets a value.
const (
	DefaultFormat        = "table"
	DefaultSort          = "updated"
	DefaultSecondarySort = "stars"
)

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".firstissue"
	}
	return filepath.Join(configDir, "firstissue")
}

// ConfigPath returns the path to the global config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".firstissue.yaml"
}

// Load loads the configuration from disk.
// It first loads the global config, then merges any local .firstissue.yaml
// on top (local values take precedence).
func Load() (*Config, error) {
	global, err := LoadFile(ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("global config: %w", err)
	}
	local, err := LoadFile(LocalConfigPath())
	if err != nil {
		return nil, fmt.Errorf("local config: %w", err)
	}

	cfg := mergeConfig(global, local)
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFile reads a single config file. A missing file yields an empty config.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadGlobal reads only the global config, for commands that edit it.
func LoadGlobal() (*Config, error) {
	return LoadFile(ConfigPath())
}

func (c *Config) applyDefaults() {
	if c.DefaultFormat == "" {
		c.DefaultFormat = DefaultFormat
	}
	if c.Sort == "" {
		c.Sort = DefaultSort
	}
	if c.SecondarySort == "" && c.Sort == DefaultSort {
		c.SecondarySort = DefaultSecondarySort
	}
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	return &Config{
		DefaultFormat:  pick(local.DefaultFormat, global.DefaultFormat),
		Language:       pick(local.Language, global.Language),
		Label:          pick(local.Label, global.Label),
		Sort:           pick(local.Sort, global.Sort),
		SecondarySort:  pick(local.SecondarySort, global.SecondarySort),
		MonitoredRepos: pickSlice(local.MonitoredRepos, global.MonitoredRepos),
		Categories:     pickSlice(local.Categories, global.Categories),
		ExcludeRepos:   pickSlice(local.ExcludeRepos, global.ExcludeRepos),
		CacheDisabled:  pickBool(local.CacheDisabled, global.CacheDisabled),
	}
}

func pick(local, global string) string {
	if local != "" {
		return local
	}
	return global
}

// pickSlice replaces rather than appends: a local list is the whole list.
func pickSlice(local, global []string) []string {
	if len(local) > 0 {
		return slices.Clone(local)
	}
	return slices.Clone(global)
}

func pickBool(local, global *bool) *bool {
	if local != nil {
		return local
	}
	return global
}

// Save saves the configuration to the global config file
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return SaveTo(ConfigPath(), string(data))
}

// IsCacheDisabled reports whether the config turns the response cache off.
func (c *Config) IsCacheDisabled() bool {
	return c.CacheDisabled != nil && *c.CacheDisabled
}

// GetCategories returns the validated category filter; nil means all.
func (c *Config) GetCategories() ([]model.Category, error) {
	return classify.ParseCategories(c.Categories)
}

// AddMonitoredRepo normalizes ref and appends it to the monitored set. It
// reports false when the repository is already monitored.
func (c *Config) AddMonitoredRepo(ref string) (string, bool, error) {
	name, err := urlutil.NormalizeRepo(ref)
	if err != nil {
		return "", false, err
	}
	if c.IsMonitored(name) {
		return name, false, nil
	}
	c.MonitoredRepos = append(c.MonitoredRepos, name)
	return name, true, nil
}

// RemoveMonitoredRepo drops ref from the monitored set. It reports false
// when the repository was not monitored.
func (c *Config) RemoveMonitoredRepo(ref string) (string, bool, error) {
	name, err := urlutil.NormalizeRepo(ref)
	if err != nil {
		return "", false, err
	}
	before := len(c.MonitoredRepos)
	c.MonitoredRepos = slices.DeleteFunc(c.MonitoredRepos, func(r string) bool {
		return strings.EqualFold(r, name)
	})
	return name, len(c.MonitoredRepos) != before, nil
}

// IsMonitored checks if a repo is in the monitored set
func (c *Config) IsMonitored(repoFullName string) bool {
	return containsFold(c.MonitoredRepos, repoFullName)
}

// IsRepoExcluded checks if a repo is in the exclude list
func (c *Config) IsRepoExcluded(repoFullName string) bool {
	return containsFold(c.ExcludeRepos, repoFullName)
}

// MonitoredRepositories returns the monitored set minus excluded repositories.
func (c *Config) MonitoredRepositories() []model.RepositoryRef {
	out := make([]model.RepositoryRef, 0, len(c.MonitoredRepos))
	for _, r := range c.MonitoredRepos {
		if c.IsRepoExcluded(r) {
			continue
		}
		out = append(out, model.RepositoryFromFullName(r))
	}
	return out
}

func containsFold(list []string, s string) bool {
	return slices.ContainsFunc(list, func(v string) bool {
		return strings.EqualFold(v, s)
	})
}

// DefaultConfig returns a fully populated config with all default values.
func DefaultConfig() *Config {
	disabled := false
	categories := make([]string, 0, len(model.AllCategories))
	for _, c := range model.AllCategories {
		categories = append(categories, string(c))
	}
	return &Config{
		DefaultFormat:  DefaultFormat,
		Label:          "good first issue",
		Sort:           DefaultSort,
		SecondarySort:  DefaultSecondarySort,
		MonitoredRepos: []string{},
		Categories:     categories,
		ExcludeRepos:   []string{},
		CacheDisabled:  &disabled,
	}
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# firstissue configuration file
# See: firstissue config defaults  (for all available options)

# Output format: table, json or markdown
default_format: table

# Restrict searches to one language (optional)
# language: go

# Ordering: updated + stars enables the popular-repository search
sort: updated
secondary_sort: stars

# Repositories followed by 'firstissue watch' (optional)
# monitored_repos:
#   - owner/repo

# Categories shown by watch (optional, default all)
# categories:
#   - good-first-issue
#   - documentation

# Never show issues from these repositories (optional)
# exclude_repos:
#   - owner/noisy-repo
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
