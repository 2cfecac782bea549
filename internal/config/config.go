package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations used by the pipeline.
type Paths struct {
	ContentDir   string `toml:"content_dir"`
	MetadataPath string `toml:"metadata_path"`
	MappingPath  string `toml:"mapping_path"`
	LogDir       string `toml:"log_dir"`
	StateDir     string `toml:"state_dir"`
}

// Languages lists the base language and every language that gets a content tree.
type Languages struct {
	Base      string   `toml:"base"`
	Supported []string `toml:"supported"`
}

// Source describes one legacy content document.
type Source struct {
	Name     string `toml:"name"`
	Language string `toml:"language"`
	Path     string `toml:"path"`
	// Shape is one of paper_array, slug_object, summary_key, or tree.
	Shape string `toml:"shape"`
	// Kind restricts which fields the source contributes: titles, summaries, or empty for all.
	Kind string `toml:"kind"`
}

// Mapping contains legacy key matching settings.
type Mapping struct {
	Prefixes []string `toml:"prefixes"`
}

// Translation contains the translation provider connection and pacing settings.
type Translation struct {
	APIKey              string  `toml:"api_key"`
	BaseURL             string  `toml:"base_url"`
	Model               string  `toml:"model"`
	Referer             string  `toml:"referer"`
	Title               string  `toml:"title"`
	TimeoutSeconds      int     `toml:"timeout_seconds"`
	DelayMillis         int     `toml:"delay_ms"`
	CostPerMillionChars float64 `toml:"cost_per_million_chars"`
	BreakerFailures     int     `toml:"breaker_failures"`
	BreakerCooldown     int     `toml:"breaker_cooldown_seconds"`
}

// Gaps configures the untranslated-text detector.
type Gaps struct {
	IndicatorWords []string `toml:"indicator_words"`
	Threshold      int      `toml:"threshold"`
}

// Pipeline contains knobs shared by the offline commands.
type Pipeline struct {
	TestSampleSize  int `toml:"test_sample_size"`
	CheckpointEvery int `toml:"checkpoint_every"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for lectern.
//
// Configuration sections by subsystem:
//   - Paths: metadata, content trees, mapping artifact, logs, run history
//   - Languages: base language and supported content tree languages
//   - Sources: legacy documents consumed by map and consolidate
//   - Mapping: legacy key prefixes stripped during fuzzy matching
//   - Translation: provider credentials, pacing, cost estimate, breaker
//   - Gaps: untranslated-text detector word list and threshold
//   - Pipeline: test sample size and checkpoint interval
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Languages   Languages   `toml:"languages"`
	Sources     []Source    `toml:"sources"`
	Mapping     Mapping     `toml:"mapping"`
	Translation Translation `toml:"translation"`
	Gaps        Gaps        `toml:"gaps"`
	Pipeline    Pipeline    `toml:"pipeline"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/lectern/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lectern.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ContentDir, c.Paths.LogDir, c.Paths.StateDir, filepath.Dir(c.Paths.MappingPath)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TreePath returns the content tree location for a language.
func (c *Config) TreePath(lang string) string {
	return filepath.Join(c.Paths.ContentDir, strings.ToLower(strings.TrimSpace(lang))+".json")
}

// RunLogPath returns the run history database location.
func (c *Config) RunLogPath() string {
	return filepath.Join(c.Paths.StateDir, "runs.db")
}

// SourcesFor returns the configured sources for lang in declaration order.
func (c *Config) SourcesFor(lang string) []Source {
	var out []Source
	for _, src := range c.Sources {
		if src.Language == lang {
			out = append(out, src)
		}
	}
	return out
}

// IsSupported reports whether lang has a content tree.
func (c *Config) IsSupported(lang string) bool {
	for _, supported := range c.Languages.Supported {
		if supported == lang {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// TranslationConfig contains the provider settings handed to the LLM client.
type TranslationConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetTranslation returns the translation provider connection settings.
func (c *Config) GetTranslation() TranslationConfig {
	return TranslationConfig{
		APIKey:         strings.TrimSpace(c.Translation.APIKey),
		BaseURL:        strings.TrimSpace(c.Translation.BaseURL),
		Model:          strings.TrimSpace(c.Translation.Model),
		Referer:        strings.TrimSpace(c.Translation.Referer),
		Title:          strings.TrimSpace(c.Translation.Title),
		TimeoutSeconds: c.Translation.TimeoutSeconds,
	}
}
