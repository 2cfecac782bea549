package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lectern/internal/language"
)

func (c *Config) normalize(configDir string) error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeLanguages(); err != nil {
		return err
	}
	if err := c.normalizeSources(configDir); err != nil {
		return err
	}
	c.normalizeMapping()
	c.normalizeTranslation()
	c.normalizeGaps()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.ContentDir, err = expandPath(c.Paths.ContentDir); err != nil {
		return fmt.Errorf("paths.content_dir: %w", err)
	}
	if c.Paths.MetadataPath, err = expandPath(c.Paths.MetadataPath); err != nil {
		return fmt.Errorf("paths.metadata_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.MappingPath) == "" {
		c.Paths.MappingPath = defaultMappingPath
	}
	if c.Paths.MappingPath, err = expandPath(c.Paths.MappingPath); err != nil {
		return fmt.Errorf("paths.mapping_path: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLanguages() error {
	base := strings.TrimSpace(c.Languages.Base)
	if base == "" {
		base = defaultBaseLanguage
	}
	normalizedBase, err := language.Normalize(base)
	if err != nil {
		return fmt.Errorf("languages.base: %w", err)
	}
	c.Languages.Base = normalizedBase

	supported := make([]string, 0, len(c.Languages.Supported)+1)
	supported = append(supported, normalizedBase)
	seen := map[string]struct{}{normalizedBase: {}}
	for _, lang := range c.Languages.Supported {
		if strings.TrimSpace(lang) == "" {
			continue
		}
		normalized, err := language.Normalize(lang)
		if err != nil {
			return fmt.Errorf("languages.supported: %w", err)
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		supported = append(supported, normalized)
	}
	c.Languages.Supported = supported
	return nil
}

func (c *Config) normalizeSources(configDir string) error {
	for i := range c.Sources {
		src := &c.Sources[i]
		src.Name = strings.TrimSpace(src.Name)
		src.Shape = strings.ToLower(strings.TrimSpace(src.Shape))
		src.Kind = strings.ToLower(strings.TrimSpace(src.Kind))
		if strings.TrimSpace(src.Language) == "" {
			src.Language = c.Languages.Base
		} else {
			lang, err := language.Normalize(src.Language)
			if err != nil {
				return fmt.Errorf("sources[%d].language: %w", i, err)
			}
			src.Language = lang
		}
		path := strings.TrimSpace(src.Path)
		if path != "" && !strings.HasPrefix(path, "~") && !filepath.IsAbs(path) && configDir != "" {
			path = filepath.Join(configDir, path)
		}
		expanded, err := expandPath(path)
		if err != nil {
			return fmt.Errorf("sources[%d].path: %w", i, err)
		}
		src.Path = expanded
		if src.Name == "" && src.Path != "" {
			src.Name = strings.TrimSuffix(filepath.Base(src.Path), filepath.Ext(src.Path))
		}
	}
	return nil
}

func (c *Config) normalizeMapping() {
	prefixes := make([]string, 0, len(c.Mapping.Prefixes))
	for _, prefix := range c.Mapping.Prefixes {
		prefix = strings.ToLower(strings.TrimSpace(prefix))
		if prefix == "" {
			continue
		}
		if !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		prefixes = append(prefixes, prefix)
	}
	c.Mapping.Prefixes = prefixes
}

func (c *Config) normalizeTranslation() {
	c.Translation.APIKey = strings.TrimSpace(c.Translation.APIKey)
	if c.Translation.APIKey == "" {
		if value, ok := os.LookupEnv("LECTERN_TRANSLATION_API_KEY"); ok {
			c.Translation.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Translation.APIKey = strings.TrimSpace(value)
		}
	}
	c.Translation.BaseURL = strings.TrimSpace(c.Translation.BaseURL)
	if c.Translation.BaseURL == "" {
		c.Translation.BaseURL = defaultTranslationBaseURL
	}
	c.Translation.Model = strings.TrimSpace(c.Translation.Model)
	if c.Translation.Model == "" {
		c.Translation.Model = defaultTranslationModel
	}
	c.Translation.Referer = strings.TrimSpace(c.Translation.Referer)
	if c.Translation.Referer == "" {
		c.Translation.Referer = defaultTranslationReferer
	}
	c.Translation.Title = strings.TrimSpace(c.Translation.Title)
	if c.Translation.Title == "" {
		c.Translation.Title = defaultTranslationTitle
	}
	if c.Translation.TimeoutSeconds <= 0 {
		c.Translation.TimeoutSeconds = defaultTranslationTimeout
	}
	if c.Translation.DelayMillis < 0 {
		c.Translation.DelayMillis = 0
	}
	if c.Translation.BreakerFailures <= 0 {
		c.Translation.BreakerFailures = defaultBreakerFailures
	}
	if c.Translation.BreakerCooldown <= 0 {
		c.Translation.BreakerCooldown = defaultBreakerCooldown
	}
}

func (c *Config) normalizeGaps() {
	words := make([]string, 0, len(c.Gaps.IndicatorWords))
	seen := make(map[string]struct{}, len(c.Gaps.IndicatorWords))
	for _, word := range c.Gaps.IndicatorWords {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	if len(words) == 0 {
		words = append(words, defaultIndicatorWords...)
	}
	c.Gaps.IndicatorWords = words
	if c.Gaps.Threshold <= 0 {
		c.Gaps.Threshold = defaultGapThreshold
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.TestSampleSize <= 0 {
		c.Pipeline.TestSampleSize = defaultTestSampleSize
	}
	if c.Pipeline.CheckpointEvery < 0 {
		c.Pipeline.CheckpointEvery = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
