package config

import (
	"errors"
	"fmt"
	"strings"
)

var validShapes = map[string]struct{}{
	"paper_array": {},
	"slug_object": {},
	"summary_key": {},
	"tree":        {},
}

var validKinds = map[string]struct{}{
	"":          {},
	"titles":    {},
	"summaries": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateGaps(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ContentDir) == "" {
		return errors.New("paths.content_dir must be set")
	}
	if strings.TrimSpace(c.Paths.MetadataPath) == "" {
		return errors.New("paths.metadata_path must be set")
	}
	return nil
}

func (c *Config) validateSources() error {
	names := make(map[string]int, len(c.Sources))
	for i, src := range c.Sources {
		if src.Path == "" {
			return fmt.Errorf("sources[%d].path must be set", i)
		}
		if _, ok := validShapes[src.Shape]; !ok {
			return fmt.Errorf("sources[%d].shape %q is not one of paper_array, slug_object, summary_key, tree", i, src.Shape)
		}
		if _, ok := validKinds[src.Kind]; !ok {
			return fmt.Errorf("sources[%d].kind %q must be titles, summaries, or empty", i, src.Kind)
		}
		if !c.IsSupported(src.Language) {
			return fmt.Errorf("sources[%d].language %q is not listed in languages.supported", i, src.Language)
		}
		if prev, ok := names[src.Name]; ok {
			return fmt.Errorf("sources[%d].name %q duplicates sources[%d]", i, src.Name, prev)
		}
		names[src.Name] = i
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if c.Translation.CostPerMillionChars < 0 {
		return errors.New("translation.cost_per_million_chars must be >= 0")
	}
	return nil
}

func (c *Config) validateGaps() error {
	if c.Gaps.Threshold < 1 {
		return errors.New("gaps.threshold must be >= 1")
	}
	return nil
}

// RequireTranslationKey reports a configuration error when no provider key is available.
func (c *Config) RequireTranslationKey() error {
	if strings.TrimSpace(c.Translation.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/lectern/config.toml"
	}
	return fmt.Errorf("translation.api_key is required. Set LECTERN_TRANSLATION_API_KEY or edit %s (create with 'lectern config init')", defaultPath)
}
