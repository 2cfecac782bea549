package testsupport

import (
	"path/filepath"
	"testing"

	"lectern/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Languages default to en (base), es and fr; the translation key is set and
// provider pacing is disabled.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ContentDir = filepath.Join(base, "content")
	cfgVal.Paths.MetadataPath = filepath.Join(base, "metadata.json")
	cfgVal.Paths.MappingPath = filepath.Join(base, "state", "legacy-mapping.json")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Languages.Supported = []string{"en", "es", "fr"}
	cfgVal.Translation.APIKey = "test-key"
	cfgVal.Translation.DelayMillis = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithLanguages replaces the supported language list; the first is the base.
func WithLanguages(langs ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Languages.Base = langs[0]
		b.cfg.Languages.Supported = append([]string(nil), langs...)
	}
}

// WithSource writes body to a file under the test directory and registers it
// as a source.
func WithSource(name, lang, shape, kind, body string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "sources", name+".json")
		WriteText(b.t, path, body)
		b.cfg.Sources = append(b.cfg.Sources, config.Source{
			Name:     name,
			Language: lang,
			Path:     path,
			Shape:    shape,
			Kind:     kind,
		})
	}
}

// WithMetadata writes the metadata document used by the config.
func WithMetadata(body string) ConfigOption {
	return func(b *configBuilder) {
		WriteText(b.t, b.cfg.Paths.MetadataPath, body)
	}
}

// WithTranslationKey sets the provider API key on the test config.
func WithTranslationKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Translation.APIKey = key
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ContentDir)
}
