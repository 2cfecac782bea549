package config

const (
	defaultContentDir          = "~/.local/share/lectern/content"
	defaultMetadataPath        = "~/.local/share/lectern/metadata.json"
	defaultMappingPath         = "~/.local/share/lectern/legacy-mapping.json"
	defaultLogDir              = "~/.local/share/lectern/logs"
	defaultStateDir            = "~/.local/share/lectern/state"
	defaultBaseLanguage        = "en"
	defaultTranslationBaseURL  = "https://openrouter.ai/api/v1/chat/completions"
	defaultTranslationModel    = "google/gemini-3-flash-preview"
	defaultTranslationReferer  = "https://github.com/lectern/lectern"
	defaultTranslationTitle    = "Lectern Translation"
	defaultTranslationTimeout  = 60
	defaultTranslationDelayMS  = 1200
	defaultCostPerMillionChars = 20.0
	defaultBreakerFailures     = 5
	defaultBreakerCooldown     = 60
	defaultGapThreshold        = 3
	defaultTestSampleSize      = 5
	defaultCheckpointEvery     = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// defaultIndicatorWords are common English function words. Three or more
// occurrences in a non-English field mark it as untranslated. Short words that
// double as words in other supported languages ("in", "a", "to") are left out.
var defaultIndicatorWords = []string{
	"the", "and", "of", "that", "with", "this", "is", "are",
	"was", "from", "which", "for", "have", "their",
}

var defaultMappingPrefixes = []string{"topic/", "event/"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ContentDir:   defaultContentDir,
			MetadataPath: defaultMetadataPath,
			MappingPath:  defaultMappingPath,
			LogDir:       defaultLogDir,
			StateDir:     defaultStateDir,
		},
		Languages: Languages{
			Base:      defaultBaseLanguage,
			Supported: []string{defaultBaseLanguage},
		},
		Mapping: Mapping{
			Prefixes: append([]string(nil), defaultMappingPrefixes...),
		},
		Translation: Translation{
			BaseURL:             defaultTranslationBaseURL,
			Model:               defaultTranslationModel,
			Referer:             defaultTranslationReferer,
			Title:               defaultTranslationTitle,
			TimeoutSeconds:      defaultTranslationTimeout,
			DelayMillis:         defaultTranslationDelayMS,
			CostPerMillionChars: defaultCostPerMillionChars,
			BreakerFailures:     defaultBreakerFailures,
			BreakerCooldown:     defaultBreakerCooldown,
		},
		Gaps: Gaps{
			IndicatorWords: append([]string(nil), defaultIndicatorWords...),
			Threshold:      defaultGapThreshold,
		},
		Pipeline: Pipeline{
			TestSampleSize:  defaultTestSampleSize,
			CheckpointEvery: defaultCheckpointEvery,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
