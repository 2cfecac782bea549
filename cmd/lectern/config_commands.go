package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lectern/internal/config"
	"lectern/internal/preflight"
	"lectern/internal/services"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Edit the sources and paths, then set translation.api_key (or export LECTERN_TRANSLATION_API_KEY) before running lectern fill.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	var checkProvider bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration, paths, sources and content trees",
		Long: `Validate loads the configuration and checks that every path it names is
usable: the data directories, the metadata file, each legacy source in its
declared shape and any content tree already built. --check-provider also sends
one health request to the translation provider.`,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "cli", "load config", "", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return services.Wrap(services.ErrConfiguration, "cli", "ensure directories", "", err)
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{CheckProvider: checkProvider})
			failed := preflight.Failed(results)

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, configReport{
					Path:           path,
					Exists:         exists,
					BaseLanguage:   cfg.Languages.Base,
					Languages:      cfg.Languages.Supported,
					TranslationKey: cfg.RequireTranslationKey() == nil,
					Model:          cfg.Translation.Model,
					Checks:         results,
				}); err != nil {
					return err
				}
			} else {
				printConfigReport(cmd, cfg, path, exists, results)
			}
			if failed > 0 {
				return services.Wrap(services.ErrConfiguration, "cli", "validate config",
					fmt.Sprintf("%d check(s) failed", failed), nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkProvider, "check-provider", false, "Send a health request to the translation provider")
	return cmd
}

type configReport struct {
	Path           string             `json:"path"`
	Exists         bool               `json:"exists"`
	BaseLanguage   string             `json:"baseLanguage"`
	Languages      []string           `json:"languages"`
	TranslationKey bool               `json:"translationKey"`
	Model          string             `json:"model"`
	Checks         []preflight.Result `json:"checks"`
}

func printConfigReport(cmd *cobra.Command, cfg *config.Config, path string, exists bool, results []preflight.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config path: %s\n", path)
	if !exists {
		fmt.Fprintln(out, "Config file did not exist; defaults were used")
	}
	fmt.Fprintf(out, "Languages: %s (base %s)\n", strings.Join(cfg.Languages.Supported, ", "), cfg.Languages.Base)
	fmt.Fprintf(out, "Sources: %d\n", len(cfg.Sources))
	fmt.Fprintf(out, "Translation key: %s (model %s)\n", yesNo(cfg.RequireTranslationKey() == nil), cfg.Translation.Model)

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		if !r.Passed {
			status = "FAIL"
		}
		rows = append(rows, []string{r.Name, status, r.Detail})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Check", "Status", "Detail"}, rows, nil))

	if failed := preflight.Failed(results); failed > 0 {
		fmt.Fprintf(out, "Configuration has %d problem(s)\n", failed)
		return
	}
	fmt.Fprintln(out, "Configuration valid")
}
