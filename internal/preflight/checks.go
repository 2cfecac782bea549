package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"lectern/internal/config"
	"lectern/internal/content"
	"lectern/internal/schema"
	"lectern/internal/services/llm"
)

const providerCheckTimeout = 30 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckMetadata verifies the canonical metadata file parses.
func CheckMetadata(path string) Result {
	const name = "Metadata"
	md, err := content.LoadMetadata(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d series, %d episodes", len(md.Series), md.EpisodeCount())}
}

// CheckSource verifies a configured source loads in its declared shape.
// Entries the normalizer drops are reported in the detail but do not fail the check.
func CheckSource(src config.Source) Result {
	name := "Source " + src.Name
	shape, err := schema.ParseShape(src.Shape)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if shape == schema.ShapeTree {
		tree, exists, err := content.LoadTree(src.Path)
		switch {
		case err != nil:
			return Result{Name: name, Detail: err.Error()}
		case !exists:
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", src.Path)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s tree, %d series", src.Language, len(tree))}
	}
	result, err := schema.Load(src.Path, shape)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	detail := fmt.Sprintf("%s %s, %d entries", src.Language, shape, len(result.Entries))
	if n := len(result.Warnings); n > 0 {
		detail += fmt.Sprintf(", %d dropped (first %s)", n, result.Warnings[0])
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckTree verifies the content tree of lang parses when it exists. A tree
// that has not been built yet passes.
func CheckTree(lang, path string) Result {
	name := "Tree " + lang
	tree, exists, err := content.LoadTree(path)
	switch {
	case err != nil:
		return Result{Name: name, Detail: err.Error()}
	case !exists:
		return Result{Name: name, Passed: true, Detail: "not built yet (run lectern consolidate)"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s, %d series", path, len(tree))}
}

// CheckTranslationProvider verifies that the provider is reachable and the key
// is valid. It uses a single attempt with no retries.
func CheckTranslationProvider(ctx context.Context, cfg config.TranslationConfig) Result {
	const name = "Translation provider"
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, providerCheckTimeout)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.APIKey,
		BaseURL:        cfg.BaseURL,
		Model:          cfg.Model,
		Referer:        cfg.Referer,
		Title:          cfg.Title,
		TimeoutSeconds: cfg.TimeoutSeconds,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeProviderError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable (model " + client.Model() + ")"}
}

func summarizeProviderError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (provider unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (provider unreachable)"
	}
	return err.Error()
}
