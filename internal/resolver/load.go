package resolver

import (
	"lectern/internal/config"
	"lectern/internal/content"
	"lectern/internal/textutil"
)

// Load builds a resolver from the metadata and content trees named by cfg.
// Languages without a tree on disk resolve as the base language.
func Load(cfg *config.Config) (*Resolver, error) {
	md, err := content.LoadMetadata(cfg.Paths.MetadataPath)
	if err != nil {
		return nil, err
	}
	trees := make(map[string]content.Tree, len(cfg.Languages.Supported))
	for _, lang := range cfg.Languages.Supported {
		tree, exists, err := content.LoadTree(cfg.TreePath(lang))
		if err != nil {
			return nil, err
		}
		if exists {
			trees[lang] = tree
		}
	}
	detector := textutil.NewDetector(cfg.Gaps.IndicatorWords, cfg.Gaps.Threshold)
	return New(md, trees, cfg.Languages.Base, WithDetector(detector)), nil
}
