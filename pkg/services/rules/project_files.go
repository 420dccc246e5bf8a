package rules

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/piranna/projectlint/pkg/models/domain"
)

// ProjectFiles walks the project root once and produces the relative file
// list. Other rules declare it as a dependency and consume that list
// instead of walking the tree themselves.
//
// Level config keys: "include" (doublestar glob, default every file) and
// "max" (cap on the number of matched files).
func ProjectFiles() domain.Rule {
	return domain.Rule{
		Name:  "project-files",
		Fetch: fetchProjectFiles,
		Evaluate: func(_ context.Context, in domain.CheckInput) (any, error) {
			files, _ := in.Fetched.([]string)
			matched, err := filterFiles(files, in.Config)
			if err != nil {
				return nil, err
			}

			max, ok := intOption(in.Config, "max")
			if !ok || len(matched) <= max {
				return nil, nil
			}
			return map[string]any{
				"count": len(matched),
				"max":   max,
			}, nil
		},
	}
}

func fetchProjectFiles(_ context.Context, in domain.FetchInput) (any, error) {
	var files []string
	err := filepath.WalkDir(in.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(in.Root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// filterFiles applies the "include" glob from a level config to a relative
// file list.
func filterFiles(files []string, config map[string]any) ([]string, error) {
	pattern, ok := stringOption(config, "include")
	if !ok {
		return files, nil
	}

	matched := make([]string, 0, len(files))
	for _, file := range files {
		ok, err := doublestar.Match(pattern, file)
		if err != nil {
			return nil, domain.NewConfigError("invalid include pattern %q: %v", pattern, err)
		}
		if ok {
			matched = append(matched, file)
		}
	}
	return matched, nil
}

// depFiles extracts the file list produced by the project-files dependency.
func depFiles(deps map[string]any) []string {
	files, _ := deps["project-files"].([]string)
	return files
}

func intOption(config map[string]any, key string) (int, bool) {
	switch v := config[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func stringOption(config map[string]any, key string) (string, bool) {
	s, ok := config[key].(string)
	return s, ok && s != ""
}
