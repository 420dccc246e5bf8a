package rules

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/piranna/projectlint/pkg/models/domain"
)

var trailingBlank = regexp.MustCompile(`[ \t]+$`)

// TrailingWhitespace flags lines ending in blanks. Its fix rewrites the
// offending files in place, stripping the trailing blanks — the engine
// invokes it once, bound to the worst failing level.
func TrailingWhitespace() domain.Rule {
	return domain.Rule{
		Name:      "trailing-whitespace",
		DependsOn: []string{"project-files"},
		Fetch: func(_ context.Context, in domain.FetchInput) (any, error) {
			offenders := make(map[string][]int)
			for _, file := range depFiles(in.Deps) {
				lines, err := trailingBlankLines(filepath.Join(in.Root, file))
				if err != nil {
					return nil, err
				}
				if len(lines) > 0 {
					offenders[file] = lines
				}
			}
			return offenders, nil
		},
		Evaluate: func(_ context.Context, in domain.CheckInput) (any, error) {
			offenders, _ := in.Fetched.(map[string][]int)
			if len(offenders) == 0 {
				return nil, nil
			}

			files := make([]string, 0, len(offenders))
			for file := range offenders {
				files = append(files, file)
			}
			matched, err := filterFiles(files, in.Config)
			if err != nil {
				return nil, err
			}
			if len(matched) == 0 {
				return nil, nil
			}

			payload := make(map[string][]int, len(matched))
			for _, file := range matched {
				payload[file] = offenders[file]
			}
			return nil, domain.NewFailure("lines end in whitespace", payload)
		},
		Fix: func(_ context.Context, in domain.FixInput) error {
			payload, _ := in.Failure.Payload.(map[string][]int)
			for file := range payload {
				if err := stripTrailingBlanks(filepath.Join(in.Root, file)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// trailingBlankLines returns the 1-based numbers of lines ending in blanks;
// binary-looking files are left alone.
func trailingBlankLines(path string) ([]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.ContainsRune(string(data), 0) {
		return nil, nil
	}

	var offenders []int
	for i, line := range strings.Split(string(data), "\n") {
		if trailingBlank.MatchString(line) {
			offenders = append(offenders, i+1)
		}
	}
	return offenders, nil
}

func stripTrailingBlanks(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		lines[i] = trailingBlank.ReplaceAllString(line, "")
	}
	return os.WriteFile(path, []byte(strings.Join(lines, "\n")), info.Mode())
}
