package rules

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/piranna/projectlint/pkg/models/domain"
)

const defaultColumns = 80

// LineLength flags files whose widest line exceeds the "columns" threshold
// of the current level config. Fetch measures once; each level re-checks
// the measurements against its own threshold, so a stricter higher level
// overrides a looser lower one.
func LineLength() domain.Rule {
	return domain.Rule{
		Name:      "line-length",
		DependsOn: []string{"project-files"},
		Fetch: func(_ context.Context, in domain.FetchInput) (any, error) {
			widths := make(map[string]int)
			for _, file := range depFiles(in.Deps) {
				width, err := widestLine(filepath.Join(in.Root, file))
				if err != nil {
					return nil, err
				}
				if width >= 0 {
					widths[file] = width
				}
			}
			return widths, nil
		},
		Evaluate: func(_ context.Context, in domain.CheckInput) (any, error) {
			widths, _ := in.Fetched.(map[string]int)
			columns, ok := intOption(in.Config, "columns")
			if !ok {
				columns = defaultColumns
			}

			offenders := make(map[string]int)
			for file, width := range widths {
				if width > columns {
					offenders[file] = width
				}
			}
			if len(offenders) == 0 {
				return nil, nil
			}
			return nil, domain.NewFailure("lines exceed the column limit", offenders)
		},
	}
}

// widestLine returns the widest line of a text file in runes, or -1 for
// files that look binary.
func widestLine(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	widest := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		for _, b := range line {
			if b == 0 {
				return -1, nil
			}
		}
		if width := utf8.RuneCount(line); width > widest {
			widest = width
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return widest, nil
}
