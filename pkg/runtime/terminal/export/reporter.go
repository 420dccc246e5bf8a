package export

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/piranna/projectlint/pkg/models/domain"
	"github.com/piranna/projectlint/pkg/services/engine"
)

type TableConfig struct {
	RuleWidth    int
	StatusWidth  int
	LevelWidth   int
	DetailsWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		RuleWidth:    24,
		StatusWidth:  10,
		LevelWidth:   10,
		DetailsWidth: 60,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

type row struct {
	Rule    string
	Status  string
	Level   string
	Details string
}

type rootView struct {
	Root string
	Rows []row
}

// Handle renders one table per project root, rules sorted by name.
func (c *Reporter) Handle(results engine.Results) error {
	funcMap := template.FuncMap{
		"formatRow": func(rule, status, level, details string) string {
			return fmt.Sprintf("| %-*s | %-*s | %-*s | %-*s |",
				c.config.RuleWidth, rule,
				c.config.StatusWidth, status,
				c.config.LevelWidth, level,
				c.config.DetailsWidth, details)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.RuleWidth+2),
				strings.Repeat("-", c.config.StatusWidth+2),
				strings.Repeat("-", c.config.LevelWidth+2),
				strings.Repeat("-", c.config.DetailsWidth+2))
		},
	}

	tmpl := `{{range .}}
Project root: {{.Root}}

{{separator}}
{{formatRow "Rule" "Status" "Level" "Details"}}
{{separator}}
{{- range .Rows}}
{{formatRow .Rule .Status .Level .Details}}
{{- end}}
{{separator}}
{{end}}`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse report template: %w", err)
	}
	return t.Execute(c.writer, c.views(results))
}

func (c *Reporter) views(results engine.Results) []rootView {
	roots := make([]string, 0, len(results))
	for root := range results {
		roots = append(roots, root)
	}
	sort.Strings(roots)

	views := make([]rootView, 0, len(roots))
	for _, root := range roots {
		view := rootView{Root: root}

		names := make([]string, 0, len(results[root]))
		for name := range results[root] {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			view.Rows = append(view.Rows, c.rowOf(results[root][name]))
		}
		views = append(views, view)
	}
	return views
}

func (c *Reporter) rowOf(exec domain.RuleExecution) row {
	r := row{
		Rule:   exec.Rule,
		Status: string(exec.Status),
	}
	if exec.Level != 0 {
		r.Level = exec.Level.String()
	}
	switch {
	case exec.Err != nil:
		r.Details = truncate(exec.Err.Error(), c.config.DetailsWidth)
	case exec.Failure != nil:
		details := exec.Failure.Message
		if exec.Failure.Payload != nil {
			details = fmt.Sprintf("%s: %v", details, exec.Failure.Payload)
		}
		r.Details = truncate(details, c.config.DetailsWidth)
	}
	return r
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}
