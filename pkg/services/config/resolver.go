package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/piranna/projectlint/pkg/models/domain"
)

// Resolver supplies raw rule configs for a project root when the caller
// did not pass any. The engine treats it as an optional collaborator.
type Resolver interface {
	Resolve(ctx context.Context, root string) (map[string]any, error)
}

// rc file candidates, checked in order. The extensionless form is read as
// YAML, which also covers the JSON-style flow grammar.
var rcCandidates = []struct {
	name    string
	cfgType string
}{
	{".projectlintrc", "yaml"},
	{".projectlintrc.yaml", "yaml"},
	{".projectlintrc.yml", "yaml"},
	{".projectlintrc.json", "json"},
}

type fileResolver struct{}

// NewFileResolver returns a Resolver that looks an rc file up in the
// project root itself.
func NewFileResolver() Resolver {
	return &fileResolver{}
}

func (r *fileResolver) Resolve(_ context.Context, root string) (map[string]any, error) {
	for _, candidate := range rcCandidates {
		path := filepath.Join(root, candidate.name)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType(candidate.cfgType)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read rc file %s: %w", path, err)
		}
		return v.AllSettings(), nil
	}
	return nil, domain.NewConfigError("no rc file found in %s", root)
}
