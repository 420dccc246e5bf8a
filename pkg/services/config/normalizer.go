package config

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/piranna/projectlint/pkg/models/domain"
)

// Normalized is the canonical form of one rule's raw configuration: the
// severity-sorted level list plus any auxiliary top-level config that was
// carried next to the reserved "rules" key.
type Normalized struct {
	Levels []domain.LevelConfig
	Aux    map[string]any
}

// Normalize turns a rule's raw configuration into its canonical form.
//
// Accepted shapes, each handled by its own case:
//   - a bare severity-name string: one entry, no config;
//   - a two-element tuple [name, config];
//   - a list of such tuples (length 1 or 2 each);
//   - a keyed map {name: config};
//   - a string holding any of the above in rc grammar (YAML flow syntax);
//   - any of the above wrapped in a map under a reserved "rules" key, the
//     remaining top-level keys returned as auxiliary config.
//
// The output is stable-sorted ascending by level so cascading evaluation
// proceeds from least to most severe. Duplicate levels are permitted and
// keep their insertion order among equals.
func Normalize(raw any) (Normalized, error) {
	if raw == nil {
		return Normalized{}, domain.NewConfigError("missing rule config")
	}

	raw, aux, err := unwrapRules(raw)
	if err != nil {
		return Normalized{}, err
	}

	entries, err := coerceEntries(raw)
	if err != nil {
		return Normalized{}, err
	}
	if len(entries) == 0 {
		return Normalized{}, domain.NewConfigError("empty rule config")
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Level < entries[j].Level
	})

	return Normalized{Levels: entries, Aux: aux}, nil
}

// unwrapRules splits an enclosing {rules: ..., extra: ...} map into the
// level list value and the auxiliary config around it.
func unwrapRules(raw any) (any, map[string]any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return raw, nil, nil
	}
	inner, ok := m["rules"]
	if !ok {
		return raw, nil, nil
	}
	if inner == nil {
		return nil, nil, domain.NewConfigError("empty \"rules\" key in rule config")
	}

	var aux map[string]any
	for k, v := range m {
		if k == "rules" {
			continue
		}
		if aux == nil {
			aux = make(map[string]any)
		}
		aux[k] = v
	}
	return inner, aux, nil
}

func coerceEntries(raw any) ([]domain.LevelConfig, error) {
	switch v := raw.(type) {
	case string:
		return parseGrammar(v)
	case []any:
		if isTupleList(v) {
			entries := make([]domain.LevelConfig, 0, len(v))
			for _, t := range v {
				entry, err := parseTuple(t.([]any))
				if err != nil {
					return nil, err
				}
				entries = append(entries, entry)
			}
			return entries, nil
		}
		entry, err := parseTuple(v)
		if err != nil {
			return nil, err
		}
		return []domain.LevelConfig{entry}, nil
	case map[string]any:
		entries := make([]domain.LevelConfig, 0, len(v))
		for name, cfg := range v {
			level, err := resolveLevelKey(name)
			if err != nil {
				return nil, err
			}
			config, err := coerceLevelValue(name, cfg)
			if err != nil {
				return nil, err
			}
			entries = append(entries, domain.LevelConfig{Level: level, Config: config})
		}
		return entries, nil
	case int, int64, float64:
		level, err := resolveLevelKey(v)
		if err != nil {
			return nil, err
		}
		return []domain.LevelConfig{{Level: level}}, nil
	default:
		return nil, domain.NewConfigError("unsupported rule config shape %T", raw)
	}
}

// parseGrammar handles the textual form: a bare level name, or an rc
// grammar string holding one of the structured shapes.
func parseGrammar(s string) ([]domain.LevelConfig, error) {
	if level, ok := domain.LevelOf(s); ok {
		return []domain.LevelConfig{{Level: level}}, nil
	}

	var parsed any
	if err := yaml.Unmarshal([]byte(s), &parsed); err != nil {
		return nil, domain.NewConfigError("malformed rule config %q: %v", s, err)
	}
	if _, again := parsed.(string); again || parsed == nil {
		return nil, domain.NewConfigError("unknown severity level %q", s)
	}
	return coerceEntries(normalizeYAML(parsed))
}

// isTupleList reports whether every element is itself a tuple, which
// distinguishes a list of tuples from one bare [name, config] tuple.
func isTupleList(v []any) bool {
	if len(v) == 0 {
		return false
	}
	for _, e := range v {
		if _, ok := e.([]any); !ok {
			return false
		}
	}
	return true
}

func parseTuple(t []any) (domain.LevelConfig, error) {
	if len(t) < 1 || len(t) > 2 {
		return domain.LevelConfig{}, domain.NewConfigError(
			"rule config tuple must have 1 or 2 elements, got %d", len(t))
	}

	level, err := resolveLevelKey(t[0])
	if err != nil {
		return domain.LevelConfig{}, err
	}

	entry := domain.LevelConfig{Level: level}
	if len(t) == 2 {
		entry.Config, err = coerceLevelValue(fmt.Sprint(t[0]), t[1])
		if err != nil {
			return domain.LevelConfig{}, err
		}
	}
	return entry, nil
}

// resolveLevelKey maps a level key to its numeric level. Non-numeric keys
// go through the severity name table; numeric keys pass through unchanged.
func resolveLevelKey(key any) (domain.Level, error) {
	switch k := key.(type) {
	case string:
		level, ok := domain.LevelOf(k)
		if !ok {
			return 0, domain.NewConfigError("unknown severity level %q", k)
		}
		return level, nil
	case int:
		return domain.Level(k), nil
	case int64:
		return domain.Level(k), nil
	case float64:
		return domain.Level(k), nil
	default:
		return 0, domain.NewConfigError("invalid severity level key %v (%T)", key, key)
	}
}

func coerceLevelValue(name string, v any) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, domain.NewConfigError("config for level %q must be a mapping, got %T", name, v)
	}
	return m, nil
}

// normalizeYAML rewrites yaml.v3 composite values so the shape cases only
// ever see map[string]any and []any.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeYAML(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = normalizeYAML(e)
		}
		return t
	default:
		return v
	}
}
