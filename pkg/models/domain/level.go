package domain

// Level ranks a rule violation. Positive levels are failing levels ordered
// by severity; negative levels are control levels that change how dependents
// react to this rule without counting as a failure of the rule itself.
type Level int

const (
	LevelWarn     Level = 1
	LevelError    Level = 2
	LevelCritical Level = 3

	// LevelIgnore silences propagation of the rule's own failure to
	// dependents but still reports it.
	LevelIgnore Level = -1
	// LevelSkipIf skips dependents only if this rule fails.
	LevelSkipIf Level = -2
	// LevelSkip unconditionally skips dependents.
	LevelSkip Level = -3
	// LevelDisabled treats the rule as explicitly failed for all dependents
	// without evaluating it.
	LevelDisabled Level = -4
)

var levelNames = map[string]Level{
	"warn":     LevelWarn,
	"warning":  LevelWarn,
	"error":    LevelError,
	"critical": LevelCritical,
	"ignore":   LevelIgnore,
	"skipIf":   LevelSkipIf,
	"skip":     LevelSkip,
	"disabled": LevelDisabled,
}

// LevelOf resolves a severity name to its level. Names are case-sensitive.
func LevelOf(name string) (Level, bool) {
	l, ok := levelNames[name]
	return l, ok
}

// Failing reports whether the level counts as a failure of the rule itself.
func (l Level) Failing() bool {
	return l > 0
}

// Control reports whether the level only modifies dependent-execution
// behavior.
func (l Level) Control() bool {
	return l < 0
}

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	case LevelIgnore:
		return "ignore"
	case LevelSkipIf:
		return "skipIf"
	case LevelSkip:
		return "skip"
	case LevelDisabled:
		return "disabled"
	}
	return "unknown"
}
