package gridcore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RuleFunc reports whether a cell value is acceptable.
type RuleFunc func(value interface{}) bool

// Rule is a single per-column validation rule. Rules for a column are
// evaluated in ascending Priority (stable for equal priorities, so
// registration order holds) and the first failing rule wins for a cell.
type Rule struct {
	Name     string
	Validate RuleFunc
	Message  string
	Priority int
	Enabled  bool
}

// CrossRowResult is the outcome of a cross-row rule.
type CrossRowResult struct {
	Valid       bool
	RowErrors   map[int]string // keyed by row index
	GlobalError string
}

// CrossRowRuleFunc validates the entire non-empty row set at once.
type CrossRowRuleFunc func(rows []*Row) CrossRowResult

// CrossRowRule is a validation rule over the whole non-empty dataset.
type CrossRowRule struct {
	Name     string
	Validate CrossRowRuleFunc
	Enabled  bool
}

// ValidationConfig carries the rule sets and enable flags supplied at
// Initialize. CellRules is keyed by resolved column name
// (case-insensitive). The configuration is frozen for the table's
// lifetime.
type ValidationConfig struct {
	EnableRealtimeValidation bool
	EnableBatchValidation    bool
	CellRules                map[string][]Rule
	CrossRowRules            []CrossRowRule
}

// validationState is the normalized, immutable form held by the table.
type validationState struct {
	realtime   bool
	batch      bool
	cellRules  map[string][]Rule // lower-cased column name, priority-sorted
	crossRules []CrossRowRule
}

func newValidationState(cfg *ValidationConfig) *validationState {
	s := &validationState{cellRules: make(map[string][]Rule)}
	if cfg == nil {
		return s
	}
	s.realtime = cfg.EnableRealtimeValidation
	s.batch = cfg.EnableBatchValidation
	for name, rules := range cfg.CellRules {
		sorted := make([]Rule, len(rules))
		copy(sorted, rules)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Priority < sorted[j].Priority
		})
		s.cellRules[strings.ToLower(name)] = sorted
	}
	s.crossRules = make([]CrossRowRule, len(cfg.CrossRowRules))
	copy(s.crossRules, cfg.CrossRowRules)
	return s
}

func (s *validationState) rulesFor(column string) []Rule {
	return s.cellRules[strings.ToLower(column)]
}

// evaluateCellRules runs the rules against a value and returns the state
// of the first failure, or a clean state when all enabled rules pass.
func evaluateCellRules(rules []Rule, value interface{}) CellState {
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		state := runRule(rule, value)
		if state.HasError {
			return state
		}
	}
	return CellState{}
}

// runRule executes one rule, converting a panicking validator into a
// validation failure instead of propagating it.
func runRule(rule Rule, value interface{}) (state CellState) {
	defer func() {
		if r := recover(); r != nil {
			state = CellState{HasError: true, ErrorMessage: fmt.Sprintf("Validation error: %v", r)}
		}
	}()
	if rule.Validate == nil || rule.Validate(value) {
		return CellState{}
	}
	return CellState{HasError: true, ErrorMessage: rule.Message}
}

// runCrossRule executes one cross-row rule with the same panic handling.
func runCrossRule(rule CrossRowRule, rows []*Row) (result CrossRowResult) {
	defer func() {
		if r := recover(); r != nil {
			result = CrossRowResult{Valid: false, GlobalError: fmt.Sprintf("Validation error: %v", r)}
		}
	}()
	if rule.Validate == nil {
		return CrossRowResult{Valid: true}
	}
	return rule.Validate(rows)
}

// validateCellInPlace evaluates a cell's rules and stores the outcome on
// the cell's validation state.
func (t *Table) validateCellInPlace(r *Row, c Column) {
	rules := t.validation.rulesFor(c.Name)
	if len(rules) == 0 {
		return
	}
	r.States[c.Name] = evaluateCellRules(rules, r.Values[c.Name])
}

// AllNonEmptyRowsValid reports whether the whole non-empty dataset passes
// every enabled rule. It short-circuits on the first failure and mutates
// no validation state; use ValidateAllRows for a full report.
func (t *Table) AllNonEmptyRowsValid() bool {
	if !t.initialized {
		return true
	}
	for _, r := range t.rows {
		if r.IsEmpty(t.columns) {
			continue
		}
		for _, c := range t.columns {
			rules := t.validation.rulesFor(c.Name)
			if len(rules) == 0 {
				continue
			}
			if evaluateCellRules(rules, r.Values[c.Name]).HasError {
				return false
			}
		}
	}
	if len(t.validation.crossRules) == 0 {
		return true
	}
	rows := t.NonEmptyRows()
	for _, rule := range t.validation.crossRules {
		if !rule.Enabled {
			continue
		}
		if result := runCrossRule(rule, rows); !result.Valid {
			return false
		}
	}
	return true
}

// CellRef addresses a single cell in a validation outcome.
type CellRef struct {
	Row    int
	Column string
}

// BatchOutcome aggregates every failure found by a batch validation pass.
type BatchOutcome struct {
	CellErrors   map[CellRef]string
	RowErrors    map[int]string
	GlobalErrors []string
	ValidCells   int
	InvalidCells int
}

// IsValid reports whether the pass found no failures of any kind.
func (o *BatchOutcome) IsValid() bool {
	return len(o.CellErrors) == 0 && len(o.RowErrors) == 0 && len(o.GlobalErrors) == 0
}

// ValidateAllRows runs an exhaustive validation pass: every enabled rule
// against every non-empty row, then every enabled cross-row rule against
// the full non-empty dataset. Each evaluated cell's stored validation
// state is reset and rewritten, so stale error flags never survive a
// re-run. Cancellation is honored between rows; within a cell the first
// failing rule wins, but a failure in one column never skips another
// column's rules.
func (t *Table) ValidateAllRows(ctx context.Context) (*BatchOutcome, error) {
	if !t.initialized {
		return nil, ErrNotInitialized
	}

	outcome := &BatchOutcome{
		CellErrors: make(map[CellRef]string),
		RowErrors:  make(map[int]string),
	}

	for _, r := range t.rows {
		r.States = make(map[string]CellState)
	}

	for _, r := range t.rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.IsEmpty(t.columns) {
			continue
		}
		for _, c := range t.columns {
			rules := t.validation.rulesFor(c.Name)
			if len(rules) == 0 {
				continue
			}
			state := evaluateCellRules(rules, r.Values[c.Name])
			r.States[c.Name] = state
			if state.HasError {
				outcome.CellErrors[CellRef{Row: r.Index, Column: c.Name}] = state.ErrorMessage
				outcome.InvalidCells++
			} else {
				outcome.ValidCells++
			}
		}
	}

	if len(t.validation.crossRules) > 0 {
		rows := t.NonEmptyRows()
		alerts, hasAlerts := t.specialColumn(KindValidationAlerts)
		for _, rule := range t.validation.crossRules {
			if !rule.Enabled {
				continue
			}
			result := runCrossRule(rule, rows)
			if result.Valid {
				continue
			}
			if result.GlobalError != "" {
				outcome.GlobalErrors = append(outcome.GlobalErrors, result.GlobalError)
			}
			for idx, msg := range result.RowErrors {
				if _, exists := outcome.RowErrors[idx]; exists {
					continue
				}
				outcome.RowErrors[idx] = msg
				if hasAlerts && idx >= 0 && idx < len(t.rows) {
					t.rows[idx].States[alerts.Name] = CellState{HasError: true, ErrorMessage: msg}
				}
			}
		}
	}

	return outcome, nil
}

// RequiredRule fails when the cell is nil or blank.
func RequiredRule(message string) Rule {
	return Rule{
		Name:    "required",
		Message: message,
		Enabled: true,
		Validate: func(v interface{}) bool {
			return !isBlank(v)
		},
	}
}

// NumericRule fails when a non-blank cell cannot be read as a number.
func NumericRule(message string) Rule {
	return Rule{
		Name:    "numeric",
		Message: message,
		Enabled: true,
		Validate: func(v interface{}) bool {
			if isBlank(v) {
				return true
			}
			_, ok := numericValue(v)
			return ok
		},
	}
}

// RangeRule fails when a non-blank numeric cell falls outside [min, max].
func RangeRule(min, max float64, message string) Rule {
	return Rule{
		Name:    "range",
		Message: message,
		Enabled: true,
		Validate: func(v interface{}) bool {
			if isBlank(v) {
				return true
			}
			f, ok := numericValue(v)
			if !ok {
				return false
			}
			return f >= min && f <= max
		},
	}
}

// OneOfRule fails when a non-blank cell equals none of the given values.
func OneOfRule(message string, values ...interface{}) Rule {
	return Rule{
		Name:    "one_of",
		Message: message,
		Enabled: true,
		Validate: func(v interface{}) bool {
			if isBlank(v) {
				return true
			}
			for _, candidate := range values {
				if compareEqual(v, candidate) {
					return true
				}
			}
			return false
		},
	}
}

// compareEqual compares two cell values, coercing numerics so 2 == 2.0.
func compareEqual(a, b interface{}) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if isNumeric(a) && isNumeric(b) {
		return toFloat64(a) == toFloat64(b)
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// numericValue coerces a cell value to float64 when possible.
func numericValue(v interface{}) (float64, bool) {
	if isNumeric(v) {
		return toFloat64(v), true
	}
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// isNumeric checks if a value is numeric
func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// toFloat64 converts a numeric value to float64
func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int8:
		return float64(val)
	case int16:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case uint:
		return float64(val)
	case uint8:
		return float64(val)
	case uint16:
		return float64(val)
	case uint32:
		return float64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	case float64:
		return val
	default:
		return 0
	}
}
