package gridcore

import (
	"fmt"
	"strings"
)

// SpecialKind identifies the structural role of a column.
type SpecialKind int

const (
	KindNone SpecialKind = iota
	KindCheckBox
	KindDeleteRow
	KindValidationAlerts
)

// String returns the string representation of a SpecialKind.
func (k SpecialKind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindCheckBox:
		return "CheckBox"
	case KindDeleteRow:
		return "DeleteRow"
	case KindValidationAlerts:
		return "ValidationAlerts"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// preferredName returns the name a special column reserves for itself.
func (k SpecialKind) preferredName() string {
	switch k {
	case KindCheckBox:
		return "CheckBox"
	case KindDeleteRow:
		return "DeleteRow"
	case KindValidationAlerts:
		return "ValidationAlerts"
	default:
		return ""
	}
}

// reservedNames holds the case-insensitive names user columns may not take.
// "DeleteRows" is reserved but never auto-assigned to a special column.
var reservedNames = map[string]bool{
	"checkbox":         true,
	"deleterow":        true,
	"deleterows":       true,
	"validationalerts": true,
}

// ColumnDraft is a caller-supplied column definition before name resolution.
type ColumnDraft struct {
	Name     string
	Kind     SpecialKind
	Width    float64
	MinWidth float64
	MaxWidth float64
	Required bool
	ReadOnly bool
}

// Column is a resolved column definition. Names are unique
// (case-insensitive) across the schema after ResolveColumns.
type Column struct {
	Name     string
	Kind     SpecialKind
	Width    float64
	MinWidth float64
	MaxWidth float64
	Required bool
	ReadOnly bool
	Order    int
}

// validateDraft checks the structural constraints of a single draft.
func validateDraft(d ColumnDraft) error {
	if d.Kind == KindNone && strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: column name must not be empty", ErrInvalidArgument)
	}
	if d.Kind != KindNone && d.Required {
		return fmt.Errorf("%w: special column %q cannot be required", ErrInvalidArgument, d.Kind)
	}
	if d.MinWidth > 0 && d.MaxWidth > 0 && d.MinWidth > d.MaxWidth {
		return fmt.Errorf("%w: column %q has MinWidth > MaxWidth", ErrInvalidArgument, d.Name)
	}
	if d.Width > 0 {
		if d.MinWidth > 0 && d.Width < d.MinWidth {
			return fmt.Errorf("%w: column %q has Width < MinWidth", ErrInvalidArgument, d.Name)
		}
		if d.MaxWidth > 0 && d.Width > d.MaxWidth {
			return fmt.Errorf("%w: column %q has Width > MaxWidth", ErrInvalidArgument, d.Name)
		}
	}
	return nil
}

// ResolveColumns validates drafts and produces a conflict-free schema.
//
// Resolution is two-phase: special columns first reserve their preferred
// names (CheckBox, DeleteRow, ValidationAlerts), then user columns keep
// their names where possible and receive a _2, _3, ... suffix otherwise.
// Reserved names are never available to user columns even when no special
// column claims them. The returned schema is in physical order:
// CheckBox, user columns (original relative order), ValidationAlerts,
// DeleteRow. The input is never mutated.
func ResolveColumns(drafts []ColumnDraft) ([]Column, error) {
	if len(drafts) == 0 {
		return nil, fmt.Errorf("%w: at least one column is required", ErrInvalidArgument)
	}

	seenKinds := make(map[SpecialKind]bool)
	for _, d := range drafts {
		if err := validateDraft(d); err != nil {
			return nil, err
		}
		if d.Kind != KindNone {
			if seenKinds[d.Kind] {
				return nil, fmt.Errorf("%w: duplicate special column %q", ErrInvalidArgument, d.Kind)
			}
			seenKinds[d.Kind] = true
		}
	}

	taken := make(map[string]bool)

	// Phase 1: special columns reserve their preferred names.
	specials := make(map[SpecialKind]Column)
	for _, d := range drafts {
		if d.Kind == KindNone {
			continue
		}
		name := uniqueName(d.Kind.preferredName(), taken, nil)
		taken[strings.ToLower(name)] = true
		c := columnFromDraft(d)
		c.Name = name
		specials[d.Kind] = c
	}

	// Phase 2: user columns fill the remaining slots in original order.
	users := make([]Column, 0, len(drafts))
	for _, d := range drafts {
		if d.Kind != KindNone {
			continue
		}
		name := uniqueName(strings.TrimSpace(d.Name), taken, reservedNames)
		taken[strings.ToLower(name)] = true
		c := columnFromDraft(d)
		c.Name = name
		users = append(users, c)
	}

	// Fixed physical order: CheckBox, user columns, ValidationAlerts, DeleteRow.
	result := make([]Column, 0, len(drafts))
	if c, ok := specials[KindCheckBox]; ok {
		result = append(result, c)
	}
	result = append(result, users...)
	if c, ok := specials[KindValidationAlerts]; ok {
		result = append(result, c)
	}
	if c, ok := specials[KindDeleteRow]; ok {
		result = append(result, c)
	}
	for i := range result {
		result[i].Order = i
	}

	// Resolution above cannot leave duplicates; a hit here is a defect.
	check := make(map[string]bool, len(result))
	for _, c := range result {
		key := strings.ToLower(c.Name)
		if check[key] {
			return nil, fmt.Errorf("%w: unresolved duplicate column name %q", ErrInvalidSchema, c.Name)
		}
		check[key] = true
	}

	return result, nil
}

// uniqueName returns base if unused, otherwise base_2, base_3, ...
// A name is unused when it is neither taken nor in the blocked set.
func uniqueName(base string, taken, blocked map[string]bool) string {
	unused := func(name string) bool {
		key := strings.ToLower(name)
		return !taken[key] && !blocked[key]
	}
	if unused(base) {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if unused(candidate) {
			return candidate
		}
	}
}

func columnFromDraft(d ColumnDraft) Column {
	return Column{
		Name:     d.Name,
		Kind:     d.Kind,
		Width:    d.Width,
		MinWidth: d.MinWidth,
		MaxWidth: d.MaxWidth,
		Required: d.Required,
		ReadOnly: d.ReadOnly,
	}
}
