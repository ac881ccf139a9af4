package gridcore

import (
	"context"
	"fmt"
	"time"
)

// ImportMode controls how imported values combine with existing rows.
type ImportMode int

const (
	// ImportModeReplace clears each target row's user cells before
	// applying the imported values.
	ImportModeReplace ImportMode = iota
	// ImportModeMerge writes only the imported keys, keeping other cells.
	ImportModeMerge
)

// ProgressFunc receives (processed, total) after each handled row.
type ProgressFunc func(processed, total int)

// ImportOptions configures a bulk import.
type ImportOptions struct {
	StartRow int
	Mode     ImportMode
	Timeout  time.Duration // cooperative wall-clock budget; 0 means none
	Progress ProgressFunc
}

// ExportOptions configures a bulk export.
type ExportOptions struct {
	IncludeValidationAlerts bool
	RemoveAfterExport       bool
	Timeout                 time.Duration
	Progress                ProgressFunc
}

// ImportRows writes the given rows sequentially through the row-write
// path, expanding the table first when the target window exceeds the
// current capacity. checkboxStates, when provided, are applied
// positionally to the CheckBox column. The timeout is checked before
// each row; on ErrTimeout rows already written are not rolled back.
// When batch validation is enabled, a full validation pass runs after
// the import completes.
func (t *Table) ImportRows(ctx context.Context, data []map[string]interface{}, checkboxStates []bool, opts ImportOptions) error {
	if !t.initialized {
		return ErrNotInitialized
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: import data must not be empty", ErrInvalidArgument)
	}
	if opts.StartRow < 0 {
		return fmt.Errorf("%w: start row %d", ErrIndexOutOfRange, opts.StartRow)
	}

	t.expandRowsToCount(opts.StartRow + len(data))

	checkbox, hasCheckbox := t.specialColumn(KindCheckBox)
	total := len(data)
	started := time.Now()

	for i, rowData := range data {
		if opts.Timeout > 0 && time.Since(started) > opts.Timeout {
			return fmt.Errorf("%w: imported %d of %d rows", ErrTimeout, i, total)
		}

		r := t.rows[opts.StartRow+i]
		if opts.Mode == ImportModeReplace {
			for _, c := range t.columns {
				if c.Kind != KindNone {
					continue
				}
				if _, ok := r.Values[c.Name]; ok {
					t.setCellValue(r, c, nil)
				}
			}
		}
		for name, value := range rowData {
			if ci, ok := t.colIndex[normalizeName(name)]; ok {
				t.setCellValue(r, t.columns[ci], value)
			}
		}
		if hasCheckbox && i < len(checkboxStates) {
			t.setCellValue(r, checkbox, checkboxStates[i])
		}
		t.afterRowWrite(r)

		if opts.Progress != nil {
			opts.Progress(i+1, total)
		}
	}

	if t.validation.batch {
		if _, err := t.ValidateAllRows(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ExportRows projects all non-empty rows into column name to value maps.
// CheckBox and DeleteRow columns are always excluded; the
// ValidationAlerts column is included only on request. With
// RemoveAfterExport set and at least one row exported, every non-empty
// row is smart-deleted afterwards, in descending index order.
func (t *Table) ExportRows(opts ExportOptions) ([]map[string]interface{}, error) {
	if !t.initialized {
		return nil, ErrNotInitialized
	}

	columns := t.exportColumns(opts.IncludeValidationAlerts)

	nonEmpty := make([]*Row, 0, len(t.rows))
	for _, r := range t.rows {
		if !r.IsEmpty(t.columns) {
			nonEmpty = append(nonEmpty, r)
		}
	}

	total := len(nonEmpty)
	started := time.Now()
	exported := make([]map[string]interface{}, 0, total)

	for i, r := range nonEmpty {
		if opts.Timeout > 0 && time.Since(started) > opts.Timeout {
			return nil, fmt.Errorf("%w: exported %d of %d rows", ErrTimeout, i, total)
		}

		values := make(map[string]interface{}, len(columns))
		for _, c := range columns {
			if v, ok := r.Values[c.Name]; ok {
				values[c.Name] = v
			}
		}
		exported = append(exported, values)

		if opts.Progress != nil {
			opts.Progress(i+1, total)
		}
	}

	if opts.RemoveAfterExport && len(exported) > 0 {
		// Descending order so removals never shift pending indices.
		for i := len(t.rows) - 1; i >= 0; i-- {
			if !t.rows[i].IsEmpty(t.columns) {
				t.smartDelete(i)
			}
		}
		t.ensureMinimumRows()
		t.ensureTrailingEmptyRow()
	}

	return exported, nil
}

// exportColumns returns the column set visible to exports.
func (t *Table) exportColumns(includeAlerts bool) []Column {
	columns := make([]Column, 0, len(t.columns))
	for _, c := range t.columns {
		switch c.Kind {
		case KindNone:
			columns = append(columns, c)
		case KindValidationAlerts:
			if includeAlerts {
				columns = append(columns, c)
			}
		}
	}
	return columns
}

// ExportSchema returns the exportable column names in physical order.
func (t *Table) ExportSchema(includeAlerts bool) []string {
	columns := t.exportColumns(includeAlerts)
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

// LoadFromAdapter replaces the table's data with rows loaded from the
// adapter, retrying with capped exponential backoff.
func (t *Table) LoadFromAdapter(ctx context.Context, adapter Adapter, config *Config) error {
	if !t.initialized {
		return ErrNotInitialized
	}
	if config == nil {
		config = DefaultConfig()
	}

	var rows []map[string]interface{}
	var schema []string
	var err error

	for i := 0; i <= config.MaxRetries; i++ {
		rows, schema, err = adapter.Load(ctx)
		if err == nil {
			break
		}
		if i < config.MaxRetries {
			time.Sleep(retryBackoff(config.RetryInterval, i))
		}
	}
	if err != nil {
		return fmt.Errorf("failed after %d retries: %w", config.MaxRetries, err)
	}

	t.resetRows()
	if len(rows) > 0 {
		if err := t.ImportRows(ctx, rows, nil, ImportOptions{Mode: ImportModeReplace}); err != nil {
			return err
		}
	}
	if config.Logger != nil {
		config.Logger.Debug("loaded rows from adapter", "rows", len(rows), "columns", len(schema))
	}
	return nil
}

// SaveToAdapter exports the current non-empty rows and saves them to the
// adapter, retrying with capped exponential backoff.
func (t *Table) SaveToAdapter(ctx context.Context, adapter Adapter, config *Config) error {
	if !t.initialized {
		return ErrNotInitialized
	}
	if config == nil {
		config = DefaultConfig()
	}

	rows, err := t.ExportRows(ExportOptions{})
	if err != nil {
		return err
	}
	schema := t.ExportSchema(false)

	for i := 0; i <= config.MaxRetries; i++ {
		err = adapter.Save(ctx, rows, schema)
		if err == nil {
			if config.Logger != nil {
				config.Logger.Debug("saved rows to adapter", "rows", len(rows))
			}
			return nil
		}
		if i < config.MaxRetries {
			time.Sleep(retryBackoff(config.RetryInterval, i))
		}
	}
	return fmt.Errorf("failed after %d retries: %w", config.MaxRetries, err)
}

// retryBackoff returns the wait before retry attempt i: the configured
// base interval doubled per attempt, capped at eight times the base.
func retryBackoff(interval time.Duration, i int) time.Duration {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	backoff := interval * time.Duration(1<<uint(i))
	if max := 8 * interval; backoff > max {
		backoff = max
	}
	return backoff
}

// resetRows discards all rows and recreates the minimum empty set.
func (t *Table) resetRows() {
	oldCount := len(t.rows)
	t.rows = make([]*Row, 0, t.minimumRowCount+1)
	for i := 0; i <= t.minimumRowCount; i++ {
		t.rows = append(t.rows, newRow(i))
	}
	t.notifyRowCount(oldCount)
}
