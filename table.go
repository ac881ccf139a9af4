package gridcore

import (
	"fmt"
	"sort"
	"strings"
)

// CellChange describes a single observed cell mutation.
type CellChange struct {
	Row      int
	Column   string
	OldValue interface{}
	NewValue interface{}
}

// Table owns the ordered row sequence and the resolved column schema.
//
// The table performs no internal locking: mutating operations assume
// single-writer, externally serialized access. Two structural invariants
// are re-asserted after every mutating call: the row count never drops
// below minimumRowCount+1, and the trailing row is always empty (writing
// into the last row so it becomes non-empty appends a fresh empty row).
type Table struct {
	columns         []Column
	colIndex        map[string]int // lower-cased name -> physical index
	rows            []*Row
	minimumRowCount int
	initialized     bool
	validation      *validationState
	performance     PerformanceConfig

	// OnCellChanged, when set, observes every cell value mutation.
	OnCellChanged func(CellChange)
	// OnRowCountChanged, when set, observes row count transitions.
	OnRowCountChanged func(oldCount, newCount int)
}

// NewTable creates an empty, uninitialized table.
func NewTable() *Table {
	return &Table{}
}

// Initialize resolves the column schema, installs the validation rule
// sets, and allocates minimumRowCount+1 empty rows. Any prior state is
// discarded. Rule sets are frozen for the table's lifetime.
func (t *Table) Initialize(drafts []ColumnDraft, validation *ValidationConfig, performance *PerformanceConfig, minimumRowCount int) error {
	if minimumRowCount < 0 {
		return fmt.Errorf("%w: minimumRowCount must not be negative", ErrInvalidArgument)
	}

	columns, err := ResolveColumns(drafts)
	if err != nil {
		return err
	}

	t.columns = columns
	t.colIndex = make(map[string]int, len(columns))
	for i, c := range columns {
		t.colIndex[normalizeName(c.Name)] = i
	}
	t.validation = newValidationState(validation)
	if performance != nil {
		t.performance = *performance
	} else {
		t.performance = PerformanceConfig{}
	}
	t.minimumRowCount = minimumRowCount

	oldCount := len(t.rows)
	t.rows = make([]*Row, 0, minimumRowCount+1)
	for i := 0; i <= minimumRowCount; i++ {
		t.rows = append(t.rows, newRow(i))
	}
	t.initialized = true
	t.notifyRowCount(oldCount)

	return nil
}

// IsInitialized reports whether Initialize has completed successfully.
func (t *Table) IsInitialized() bool { return t.initialized }

// Columns returns a copy of the resolved column schema.
func (t *Table) Columns() []Column {
	columns := make([]Column, len(t.columns))
	copy(columns, t.columns)
	return columns
}

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int { return len(t.columns) }

// RowCount returns the number of rows, including empty rows.
func (t *Table) RowCount() int { return len(t.rows) }

// MinimumRowCount returns the configured row floor.
func (t *Table) MinimumRowCount() int { return t.minimumRowCount }

// Performance returns the opaque pass-through performance configuration.
func (t *Table) Performance() PerformanceConfig { return t.performance }

// HasData reports whether at least one row is non-empty.
func (t *Table) HasData() bool {
	for _, r := range t.rows {
		if !r.IsEmpty(t.columns) {
			return true
		}
	}
	return false
}

// GetCell returns the value at the given row and column index.
func (t *Table) GetCell(row, col int) (interface{}, error) {
	if err := t.checkCell(row, col); err != nil {
		return nil, err
	}
	return t.rows[row].Values[t.columns[col].Name], nil
}

// SetCell writes a value at the given row and column index, then applies
// the auto-expand rule: if the write made the last row non-empty, one new
// empty row is appended.
func (t *Table) SetCell(row, col int, value interface{}) error {
	if err := t.checkCell(row, col); err != nil {
		return err
	}
	t.setCellValue(t.rows[row], t.columns[col], value)
	if t.validation.realtime {
		t.validateCellInPlace(t.rows[row], t.columns[col])
	}
	t.ensureTrailingEmptyRow()
	return nil
}

// CellValidationState returns the stored validation state of a cell.
func (t *Table) CellValidationState(row, col int) (CellState, error) {
	if err := t.checkCell(row, col); err != nil {
		return CellState{}, err
	}
	return t.rows[row].States[t.columns[col].Name], nil
}

// GetRowData returns a copy of the row's column name to value map.
func (t *Table) GetRowData(rowIndex int) (map[string]interface{}, error) {
	if err := t.checkRow(rowIndex); err != nil {
		return nil, err
	}
	r := t.rows[rowIndex]
	values := make(map[string]interface{}, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return values, nil
}

// SetRowData writes the given values into a row. Keys that do not match a
// column are ignored; matching is case-insensitive against resolved
// names. The auto-expand rule applies after the full-row write.
func (t *Table) SetRowData(rowIndex int, values map[string]interface{}) error {
	if err := t.checkRow(rowIndex); err != nil {
		return err
	}
	r := t.rows[rowIndex]
	for name, value := range values {
		if ci, ok := t.colIndex[normalizeName(name)]; ok {
			t.setCellValue(r, t.columns[ci], value)
		}
	}
	t.afterRowWrite(r)
	return nil
}

// SmartDeleteRow removes the row when the table holds more rows than the
// minimum floor, and clears it in place otherwise. Clearing preserves row
// identity and count so small tables keep a stable structure.
func (t *Table) SmartDeleteRow(rowIndex int) error {
	if err := t.checkRow(rowIndex); err != nil {
		return err
	}
	t.smartDelete(rowIndex)
	t.ensureMinimumRows()
	t.ensureTrailingEmptyRow()
	return nil
}

// SmartDeleteRows applies the smart delete decision to each index in
// descending order, so earlier removals never invalidate indices still
// to be processed. The decision uses the live, shrinking row count.
func (t *Table) SmartDeleteRows(indices []int) error {
	if !t.initialized {
		return ErrNotInitialized
	}
	seen := make(map[int]bool, len(indices))
	ordered := make([]int, 0, len(indices))
	for _, i := range indices {
		if err := t.checkRow(i); err != nil {
			return err
		}
		if !seen[i] {
			seen[i] = true
			ordered = append(ordered, i)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ordered)))

	for _, i := range ordered {
		t.smartDelete(i)
	}
	t.ensureMinimumRows()
	t.ensureTrailingEmptyRow()
	return nil
}

// ForceDeleteRow always removes the row, bypassing the smart heuristic,
// then re-pads to the minimum floor if needed.
func (t *Table) ForceDeleteRow(rowIndex int) error {
	if err := t.checkRow(rowIndex); err != nil {
		return err
	}
	t.removeRowAt(rowIndex)
	t.ensureMinimumRows()
	t.ensureTrailingEmptyRow()
	return nil
}

// CompactRows discards all empty rows, re-indexes the survivors from 0 in
// their original relative order, and pads back up to the minimum floor.
func (t *Table) CompactRows() {
	if !t.initialized {
		return
	}
	oldCount := len(t.rows)
	survivors := make([]*Row, 0, len(t.rows))
	for _, r := range t.rows {
		if !r.IsEmpty(t.columns) {
			survivors = append(survivors, r)
		}
	}
	t.rows = survivors
	t.reindexRows()
	t.notifyRowCount(oldCount)
	t.ensureMinimumRows()
	t.ensureTrailingEmptyRow()
}

// PasteData writes a rectangular block of values starting at the given
// row and column, expanding the row sequence first when the block exceeds
// the current addressable range. Writes flow through the row-write path
// and inherit auto-expand semantics.
func (t *Table) PasteData(block [][]interface{}, startRow, startCol int) error {
	if !t.initialized {
		return ErrNotInitialized
	}
	if len(block) == 0 {
		return fmt.Errorf("%w: paste block must not be empty", ErrInvalidArgument)
	}
	if startRow < 0 || startCol < 0 || startCol >= len(t.columns) {
		return fmt.Errorf("%w: paste origin (%d, %d)", ErrIndexOutOfRange, startRow, startCol)
	}
	for _, rowValues := range block {
		if startCol+len(rowValues) > len(t.columns) {
			return fmt.Errorf("%w: paste block wider than schema at column %d", ErrIndexOutOfRange, startCol)
		}
	}

	t.expandRowsToCount(startRow + len(block))

	for i, rowValues := range block {
		r := t.rows[startRow+i]
		for j, value := range rowValues {
			t.setCellValue(r, t.columns[startCol+j], value)
		}
		t.afterRowWrite(r)
	}
	return nil
}

// NonEmptyRows returns deep copies of all non-empty rows in order.
func (t *Table) NonEmptyRows() []*Row {
	rows := make([]*Row, 0, len(t.rows))
	for _, r := range t.rows {
		if !r.IsEmpty(t.columns) {
			rows = append(rows, r.clone())
		}
	}
	return rows
}

// RowIsEmpty reports whether the row at the given index is empty.
func (t *Table) RowIsEmpty(rowIndex int) (bool, error) {
	if err := t.checkRow(rowIndex); err != nil {
		return false, err
	}
	return t.rows[rowIndex].IsEmpty(t.columns), nil
}

func (t *Table) checkRow(rowIndex int) error {
	if !t.initialized {
		return ErrNotInitialized
	}
	if rowIndex < 0 || rowIndex >= len(t.rows) {
		return fmt.Errorf("%w: row %d (count %d)", ErrIndexOutOfRange, rowIndex, len(t.rows))
	}
	return nil
}

func (t *Table) checkCell(row, col int) error {
	if err := t.checkRow(row); err != nil {
		return err
	}
	if col < 0 || col >= len(t.columns) {
		return fmt.Errorf("%w: column %d (count %d)", ErrIndexOutOfRange, col, len(t.columns))
	}
	return nil
}

// setCellValue applies a single cell write and notifies the observer.
// Nil values clear the cell.
func (t *Table) setCellValue(r *Row, c Column, value interface{}) {
	old := r.Values[c.Name]
	if value == nil {
		delete(r.Values, c.Name)
	} else {
		r.Values[c.Name] = value
	}
	if t.OnCellChanged != nil {
		t.OnCellChanged(CellChange{Row: r.Index, Column: c.Name, OldValue: old, NewValue: value})
	}
}

// afterRowWrite re-asserts invariants after a full-row write.
func (t *Table) afterRowWrite(r *Row) {
	if t.validation.realtime {
		for _, c := range t.columns {
			t.validateCellInPlace(r, c)
		}
	}
	t.ensureTrailingEmptyRow()
}

func (t *Table) smartDelete(rowIndex int) {
	if len(t.rows) > t.minimumRowCount+1 {
		t.removeRowAt(rowIndex)
		return
	}
	// At the floor: clear content in place, preserving row identity.
	r := t.rows[rowIndex]
	for _, c := range t.columns {
		if _, ok := r.Values[c.Name]; ok {
			t.setCellValue(r, c, nil)
		}
	}
	r.States = make(map[string]CellState)
}

func (t *Table) removeRowAt(rowIndex int) {
	oldCount := len(t.rows)
	t.rows = append(t.rows[:rowIndex], t.rows[rowIndex+1:]...)
	t.reindexRows()
	t.notifyRowCount(oldCount)
}

func (t *Table) reindexRows() {
	for i, r := range t.rows {
		r.Index = i
	}
}

// ensureMinimumRows pads with empty rows until the floor holds.
func (t *Table) ensureMinimumRows() {
	oldCount := len(t.rows)
	for len(t.rows) < t.minimumRowCount+1 {
		t.rows = append(t.rows, newRow(len(t.rows)))
	}
	t.notifyRowCount(oldCount)
}

// ensureTrailingEmptyRow appends one empty row when the last row is
// non-empty, keeping the perpetual entry row available.
func (t *Table) ensureTrailingEmptyRow() {
	if len(t.rows) == 0 {
		return
	}
	if t.rows[len(t.rows)-1].IsEmpty(t.columns) {
		return
	}
	oldCount := len(t.rows)
	t.rows = append(t.rows, newRow(len(t.rows)))
	t.notifyRowCount(oldCount)
}

// expandRowsToCount grows the row sequence to at least count rows.
// Expansion never fails and never shrinks.
func (t *Table) expandRowsToCount(count int) {
	oldCount := len(t.rows)
	for len(t.rows) < count {
		t.rows = append(t.rows, newRow(len(t.rows)))
	}
	t.notifyRowCount(oldCount)
}

func (t *Table) notifyRowCount(oldCount int) {
	if t.OnRowCountChanged != nil && oldCount != len(t.rows) {
		t.OnRowCountChanged(oldCount, len(t.rows))
	}
}

// normalizeName is the case-insensitive key form of a column name.
func normalizeName(name string) string {
	return strings.ToLower(name)
}

// specialColumn returns the column with the given kind, if present.
func (t *Table) specialColumn(kind SpecialKind) (Column, bool) {
	for _, c := range t.columns {
		if c.Kind == kind {
			return c, true
		}
	}
	return Column{}, false
}
