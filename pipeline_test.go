package gridcore_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	gridcore "github.com/ideamans/go-gridcore"
)

// memoryAdapter is an in-memory Adapter for pipeline tests.
type memoryAdapter struct {
	rows      []map[string]interface{}
	schema    []string
	loadFails int
	saveFails int
	loadCalls int
	saveCalls int
}

func (m *memoryAdapter) Load(ctx context.Context) ([]map[string]interface{}, []string, error) {
	m.loadCalls++
	if m.loadCalls <= m.loadFails {
		return nil, nil, errors.New("transient load failure")
	}
	return m.rows, m.schema, nil
}

func (m *memoryAdapter) Save(ctx context.Context, rows []map[string]interface{}, schema []string) error {
	m.saveCalls++
	if m.saveCalls <= m.saveFails {
		return errors.New("transient save failure")
	}
	m.rows = rows
	m.schema = schema
	return nil
}

func newImportTable(t *testing.T, cfg *gridcore.ValidationConfig) *gridcore.Table {
	t.Helper()
	table := gridcore.NewTable()
	drafts := []gridcore.ColumnDraft{
		{Kind: gridcore.KindCheckBox},
		{Name: "Name"},
		{Name: "Age"},
		{Kind: gridcore.KindValidationAlerts},
		{Kind: gridcore.KindDeleteRow},
	}
	if err := table.Initialize(drafts, cfg, nil, 2); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return table
}

func TestImportRows(t *testing.T) {
	table := newImportTable(t, nil)

	data := []map[string]interface{}{
		{"Name": "Alice", "Age": 30},
		{"Name": "Bob", "Age": 31},
		{"Name": "Carol", "Age": 32},
		{"Name": "Dan", "Age": 33},
		{"Name": "Eve", "Age": 34},
	}
	var progress [][2]int
	err := table.ImportRows(context.Background(), data, []bool{true, false, true, false, true}, gridcore.ImportOptions{
		Progress: func(processed, total int) {
			progress = append(progress, [2]int{processed, total})
		},
	})
	if err != nil {
		t.Fatalf("ImportRows() error = %v", err)
	}

	// 5 imported rows plus the trailing empty row.
	if got := table.RowCount(); got != 6 {
		t.Errorf("RowCount() = %d, want 6", got)
	}
	for i, want := range []string{"Alice", "Bob", "Carol", "Dan", "Eve"} {
		values, _ := table.GetRowData(i)
		if values["Name"] != want {
			t.Errorf("row %d Name = %v, want %v", i, values["Name"], want)
		}
	}

	// Checkbox states applied positionally to the CheckBox column.
	values, _ := table.GetRowData(0)
	if values["CheckBox"] != true {
		t.Errorf("row 0 CheckBox = %v, want true", values["CheckBox"])
	}
	values, _ = table.GetRowData(1)
	if values["CheckBox"] != false {
		t.Errorf("row 1 CheckBox = %v, want false", values["CheckBox"])
	}

	if len(progress) != 5 {
		t.Fatalf("progress reported %d times, want 5", len(progress))
	}
	for i, p := range progress {
		if p != [2]int{i + 1, 5} {
			t.Errorf("progress[%d] = %v, want [%d 5]", i, p, i+1)
		}
	}
}

func TestImportRows_StartRowAndMerge(t *testing.T) {
	table := newImportTable(t, nil)
	if err := table.SetCell(1, 2, 99); err != nil { // existing Age at row 1
		t.Fatalf("SetCell() error = %v", err)
	}

	data := []map[string]interface{}{{"Name": "Merged"}}
	err := table.ImportRows(context.Background(), data, nil, gridcore.ImportOptions{
		StartRow: 1,
		Mode:     gridcore.ImportModeMerge,
	})
	if err != nil {
		t.Fatalf("ImportRows() error = %v", err)
	}
	values, _ := table.GetRowData(1)
	if values["Name"] != "Merged" || values["Age"] != 99 {
		t.Errorf("merge row = %v, want Name=Merged with Age preserved", values)
	}

	// Replace mode clears cells the import does not provide.
	err = table.ImportRows(context.Background(), data, nil, gridcore.ImportOptions{
		StartRow: 1,
		Mode:     gridcore.ImportModeReplace,
	})
	if err != nil {
		t.Fatalf("ImportRows() error = %v", err)
	}
	values, _ = table.GetRowData(1)
	if values["Name"] != "Merged" {
		t.Errorf("replace row Name = %v", values["Name"])
	}
	if _, ok := values["Age"]; ok {
		t.Errorf("replace mode kept stale Age = %v", values["Age"])
	}
}

func TestImportRows_Errors(t *testing.T) {
	table := newImportTable(t, nil)

	if err := table.ImportRows(context.Background(), nil, nil, gridcore.ImportOptions{}); !errors.Is(err, gridcore.ErrInvalidArgument) {
		t.Errorf("ImportRows(empty) error = %v, want ErrInvalidArgument", err)
	}
	data := []map[string]interface{}{{"Name": "x"}}
	if err := table.ImportRows(context.Background(), data, nil, gridcore.ImportOptions{StartRow: -1}); !errors.Is(err, gridcore.ErrIndexOutOfRange) {
		t.Errorf("ImportRows(negative start) error = %v, want ErrIndexOutOfRange", err)
	}

	uninitialized := gridcore.NewTable()
	if err := uninitialized.ImportRows(context.Background(), data, nil, gridcore.ImportOptions{}); !errors.Is(err, gridcore.ErrNotInitialized) {
		t.Errorf("ImportRows(uninitialized) error = %v, want ErrNotInitialized", err)
	}
}

func TestImportRows_Timeout(t *testing.T) {
	table := newImportTable(t, nil)

	data := []map[string]interface{}{
		{"Name": "A"},
		{"Name": "B"},
		{"Name": "C"},
	}
	err := table.ImportRows(context.Background(), data, nil, gridcore.ImportOptions{
		Timeout: time.Millisecond,
		Progress: func(processed, total int) {
			time.Sleep(5 * time.Millisecond)
		},
	})
	if !errors.Is(err, gridcore.ErrTimeout) {
		t.Fatalf("ImportRows() error = %v, want ErrTimeout", err)
	}

	// Partial progress is not rolled back.
	values, _ := table.GetRowData(0)
	if values["Name"] != "A" {
		t.Errorf("row 0 after timeout = %v, want A retained", values["Name"])
	}
}

func TestImportRows_TriggersBatchValidation(t *testing.T) {
	cfg := &gridcore.ValidationConfig{
		EnableBatchValidation: true,
		CellRules: map[string][]gridcore.Rule{
			"Age": {gridcore.NumericRule("not a number")},
		},
	}
	table := newImportTable(t, cfg)

	data := []map[string]interface{}{{"Name": "Alice", "Age": "old"}}
	if err := table.ImportRows(context.Background(), data, nil, gridcore.ImportOptions{}); err != nil {
		t.Fatalf("ImportRows() error = %v", err)
	}

	state, err := table.CellValidationState(0, 2)
	if err != nil {
		t.Fatalf("CellValidationState() error = %v", err)
	}
	if !state.HasError {
		t.Error("batch validation did not run after import")
	}
}

func TestExportRows(t *testing.T) {
	table := newImportTable(t, nil)
	data := []map[string]interface{}{
		{"Name": "Alice", "Age": 30},
		{"Name": "Bob", "Age": 31},
	}
	if err := table.ImportRows(context.Background(), data, []bool{true, true}, gridcore.ImportOptions{}); err != nil {
		t.Fatalf("ImportRows() error = %v", err)
	}

	var progress [][2]int
	rows, err := table.ExportRows(gridcore.ExportOptions{
		Progress: func(processed, total int) {
			progress = append(progress, [2]int{processed, total})
		},
	})
	if err != nil {
		t.Fatalf("ExportRows() error = %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("exported %d rows, want 2", len(rows))
	}
	for i, row := range rows {
		if _, ok := row["CheckBox"]; ok {
			t.Errorf("row %d includes CheckBox column", i)
		}
		if _, ok := row["DeleteRow"]; ok {
			t.Errorf("row %d includes DeleteRow column", i)
		}
		if _, ok := row["ValidationAlerts"]; ok {
			t.Errorf("row %d includes ValidationAlerts without the flag", i)
		}
	}
	if rows[0]["Name"] != "Alice" || rows[1]["Name"] != "Bob" {
		t.Errorf("export order = %v, %v", rows[0]["Name"], rows[1]["Name"])
	}
	if len(progress) != 2 || progress[1] != [2]int{2, 2} {
		t.Errorf("progress = %v", progress)
	}

	// Table untouched without RemoveAfterExport.
	if got := table.RowCount(); got != 3 {
		t.Errorf("RowCount() after export = %d, want 3", got)
	}
}

func TestExportRows_IncludeValidationAlerts(t *testing.T) {
	table := newImportTable(t, nil)
	if err := table.SetRowData(0, map[string]interface{}{"Name": "A", "ValidationAlerts": "msg"}); err != nil {
		t.Fatalf("SetRowData() error = %v", err)
	}

	rows, err := table.ExportRows(gridcore.ExportOptions{IncludeValidationAlerts: true})
	if err != nil {
		t.Fatalf("ExportRows() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("exported %d rows, want 1", len(rows))
	}
	if rows[0]["ValidationAlerts"] != "msg" {
		t.Errorf("ValidationAlerts = %v, want msg", rows[0]["ValidationAlerts"])
	}
}

func TestExportRows_RemoveAfter(t *testing.T) {
	table := newImportTable(t, nil)
	data := []map[string]interface{}{
		{"Name": "Alice"},
		{"Name": "Bob"},
		{"Name": "Carol"},
	}
	if err := table.ImportRows(context.Background(), data, nil, gridcore.ImportOptions{}); err != nil {
		t.Fatalf("ImportRows() error = %v", err)
	}

	rows, err := table.ExportRows(gridcore.ExportOptions{RemoveAfterExport: true})
	if err != nil {
		t.Fatalf("ExportRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("exported %d rows, want 3", len(rows))
	}

	if table.HasData() {
		t.Error("HasData() = true after remove-after-export")
	}
	if got := table.RowCount(); got < table.MinimumRowCount()+1 {
		t.Errorf("RowCount() = %d, below floor", got)
	}
}

func TestExportRows_Timeout(t *testing.T) {
	table := newImportTable(t, nil)
	data := []map[string]interface{}{
		{"Name": "Alice"},
		{"Name": "Bob"},
		{"Name": "Carol"},
	}
	if err := table.ImportRows(context.Background(), data, nil, gridcore.ImportOptions{}); err != nil {
		t.Fatalf("ImportRows() error = %v", err)
	}
	rowsBefore := table.RowCount()

	_, err := table.ExportRows(gridcore.ExportOptions{
		RemoveAfterExport: true,
		Timeout:           time.Millisecond,
		Progress: func(processed, total int) {
			time.Sleep(5 * time.Millisecond)
		},
	})
	if !errors.Is(err, gridcore.ErrTimeout) {
		t.Fatalf("ExportRows() error = %v, want ErrTimeout", err)
	}

	// The timeout fired before removal, so the table keeps its rows.
	if !table.HasData() {
		t.Error("HasData() = false after timed-out export")
	}
	if got := table.RowCount(); got != rowsBefore {
		t.Errorf("RowCount() after timed-out export = %d, want %d", got, rowsBefore)
	}
	values, _ := table.GetRowData(0)
	if values["Name"] != "Alice" {
		t.Errorf("row 0 after timed-out export = %v, want Alice retained", values["Name"])
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	source := newImportTable(t, nil)
	data := []map[string]interface{}{
		{"Name": "Alice", "Age": 30},
		{"Name": "Bob", "Age": 31},
		{"Name": "Carol", "Age": 32},
	}
	if err := source.ImportRows(context.Background(), data, nil, gridcore.ImportOptions{}); err != nil {
		t.Fatalf("ImportRows() error = %v", err)
	}

	exported, err := source.ExportRows(gridcore.ExportOptions{})
	if err != nil {
		t.Fatalf("ExportRows() error = %v", err)
	}

	target := newImportTable(t, nil)
	if err := target.ImportRows(context.Background(), exported, nil, gridcore.ImportOptions{}); err != nil {
		t.Fatalf("ImportRows() into target error = %v", err)
	}

	reExported, err := target.ExportRows(gridcore.ExportOptions{})
	if err != nil {
		t.Fatalf("ExportRows() from target error = %v", err)
	}
	if len(reExported) != len(exported) {
		t.Fatalf("round trip rows = %d, want %d", len(reExported), len(exported))
	}
	for i := range exported {
		if fmt.Sprintf("%v", reExported[i]) != fmt.Sprintf("%v", exported[i]) {
			t.Errorf("row %d round trip = %v, want %v", i, reExported[i], exported[i])
		}
	}
}

func TestLoadFromAdapter(t *testing.T) {
	adapter := &memoryAdapter{
		rows: []map[string]interface{}{
			{"Name": "Alice", "Age": int64(30)},
			{"Name": "Bob", "Age": int64(31)},
		},
		schema:    []string{"Name", "Age"},
		loadFails: 2,
	}
	table := newImportTable(t, nil)

	config := &gridcore.Config{MaxRetries: 3}
	if err := table.LoadFromAdapter(context.Background(), adapter, config); err != nil {
		t.Fatalf("LoadFromAdapter() error = %v", err)
	}
	if adapter.loadCalls != 3 {
		t.Errorf("load called %d times, want 3 (two failures then success)", adapter.loadCalls)
	}

	values, _ := table.GetRowData(0)
	if values["Name"] != "Alice" {
		t.Errorf("row 0 Name = %v, want Alice", values["Name"])
	}
}

func TestLoadFromAdapter_RetryInterval(t *testing.T) {
	adapter := &memoryAdapter{
		rows:      []map[string]interface{}{{"Name": "Alice"}},
		schema:    []string{"Name"},
		loadFails: 1,
	}
	table := newImportTable(t, nil)

	config := &gridcore.Config{MaxRetries: 1, RetryInterval: 50 * time.Millisecond}
	started := time.Now()
	if err := table.LoadFromAdapter(context.Background(), adapter, config); err != nil {
		t.Fatalf("LoadFromAdapter() error = %v", err)
	}
	if elapsed := time.Since(started); elapsed < 50*time.Millisecond {
		t.Errorf("retry waited %v, want at least the configured 50ms interval", elapsed)
	}
	if adapter.loadCalls != 2 {
		t.Errorf("load called %d times, want 2", adapter.loadCalls)
	}
}

func TestLoadFromAdapter_ExhaustedRetries(t *testing.T) {
	adapter := &memoryAdapter{loadFails: 10}
	table := newImportTable(t, nil)

	err := table.LoadFromAdapter(context.Background(), adapter, &gridcore.Config{MaxRetries: 1})
	if err == nil {
		t.Fatal("LoadFromAdapter() error = nil, want failure")
	}
	if adapter.loadCalls != 2 {
		t.Errorf("load called %d times, want 2", adapter.loadCalls)
	}
}

func TestSaveToAdapter(t *testing.T) {
	table := newImportTable(t, nil)
	data := []map[string]interface{}{{"Name": "Alice", "Age": 30}}
	if err := table.ImportRows(context.Background(), data, []bool{true}, gridcore.ImportOptions{}); err != nil {
		t.Fatalf("ImportRows() error = %v", err)
	}

	adapter := &memoryAdapter{}
	if err := table.SaveToAdapter(context.Background(), adapter, nil); err != nil {
		t.Fatalf("SaveToAdapter() error = %v", err)
	}

	if len(adapter.rows) != 1 {
		t.Fatalf("adapter holds %d rows, want 1", len(adapter.rows))
	}
	wantSchema := []string{"Name", "Age"}
	if len(adapter.schema) != len(wantSchema) {
		t.Fatalf("schema = %v, want %v", adapter.schema, wantSchema)
	}
	for i := range wantSchema {
		if adapter.schema[i] != wantSchema[i] {
			t.Errorf("schema = %v, want %v", adapter.schema, wantSchema)
			break
		}
	}
	if _, ok := adapter.rows[0]["CheckBox"]; ok {
		t.Error("saved rows include the CheckBox column")
	}
}
