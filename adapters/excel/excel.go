package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/xuri/excelize/v2"
)

// Adapter implements the gridcore.Adapter interface for Excel files.
// The first sheet row is the column header; data rows follow.
type Adapter struct {
	config *Config
	mu     sync.RWMutex
}

// New creates a new Excel adapter with the given configuration
func New(config *Config) (*Adapter, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create a copy of config to avoid external modifications
	configCopy := *config

	return &Adapter{
		config: &configCopy,
	}, nil
}

// Load retrieves all rows and the header schema from the Excel file.
// A missing file or sheet yields empty data rather than an error.
func (a *Adapter) Load(ctx context.Context) ([]map[string]interface{}, []string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	f, err := excelize.OpenFile(a.config.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []map[string]interface{}{}, []string{}, nil
		}
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetIndex, err := f.GetSheetIndex(a.config.SheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sheet index: %w", err)
	}
	if sheetIndex == -1 {
		return []map[string]interface{}{}, []string{}, nil
	}

	sheetRows, err := f.GetRows(a.config.SheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows: %w", err)
	}

	if len(sheetRows) == 0 {
		return []map[string]interface{}{}, []string{}, nil
	}

	// First row is the schema
	schema := sheetRows[0]

	rows := make([]map[string]interface{}, 0, len(sheetRows)-1)
	for i := 1; i < len(sheetRows); i++ {
		cells := sheetRows[i]
		if len(cells) == 0 {
			continue // Skip empty rows
		}

		values := make(map[string]interface{})
		for j, cell := range cells {
			if j < len(schema) && schema[j] != "" && cell != "" {
				values[schema[j]] = parseCellValue(cell)
			}
		}
		if len(values) == 0 {
			continue
		}

		rows = append(rows, values)
	}

	return rows, schema, nil
}

// Save replaces all data in the Excel file with the provided rows.
func (a *Adapter) Save(ctx context.Context, rows []map[string]interface{}, schema []string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	dir := filepath.Dir(a.config.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Always start from a fresh workbook so removed rows do not linger.
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(a.config.SheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if defaultSheet := f.GetSheetName(0); defaultSheet != a.config.SheetName {
		_ = f.DeleteSheet(defaultSheet) // Ignore error - not critical
	}

	// Write schema (header row)
	headerValues := make([]interface{}, len(schema))
	for i, col := range schema {
		headerValues[i] = col
	}
	if err := f.SetSheetRow(a.config.SheetName, "A1", &headerValues); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// Write data rows below the header, in order.
	for i, row := range rows {
		rowValues := make([]interface{}, len(schema))
		for j, col := range schema {
			if val, ok := row[col]; ok {
				rowValues[j] = val
			} else {
				rowValues[j] = ""
			}
		}

		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(a.config.SheetName, cell, &rowValues); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(a.config.FilePath); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}

	return nil
}

// parseCellValue converts a sheet cell string to a typed Go value.
func parseCellValue(value string) interface{} {
	if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
		// Check if it's an integer
		if intVal := int64(floatVal); float64(intVal) == floatVal {
			return intVal
		}
		return floatVal
	}
	if value == "true" || value == "TRUE" {
		return true
	}
	if value == "false" || value == "FALSE" {
		return false
	}
	return value
}
