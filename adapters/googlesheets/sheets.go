package googlesheets

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Adapter implements the gridcore.Adapter interface for Google Sheets.
// The first sheet row is the column header; data rows follow.
type Adapter struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
}

// New creates a new Google Sheets adapter with provided client options
func New(ctx context.Context, config Config, opts ...option.ClientOption) (*Adapter, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Adapter{
		service:       service,
		spreadsheetID: config.SpreadsheetID,
		sheetName:     config.SheetName,
	}, nil
}

// Load retrieves all rows and the header schema from the spreadsheet
func (a *Adapter) Load(ctx context.Context) ([]map[string]interface{}, []string, error) {
	readRange := fmt.Sprintf("%s!A:ZZ", a.sheetName)
	resp, err := a.service.Spreadsheets.Values.Get(a.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sheet data: %w", err)
	}

	if len(resp.Values) == 0 {
		return []map[string]interface{}{}, []string{}, nil
	}

	// First row is schema
	schema := make([]string, 0)
	for i := 0; i < len(resp.Values[0]); i++ {
		if col, ok := resp.Values[0][i].(string); ok && col != "" {
			schema = append(schema, col)
		}
	}

	rows := make([]map[string]interface{}, 0)
	for i := 1; i < len(resp.Values); i++ {
		cells := resp.Values[i]
		if len(cells) == 0 {
			continue
		}

		values := make(map[string]interface{})
		for j := 0; j < len(cells) && j < len(schema); j++ {
			if schema[j] != "" && cells[j] != nil {
				values[schema[j]] = convertCellValue(cells[j])
			}
		}
		if len(values) == 0 {
			continue
		}

		rows = append(rows, values)
	}

	return rows, schema, nil
}

// Save replaces all data in the spreadsheet with the provided rows
func (a *Adapter) Save(ctx context.Context, rows []map[string]interface{}, schema []string) error {
	values := make([][]interface{}, 0, len(rows)+1)

	// Header row (schema columns only)
	header := make([]interface{}, len(schema))
	for i, col := range schema {
		header[i] = col
	}
	values = append(values, header)

	// Data rows in order, compacted below the header.
	for _, row := range rows {
		cells := make([]interface{}, len(schema))
		for i, col := range schema {
			if val, ok := row[col]; ok {
				cells[i] = convertToSheetValue(val)
			} else {
				cells[i] = ""
			}
		}
		values = append(values, cells)
	}

	// Clear the entire sheet first
	clearRange := fmt.Sprintf("%s!A:ZZ", a.sheetName)
	_, err := a.service.Spreadsheets.Values.Clear(a.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}

	// Write all data
	writeRange := fmt.Sprintf("%s!A1", a.sheetName)
	vr := &sheets.ValueRange{
		Values: values,
	}
	_, err = a.service.Spreadsheets.Values.Update(a.spreadsheetID, writeRange, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update sheet: %w", err)
	}

	return nil
}

// convertCellValue converts a Google Sheets cell value to Go type
func convertCellValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string:
		// Try to parse as number
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
		// Try to parse as bool
		if val == "true" || val == "TRUE" {
			return true
		}
		if val == "false" || val == "FALSE" {
			return false
		}
		return val
	case float64:
		// Check if it's actually an integer
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	case bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// convertToSheetValue converts a Go value to Google Sheets cell value
func convertToSheetValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", val)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32, float64:
		return fmt.Sprintf("%g", val)
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", val)
	}
}
