package main

import (
	"context"
	"fmt"
	"log"

	gridcore "github.com/ideamans/go-gridcore"
	"github.com/ideamans/go-gridcore/adapters/excel"
)

func main() {
	table := gridcore.NewTable()

	columns := []gridcore.ColumnDraft{
		{Kind: gridcore.KindCheckBox},
		{Name: "Name", Required: true, Width: 160},
		{Name: "Age", Width: 80},
		{Name: "Email", Width: 200},
		{Kind: gridcore.KindValidationAlerts},
		{Kind: gridcore.KindDeleteRow},
	}

	validation := &gridcore.ValidationConfig{
		EnableBatchValidation: true,
		CellRules: map[string][]gridcore.Rule{
			"Name": {gridcore.RequiredRule("name is required")},
			"Age": {
				gridcore.NumericRule("age must be a number"),
				gridcore.RangeRule(0, 150, "age must be between 0 and 150"),
			},
		},
	}

	if err := table.Initialize(columns, validation, nil, 2); err != nil {
		log.Fatalf("initialize: %v", err)
	}

	table.OnRowCountChanged = func(oldCount, newCount int) {
		fmt.Printf("rows: %d -> %d\n", oldCount, newCount)
	}

	ctx := context.Background()
	data := []map[string]interface{}{
		{"Name": "Alice", "Age": 30, "Email": "alice@example.com"},
		{"Name": "Bob", "Age": 200, "Email": "bob@example.com"},
		{"Name": "", "Age": "n/a"},
	}
	if err := table.ImportRows(ctx, data, nil, gridcore.ImportOptions{
		Progress: func(processed, total int) {
			fmt.Printf("imported %d/%d\n", processed, total)
		},
	}); err != nil {
		log.Fatalf("import: %v", err)
	}

	outcome, err := table.ValidateAllRows(ctx)
	if err != nil {
		log.Fatalf("validate: %v", err)
	}
	fmt.Printf("valid cells: %d, invalid cells: %d\n", outcome.ValidCells, outcome.InvalidCells)
	for ref, msg := range outcome.CellErrors {
		fmt.Printf("row %d, column %s: %s\n", ref.Row, ref.Column, msg)
	}

	rows, err := table.ExportRows(gridcore.ExportOptions{})
	if err != nil {
		log.Fatalf("export: %v", err)
	}
	fmt.Printf("exported %d rows\n", len(rows))

	adapter, err := excel.New(&excel.Config{FilePath: "people.xlsx", SheetName: "People"})
	if err != nil {
		log.Fatalf("adapter: %v", err)
	}
	if err := table.SaveToAdapter(ctx, adapter, excel.DefaultTransferConfig()); err != nil {
		log.Fatalf("save: %v", err)
	}
	fmt.Println("saved to people.xlsx")
}
