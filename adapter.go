package gridcore

import "context"

// Adapter defines a bulk storage backend for table data. Rows travel as
// ordered column name to value maps; schema is the header column order.
type Adapter interface {
	// Load retrieves all rows and the header schema from the backend.
	Load(ctx context.Context) ([]map[string]interface{}, []string, error)

	// Save replaces all data in the backend with the provided rows.
	Save(ctx context.Context, rows []map[string]interface{}, schema []string) error
}
