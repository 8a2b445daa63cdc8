// Package store holds the flat-table row backends and the record layer on
// top of them. The backing store is a single sheet: first row header,
// one record per subsequent row, all fields as text.
package store

import "context"

// RowAPI is the backing store abstraction. Implementations exist for
// Postgres, MongoDB, a CSV file and an in-memory table (tests).
//
// Row indexes are 1-based and include the header, so the first data row
// is index 2. That matches the sheet layout the rest of the code assumes.
type RowAPI interface {
	// LoadAllRows returns every row including the header. An empty store
	// returns an empty slice, not an error.
	LoadAllRows(ctx context.Context) ([][]string, error)

	// AppendRow adds one row after the last existing row.
	AppendRow(ctx context.Context, values []string) error

	// UpdateRow overwrites the row at the given 1-based index.
	UpdateRow(ctx context.Context, index int, values []string) error

	// ReplaceAll rewrites the whole store as header + rows. This is the
	// only bulk destructive operation; implementations make it atomic
	// where the backend allows (transaction, temp-file rename).
	ReplaceAll(ctx context.Context, header []string, rows [][]string) error

	// Clear removes every row, header included.
	Clear(ctx context.Context) error
}
