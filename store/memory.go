package store

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process RowAPI used by tests and as a zero-setup default.
type Memory struct {
	mu   sync.Mutex
	rows [][]string
}

// NewMemory returns an empty in-memory row store.
func NewMemory() *Memory {
	return &Memory{}
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func (m *Memory) LoadAllRows(_ context.Context) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRows(m.rows), nil
}

func (m *Memory) AppendRow(_ context.Context, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, append([]string(nil), values...))
	return nil
}

func (m *Memory) UpdateRow(_ context.Context, index int, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 1 || index > len(m.rows) {
		return fmt.Errorf("row index %d out of range", index)
	}
	m.rows[index-1] = append([]string(nil), values...)
	return nil
}

func (m *Memory) ReplaceAll(_ context.Context, header []string, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := make([][]string, 0, len(rows)+1)
	next = append(next, append([]string(nil), header...))
	next = append(next, cloneRows(rows)...)
	m.rows = next
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = nil
	return nil
}
