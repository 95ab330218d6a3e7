package sheets

import (
	"context"
	"sync"
)

// MockExporter records exports for tests.
type MockExporter struct {
	WriteFunc     func(ctx context.Context, data ExportData) (string, error)
	Exports       []ExportData
	SpreadsheetID string
	mu            sync.Mutex
}

// NewMockExporter creates a mock that reports spreadsheetID on success.
func NewMockExporter(spreadsheetID string) *MockExporter {
	return &MockExporter{SpreadsheetID: spreadsheetID}
}

// Write implements Exporter.
func (m *MockExporter) Write(ctx context.Context, data ExportData) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Exports = append(m.Exports, data)
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, data)
	}
	return m.SpreadsheetID, nil
}

// Calls returns how many exports were written.
func (m *MockExporter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Exports)
}

var _ Exporter = (*MockExporter)(nil)
