// Package memory is an in-process HistoryWriter for tests and local runs
// without Google credentials.
package memory

import (
	"context"
	"sync"

	ports "pitaka/internal/sheets"

	"pitaka/internal/export"
)

var _ ports.HistoryWriter = (*Writer)(nil)

type Writer struct {
	mu     sync.Mutex
	tabs   map[string][][]string
	writes int
	err    error
}

func New() *Writer {
	return &Writer{tabs: map[string][][]string{}}
}

// FailWith makes every following write return err; nil restores success.
func (w *Writer) FailWith(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

func (w *Writer) WriteHistory(_ context.Context, tab string, sections []export.Section) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}

	grid := export.Grid(sections)
	rows := make([][]string, len(grid))
	for i, row := range grid {
		rows[i] = make([]string, len(row))
		for j, v := range row {
			rows[i][j] = export.CellString(v)
		}
	}
	w.tabs[tab] = rows
	w.writes++
	return nil
}

// Tab returns the rows last written to tab.
func (w *Writer) Tab(tab string) ([][]string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, ok := w.tabs[tab]
	return rows, ok
}

// Writes counts successful writes.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
