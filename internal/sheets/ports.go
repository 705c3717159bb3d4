package sheets

import (
	"context"

	"pitaka/internal/export"
)

// maxTabName is the Google Sheets limit on sheet titles.
const maxTabName = 100

// Ports for outbound adapters.
type (
	// HistoryWriter replaces the contents of one tab with the export sections.
	HistoryWriter interface {
		WriteHistory(ctx context.Context, tab string, sections []export.Section) error
	}
)

// TabName is the tab that mirrors a user's history.
func TabName(userID string) string {
	name := "history-" + userID
	if len(name) > maxTabName {
		name = name[:maxTabName]
	}
	return name
}
