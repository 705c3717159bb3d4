package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pitaka/internal/amqp"
	"pitaka/internal/core"
	"pitaka/internal/export"
	"pitaka/internal/log"
	"pitaka/internal/sheets"
)

// HistorySource builds the exportable history of one user.
type HistorySource interface {
	History(ctx context.Context, userID string) ([]export.Section, error)
}

// SyncWorker mirrors a user's history into the spreadsheet whenever one of
// the exported kinds changes. Users whose mirror failed are retried by
// ProcessPending until a write succeeds.
type SyncWorker struct {
	history   HistorySource
	sheets    sheets.HistoryWriter
	batchSize int
	logger    *log.Logger
	now       func() time.Time

	mu      sync.Mutex
	pending map[string]time.Time
}

func NewSyncWorker(history HistorySource, writer sheets.HistoryWriter, batchSize int, logger *log.Logger) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		history:   history,
		sheets:    writer,
		batchSize: batchSize,
		logger:    logger.WithComponent(log.ComponentWorker),
		now:       time.Now,
		pending:   map[string]time.Time{},
	}
}

// Mirrored reports whether changes to kind affect the exported history.
func Mirrored(kind core.RecordKind) bool {
	switch kind {
	case core.KindExpenses, core.KindIncomes, core.KindSalary:
		return true
	default:
		return false
	}
}

// HandleRecordChanged processes one change event from AMQP. Its signature
// matches amqp.Handler.
func (w *SyncWorker) HandleRecordChanged(ctx context.Context, msg *amqp.RecordChangedMessage) error {
	if !Mirrored(msg.Kind) {
		w.logger.DebugContext(ctx, "Change not mirrored",
			log.FieldUserID, msg.UserID,
			log.FieldRecordKind, msg.Kind)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing record change",
		log.FieldUserID, msg.UserID,
		log.FieldRecordKind, msg.Kind,
		"timestamp", msg.Timestamp)

	return w.SyncUser(ctx, msg.UserID)
}

// SyncUser rewrites the user's tab from the current store contents.
func (w *SyncWorker) SyncUser(ctx context.Context, userID string) error {
	sections, err := w.history.History(ctx, userID)
	if err != nil {
		w.markFailed(userID)
		return fmt.Errorf("load history: %w", err)
	}

	tab := sheets.TabName(userID)
	if err := w.sheets.WriteHistory(ctx, tab, sections); err != nil {
		w.markFailed(userID)
		w.logger.ErrorContext(ctx, "Failed to mirror history",
			log.FieldUserID, userID,
			log.FieldSheetTab, tab,
			log.FieldError, err)
		return fmt.Errorf("write history: %w", err)
	}

	w.mu.Lock()
	delete(w.pending, userID)
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "History mirrored",
		log.FieldUserID, userID,
		log.FieldSheetTab, tab)
	return nil
}

// ProcessPending retries up to batchSize users whose last mirror failed,
// oldest failure first.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	users := w.Pending()
	if len(users) == 0 {
		return nil
	}
	if len(users) > w.batchSize {
		users = users[:w.batchSize]
	}

	w.logger.InfoContext(ctx, "Retrying failed mirrors", "count", len(users))

	synced, failed := 0, 0
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.SyncUser(ctx, userID); err != nil {
			failed++
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Retry pass completed",
		"total", len(users),
		"synced", synced,
		"errors", failed)
	return nil
}

// Run retries failed mirrors every interval until ctx is done.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Retry pass failed", log.FieldError, err)
			}
		}
	}
}

// Pending lists users awaiting a retry, oldest failure first.
func (w *SyncWorker) Pending() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	users := make([]string, 0, len(w.pending))
	for id := range w.pending {
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool {
		a, b := w.pending[users[i]], w.pending[users[j]]
		if a.Equal(b) {
			return users[i] < users[j]
		}
		return a.Before(b)
	})
	return users
}

func (w *SyncWorker) markFailed(userID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.pending[userID]; !ok {
		w.pending[userID] = w.now()
	}
}
