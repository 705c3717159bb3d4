package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"pitaka/internal/cache"
	"pitaka/internal/core"
	"pitaka/internal/export"
	"pitaka/internal/log"
	"pitaka/internal/store"
)

// Publisher announces record changes to other processes.
type Publisher interface {
	PublishRecordChanged(ctx context.Context, userID string, kind core.RecordKind) error
}

// Notifier pushes fresh snapshots to live listeners.
type Notifier interface {
	Notify(ctx context.Context, userID string, kind core.RecordKind)
}

// ValidationError wraps a rejected input; nothing was written.
type ValidationError struct {
	Kind core.RecordKind
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Kind, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

type Options struct {
	Notifier  Notifier
	Publisher Publisher

	// Dashboards caches summaries per user; nil disables caching.
	Dashboards cache.Cache[core.Summary]

	// Location is the zone periods and the dashboard are computed in.
	Location   *time.Location
	DateLayout string
	Now        func() time.Time
}

// RecordService is the write path for user records: normalize, validate,
// store, then fan the change out. The store is the only source of truth;
// concurrent writers to the same record resolve as last writer wins.
type RecordService struct {
	store      store.RecordStore
	opts       Options
	logger     *log.Logger
	structured *log.StructuredLogger

	// fills tracks dashboard loads in flight; a change bumps gen so a load
	// that read older data is not cached.
	fillMu sync.Mutex
	fills  map[string]*dashboardFill
}

type dashboardFill struct {
	refs int
	gen  uint64
}


func NewRecordService(st store.RecordStore, opts Options, logger *log.Logger) *RecordService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DateLayout == "" {
		opts.DateLayout = export.DefaultDateLayout
	}
	logger = logger.WithComponent(log.ComponentRecords)
	return &RecordService{
		store:      st,
		opts:       opts,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
		fills:      map[string]*dashboardFill{},
	}
}

// Now is the service clock in the display location.
func (s *RecordService) Now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

func (s *RecordService) ListBanks(ctx context.Context, userID string) ([]core.BankAccount, error) {
	return s.store.ListBanks(ctx, userID)
}

// ListIncomes returns the incomes inside period p and their total.
func (s *RecordService) ListIncomes(ctx context.Context, userID string, p core.Period) ([]core.IncomeEntry, decimal.Decimal, error) {
	incomes, err := s.store.ListIncomes(ctx, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	items, total := core.FilterByPeriod(incomes, p, s.Now())
	return items, total, nil
}

// ListExpenses returns the expenses inside period p and their total.
func (s *RecordService) ListExpenses(ctx context.Context, userID string, p core.Period) ([]core.ExpenseEntry, decimal.Decimal, error) {
	expenses, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	items, total := core.FilterByPeriod(expenses, p, s.Now())
	return items, total, nil
}

// GetSalary returns nil when the user has not saved salary details.
func (s *RecordService) GetSalary(ctx context.Context, userID string) (*core.SalaryDetails, error) {
	sd, err := s.store.GetSalary(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sd, nil
}

// GetProfile returns store.ErrNotFound when no profile exists.
func (s *RecordService) GetProfile(ctx context.Context, userID string) (core.UserProfile, error) {
	return s.store.GetProfile(ctx, userID)
}

func (s *RecordService) SaveBank(ctx context.Context, userID string, b core.BankAccount) (core.BankAccount, error) {
	b.Normalize()
	if err := b.Validate(); err != nil {
		return core.BankAccount{}, &ValidationError{Kind: core.KindBanks, Err: err}
	}
	op := opFor(b.ID)
	saved, err := s.store.SaveBank(ctx, userID, b)
	if err != nil {
		return core.BankAccount{}, s.writeFailed(ctx, userID, core.KindBanks, op, err)
	}
	s.changed(ctx, userID, core.KindBanks, saved.ID, op)
	return saved, nil
}

func (s *RecordService) SaveIncome(ctx context.Context, userID string, in core.IncomeEntry) (core.IncomeEntry, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return core.IncomeEntry{}, &ValidationError{Kind: core.KindIncomes, Err: err}
	}
	op := opFor(in.ID)
	saved, err := s.store.SaveIncome(ctx, userID, in)
	if err != nil {
		return core.IncomeEntry{}, s.writeFailed(ctx, userID, core.KindIncomes, op, err)
	}
	s.changed(ctx, userID, core.KindIncomes, saved.ID, op)
	return saved, nil
}

func (s *RecordService) SaveExpense(ctx context.Context, userID string, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	e.Normalize()
	if err := e.Validate(); err != nil {
		return core.ExpenseEntry{}, &ValidationError{Kind: core.KindExpenses, Err: err}
	}
	op := opFor(e.ID)
	saved, err := s.store.SaveExpense(ctx, userID, e)
	if err != nil {
		return core.ExpenseEntry{}, s.writeFailed(ctx, userID, core.KindExpenses, op, err)
	}
	s.changed(ctx, userID, core.KindExpenses, saved.ID, op)
	return saved, nil
}

// DeleteExpense removes one expense. Expenses are the only deletable records.
func (s *RecordService) DeleteExpense(ctx context.Context, userID, id string) error {
	if id == "" {
		return &ValidationError{Kind: core.KindExpenses, Err: errors.New("id is required")}
	}
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return s.writeFailed(ctx, userID, core.KindExpenses, log.OpDelete, err)
	}
	s.changed(ctx, userID, core.KindExpenses, id, log.OpDelete)
	return nil
}

func (s *RecordService) SaveSalary(ctx context.Context, userID string, sd core.SalaryDetails) (core.SalaryDetails, error) {
	if err := sd.Validate(); err != nil {
		return core.SalaryDetails{}, &ValidationError{Kind: core.KindSalary, Err: err}
	}
	saved, err := s.store.SaveSalary(ctx, userID, sd)
	if err != nil {
		return core.SalaryDetails{}, s.writeFailed(ctx, userID, core.KindSalary, log.OpUpdate, err)
	}
	s.changed(ctx, userID, core.KindSalary, "", log.OpUpdate)
	return saved, nil
}

func (s *RecordService) SaveProfile(ctx context.Context, userID string, p core.UserProfile) (core.UserProfile, error) {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return core.UserProfile{}, &ValidationError{Kind: core.KindProfile, Err: err}
	}
	saved, err := s.store.SaveProfile(ctx, userID, p)
	if err != nil {
		return core.UserProfile{}, s.writeFailed(ctx, userID, core.KindProfile, log.OpUpdate, err)
	}
	s.changed(ctx, userID, core.KindProfile, "", log.OpUpdate)
	return saved, nil
}

// Snapshot loads every collection of the user concurrently.
func (s *RecordService) Snapshot(ctx context.Context, userID string) (core.Snapshot, error) {
	var snap core.Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		snap.Banks, err = s.store.ListBanks(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		snap.Incomes, err = s.store.ListIncomes(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		snap.Expenses, err = s.store.ListExpenses(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		snap.Salary, err = s.GetSalary(gctx, userID)
		return err
	})
	g.Go(func() error {
		p, err := s.store.GetProfile(gctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		snap.Profile = &p
		return nil
	})

	if err := g.Wait(); err != nil {
		return core.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}
	return snap, nil
}

// Dashboard returns the user's summary, served from cache until the next
// change to any of their records.
func (s *RecordService) Dashboard(ctx context.Context, userID string) (core.Summary, error) {
	if s.opts.Dashboards == nil {
		snap, err := s.Snapshot(ctx, userID)
		if err != nil {
			return core.Summary{}, err
		}
		return core.Aggregate(snap, s.Now()), nil
	}
	if sum, ok := s.opts.Dashboards.Get(userID); ok {
		return sum, nil
	}

	fill, gen := s.beginFill(userID)
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		s.endFill(userID, fill, gen, nil)
		return core.Summary{}, err
	}
	sum := core.Aggregate(snap, s.Now())
	s.endFill(userID, fill, gen, &sum)
	return sum, nil
}

func (s *RecordService) beginFill(userID string) (*dashboardFill, uint64) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	f, ok := s.fills[userID]
	if !ok {
		f = &dashboardFill{}
		s.fills[userID] = f
	}
	f.refs++
	return f, f.gen
}

// endFill caches sum unless a change landed since beginFill.
func (s *RecordService) endFill(userID string, f *dashboardFill, gen uint64, sum *core.Summary) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if sum != nil && f.gen == gen {
		s.opts.Dashboards.Set(userID, *sum)
	}
	f.refs--
	if f.refs == 0 {
		delete(s.fills, userID)
	}
}

func (s *RecordService) invalidateDashboard(userID string) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if f, ok := s.fills[userID]; ok {
		f.gen++
	}
	s.opts.Dashboards.Delete(userID)
}

// History builds the export sections for the user.
func (s *RecordService) History(ctx context.Context, userID string) ([]export.Section, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return export.Sections(snap, s.ExportOptions()), nil
}

func (s *RecordService) ExportOptions() export.Options {
	return export.Options{DateLayout: s.opts.DateLayout, Location: s.opts.Location}
}

func (s *RecordService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *RecordService) changed(ctx context.Context, userID string, kind core.RecordKind, id, op string) {
	s.structured.LogRecordSaved(ctx, userID, string(kind), id, op)

	if s.opts.Dashboards != nil {
		s.invalidateDashboard(userID)
	}
	if s.opts.Notifier != nil {
		s.opts.Notifier.Notify(ctx, userID, kind)
	}
	if s.opts.Publisher != nil {
		if err := s.opts.Publisher.PublishRecordChanged(ctx, userID, kind); err != nil {
			s.logger.WarnContext(ctx, "Failed to publish record change",
				log.FieldUserID, userID,
				log.FieldRecordKind, string(kind),
				log.FieldError, err)
		}
	}
}

func (s *RecordService) writeFailed(ctx context.Context, userID string, kind core.RecordKind, op string, err error) error {
	if !errors.Is(err, store.ErrNotFound) {
		s.structured.LogError(ctx, "Record write failed", err, log.ComponentRecords, op,
			log.NewFields().WithRecord(userID, string(kind), ""))
	}
	return fmt.Errorf("%s %s: %w", op, kind, err)
}

func opFor(id string) string {
	if id == "" {
		return log.OpCreate
	}
	return log.OpUpdate
}
