package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pitaka/internal/core"
	"pitaka/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the default store.Store backend.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) stamp() time.Time {
	return store.Timestamp(r.now())
}

func (r *SQLiteRepository) ListBanks(ctx context.Context, userID string) ([]core.BankAccount, error) {
	rows, err := r.queries.ListBankAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bank accounts: %w", err)
	}
	out := make([]core.BankAccount, 0, len(rows))
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, fmt.Errorf("bank %s amount %q: %w", row.ID, row.Amount, err)
		}
		out = append(out, core.BankAccount{
			ID:             row.ID,
			BankName:       row.BankName,
			FullName:       row.FullName,
			Last4Digits:    row.Last4Digits,
			ExpirationDate: row.ExpirationDate,
			Amount:         amount,
			CreatedAt:      fromMillis(row.CreatedAt),
			LastUpdated:    fromMillis(row.LastUpdated),
		})
	}
	return out, nil
}

func (r *SQLiteRepository) SaveBank(ctx context.Context, userID string, b core.BankAccount) (core.BankAccount, error) {
	created := store.Stamp(&b.ID, &b.CreatedAt, &b.LastUpdated, r.stamp())
	row := BankAccount{
		ID:             b.ID,
		UserID:         userID,
		BankName:       b.BankName,
		FullName:       b.FullName,
		Last4Digits:    b.Last4Digits,
		ExpirationDate: b.ExpirationDate,
		Amount:         b.Amount.String(),
		CreatedAt:      toMillis(b.CreatedAt),
		LastUpdated:    toMillis(b.LastUpdated),
	}
	if created {
		if err := r.queries.CreateBankAccount(ctx, row); err != nil {
			return core.BankAccount{}, fmt.Errorf("create bank account: %w", err)
		}
		slog.DebugContext(ctx, "Bank account saved to SQLite", "id", b.ID, "user_id", userID)
		return b, nil
	}
	createdAt, err := r.queries.UpdateBankAccount(ctx, row)
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("update bank account %s: %w", b.ID, notFound(err))
	}
	b.CreatedAt = fromMillis(createdAt)
	return b, nil
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, userID string) ([]core.IncomeEntry, error) {
	rows, err := r.queries.ListIncomes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	out := make([]core.IncomeEntry, 0, len(rows))
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.IncomeAmount)
		if err != nil {
			return nil, fmt.Errorf("income %s amount %q: %w", row.ID, row.IncomeAmount, err)
		}
		date, err := core.ParseDate(row.IncomeDate)
		if err != nil {
			return nil, fmt.Errorf("income %s: %w", row.ID, err)
		}
		out = append(out, core.IncomeEntry{
			ID:           row.ID,
			BusinessName: row.BusinessName,
			Industry:     row.Industry,
			IncomeAmount: amount,
			IncomeDate:   date,
			CreatedAt:    fromMillis(row.CreatedAt),
			LastUpdated:  fromMillis(row.LastUpdated),
		})
	}
	return out, nil
}

func (r *SQLiteRepository) SaveIncome(ctx context.Context, userID string, in core.IncomeEntry) (core.IncomeEntry, error) {
	created := store.Stamp(&in.ID, &in.CreatedAt, &in.LastUpdated, r.stamp())
	row := Income{
		ID:           in.ID,
		UserID:       userID,
		BusinessName: in.BusinessName,
		Industry:     in.Industry,
		IncomeAmount: in.IncomeAmount.String(),
		IncomeDate:   in.IncomeDate.String(),
		CreatedAt:    toMillis(in.CreatedAt),
		LastUpdated:  toMillis(in.LastUpdated),
	}
	if created {
		if err := r.queries.CreateIncome(ctx, row); err != nil {
			return core.IncomeEntry{}, fmt.Errorf("create income: %w", err)
		}
		slog.DebugContext(ctx, "Income saved to SQLite", "id", in.ID, "user_id", userID)
		return in, nil
	}
	createdAt, err := r.queries.UpdateIncome(ctx, row)
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("update income %s: %w", in.ID, notFound(err))
	}
	in.CreatedAt = fromMillis(createdAt)
	return in, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string) ([]core.ExpenseEntry, error) {
	rows, err := r.queries.ListExpenses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.ExpenseEntry, 0, len(rows))
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.ExpenseAmount)
		if err != nil {
			return nil, fmt.Errorf("expense %s amount %q: %w", row.ID, row.ExpenseAmount, err)
		}
		date, err := core.ParseDate(row.ExpenseDate)
		if err != nil {
			return nil, fmt.Errorf("expense %s: %w", row.ID, err)
		}
		out = append(out, core.ExpenseEntry{
			ID:            row.ID,
			Name:          row.Name,
			Category:      row.Category,
			ExpenseAmount: amount,
			ExpenseDate:   date,
			CreatedAt:     fromMillis(row.CreatedAt),
			LastUpdated:   fromMillis(row.LastUpdated),
		})
	}
	return out, nil
}

func (r *SQLiteRepository) SaveExpense(ctx context.Context, userID string, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	created := store.Stamp(&e.ID, &e.CreatedAt, &e.LastUpdated, r.stamp())
	row := Expense{
		ID:            e.ID,
		UserID:        userID,
		Name:          e.Name,
		Category:      e.Category,
		ExpenseAmount: e.ExpenseAmount.String(),
		ExpenseDate:   e.ExpenseDate.String(),
		CreatedAt:     toMillis(e.CreatedAt),
		LastUpdated:   toMillis(e.LastUpdated),
	}
	if created {
		if err := r.queries.CreateExpense(ctx, row); err != nil {
			return core.ExpenseEntry{}, fmt.Errorf("create expense: %w", err)
		}
		slog.DebugContext(ctx, "Expense saved to SQLite", "id", e.ID, "user_id", userID)
		return e, nil
	}
	createdAt, err := r.queries.UpdateExpense(ctx, row)
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("update expense %s: %w", e.ID, notFound(err))
	}
	e.CreatedAt = fromMillis(createdAt)
	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteExpense(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete expense %s: %w", id, store.ErrNotFound)
	}
	slog.DebugContext(ctx, "Expense deleted from SQLite", "id", id, "user_id", userID)
	return nil
}

func (r *SQLiteRepository) GetSalary(ctx context.Context, userID string) (core.SalaryDetails, error) {
	row, err := r.queries.GetSalaryDetails(ctx, userID)
	if err != nil {
		return core.SalaryDetails{}, fmt.Errorf("get salary: %w", notFound(err))
	}
	amounts := []string{row.Salary, row.Sss, row.Philhealth, row.Pagibig, row.Tax, row.Loans, row.Voluntary}
	parsed := make([]decimal.Decimal, len(amounts))
	for i, a := range amounts {
		d, err := decimal.NewFromString(a)
		if err != nil {
			return core.SalaryDetails{}, fmt.Errorf("salary amount %q: %w", a, err)
		}
		parsed[i] = d
	}
	return core.SalaryDetails{
		Salary:         parsed[0],
		Frequency:      core.Frequency(row.Frequency),
		PaydaySpecific: row.PaydaySpecific,
		DayOffInMonth:  int(row.DayOffInMonth),
		SSS:            parsed[1],
		PhilHealth:     parsed[2],
		PagIBIG:        parsed[3],
		Tax:            parsed[4],
		Loans:          parsed[5],
		Voluntary:      parsed[6],
		LastUpdated:    fromMillis(row.LastUpdated),
	}, nil
}

func (r *SQLiteRepository) SaveSalary(ctx context.Context, userID string, s core.SalaryDetails) (core.SalaryDetails, error) {
	s.LastUpdated = r.stamp()
	err := r.queries.UpsertSalaryDetails(ctx, SalaryDetail{
		UserID:         userID,
		Salary:         s.Salary.String(),
		Frequency:      string(s.Frequency),
		PaydaySpecific: s.PaydaySpecific,
		DayOffInMonth:  int64(s.DayOffInMonth),
		Sss:            s.SSS.String(),
		Philhealth:     s.PhilHealth.String(),
		Pagibig:        s.PagIBIG.String(),
		Tax:            s.Tax.String(),
		Loans:          s.Loans.String(),
		Voluntary:      s.Voluntary.String(),
		LastUpdated:    toMillis(s.LastUpdated),
	})
	if err != nil {
		return core.SalaryDetails{}, fmt.Errorf("save salary: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, userID string) (core.UserProfile, error) {
	row, err := r.queries.GetUserProfile(ctx, userID)
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("get profile: %w", notFound(err))
	}
	return core.UserProfile{
		Name:                      row.Name,
		Email:                     row.Email,
		PhoneNumber:               row.PhoneNumber,
		ReceiveEmailNotifications: row.ReceiveEmailNotifications,
		ReceivePhoneNotifications: row.ReceivePhoneNotifications,
		LastUpdated:               fromMillis(row.LastUpdated),
	}, nil
}

func (r *SQLiteRepository) SaveProfile(ctx context.Context, userID string, p core.UserProfile) (core.UserProfile, error) {
	p.LastUpdated = r.stamp()
	err := r.queries.UpsertUserProfile(ctx, UserProfile{
		UserID:                    userID,
		Name:                      p.Name,
		Email:                     p.Email,
		PhoneNumber:               p.PhoneNumber,
		ReceiveEmailNotifications: p.ReceiveEmailNotifications,
		ReceivePhoneNotifications: p.ReceivePhoneNotifications,
		LastUpdated:               toMillis(p.LastUpdated),
	})
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a store.Account) (store.Account, error) {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if a.ID == "" {
		a.ID = store.NewID()
	}
	a.CreatedAt = r.stamp()
	err := r.queries.CreateAccount(ctx, Account{
		ID:           a.ID,
		Email:        a.Email,
		DisplayName:  a.DisplayName,
		PasswordHash: a.PasswordHash,
		CreatedAt:    toMillis(a.CreatedAt),
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.Account{}, fmt.Errorf("account %s: %w", a.Email, store.ErrDuplicate)
		}
		return store.Account{}, fmt.Errorf("create account: %w", err)
	}
	slog.InfoContext(ctx, "Account created", "user_id", a.ID)
	return a, nil
}

func (r *SQLiteRepository) AccountByEmail(ctx context.Context, email string) (store.Account, error) {
	row, err := r.queries.GetAccountByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return store.Account{}, fmt.Errorf("account by email: %w", notFound(err))
	}
	return accountFromRow(row), nil
}

func (r *SQLiteRepository) AccountByID(ctx context.Context, id string) (store.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if err != nil {
		return store.Account{}, fmt.Errorf("account by id: %w", notFound(err))
	}
	return accountFromRow(row), nil
}

func accountFromRow(row Account) store.Account {
	return store.Account{
		ID:           row.ID,
		Email:        row.Email,
		DisplayName:  row.DisplayName,
		PasswordHash: row.PasswordHash,
		CreatedAt:    fromMillis(row.CreatedAt),
	}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
