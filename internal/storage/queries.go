package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type BankAccount struct {
	ID             string
	UserID         string
	BankName       string
	FullName       string
	Last4Digits    string
	ExpirationDate string
	Amount         string
	CreatedAt      int64
	LastUpdated    int64
}

type Income struct {
	ID           string
	UserID       string
	BusinessName string
	Industry     string
	IncomeAmount string
	IncomeDate   string
	CreatedAt    int64
	LastUpdated  int64
}

type Expense struct {
	ID            string
	UserID        string
	Name          string
	Category      string
	ExpenseAmount string
	ExpenseDate   string
	CreatedAt     int64
	LastUpdated   int64
}

type SalaryDetail struct {
	UserID         string
	Salary         string
	Frequency      string
	PaydaySpecific string
	DayOffInMonth  int64
	Sss            string
	Philhealth     string
	Pagibig        string
	Tax            string
	Loans          string
	Voluntary      string
	LastUpdated    int64
}

type UserProfile struct {
	UserID                    string
	Name                      string
	Email                     string
	PhoneNumber               string
	ReceiveEmailNotifications bool
	ReceivePhoneNotifications bool
	LastUpdated               int64
}

type Account struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	CreatedAt    int64
}

const listBankAccounts = `-- name: ListBankAccounts :many
SELECT id, user_id, bank_name, full_name, last4_digits, expiration_date, amount, created_at, last_updated
FROM bank_accounts
WHERE user_id = ?
ORDER BY created_at ASC, id ASC
`

func (q *Queries) ListBankAccounts(ctx context.Context, userID string) ([]BankAccount, error) {
	rows, err := q.db.QueryContext(ctx, listBankAccounts, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BankAccount
	for rows.Next() {
		var i BankAccount
		if err := rows.Scan(&i.ID, &i.UserID, &i.BankName, &i.FullName, &i.Last4Digits,
			&i.ExpirationDate, &i.Amount, &i.CreatedAt, &i.LastUpdated); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createBankAccount = `-- name: CreateBankAccount :exec
INSERT INTO bank_accounts (id, user_id, bank_name, full_name, last4_digits, expiration_date, amount, created_at, last_updated)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateBankAccount(ctx context.Context, arg BankAccount) error {
	_, err := q.db.ExecContext(ctx, createBankAccount, arg.ID, arg.UserID, arg.BankName, arg.FullName,
		arg.Last4Digits, arg.ExpirationDate, arg.Amount, arg.CreatedAt, arg.LastUpdated)
	return err
}

const updateBankAccount = `-- name: UpdateBankAccount :one
UPDATE bank_accounts
SET bank_name = ?, full_name = ?, last4_digits = ?, expiration_date = ?, amount = ?, last_updated = ?
WHERE id = ? AND user_id = ?
RETURNING created_at
`

// UpdateBankAccount returns sql.ErrNoRows when the account is not the user's.
func (q *Queries) UpdateBankAccount(ctx context.Context, arg BankAccount) (int64, error) {
	row := q.db.QueryRowContext(ctx, updateBankAccount, arg.BankName, arg.FullName, arg.Last4Digits,
		arg.ExpirationDate, arg.Amount, arg.LastUpdated, arg.ID, arg.UserID)
	var createdAt int64
	err := row.Scan(&createdAt)
	return createdAt, err
}

const listIncomes = `-- name: ListIncomes :many
SELECT id, user_id, business_name, industry, income_amount, income_date, created_at, last_updated
FROM incomes
WHERE user_id = ?
ORDER BY income_date DESC, created_at DESC
`

func (q *Queries) ListIncomes(ctx context.Context, userID string) ([]Income, error) {
	rows, err := q.db.QueryContext(ctx, listIncomes, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Income
	for rows.Next() {
		var i Income
		if err := rows.Scan(&i.ID, &i.UserID, &i.BusinessName, &i.Industry, &i.IncomeAmount,
			&i.IncomeDate, &i.CreatedAt, &i.LastUpdated); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createIncome = `-- name: CreateIncome :exec
INSERT INTO incomes (id, user_id, business_name, industry, income_amount, income_date, created_at, last_updated)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateIncome(ctx context.Context, arg Income) error {
	_, err := q.db.ExecContext(ctx, createIncome, arg.ID, arg.UserID, arg.BusinessName, arg.Industry,
		arg.IncomeAmount, arg.IncomeDate, arg.CreatedAt, arg.LastUpdated)
	return err
}

const updateIncome = `-- name: UpdateIncome :one
UPDATE incomes
SET business_name = ?, industry = ?, income_amount = ?, income_date = ?, last_updated = ?
WHERE id = ? AND user_id = ?
RETURNING created_at
`

func (q *Queries) UpdateIncome(ctx context.Context, arg Income) (int64, error) {
	row := q.db.QueryRowContext(ctx, updateIncome, arg.BusinessName, arg.Industry, arg.IncomeAmount,
		arg.IncomeDate, arg.LastUpdated, arg.ID, arg.UserID)
	var createdAt int64
	err := row.Scan(&createdAt)
	return createdAt, err
}

const listExpenses = `-- name: ListExpenses :many
SELECT id, user_id, name, category, expense_amount, expense_date, created_at, last_updated
FROM expenses
WHERE user_id = ?
ORDER BY expense_date DESC, created_at DESC
`

func (q *Queries) ListExpenses(ctx context.Context, userID string) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(&i.ID, &i.UserID, &i.Name, &i.Category, &i.ExpenseAmount,
			&i.ExpenseDate, &i.CreatedAt, &i.LastUpdated); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createExpense = `-- name: CreateExpense :exec
INSERT INTO expenses (id, user_id, name, category, expense_amount, expense_date, created_at, last_updated)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateExpense(ctx context.Context, arg Expense) error {
	_, err := q.db.ExecContext(ctx, createExpense, arg.ID, arg.UserID, arg.Name, arg.Category,
		arg.ExpenseAmount, arg.ExpenseDate, arg.CreatedAt, arg.LastUpdated)
	return err
}

const updateExpense = `-- name: UpdateExpense :one
UPDATE expenses
SET name = ?, category = ?, expense_amount = ?, expense_date = ?, last_updated = ?
WHERE id = ? AND user_id = ?
RETURNING created_at
`

func (q *Queries) UpdateExpense(ctx context.Context, arg Expense) (int64, error) {
	row := q.db.QueryRowContext(ctx, updateExpense, arg.Name, arg.Category, arg.ExpenseAmount,
		arg.ExpenseDate, arg.LastUpdated, arg.ID, arg.UserID)
	var createdAt int64
	err := row.Scan(&createdAt)
	return createdAt, err
}

const deleteExpense = `-- name: DeleteExpense :execrows
DELETE FROM expenses WHERE id = ? AND user_id = ?
`

func (q *Queries) DeleteExpense(ctx context.Context, id, userID string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteExpense, id, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getSalaryDetails = `-- name: GetSalaryDetails :one
SELECT user_id, salary, frequency, payday_specific, day_off_in_month, sss, philhealth, pagibig, tax, loans, voluntary, last_updated
FROM salary_details
WHERE user_id = ?
`

func (q *Queries) GetSalaryDetails(ctx context.Context, userID string) (SalaryDetail, error) {
	row := q.db.QueryRowContext(ctx, getSalaryDetails, userID)
	var i SalaryDetail
	err := row.Scan(&i.UserID, &i.Salary, &i.Frequency, &i.PaydaySpecific, &i.DayOffInMonth,
		&i.Sss, &i.Philhealth, &i.Pagibig, &i.Tax, &i.Loans, &i.Voluntary, &i.LastUpdated)
	return i, err
}

const upsertSalaryDetails = `-- name: UpsertSalaryDetails :exec
INSERT INTO salary_details (user_id, salary, frequency, payday_specific, day_off_in_month, sss, philhealth, pagibig, tax, loans, voluntary, last_updated)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    salary = excluded.salary,
    frequency = excluded.frequency,
    payday_specific = excluded.payday_specific,
    day_off_in_month = excluded.day_off_in_month,
    sss = excluded.sss,
    philhealth = excluded.philhealth,
    pagibig = excluded.pagibig,
    tax = excluded.tax,
    loans = excluded.loans,
    voluntary = excluded.voluntary,
    last_updated = excluded.last_updated
`

func (q *Queries) UpsertSalaryDetails(ctx context.Context, arg SalaryDetail) error {
	_, err := q.db.ExecContext(ctx, upsertSalaryDetails, arg.UserID, arg.Salary, arg.Frequency,
		arg.PaydaySpecific, arg.DayOffInMonth, arg.Sss, arg.Philhealth, arg.Pagibig, arg.Tax,
		arg.Loans, arg.Voluntary, arg.LastUpdated)
	return err
}

const getUserProfile = `-- name: GetUserProfile :one
SELECT user_id, name, email, phone_number, receive_email_notifications, receive_phone_notifications, last_updated
FROM user_profiles
WHERE user_id = ?
`

func (q *Queries) GetUserProfile(ctx context.Context, userID string) (UserProfile, error) {
	row := q.db.QueryRowContext(ctx, getUserProfile, userID)
	var i UserProfile
	err := row.Scan(&i.UserID, &i.Name, &i.Email, &i.PhoneNumber,
		&i.ReceiveEmailNotifications, &i.ReceivePhoneNotifications, &i.LastUpdated)
	return i, err
}

const upsertUserProfile = `-- name: UpsertUserProfile :exec
INSERT INTO user_profiles (user_id, name, email, phone_number, receive_email_notifications, receive_phone_notifications, last_updated)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
    name = excluded.name,
    email = excluded.email,
    phone_number = excluded.phone_number,
    receive_email_notifications = excluded.receive_email_notifications,
    receive_phone_notifications = excluded.receive_phone_notifications,
    last_updated = excluded.last_updated
`

func (q *Queries) UpsertUserProfile(ctx context.Context, arg UserProfile) error {
	_, err := q.db.ExecContext(ctx, upsertUserProfile, arg.UserID, arg.Name, arg.Email, arg.PhoneNumber,
		arg.ReceiveEmailNotifications, arg.ReceivePhoneNotifications, arg.LastUpdated)
	return err
}

const createAccount = `-- name: CreateAccount :exec
INSERT INTO accounts (id, email, display_name, password_hash, created_at)
VALUES (?, ?, ?, ?, ?)
`

func (q *Queries) CreateAccount(ctx context.Context, arg Account) error {
	_, err := q.db.ExecContext(ctx, createAccount, arg.ID, arg.Email, arg.DisplayName, arg.PasswordHash, arg.CreatedAt)
	return err
}

const getAccountByEmail = `-- name: GetAccountByEmail :one
SELECT id, email, display_name, password_hash, created_at FROM accounts WHERE email = ?
`

func (q *Queries) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccountByEmail, email)
	var i Account
	err := row.Scan(&i.ID, &i.Email, &i.DisplayName, &i.PasswordHash, &i.CreatedAt)
	return i, err
}

const getAccountByID = `-- name: GetAccountByID :one
SELECT id, email, display_name, password_hash, created_at FROM accounts WHERE id = ?
`

func (q *Queries) GetAccountByID(ctx context.Context, id string) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccountByID, id)
	var i Account
	err := row.Scan(&i.ID, &i.Email, &i.DisplayName, &i.PasswordHash, &i.CreatedAt)
	return i, err
}
