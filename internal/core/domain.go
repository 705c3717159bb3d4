package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Weekly      Frequency = "Weekly"
	Fortnightly Frequency = "Fortnightly"
	Monthly     Frequency = "Monthly"
)

const (
	KindBanks    RecordKind = "banks"
	KindIncomes  RecordKind = "incomes"
	KindExpenses RecordKind = "expenses"
	KindSalary   RecordKind = "salary"
	KindProfile  RecordKind = "profile"
)

// UnknownLast4 is stored when the user does not provide the card digits.
const UnknownLast4 = "0000"

const dateLayout = "2006-01-02"

type (
	// Frequency is how often a salary is paid.
	Frequency string

	// RecordKind names a collection (or singleton document) in a user's namespace.
	RecordKind string

	// Date is a calendar date; the time-of-day part is ignored by validation.
	Date struct {
		time.Time
	}

	BankAccount struct {
		ID             string          `json:"id"`
		BankName       string          `json:"bankName"`
		FullName       string          `json:"fullName"`
		Last4Digits    string          `json:"last4Digits"`
		ExpirationDate string          `json:"expirationDate,omitempty"` // MM/YY
		Amount         decimal.Decimal `json:"amount"`
		CreatedAt      time.Time       `json:"createdAt"`
		LastUpdated    time.Time       `json:"lastUpdated"`
	}

	IncomeEntry struct {
		ID           string          `json:"id"`
		BusinessName string          `json:"businessName"`
		Industry     string          `json:"industry"`
		IncomeAmount decimal.Decimal `json:"incomeAmount"`
		IncomeDate   Date            `json:"incomeDate"`
		CreatedAt    time.Time       `json:"createdAt"`
		LastUpdated  time.Time       `json:"lastUpdated"`
	}

	ExpenseEntry struct {
		ID            string          `json:"id"`
		Name          string          `json:"name"`
		Category      string          `json:"category"`
		ExpenseAmount decimal.Decimal `json:"expenseAmount"`
		ExpenseDate   Date            `json:"expenseDate"`
		CreatedAt     time.Time       `json:"createdAt"`
		LastUpdated   time.Time       `json:"lastUpdated"`
	}

	// SalaryDetails is a singleton document per user.
	SalaryDetails struct {
		Salary         decimal.Decimal `json:"salary"`
		Frequency      Frequency       `json:"frequency"`
		PaydaySpecific string          `json:"paydaySpecific"`
		DayOffInMonth  int             `json:"dayOffInMonth"` // days off per week: 1 or 2
		SSS            decimal.Decimal `json:"sss"`
		PhilHealth     decimal.Decimal `json:"philhealth"`
		PagIBIG        decimal.Decimal `json:"pagibig"`
		Tax            decimal.Decimal `json:"tax"`
		Loans          decimal.Decimal `json:"loans"`
		Voluntary      decimal.Decimal `json:"voluntary"`
		LastUpdated    time.Time       `json:"lastUpdated"`
	}

	// UserProfile is a singleton document per user.
	UserProfile struct {
		Name                      string    `json:"name"`
		Email                     string    `json:"email"`
		PhoneNumber               string    `json:"phoneNumber"`
		ReceiveEmailNotifications bool      `json:"receiveEmailNotifications"`
		ReceivePhoneNotifications bool      `json:"receivePhoneNotifications"`
		LastUpdated               time.Time `json:"lastUpdated"`
	}
)

// ExpenseCategories is the closed set of expense labels, in display order.
var ExpenseCategories = []string{
	"Food",
	"Transportation",
	"Bills",
	"Utilities",
	"Entertainment",
	"Healthcare",
	"Shopping",
	"Education",
	"Personal Care",
	"Others",
}

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrEmptyName          = errors.New("name is required")
	ErrEmptyBankName      = errors.New("bank name is required")
	ErrEmptyBusinessName  = errors.New("business name is required")
	ErrInvalidCategory    = errors.New("invalid expense category")
	ErrInvalidLast4       = errors.New("last 4 digits must be exactly 4 digits")
	ErrInvalidExpiration  = errors.New("expiration date must be MM/YY")
	ErrInvalidFrequency   = errors.New("frequency must be Weekly, Fortnightly or Monthly")
	ErrInvalidDayOff      = errors.New("days off per week must be 1 or 2")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrDescriptionTooLong = errors.New("text too long (max 200 characters)")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp. A timestamp is
// cut down to its calendar date in its own offset, so every store keeps the
// same value.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	if strings.TrimSpace(s) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsValid reports whether f is one of the supported pay frequencies.
func (f Frequency) IsValid() bool {
	switch f {
	case Weekly, Fortnightly, Monthly:
		return true
	default:
		return false
	}
}

// IsValid reports whether k is a known record kind.
func (k RecordKind) IsValid() bool {
	switch k {
	case KindBanks, KindIncomes, KindExpenses, KindSalary, KindProfile:
		return true
	default:
		return false
	}
}

// RecordPath is the namespaced location of a user's collection: {app}/{userId}/{kind}.
func RecordPath(app, userID string, kind RecordKind) string {
	return app + "/" + userID + "/" + string(kind)
}

// IsExpenseCategory reports whether c is one of ExpenseCategories.
func IsExpenseCategory(c string) bool {
	for _, v := range ExpenseCategories {
		if v == c {
			return true
		}
	}
	return false
}

// Normalize trims text fields and applies the unknown-digits sentinel.
func (b *BankAccount) Normalize() {
	b.BankName = strings.TrimSpace(b.BankName)
	b.FullName = strings.TrimSpace(b.FullName)
	b.Last4Digits = strings.TrimSpace(b.Last4Digits)
	b.ExpirationDate = strings.TrimSpace(b.ExpirationDate)
	if b.Last4Digits == "" {
		b.Last4Digits = UnknownLast4
	}
}

func (b BankAccount) Validate() error {
	if b.BankName == "" {
		return ErrEmptyBankName
	}
	if b.FullName == "" {
		return ErrEmptyName
	}
	if len(b.BankName) > 200 || len(b.FullName) > 200 {
		return ErrDescriptionTooLong
	}
	if !isDigits(b.Last4Digits, 4) {
		return ErrInvalidLast4
	}
	if b.ExpirationDate != "" && !validExpiration(b.ExpirationDate) {
		return ErrInvalidExpiration
	}
	return nil
}

func (i *IncomeEntry) Normalize() {
	i.BusinessName = strings.TrimSpace(i.BusinessName)
	i.Industry = strings.TrimSpace(i.Industry)
}

func (i IncomeEntry) Validate() error {
	if i.BusinessName == "" {
		return ErrEmptyBusinessName
	}
	if len(i.BusinessName) > 200 || len(i.Industry) > 200 {
		return ErrDescriptionTooLong
	}
	if i.IncomeAmount.IsNegative() {
		return ErrNegativeAmount
	}
	return i.IncomeDate.Validate()
}

func (e *ExpenseEntry) Normalize() {
	e.Name = strings.TrimSpace(e.Name)
	e.Category = strings.TrimSpace(e.Category)
}

func (e ExpenseEntry) Validate() error {
	if e.Name == "" {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return ErrDescriptionTooLong
	}
	if !IsExpenseCategory(e.Category) {
		return ErrInvalidCategory
	}
	if e.ExpenseAmount.IsNegative() {
		return ErrNegativeAmount
	}
	return e.ExpenseDate.Validate()
}

func (s SalaryDetails) Validate() error {
	if !s.Frequency.IsValid() {
		return ErrInvalidFrequency
	}
	if s.DayOffInMonth != 1 && s.DayOffInMonth != 2 {
		return ErrInvalidDayOff
	}
	for _, v := range []decimal.Decimal{s.Salary, s.SSS, s.PhilHealth, s.PagIBIG, s.Tax, s.Loans, s.Voluntary} {
		if v.IsNegative() {
			return ErrNegativeAmount
		}
	}
	return nil
}

func (p *UserProfile) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.PhoneNumber = strings.TrimSpace(p.PhoneNumber)
}

func (p UserProfile) Validate() error {
	if p.Name == "" {
		return ErrEmptyName
	}
	if !ValidEmail(p.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidEmail reports whether s is a bare address such as a@b.c.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, ".")
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validExpiration(s string) bool {
	if len(s) != 5 || s[2] != '/' {
		return false
	}
	if !isDigits(s[:2], 2) || !isDigits(s[3:], 2) {
		return false
	}
	month := int(s[0]-'0')*10 + int(s[1]-'0')
	return month >= 1 && month <= 12
}
