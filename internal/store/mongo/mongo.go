// Package mongo stores user records in MongoDB.
//
// Each document carries its namespace path {app}/{userId}/{kind}, and every
// query filters on it. Amounts are stored as decimal strings so no precision
// is lost to BSON doubles.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"pitaka/internal/core"
	"pitaka/internal/store"
)

const (
	banksCollection    = "banks"
	incomesCollection  = "incomes"
	expensesCollection = "expenses"
	salaryCollection   = "salary"
	profileCollection  = "profiles"
	accountsCollection = "accounts"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	app    string
	now    func() time.Time
}

// Open connects, verifies the server answers and ensures indexes.
func Open(ctx context.Context, uri, database, app string) (*Store, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	s := &Store{client: client, db: client.Database(database), app: app, now: time.Now}
	if err := s.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	models := map[string]mongo.IndexModel{
		banksCollection:    {Keys: bson.D{{Key: "ns", Value: 1}, {Key: "createdAt", Value: 1}}},
		incomesCollection:  {Keys: bson.D{{Key: "ns", Value: 1}, {Key: "incomeDate", Value: -1}}},
		expensesCollection: {Keys: bson.D{{Key: "ns", Value: 1}, {Key: "expenseDate", Value: -1}}},
		accountsCollection: {Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	for coll, model := range models {
		if _, err := s.db.Collection(coll).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", coll, err)
		}
	}
	return nil
}

func (s *Store) ns(userID string, kind core.RecordKind) string {
	return core.RecordPath(s.app, userID, kind)
}

func (s *Store) stamp() time.Time {
	return store.Timestamp(s.now())
}

type bankDoc struct {
	ID             string    `bson:"_id"`
	NS             string    `bson:"ns"`
	BankName       string    `bson:"bankName"`
	FullName       string    `bson:"fullName"`
	Last4Digits    string    `bson:"last4Digits"`
	ExpirationDate string    `bson:"expirationDate"`
	Amount         string    `bson:"amount"`
	CreatedAt      time.Time `bson:"createdAt"`
	LastUpdated    time.Time `bson:"lastUpdated"`
}

type incomeDoc struct {
	ID           string    `bson:"_id"`
	NS           string    `bson:"ns"`
	BusinessName string    `bson:"businessName"`
	Industry     string    `bson:"industry"`
	IncomeAmount string    `bson:"incomeAmount"`
	IncomeDate   string    `bson:"incomeDate"`
	CreatedAt    time.Time `bson:"createdAt"`
	LastUpdated  time.Time `bson:"lastUpdated"`
}

type expenseDoc struct {
	ID            string    `bson:"_id"`
	NS            string    `bson:"ns"`
	Name          string    `bson:"name"`
	Category      string    `bson:"category"`
	ExpenseAmount string    `bson:"expenseAmount"`
	ExpenseDate   string    `bson:"expenseDate"`
	CreatedAt     time.Time `bson:"createdAt"`
	LastUpdated   time.Time `bson:"lastUpdated"`
}

type salaryDoc struct {
	NS             string    `bson:"_id"`
	Salary         string    `bson:"salary"`
	Frequency      string    `bson:"frequency"`
	PaydaySpecific string    `bson:"paydaySpecific"`
	DayOffInMonth  int       `bson:"dayOffInMonth"`
	SSS            string    `bson:"sss"`
	PhilHealth     string    `bson:"philhealth"`
	PagIBIG        string    `bson:"pagibig"`
	Tax            string    `bson:"tax"`
	Loans          string    `bson:"loans"`
	Voluntary      string    `bson:"voluntary"`
	LastUpdated    time.Time `bson:"lastUpdated"`
}

type profileDoc struct {
	NS                        string    `bson:"_id"`
	Name                      string    `bson:"name"`
	Email                     string    `bson:"email"`
	PhoneNumber               string    `bson:"phoneNumber"`
	ReceiveEmailNotifications bool      `bson:"receiveEmailNotifications"`
	ReceivePhoneNotifications bool      `bson:"receivePhoneNotifications"`
	LastUpdated               time.Time `bson:"lastUpdated"`
}

type accountDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	DisplayName  string    `bson:"displayName"`
	PasswordHash string    `bson:"passwordHash"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func (s *Store) ListBanks(ctx context.Context, userID string) ([]core.BankAccount, error) {
	var docs []bankDoc
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	if err := s.findAll(ctx, banksCollection, bson.M{"ns": s.ns(userID, core.KindBanks)}, opts, &docs); err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	out := make([]core.BankAccount, 0, len(docs))
	for _, d := range docs {
		amount, err := decimal.NewFromString(d.Amount)
		if err != nil {
			return nil, fmt.Errorf("bank %s amount %q: %w", d.ID, d.Amount, err)
		}
		out = append(out, core.BankAccount{
			ID:             d.ID,
			BankName:       d.BankName,
			FullName:       d.FullName,
			Last4Digits:    d.Last4Digits,
			ExpirationDate: d.ExpirationDate,
			Amount:         amount,
			CreatedAt:      d.CreatedAt.UTC(),
			LastUpdated:    d.LastUpdated.UTC(),
		})
	}
	return out, nil
}

func (s *Store) SaveBank(ctx context.Context, userID string, b core.BankAccount) (core.BankAccount, error) {
	created := store.Stamp(&b.ID, &b.CreatedAt, &b.LastUpdated, s.stamp())
	doc := bankDoc{
		ID:             b.ID,
		NS:             s.ns(userID, core.KindBanks),
		BankName:       b.BankName,
		FullName:       b.FullName,
		Last4Digits:    b.Last4Digits,
		ExpirationDate: b.ExpirationDate,
		Amount:         b.Amount.String(),
		CreatedAt:      b.CreatedAt,
		LastUpdated:    b.LastUpdated,
	}
	createdAt, err := s.save(ctx, banksCollection, created, doc.ID, doc.NS, doc, bson.M{
		"bankName":       doc.BankName,
		"fullName":       doc.FullName,
		"last4Digits":    doc.Last4Digits,
		"expirationDate": doc.ExpirationDate,
		"amount":         doc.Amount,
		"lastUpdated":    doc.LastUpdated,
	})
	if err != nil {
		return core.BankAccount{}, fmt.Errorf("save bank %s: %w", b.ID, err)
	}
	b.CreatedAt = createdAt
	return b, nil
}

func (s *Store) ListIncomes(ctx context.Context, userID string) ([]core.IncomeEntry, error) {
	var docs []incomeDoc
	opts := options.Find().SetSort(bson.D{{Key: "incomeDate", Value: -1}, {Key: "createdAt", Value: -1}})
	if err := s.findAll(ctx, incomesCollection, bson.M{"ns": s.ns(userID, core.KindIncomes)}, opts, &docs); err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	out := make([]core.IncomeEntry, 0, len(docs))
	for _, d := range docs {
		amount, err := decimal.NewFromString(d.IncomeAmount)
		if err != nil {
			return nil, fmt.Errorf("income %s amount %q: %w", d.ID, d.IncomeAmount, err)
		}
		date, err := core.ParseDate(d.IncomeDate)
		if err != nil {
			return nil, fmt.Errorf("income %s: %w", d.ID, err)
		}
		out = append(out, core.IncomeEntry{
			ID:           d.ID,
			BusinessName: d.BusinessName,
			Industry:     d.Industry,
			IncomeAmount: amount,
			IncomeDate:   date,
			CreatedAt:    d.CreatedAt.UTC(),
			LastUpdated:  d.LastUpdated.UTC(),
		})
	}
	return out, nil
}

func (s *Store) SaveIncome(ctx context.Context, userID string, in core.IncomeEntry) (core.IncomeEntry, error) {
	created := store.Stamp(&in.ID, &in.CreatedAt, &in.LastUpdated, s.stamp())
	doc := incomeDoc{
		ID:           in.ID,
		NS:           s.ns(userID, core.KindIncomes),
		BusinessName: in.BusinessName,
		Industry:     in.Industry,
		IncomeAmount: in.IncomeAmount.String(),
		IncomeDate:   in.IncomeDate.String(),
		CreatedAt:    in.CreatedAt,
		LastUpdated:  in.LastUpdated,
	}
	createdAt, err := s.save(ctx, incomesCollection, created, doc.ID, doc.NS, doc, bson.M{
		"businessName": doc.BusinessName,
		"industry":     doc.Industry,
		"incomeAmount": doc.IncomeAmount,
		"incomeDate":   doc.IncomeDate,
		"lastUpdated":  doc.LastUpdated,
	})
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("save income %s: %w", in.ID, err)
	}
	in.CreatedAt = createdAt
	return in, nil
}

func (s *Store) ListExpenses(ctx context.Context, userID string) ([]core.ExpenseEntry, error) {
	var docs []expenseDoc
	opts := options.Find().SetSort(bson.D{{Key: "expenseDate", Value: -1}, {Key: "createdAt", Value: -1}})
	if err := s.findAll(ctx, expensesCollection, bson.M{"ns": s.ns(userID, core.KindExpenses)}, opts, &docs); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.ExpenseEntry, 0, len(docs))
	for _, d := range docs {
		amount, err := decimal.NewFromString(d.ExpenseAmount)
		if err != nil {
			return nil, fmt.Errorf("expense %s amount %q: %w", d.ID, d.ExpenseAmount, err)
		}
		date, err := core.ParseDate(d.ExpenseDate)
		if err != nil {
			return nil, fmt.Errorf("expense %s: %w", d.ID, err)
		}
		out = append(out, core.ExpenseEntry{
			ID:            d.ID,
			Name:          d.Name,
			Category:      d.Category,
			ExpenseAmount: amount,
			ExpenseDate:   date,
			CreatedAt:     d.CreatedAt.UTC(),
			LastUpdated:   d.LastUpdated.UTC(),
		})
	}
	return out, nil
}

func (s *Store) SaveExpense(ctx context.Context, userID string, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	created := store.Stamp(&e.ID, &e.CreatedAt, &e.LastUpdated, s.stamp())
	doc := expenseDoc{
		ID:            e.ID,
		NS:            s.ns(userID, core.KindExpenses),
		Name:          e.Name,
		Category:      e.Category,
		ExpenseAmount: e.ExpenseAmount.String(),
		ExpenseDate:   e.ExpenseDate.String(),
		CreatedAt:     e.CreatedAt,
		LastUpdated:   e.LastUpdated,
	}
	createdAt, err := s.save(ctx, expensesCollection, created, doc.ID, doc.NS, doc, bson.M{
		"name":          doc.Name,
		"category":      doc.Category,
		"expenseAmount": doc.ExpenseAmount,
		"expenseDate":   doc.ExpenseDate,
		"lastUpdated":   doc.LastUpdated,
	})
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("save expense %s: %w", e.ID, err)
	}
	e.CreatedAt = createdAt
	return e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := s.db.Collection(expensesCollection).DeleteOne(ctx, bson.M{"_id": id, "ns": s.ns(userID, core.KindExpenses)})
	if err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete expense %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) GetSalary(ctx context.Context, userID string) (core.SalaryDetails, error) {
	var d salaryDoc
	err := s.db.Collection(salaryCollection).FindOne(ctx, bson.M{"_id": s.ns(userID, core.KindSalary)}).Decode(&d)
	if err != nil {
		return core.SalaryDetails{}, fmt.Errorf("get salary: %w", notFound(err))
	}
	return core.SalaryDetails{
		Salary:         core.Coerce(d.Salary),
		Frequency:      core.Frequency(d.Frequency),
		PaydaySpecific: d.PaydaySpecific,
		DayOffInMonth:  d.DayOffInMonth,
		SSS:            core.Coerce(d.SSS),
		PhilHealth:     core.Coerce(d.PhilHealth),
		PagIBIG:        core.Coerce(d.PagIBIG),
		Tax:            core.Coerce(d.Tax),
		Loans:          core.Coerce(d.Loans),
		Voluntary:      core.Coerce(d.Voluntary),
		LastUpdated:    d.LastUpdated.UTC(),
	}, nil
}

func (s *Store) SaveSalary(ctx context.Context, userID string, sal core.SalaryDetails) (core.SalaryDetails, error) {
	sal.LastUpdated = s.stamp()
	doc := salaryDoc{
		NS:             s.ns(userID, core.KindSalary),
		Salary:         sal.Salary.String(),
		Frequency:      string(sal.Frequency),
		PaydaySpecific: sal.PaydaySpecific,
		DayOffInMonth:  sal.DayOffInMonth,
		SSS:            sal.SSS.String(),
		PhilHealth:     sal.PhilHealth.String(),
		PagIBIG:        sal.PagIBIG.String(),
		Tax:            sal.Tax.String(),
		Loans:          sal.Loans.String(),
		Voluntary:      sal.Voluntary.String(),
		LastUpdated:    sal.LastUpdated,
	}
	_, err := s.db.Collection(salaryCollection).ReplaceOne(ctx, bson.M{"_id": doc.NS}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return core.SalaryDetails{}, fmt.Errorf("save salary: %w", err)
	}
	return sal, nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (core.UserProfile, error) {
	var d profileDoc
	err := s.db.Collection(profileCollection).FindOne(ctx, bson.M{"_id": s.ns(userID, core.KindProfile)}).Decode(&d)
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("get profile: %w", notFound(err))
	}
	return core.UserProfile{
		Name:                      d.Name,
		Email:                     d.Email,
		PhoneNumber:               d.PhoneNumber,
		ReceiveEmailNotifications: d.ReceiveEmailNotifications,
		ReceivePhoneNotifications: d.ReceivePhoneNotifications,
		LastUpdated:               d.LastUpdated.UTC(),
	}, nil
}

func (s *Store) SaveProfile(ctx context.Context, userID string, p core.UserProfile) (core.UserProfile, error) {
	p.LastUpdated = s.stamp()
	doc := profileDoc{
		NS:                        s.ns(userID, core.KindProfile),
		Name:                      p.Name,
		Email:                     p.Email,
		PhoneNumber:               p.PhoneNumber,
		ReceiveEmailNotifications: p.ReceiveEmailNotifications,
		ReceivePhoneNotifications: p.ReceivePhoneNotifications,
		LastUpdated:               p.LastUpdated,
	}
	_, err := s.db.Collection(profileCollection).ReplaceOne(ctx, bson.M{"_id": doc.NS}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

func (s *Store) CreateAccount(ctx context.Context, a store.Account) (store.Account, error) {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if a.ID == "" {
		a.ID = store.NewID()
	}
	a.CreatedAt = s.stamp()
	_, err := s.db.Collection(accountsCollection).InsertOne(ctx, accountDoc{
		ID:           a.ID,
		Email:        a.Email,
		DisplayName:  a.DisplayName,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.Account{}, fmt.Errorf("account %s: %w", a.Email, store.ErrDuplicate)
		}
		return store.Account{}, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

func (s *Store) AccountByEmail(ctx context.Context, email string) (store.Account, error) {
	return s.findAccount(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (s *Store) AccountByID(ctx context.Context, id string) (store.Account, error) {
	return s.findAccount(ctx, bson.M{"_id": id})
}

func (s *Store) findAccount(ctx context.Context, filter bson.M) (store.Account, error) {
	var d accountDoc
	if err := s.db.Collection(accountsCollection).FindOne(ctx, filter).Decode(&d); err != nil {
		return store.Account{}, fmt.Errorf("find account: %w", notFound(err))
	}
	return store.Account{
		ID:           d.ID,
		Email:        d.Email,
		DisplayName:  d.DisplayName,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
	}, nil
}

func (s *Store) findAll(ctx context.Context, coll string, filter bson.M, opts *options.FindOptionsBuilder, out any) error {
	cursor, err := s.db.Collection(coll).Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// save inserts doc when created, otherwise applies set to the document with
// the given id inside ns. It returns the stored creation time.
func (s *Store) save(ctx context.Context, coll string, created bool, id, ns string, doc any, set bson.M) (time.Time, error) {
	c := s.db.Collection(coll)
	if created {
		if _, err := c.InsertOne(ctx, doc); err != nil {
			return time.Time{}, err
		}
		return createdAtOf(doc), nil
	}
	var stored struct {
		CreatedAt time.Time `bson:"createdAt"`
	}
	err := c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "ns": ns},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		return time.Time{}, notFound(err)
	}
	return stored.CreatedAt.UTC(), nil
}

func createdAtOf(doc any) time.Time {
	switch d := doc.(type) {
	case bankDoc:
		return d.CreatedAt
	case incomeDoc:
		return d.CreatedAt
	case expenseDoc:
		return d.CreatedAt
	default:
		return time.Time{}
	}
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}
