package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"pitaka/internal/auth"
	"pitaka/internal/core"
	"pitaka/internal/export"
	"pitaka/internal/log"
	"pitaka/internal/middleware/ratelimit"
	"pitaka/internal/middleware/security"
	"pitaka/internal/middleware/trace"
	"pitaka/internal/subscription"
)

// RecordService is the record API the handlers call.
type RecordService interface {
	ListBanks(ctx context.Context, userID string) ([]core.BankAccount, error)
	ListIncomes(ctx context.Context, userID string, p core.Period) ([]core.IncomeEntry, decimal.Decimal, error)
	ListExpenses(ctx context.Context, userID string, p core.Period) ([]core.ExpenseEntry, decimal.Decimal, error)
	GetSalary(ctx context.Context, userID string) (*core.SalaryDetails, error)
	GetProfile(ctx context.Context, userID string) (core.UserProfile, error)

	SaveBank(ctx context.Context, userID string, b core.BankAccount) (core.BankAccount, error)
	SaveIncome(ctx context.Context, userID string, in core.IncomeEntry) (core.IncomeEntry, error)
	SaveExpense(ctx context.Context, userID string, e core.ExpenseEntry) (core.ExpenseEntry, error)
	DeleteExpense(ctx context.Context, userID, id string) error
	SaveSalary(ctx context.Context, userID string, sd core.SalaryDetails) (core.SalaryDetails, error)
	SaveProfile(ctx context.Context, userID string, p core.UserProfile) (core.UserProfile, error)

	Dashboard(ctx context.Context, userID string) (core.Summary, error)
	History(ctx context.Context, userID string) ([]export.Section, error)
	Ping(ctx context.Context) error
}

// Authenticator issues and checks session tokens.
type Authenticator interface {
	SignUp(ctx context.Context, email, password, displayName string) (auth.Session, error)
	SignIn(ctx context.Context, email, password string) (auth.Session, error)
	SignOut(ctx context.Context, token string) (auth.Identity, error)
	Verify(token string) (auth.Identity, error)
}

// Subscriber registers stream listeners.
type Subscriber interface {
	SubscribeSession(ctx context.Context, userID, sessionID string, kind core.RecordKind, listener subscription.Listener) (*subscription.Subscription, error)
	CancelSession(userID, sessionID string) int
	Count(userID string) int
}

// Options configures NewServer.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	CurrencySymbol     string
}

type Server struct {
	http.Server
	records  RecordService
	auth     Authenticator
	hub      Subscriber
	currency core.CurrencyFormatter
	logger   *log.Logger

	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware
	upgrader         websocket.Upgrader

	appMetrics *appMetrics

	// streams ends every open websocket on Shutdown; hijacked
	// connections are not tracked by http.Server.
	streams     context.Context
	stopStreams context.CancelFunc

	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime        time.Time
	recordsSaved  int64
	exports       int64
	streamClients int64
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(opts Options, records RecordService, authn Authenticator, hub Subscriber, logger *log.Logger) *Server {
	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		records:          records,
		auth:             authn,
		hub:              hub,
		currency:         core.NewCurrencyFormatter(opts.CurrencySymbol),
		logger:           logger.WithComponent(log.ComponentHTTP),
		securityDetector: security.NewDetector(),
		rateLimiter:      ratelimit.NewLimiter(rlConfig),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		appMetrics: &appMetrics{uptime: time.Now()},
	}
	s.streams, s.stopStreams = context.WithCancel(context.Background())
	s.traceMiddleware = trace.NewMiddleware(logger.WithComponent(log.ComponentHTTP), s.securityDetector.ExtractClientIP)

	api := http.NewServeMux()
	api.HandleFunc("POST /api/auth/signup", s.handleSignUp)
	api.HandleFunc("POST /api/auth/signin", s.handleSignIn)
	api.HandleFunc("POST /api/auth/signout", s.handleSignOut)
	api.HandleFunc("GET /api/session", s.requireAuth(s.handleSession))

	api.HandleFunc("GET /api/banks", s.requireAuth(s.handleListBanks))
	api.HandleFunc("POST /api/banks", s.requireAuth(s.handleSaveBank))
	api.HandleFunc("PUT /api/banks/{id}", s.requireAuth(s.handleSaveBank))

	api.HandleFunc("GET /api/incomes", s.requireAuth(s.handleListIncomes))
	api.HandleFunc("POST /api/incomes", s.requireAuth(s.handleSaveIncome))
	api.HandleFunc("PUT /api/incomes/{id}", s.requireAuth(s.handleSaveIncome))

	api.HandleFunc("GET /api/expenses", s.requireAuth(s.handleListExpenses))
	api.HandleFunc("POST /api/expenses", s.requireAuth(s.handleSaveExpense))
	api.HandleFunc("PUT /api/expenses/{id}", s.requireAuth(s.handleSaveExpense))
	api.HandleFunc("DELETE /api/expenses/{id}", s.requireAuth(s.handleDeleteExpense))
	api.HandleFunc("GET /api/expenses/categories", s.handleExpenseCategories)

	api.HandleFunc("GET /api/salary", s.requireAuth(s.handleGetSalary))
	api.HandleFunc("PUT /api/salary", s.requireAuth(s.handleSaveSalary))
	api.HandleFunc("POST /api/salary/preview", s.requireAuth(s.handleSalaryPreview))

	api.HandleFunc("GET /api/profile", s.requireAuth(s.handleGetProfile))
	api.HandleFunc("PUT /api/profile", s.requireAuth(s.handleSaveProfile))

	api.HandleFunc("GET /api/dashboard", s.requireAuth(s.handleDashboard))
	api.HandleFunc("GET /api/export/csv", s.requireAuth(s.handleExportCSV))
	api.HandleFunc("GET /api/export/xlsx", s.requireAuth(s.handleExportXLSX))

	api.HandleFunc("GET /api/stream", s.requireAuth(s.handleStream))
	api.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Not found").Write(w)
	})

	limited := s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)(api)

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", s.handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	root.HandleFunc("GET /metrics", s.handleMetrics)
	root.Handle("/api/", limited)
	root.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Not found").Write(w)
	})

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	var handler http.Handler = root
	handler = s.securityDetector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// requireAuth resolves the bearer token before calling next.
func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, auth.Identity)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			UnauthorizedError("Please sign in to continue.").Write(w)
			return
		}
		id, err := s.auth.Verify(token)
		if err != nil {
			code := auth.CodeOf(err)
			UnauthorizedError(auth.Message(err)).
				Body(ErrorBody{Error: auth.Message(err), Code: string(code)}).
				Write(w)
			return
		}

		ctx := withIdentity(r.Context(), id)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, id.UserID))
		next(w, r.WithContext(ctx), id)
	}
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

func (s *Server) recordSaved() {
	atomic.AddInt64(&s.appMetrics.recordsSaved, 1)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		s.stopStreams()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
