// Package auth is the account provider: sign-up, sign-in, sign-out and
// verification of bearer session tokens.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"pitaka/internal/cache"
	"pitaka/internal/core"
	"pitaka/internal/log"
	"pitaka/internal/store"
)

const (
	MinPasswordLength = 6
	maxPasswordBytes  = 72

	// MaxFailedSignIns within FailureWindow locks an email out until the
	// window expires.
	MaxFailedSignIns = 5
	FailureWindow    = 15 * time.Minute
)

// ProfileStore is where the lazily created profile is written.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (core.UserProfile, error)
	SaveProfile(ctx context.Context, userID string, p core.UserProfile) (core.UserProfile, error)
}

// Session is returned by SignUp and SignIn.
type Session struct {
	Token       string    `json:"token"`
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Identity is the verified owner of a token.
type Identity struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"displayName,omitempty"`
	TokenID   string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
	Seeded    bool      `json:"seeded,omitempty"`
}

// Claims are the JWT claims of a session token.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

type Options struct {
	Issuer string
	Secret []byte
	TTL    time.Duration

	// SeedToken, when set, is accepted as a session for SeedUserID.
	SeedToken  string
	SeedUserID string

	BcryptCost int
	Now        func() time.Time

	// Revoked holds signed-out token ids until they expire.
	Revoked cache.Cache[struct{}]
}

type Service struct {
	accounts store.AccountStore
	profiles ProfileStore
	opts     Options
	failures *cache.LRUCache[int]
	logger   *log.Logger
}

func NewService(accounts store.AccountStore, profiles ProfileStore, opts Options, logger *log.Logger) (*Service, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("auth: secret is required")
	}
	if opts.TTL <= 0 {
		return nil, errors.New("auth: session ttl must be positive")
	}
	if opts.SeedToken != "" && opts.SeedUserID == "" {
		return nil, errors.New("auth: seed token requires a user id")
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Revoked == nil {
		opts.Revoked = cache.NewLRUCacheWithClock[struct{}](10000, opts.TTL, opts.Now)
	}
	if opts.Issuer == "" {
		opts.Issuer = "pitaka"
	}
	return &Service{
		accounts: accounts,
		profiles: profiles,
		opts:     opts,
		failures: cache.NewLRUCacheWithClock[int](10000, FailureWindow, opts.Now),
		logger:   logger.WithComponent(log.ComponentAuth),
	}, nil
}

// Caches returns the caches the service owns so they can be swept.
func (s *Service) Caches() []cache.Cleaner {
	out := []cache.Cleaner{s.failures}
	if c, ok := s.opts.Revoked.(cache.Cleaner); ok {
		out = append(out, c)
	}
	return out
}

// SignUp creates an account and its profile and signs the user in.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (Session, error) {
	email = normalizeEmail(email)
	displayName = strings.TrimSpace(displayName)

	if !core.ValidEmail(email) {
		return Session{}, newError(CodeInvalidEmail, nil)
	}
	if err := checkPassword(password); err != nil {
		return Session{}, err
	}
	if displayName == "" {
		return Session{}, newError(CodeMissingDisplayName, nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	acct, err := s.accounts.CreateAccount(ctx, store.Account{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
	})
	if errors.Is(err, store.ErrDuplicate) {
		return Session{}, newError(CodeEmailInUse, err)
	}
	if err != nil {
		return Session{}, fmt.Errorf("create account: %w", err)
	}

	s.ensureProfile(ctx, acct)
	s.logger.InfoContext(ctx, "Account created", log.FieldUserID, acct.ID, log.FieldOperation, log.OpSignUp)
	return s.issue(acct)
}

// SignIn checks the password and returns a new session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if !core.ValidEmail(email) {
		return Session{}, newError(CodeInvalidEmail, nil)
	}
	if n, _ := s.failures.Get(email); n >= MaxFailedSignIns {
		return Session{}, newError(CodeTooManyRequests, nil)
	}

	acct, err := s.accounts.AccountByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, newError(CodeUserNotFound, nil)
	}
	if err != nil {
		return Session{}, fmt.Errorf("load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		n, _ := s.failures.Get(email)
		s.failures.Set(email, n+1)
		s.logger.WarnContext(ctx, "Sign-in rejected", log.FieldUserID, acct.ID, "failed_attempts", n+1)
		return Session{}, newError(CodeWrongPassword, nil)
	}
	s.failures.Delete(email)

	s.ensureProfile(ctx, acct)
	s.logger.InfoContext(ctx, "Signed in", log.FieldUserID, acct.ID, log.FieldOperation, log.OpSignIn)
	return s.issue(acct)
}

// SignOut revokes token until it would have expired and returns its owner.
// The seeded token cannot be revoked.
func (s *Service) SignOut(ctx context.Context, token string) (Identity, error) {
	id, err := s.Verify(token)
	if err != nil {
		return Identity{}, err
	}
	if !id.Seeded {
		s.opts.Revoked.SetWithTTL(id.TokenID, struct{}{}, id.ExpiresAt.Sub(s.opts.Now()))
	}
	s.logger.InfoContext(ctx, "Signed out", log.FieldUserID, id.UserID, log.FieldOperation, log.OpSignOut)
	return id, nil
}

// Verify returns the identity behind a bearer token.
func (s *Service) Verify(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, newError(CodeInvalidCredential, errors.New("missing token"))
	}
	if s.opts.SeedToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.SeedToken)) == 1 {
		return Identity{UserID: s.opts.SeedUserID, Seeded: true}, nil
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.opts.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.opts.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.opts.Now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return Identity{}, newError(CodeSessionExpired, err)
	}
	if err != nil {
		return Identity{}, newError(CodeInvalidCredential, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return Identity{}, newError(CodeInvalidCredential, errors.New("token without subject"))
	}
	if _, revoked := s.opts.Revoked.Get(claims.ID); revoked {
		return Identity{}, newError(CodeSessionExpired, errors.New("token revoked"))
	}

	return Identity{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *Service) issue(acct store.Account) (Session, error) {
	now := s.opts.Now()
	expires := now.Add(s.opts.TTL)
	claims := Claims{
		Email: acct.Email,
		Name:  acct.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        store.NewID(),
			Issuer:    s.opts.Issuer,
			Subject:   acct.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.Secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign token: %w", err)
	}
	return Session{
		Token:       signed,
		UserID:      acct.ID,
		Email:       acct.Email,
		DisplayName: acct.DisplayName,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}

// ensureProfile creates the profile on first sign-in. Failures are logged;
// the user can still save a profile later.
func (s *Service) ensureProfile(ctx context.Context, acct store.Account) {
	if s.profiles == nil {
		return
	}
	_, err := s.profiles.GetProfile(ctx, acct.ID)
	if err == nil {
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		s.logger.ErrorContext(ctx, "Failed to load profile", log.FieldUserID, acct.ID, log.FieldError, err)
		return
	}
	_, err = s.profiles.SaveProfile(ctx, acct.ID, core.UserProfile{
		Name:  acct.DisplayName,
		Email: acct.Email,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create profile", log.FieldUserID, acct.ID, log.FieldError, err)
	}
}

func checkPassword(p string) error {
	if len(p) < MinPasswordLength || len(p) > maxPasswordBytes {
		return newError(CodeWeakPassword, nil)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
