package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"pitaka/internal/log"
	"pitaka/internal/store"
	"pitaka/internal/store/memory"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestService(t *testing.T, mutate func(*Options)) (*Service, *memory.Store, *clock) {
	t.Helper()
	c := &clock{t: time.Now().Truncate(time.Second)}
	st := memory.New()
	opts := Options{
		Secret:     []byte("0123456789abcdef0123456789abcdef"),
		TTL:        time.Hour,
		BcryptCost: bcrypt.MinCost,
		Now:        c.Now,
	}
	if mutate != nil {
		mutate(&opts)
	}
	svc, err := NewService(st, st, opts, log.New(log.Config{Level: slog.LevelError, Output: io.Discard}))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, st, c
}

func TestSignUpValidation(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name                     string
		email, password, display string
		want                     Code
	}{
		{"bad email", "nope", "secret1", "Ana", CodeInvalidEmail},
		{"short password", "ana@example.com", "12345", "Ana", CodeWeakPassword},
		{"missing name", "ana@example.com", "secret1", "  ", CodeMissingDisplayName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignUp(ctx, tt.email, tt.password, tt.display)
			if CodeOf(err) != tt.want {
				t.Fatalf("code = %q, want %q (err %v)", CodeOf(err), tt.want, err)
			}
		})
	}
}

func TestSignUpCreatesProfileAndRejectsDuplicate(t *testing.T) {
	svc, st, _ := newTestService(t, nil)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, " Ana@Example.com ", "secret1", "Ana Cruz")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if sess.Email != "ana@example.com" || sess.UserID == "" || sess.Token == "" {
		t.Fatalf("unexpected session %+v", sess)
	}

	p, err := st.GetProfile(ctx, sess.UserID)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if p.Name != "Ana Cruz" || p.Email != "ana@example.com" {
		t.Fatalf("unexpected profile %+v", p)
	}

	_, err = svc.SignUp(ctx, "ana@example.com", "secret2", "Other")
	if CodeOf(err) != CodeEmailInUse {
		t.Fatalf("code = %q, want %q", CodeOf(err), CodeEmailInUse)
	}
}

func TestSignInAndVerify(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	created, err := svc.SignUp(ctx, "ana@example.com", "secret1", "Ana")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	if _, err := svc.SignIn(ctx, "missing@example.com", "secret1"); CodeOf(err) != CodeUserNotFound {
		t.Fatalf("code = %q", CodeOf(err))
	}
	if _, err := svc.SignIn(ctx, "ana@example.com", "wrong!"); CodeOf(err) != CodeWrongPassword {
		t.Fatalf("code = %q", CodeOf(err))
	}

	sess, err := svc.SignIn(ctx, "ANA@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	id, err := svc.Verify(sess.Token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UserID != created.UserID || id.Email != "ana@example.com" || id.Name != "Ana" {
		t.Fatalf("unexpected identity %+v", id)
	}
}

func TestSignInLazilyCreatesMissingProfile(t *testing.T) {
	svc, st, _ := newTestService(t, nil)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	acct, err := st.CreateAccount(ctx, store.Account{Email: "ben@example.com", DisplayName: "Ben", PasswordHash: string(hash)})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if _, err := st.GetProfile(ctx, acct.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected no profile, got %v", err)
	}

	if _, err := svc.SignIn(ctx, "ben@example.com", "secret1"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if p, err := st.GetProfile(ctx, acct.ID); err != nil || p.Name != "Ben" {
		t.Fatalf("profile = %+v, err %v", p, err)
	}
}

func TestSignInThrottlesFailures(t *testing.T) {
	svc, _, c := newTestService(t, nil)
	ctx := context.Background()
	if _, err := svc.SignUp(ctx, "ana@example.com", "secret1", "Ana"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	for i := 0; i < MaxFailedSignIns; i++ {
		if _, err := svc.SignIn(ctx, "ana@example.com", "bad-pass"); CodeOf(err) != CodeWrongPassword {
			t.Fatalf("attempt %d: code = %q", i, CodeOf(err))
		}
	}
	if _, err := svc.SignIn(ctx, "ana@example.com", "secret1"); CodeOf(err) != CodeTooManyRequests {
		t.Fatalf("code = %q, want %q", CodeOf(err), CodeTooManyRequests)
	}

	c.Advance(FailureWindow)
	if _, err := svc.SignIn(ctx, "ana@example.com", "secret1"); err != nil {
		t.Fatalf("SignIn after window: %v", err)
	}
}

func TestSignOutRevokesToken(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, "ana@example.com", "secret1", "Ana")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	id, err := svc.SignOut(ctx, sess.Token)
	if err != nil || id.UserID != sess.UserID {
		t.Fatalf("SignOut = %+v, %v", id, err)
	}
	if _, err := svc.Verify(sess.Token); CodeOf(err) != CodeSessionExpired {
		t.Fatalf("code = %q, want %q", CodeOf(err), CodeSessionExpired)
	}
}

func TestVerifyExpiredAndTampered(t *testing.T) {
	svc, _, c := newTestService(t, nil)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, "ana@example.com", "secret1", "Ana")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, err := svc.Verify(sess.Token + "x"); CodeOf(err) != CodeInvalidCredential {
		t.Fatalf("tampered: code = %q", CodeOf(err))
	}
	if _, err := svc.Verify(""); CodeOf(err) != CodeInvalidCredential {
		t.Fatalf("empty: code = %q", CodeOf(err))
	}

	c.Advance(2 * time.Hour)
	if _, err := svc.Verify(sess.Token); CodeOf(err) != CodeSessionExpired {
		t.Fatalf("expired: code = %q", CodeOf(err))
	}

	other, _, _ := newTestService(t, func(o *Options) { o.Secret = []byte("another-secret-another-secret!!!") })
	fresh, _ := svc.SignIn(ctx, "ana@example.com", "secret1")
	if _, err := other.Verify(fresh.Token); CodeOf(err) != CodeInvalidCredential {
		t.Fatalf("foreign secret: code = %q", CodeOf(err))
	}
}

func TestSeededToken(t *testing.T) {
	svc, _, _ := newTestService(t, func(o *Options) {
		o.SeedToken = "seed-token"
		o.SeedUserID = "demo"
	})

	id, err := svc.Verify("seed-token")
	if err != nil || id.UserID != "demo" || !id.Seeded {
		t.Fatalf("Verify = %+v, %v", id, err)
	}
	if _, err := svc.SignOut(context.Background(), "seed-token"); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := svc.Verify("seed-token"); err != nil {
		t.Fatalf("seeded token should survive sign-out: %v", err)
	}
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService(memory.New(), nil, Options{TTL: time.Hour}, log.New(log.Config{Output: io.Discard}))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestMessage(t *testing.T) {
	if got := Message(newError(CodeWrongPassword, nil)); got != "Incorrect password." {
		t.Fatalf("got %q", got)
	}
	if got := Message(errors.New("disk full")); got != GenericMessage {
		t.Fatalf("got %q", got)
	}
	wrapped := errors.Join(errors.New("ctx"), newError(CodeEmailInUse, nil))
	if CodeOf(wrapped) != CodeEmailInUse {
		t.Fatal("CodeOf should see through wrapping")
	}
}
