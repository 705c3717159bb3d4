// Command oauth-init runs the OAuth consent flow once and stores the token
// the history mirror uses when no service account is configured.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"

	"pitaka/internal/cli"
	"pitaka/internal/config"
	"pitaka/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentSheets)

	cfg := config.Load()
	if err := run(cfg, logger); err != nil {
		logger.Error("OAuth setup failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	b, err := clientCredentials(cfg)
	if err != nil {
		return err
	}

	oauthCfg, err := google.ConfigFromJSON(b, sheets.SpreadsheetsScope)
	if err != nil {
		return fmt.Errorf("oauth config: %w", err)
	}

	// The OAuth client must list this redirect URI.
	redirectPort := os.Getenv("OAUTH_REDIRECT_PORT")
	if redirectPort == "" {
		redirectPort = "8085"
	}
	oauthCfg.RedirectURL = "http://localhost:" + redirectPort + "/callback"

	state := uuid.NewString()

	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	srv := &http.Server{Addr: ":" + redirectPort, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		if errStr := r.URL.Query().Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		if r.URL.Query().Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		select {
		case codeCh <- r.URL.Query().Get("code"):
		default:
		}
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Callback server failed", log.FieldError, err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	fmt.Printf("Open this URL to authorize:\n%s\n", oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	var code string
	select {
	case code = <-codeCh:
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("authorization timed out")
	case <-sig:
		return fmt.Errorf("interrupted")
	}

	tok, err := oauthCfg.Exchange(context.Background(), code)
	if err != nil {
		return fmt.Errorf("token exchange: %w", err)
	}

	outFile := cfg.GoogleOAuthTokenFile
	if outFile == "" {
		outFile = "token.json"
	}
	f, err := os.OpenFile(outFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	logger.Info("Saved OAuth token", "path", outFile)
	return nil
}

func clientCredentials(cfg *config.Config) ([]byte, error) {
	switch {
	case cfg.GoogleOAuthClientJSON != "":
		return []byte(cfg.GoogleOAuthClientJSON), nil
	case cfg.GoogleOAuthClientFile != "":
		b, err := os.ReadFile(cfg.GoogleOAuthClientFile)
		if err != nil {
			return nil, fmt.Errorf("read client file: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}
}
