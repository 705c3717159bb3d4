package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"pitaka/internal/cache"
	"pitaka/internal/config"
	"pitaka/internal/export"
	"pitaka/internal/log"
	ports "pitaka/internal/sheets"
)

var _ ports.HistoryWriter = (*Client)(nil)

// tabCacheTTL bounds how long a tab id is trusted before the spreadsheet is
// read again; tabs deleted by hand are recreated after at most this long.
const tabCacheTTL = 10 * time.Minute

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	tabs          *cache.LRUCache[int64]
	logger        *log.Logger
}

// New wraps an initialized Sheets service.
func New(svc *gsheet.Service, spreadsheetID string, logger *log.Logger) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		tabs:          cache.NewLRUCache[int64](1000, tabCacheTTL),
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

// NewFromConfig builds a client from the configured credentials: a service
// account when one is set, otherwise an OAuth client and user token.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.GoogleSpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	opts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return New(svc, cfg.GoogleSpreadsheetID, logger), nil
}

func clientOptions(ctx context.Context, cfg *config.Config) ([]goption.ClientOption, error) {
	saJSON, err := inlineOrFile(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile, "service account")
	if err != nil {
		return nil, err
	}
	if len(saJSON) > 0 {
		return []goption.ClientOption{
			goption.WithCredentialsJSON(saJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}, nil
	}

	clientJSON, err := inlineOrFile(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile, "oauth client")
	if err != nil {
		return nil, err
	}
	tokenJSON, err := inlineOrFile(cfg.GoogleOAuthTokenJSON, cfg.GoogleOAuthTokenFile, "oauth token")
	if err != nil {
		return nil, err
	}
	if len(clientJSON) == 0 || len(tokenJSON) == 0 {
		return nil, errors.New("missing Google credentials (set a service account, or an OAuth client and token)")
	}

	oauthCfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}

	// the token source refreshes through the pooled client
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	return []goption.ClientOption{goption.WithHTTPClient(oauthCfg.Client(ctx, &tok))}, nil
}

func inlineOrFile(inline, path, what string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if path = strings.TrimSpace(path); path == "" {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s file: %w", what, err)
	}
	return b, nil
}

// newHTTPClientWithPooling creates an HTTP client tuned for the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// WriteHistory creates tab when missing, clears it and writes the sections
// from A1 in the CSV layout.
func (c *Client) WriteHistory(ctx context.Context, tab string, sections []export.Section) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}

	quoted := quoteTab(tab)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, quoted, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		c.tabs.Delete(tab)
		return fmt.Errorf("clear %s: %w", tab, err)
	}

	grid := export.Grid(sections)
	values := make([][]interface{}, len(grid))
	for i, row := range grid {
		values[i] = make([]interface{}, len(row))
		for j, v := range row {
			values[i][j] = sheetValue(v)
		}
	}

	vr := &gsheet.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, quoted+"!A1", vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", tab, err)
	}

	c.logger.InfoContext(ctx, "History mirrored", log.FieldSheetTab, tab, "rows", len(values))
	return nil
}

func (c *Client) ensureTab(ctx context.Context, tab string) error {
	if _, ok := c.tabs.Get(tab); ok {
		return nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			c.tabs.Set(tab, sh.Properties.SheetId)
			return nil
		}
	}

	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add tab %s: %w", tab, err)
	}

	var id int64
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		id = resp.Replies[0].AddSheet.Properties.SheetId
	}
	c.tabs.Set(tab, id)
	c.logger.InfoContext(ctx, "Created history tab", log.FieldSheetTab, tab)
	return nil
}

// quoteTab wraps a sheet title for A1 notation.
func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

func sheetValue(v any) interface{} {
	if d, ok := v.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return export.CellString(v)
}
