package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"pitaka/internal/config"
	"pitaka/internal/export"
	"pitaka/internal/log"
)

type fakeSheets struct {
	mu      sync.Mutex
	titles  []string
	gets    int
	adds    int
	cleared []string
	written map[string][][]interface{}
	input   string
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sheet-1"):
		f.gets++
		var ss gsheet.Spreadsheet
		for i, t := range f.titles {
			ss.Sheets = append(ss.Sheets, &gsheet.Sheet{Properties: &gsheet.SheetProperties{Title: t, SheetId: int64(i)}})
		}
		_ = json.NewEncoder(w).Encode(ss)
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		title := req.Requests[0].AddSheet.Properties.Title
		f.titles = append(f.titles, title)
		f.adds++
		_ = json.NewEncoder(w).Encode(gsheet.BatchUpdateSpreadsheetResponse{
			Replies: []*gsheet.Response{{AddSheet: &gsheet.AddSheetResponse{
				Properties: &gsheet.SheetProperties{Title: title, SheetId: int64(len(f.titles))},
			}}},
		})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.cleared = append(f.cleared, path)
		_, _ = io.WriteString(w, "{}")
	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		_, rng, _ := strings.Cut(path, "/values/")
		f.written[rng] = vr.Values
		f.input = r.URL.Query().Get("valueInputOption")
		_, _ = io.WriteString(w, "{}")
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func newFakeClient(t *testing.T, titles ...string) (*Client, *fakeSheets) {
	t.Helper()
	fake := &fakeSheets{titles: titles, written: map[string][][]interface{}{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return New(svc, "sheet-1", log.New(log.Config{Output: io.Discard})), fake
}

func sections() []export.Section {
	return []export.Section{
		{Title: "Expenses", Header: []string{"Name", "Amount"}, Rows: [][]any{{"Rent", decimal.NewFromInt(500)}}},
		{Title: "Incomes", Header: []string{"Business"}},
	}
}

func TestWriteHistoryCreatesTabOnce(t *testing.T) {
	c, fake := newFakeClient(t, "Sheet1")
	ctx := context.Background()

	if err := c.WriteHistory(ctx, "history-u1", sections()); err != nil {
		t.Fatalf("WriteHistory: %v", err)
	}
	if err := c.WriteHistory(ctx, "history-u1", sections()); err != nil {
		t.Fatalf("WriteHistory: %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.adds != 1 || fake.gets != 1 {
		t.Fatalf("adds=%d gets=%d, want 1 and 1", fake.adds, fake.gets)
	}
	if len(fake.cleared) != 2 {
		t.Fatalf("cleared %d times", len(fake.cleared))
	}
	if fake.input != "RAW" {
		t.Fatalf("valueInputOption = %q", fake.input)
	}

	rows, ok := fake.written["'history-u1'!A1"]
	if !ok {
		t.Fatalf("nothing written at A1: %v", fake.written)
	}
	if len(rows) != 6 {
		t.Fatalf("got %d rows, want 6", len(rows))
	}
	if rows[0][0] != "Expenses" || rows[2][0] != "Rent" || rows[2][1] != float64(500) {
		t.Fatalf("unexpected rows %v", rows)
	}
	if len(rows[3]) != 0 || rows[4][0] != "Incomes" {
		t.Fatalf("expected blank separator then next section, got %v", rows[3:])
	}
}

func TestWriteHistoryReusesExistingTab(t *testing.T) {
	c, fake := newFakeClient(t, "history-u2")
	if err := c.WriteHistory(context.Background(), "history-u2", sections()); err != nil {
		t.Fatalf("WriteHistory: %v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.adds != 0 {
		t.Fatalf("existing tab should not be re-added")
	}
}

func TestWriteHistoryWithoutService(t *testing.T) {
	c := &Client{}
	if err := c.WriteHistory(context.Background(), "t", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestQuoteTab(t *testing.T) {
	if got := quoteTab("Ana's"); got != "'Ana''s'" {
		t.Fatalf("quoteTab = %q", got)
	}
}

func TestNewFromConfig(t *testing.T) {
	logger := log.New(log.Config{Output: io.Discard})
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{"missing spreadsheet", config.Config{}, "missing GOOGLE_SPREADSHEET_ID"},
		{"missing credentials", config.Config{GoogleSpreadsheetID: "id"}, "missing Google credentials"},
		{"bad oauth client", config.Config{
			GoogleSpreadsheetID:   "id",
			GoogleOAuthClientJSON: "invalid-json",
			GoogleOAuthTokenJSON:  `{"access_token":"test"}`,
		}, "oauth config"},
		{"missing token file", config.Config{
			GoogleSpreadsheetID:   "id",
			GoogleOAuthClientJSON: "{}",
			GoogleOAuthTokenFile:  "/does/not/exist.json",
		}, "read oauth token file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFromConfig(ctx, &tt.cfg, logger)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
