package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"pitaka/internal/core"
)

func newParser(t *testing.T, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse(%q): %v", body, err)
	}
	return p
}

func TestRequestBodyParser_JSONAndForm(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		isJSON bool
	}{
		{"json", `{"name":"  Rent\u0007 ","amount":12.5,"paid":true,"days":"2"}`, true},
		{"form", "name=++Rent%07+&amount=12.5&paid=on&days=2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(t, tt.body)

			if p.IsJSON() != tt.isJSON {
				t.Errorf("IsJSON = %v, want %v", p.IsJSON(), tt.isJSON)
			}
			if got := p.Get("name"); got != "Rent" {
				t.Errorf("Get(name) = %q, want %q", got, "Rent")
			}
			amount, err := p.Amount("amount", false)
			if err != nil || amount.String() != "12.5" {
				t.Errorf("Amount = %v, %v", amount, err)
			}
			if !p.Bool("paid") {
				t.Error("Bool(paid) = false")
			}
			if got := p.Int("days", 0); got != 2 {
				t.Errorf("Int(days) = %d", got)
			}
			if p.Has("missing") || p.Get("missing") != "" {
				t.Error("missing field reported as present")
			}
			if got := p.Int("missing", 7); got != 7 {
				t.Errorf("Int default = %d", got)
			}
		})
	}
}

func TestRequestBodyParser_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"json array", `[1,2]`},
		{"broken json", `{"name":`},
		{"too large", `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if err := NewRequestBodyParser(req).Parse(); err == nil {
				t.Error("Parse() = nil, want error")
			}
		})
	}
}

func TestRequestBodyParser_Date(t *testing.T) {
	p := newParser(t, `{"d":"2024-03-02","ts":"2024-03-02T10:00:00Z","bad":"02/03/2024"}`)

	d, err := p.Date("d")
	if err != nil || d.String() != "2024-03-02" {
		t.Errorf("Date(d) = %v, %v", d, err)
	}
	if ts, err := p.Date("ts"); err != nil || ts.String() != "2024-03-02" {
		t.Errorf("Date(ts) = %v, %v", ts, err)
	}
	if _, err := p.Date("bad"); err == nil {
		t.Error("Date(bad) = nil error")
	}
	if _, err := p.Date("missing"); err == nil {
		t.Error("Date(missing) = nil error")
	}
}

func TestParseKindsParam(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    []core.RecordKind
		wantErr bool
	}{
		{"default is every kind", "", []core.RecordKind{core.KindBanks, core.KindIncomes, core.KindExpenses, core.KindSalary, core.KindProfile}, false},
		{"subset", "kinds=expenses,Banks", []core.RecordKind{core.KindExpenses, core.KindBanks}, false},
		{"duplicates collapse", "kinds=salary,salary", []core.RecordKind{core.KindSalary}, false},
		{"unknown kind", "kinds=banks,pets", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseKindsParam(q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("kinds = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("kinds[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParsePeriodParam(t *testing.T) {
	tests := []struct {
		query   string
		want    core.Period
		wantErr bool
	}{
		{"", core.PeriodAll, false},
		{"period=week", core.PeriodWeek, false},
		{"period=YEAR", core.PeriodYear, false},
		{"period=fortnight", "", true},
	}

	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		got, err := ParsePeriodParam(q)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParsePeriodParam(%q) = %q, %v", tt.query, got, err)
		}
	}
}
