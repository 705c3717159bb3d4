// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Bodies may be JSON objects or form-encoded; handlers read fields through
// RequestBodyParser so both encodings behave the same.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"pitaka/internal/core"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

var errBodyTooLarge = errors.New("request body too large")

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]interface{}
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}

	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]interface{})
		if err := dec.Decode(&p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}
	if trimmed[0] == '[' {
		p.err = errors.New("expected a JSON object")
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a trimmed, sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// Value returns the field as decoded: json.Number, string, bool or nil.
func (p *RequestBodyParser) Value(key string) any {
	if p.jsonData != nil {
		return p.jsonData[key]
	}
	if p.formData != nil && p.formData.Has(key) {
		return p.formData.Get(key)
	}
	return nil
}

// Has reports whether the field was sent at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// Amount parses the field strictly; see core.ParseAmount.
func (p *RequestBodyParser) Amount(key string, allowNegative bool) (decimal.Decimal, error) {
	return core.ParseAmount(p.Get(key), allowNegative)
}

// Date parses the field as YYYY-MM-DD or RFC 3339.
func (p *RequestBodyParser) Date(key string) (core.Date, error) {
	v := p.Get(key)
	if v == "" {
		return core.Date{}, core.ErrInvalidDate
	}
	return core.ParseDate(v)
}

// Bool accepts JSON booleans and the usual form spellings.
func (p *RequestBodyParser) Bool(key string) bool {
	switch strings.ToLower(p.Get(key)) {
	case "true", "1", "on", "yes":
		return true
	default:
		return false
	}
}

// Int parses the field as an integer, returning def when absent or invalid.
func (p *RequestBodyParser) Int(key string, def int) int {
	if n, err := strconv.Atoi(p.Get(key)); err == nil {
		return n
	}
	return def
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParsePeriodParam reads ?period=, defaulting to all.
func ParsePeriodParam(query url.Values) (core.Period, error) {
	return core.ParsePeriod(query.Get("period"))
}

// ParseKindsParam reads ?kinds=banks,incomes; empty means every kind.
func ParseKindsParam(query url.Values) ([]core.RecordKind, error) {
	raw := strings.TrimSpace(query.Get("kinds"))
	if raw == "" {
		return []core.RecordKind{core.KindBanks, core.KindIncomes, core.KindExpenses, core.KindSalary, core.KindProfile}, nil
	}
	var kinds []core.RecordKind
	seen := map[core.RecordKind]bool{}
	for _, part := range strings.Split(raw, ",") {
		k := core.RecordKind(strings.TrimSpace(strings.ToLower(part)))
		if !k.IsValid() {
			return nil, errors.New("unknown record kind " + strconv.Quote(part))
		}
		if !seen[k] {
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}
