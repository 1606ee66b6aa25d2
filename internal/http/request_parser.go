package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"wealthwise/internal/core"
	"wealthwise/internal/stats"
	"wealthwise/internal/storage"
)

const maxBodyBytes = 1 << 20

// badRequestError marks bodies that could not be decoded at all.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

// RequestBodyParser reads a JSON object or form-encoded body once and
// exposes its fields as trimmed strings.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = &badRequestError{msg: "request body too large"}
	}
	return p
}

// Parse decodes JSON when the body looks like an object, form data otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}
	if trimmed[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = &badRequestError{msg: "malformed JSON body"}
			return p.err
		}
		return nil
	}

	form, err := url.ParseQuery(string(trimmed))
	if err != nil {
		p.err = &badRequestError{msg: "malformed form body"}
		return p.err
	}
	p.formData = form
	return nil
}

// Get returns the named field, or "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput trims and drops control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

// ParseDraft reads the transaction fields shared by create and update.
// A missing date is left zero and filled in by the ledger.
func ParseDraft(p *RequestBodyParser) (core.Draft, error) {
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Draft{}, err
	}
	category, err := core.ParseCategory(p.Get("category"))
	if err != nil {
		return core.Draft{}, err
	}
	typ, err := core.ParseTransactionType(p.Get("type"))
	if err != nil {
		return core.Draft{}, err
	}
	d := core.Draft{
		Amount:      amount,
		Category:    category,
		Type:        typ,
		Description: p.Get("description"),
	}
	if raw := p.Get("date"); raw != "" {
		date, err := storage.ParseDate(raw)
		if err != nil {
			return core.Draft{}, &core.ValidationError{Field: "date", Reason: "must be an ISO-8601 date"}
		}
		d.Date = date
	}
	return d, nil
}

// HistoryQuery is the filter and ordering of the transaction list.
type HistoryQuery struct {
	Type  stats.TypeFilter
	Sort  stats.SortKey
	Order stats.Order
}

func ParseHistoryQuery(q url.Values) (HistoryQuery, error) {
	var (
		h   HistoryQuery
		err error
	)
	if h.Type, err = stats.ParseTypeFilter(q.Get("type")); err != nil {
		return HistoryQuery{}, err
	}
	if h.Sort, err = stats.ParseSortKey(q.Get("sort")); err != nil {
		return HistoryQuery{}, err
	}
	if h.Order, err = stats.ParseOrder(q.Get("order")); err != nil {
		return HistoryQuery{}, err
	}
	return h, nil
}

// ParsePeriodParam parses ?period=, using def when it is absent.
func ParsePeriodParam(q url.Values, def stats.Period) (stats.Period, error) {
	if strings.TrimSpace(q.Get("period")) == "" {
		return def, nil
	}
	return stats.ParsePeriod(q.Get("period"))
}

func isBadRequest(err error) bool {
	var br *badRequestError
	return errors.As(err, &br)
}
