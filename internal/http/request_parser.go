// Request parsing: query filters and mutation bodies. Mutating endpoints
// accept JSON bodies or form-encoded data alike.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tripledger/internal/aggregate"
	"tripledger/internal/core"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

// ParseTripFilter reads plate/from/to query parameters. Dates are
// normalized to YYYY-MM-DD; an unparseable date is an error.
func ParseTripFilter(query url.Values) (aggregate.TripFilter, error) {
	f := aggregate.TripFilter{
		Plate: sanitizeInput(query.Get("plate")),
	}
	if f.Plate != "" {
		f.Plate = core.NormalizePlate(f.Plate)
	}
	for _, p := range []struct {
		name string
		dst  *string
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := strings.TrimSpace(query.Get(p.name))
		if raw == "" {
			continue
		}
		d, err := core.NormalizeDate(raw)
		if err != nil {
			return aggregate.TripFilter{}, fmt.Errorf("%s: %w", p.name, err)
		}
		*p.dst = d
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return aggregate.TripFilter{}, errors.New("from is after to")
	}
	return f, nil
}

// ParseLimit reads a positive "limit" query parameter, falling back to def.
func ParseLimit(query url.Values, def int) int {
	if v := strings.TrimSpace(query.Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errors.New("request body too large")
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
		p.jsonData = make(map[string]interface{})
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
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

// Has reports whether key was present in the body, even if empty.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// EntryIDs reads a list of entry identifiers. JSON bodies carry an array of
// numbers or strings; form bodies repeat the key or use a comma-separated list.
func (p *RequestBodyParser) EntryIDs(key string) []core.EntryID {
	var raw []string
	switch {
	case p.jsonData != nil:
		switch v := p.jsonData[key].(type) {
		case []interface{}:
			for _, item := range v {
				raw = append(raw, stringValue(item))
			}
		case nil:
		default:
			raw = strings.Split(stringValue(v), ",")
		}
	case p.formData != nil:
		for _, v := range p.formData[key] {
			raw = append(raw, strings.Split(v, ",")...)
		}
	}

	ids := make([]core.EntryID, 0, len(raw))
	for _, s := range raw {
		if s = sanitizeInput(s); s != "" {
			ids = append(ids, core.EntryID(s))
		}
	}
	return ids
}

// TripKey reads a plate and date pair under the given key names.
func (p *RequestBodyParser) TripKey(plateKey, dateKey string) core.TripKey {
	return core.TripKey{Plate: p.Get(plateKey), Date: p.Get(dateKey)}
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

// ParseBodyOrFail parses the request body and returns an error response on failure.
func ParseBodyOrFail(r *http.Request) (*RequestBodyParser, *JSONResponseBuilder) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return nil, BadRequestError("malformed request body")
	}
	return p, nil
}

// sanitizeInput drops control characters other than tab, newline and
// carriage return, then trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
