// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Mutating endpoints accept either JSON or form-encoded bodies.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"spese/internal/core"
)

// maxBodyBytes bounds request bodies of mutating endpoints.
const maxBodyBytes = 16 << 10

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
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

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("invalid JSON body: %w", err)
			p.jsonData = nil
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
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

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
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

// ParseDraft builds a transaction draft from the parsed body. A missing
// category falls back to core.DefaultCategory. Field problems are returned
// as *core.ValidationError.
func ParseDraft(p *RequestBodyParser) (core.Draft, error) {
	d := core.Draft{Title: p.Get("title"), Category: core.DefaultCategory()}
	if d.Title == "" {
		return core.Draft{}, &core.ValidationError{Field: "title", Err: core.ErrEmptyTitle}
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Draft{}, &core.ValidationError{Field: "amount", Err: err}
	}
	d.Amount = amount

	if raw := p.Get("category"); raw != "" {
		c, err := core.ParseCategory(raw)
		if err != nil {
			return core.Draft{}, err
		}
		d.Category = c
	}

	if err := d.Validate(); err != nil {
		return core.Draft{}, err
	}
	return d, nil
}

var errInvalidReference = errors.New("invalid 'at' parameter: want RFC 3339, e.g. 2025-03-15T12:00:00Z")

// ParseReference reads the optional "at" query parameter. Without it the
// reference is now. An explicit instant is moved into now's location so
// calendar windows use the ledger's zone whatever offset the caller sent.
func ParseReference(query url.Values, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(query.Get("at"))
	if v == "" {
		return now, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, errInvalidReference
	}
	return t.In(now.Location()), nil
}
