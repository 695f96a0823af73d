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

	"budget/internal/controller"
)

// maxBodyBytes bounds event and reset request bodies.
const maxBodyBytes = 4 << 10

var errMissingField = errors.New("missing field")

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON objects and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
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
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
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
	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Has reports whether key was sent.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// Get returns a string value from the parsed data (JSON or form). Values
// are passed through as typed; the controller validates them.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return stringValue(val)
		}
		return ""
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseEvent builds a controller event from the body fields field, kind,
// row, col and value. Row and col are required for amount and label
// fields only.
func ParseEvent(p *RequestBodyParser) (controller.Event, error) {
	if err := p.Parse(); err != nil {
		return controller.Event{}, fmt.Errorf("parse body: %w", err)
	}

	ev := controller.Event{
		Field: controller.FieldKind(strings.TrimSpace(p.Get("field"))),
		Kind:  controller.EventKind(strings.TrimSpace(p.Get("kind"))),
		Value: p.Get("value"),
	}
	if ev.Field == "" {
		return ev, fmt.Errorf("%w: field", errMissingField)
	}
	if ev.Kind == "" {
		return ev, fmt.Errorf("%w: kind", errMissingField)
	}

	if ev.Field != controller.FieldAmount && ev.Field != controller.FieldLabel {
		return ev, nil
	}
	var err error
	if ev.Row, err = intField(p, "row"); err != nil {
		return ev, err
	}
	if ev.Col, err = intField(p, "col"); err != nil {
		return ev, err
	}
	return ev, nil
}

func intField(p *RequestBodyParser, key string) (int, error) {
	if !p.Has(key) {
		return 0, fmt.Errorf("%w: %s", errMissingField, key)
	}
	n, err := strconv.Atoi(strings.TrimSpace(p.Get(key)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
