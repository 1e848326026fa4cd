package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"daftar/internal/core"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON decodes exactly one JSON object from the request body into v.
// Unknown fields are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: trailing data")
	}
	return nil
}

// ParseDateRange reads the optional from/to query parameters in loc. Either
// bound may be omitted; an empty result means all time.
func ParseDateRange(query url.Values, loc *time.Location) (core.DateRange, error) {
	var rng core.DateRange
	if v := strings.TrimSpace(query.Get("from")); v != "" {
		t, err := core.ParseDate(v, loc)
		if err != nil {
			return rng, fmt.Errorf("from: %w", err)
		}
		rng.From = core.StartOfDay(t)
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		t, err := core.ParseDate(v, loc)
		if err != nil {
			return rng, fmt.Errorf("to: %w", err)
		}
		rng.To = core.StartOfDay(t)
	}
	if !rng.From.IsZero() && !rng.To.IsZero() && rng.To.Before(rng.From) {
		return rng, errors.New("to is before from")
	}
	return rng, nil
}
