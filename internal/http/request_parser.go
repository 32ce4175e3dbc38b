package http

// This file implements utilities for parsing and validating request data.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"diarias/internal/core"
)

// maxBodyBytes bounds request bodies; ledger requests are tiny.
const maxBodyBytes = 64 << 10

// DecodeJSON reads a JSON body into dst, rejecting unknown fields and
// trailing data.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// ParseFilter reads month, status and project from query parameters.
// month accepts YYYY-MM or the year and month pair.
func ParseFilter(q url.Values) (core.Filter, error) {
	var f core.Filter

	month := strings.TrimSpace(q.Get("month"))
	year := strings.TrimSpace(q.Get("year"))
	switch {
	case year != "" && month != "":
		y, yerr := strconv.Atoi(year)
		m, merr := strconv.Atoi(month)
		if yerr != nil || merr != nil || m < 1 || m > 12 {
			return f, fmt.Errorf("invalid year/month %q/%q", year, month)
		}
		f.Month = fmt.Sprintf("%04d-%02d", y, m)
	case month != "":
		if _, err := time.Parse(core.MonthLayout, month); err != nil {
			return f, fmt.Errorf("invalid month %q: want YYYY-MM", month)
		}
		f.Month = month
	}

	if s := strings.TrimSpace(q.Get("status")); s != "" {
		status, err := core.ParseStatus(s)
		if err != nil {
			return f, err
		}
		f.Status = status
	}

	f.Project = sanitizeInput(q.Get("project"))
	return f, nil
}

// parseYear reads the year query parameter, defaulting to now's year.
func parseYear(q url.Values, now time.Time) (int, error) {
	v := strings.TrimSpace(q.Get("year"))
	if v == "" {
		return now.Year(), nil
	}
	y, err := strconv.Atoi(v)
	if err != nil || y < 1 || y > 9999 {
		return 0, fmt.Errorf("invalid year %q", v)
	}
	return y, nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
