package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultHistoryWindow = 30 * 24 * time.Hour

var errInvalidRange = errors.New("to must be >= from")

// parseTimeRange reads the from and to query parameters of a history
// request. Missing bounds default to the window ending now. A date-only to
// covers that whole day.
func parseTimeRange(c *gin.Context, window time.Duration) (from, to time.Time, err error) {
	to = time.Now().UTC()
	from = to.Add(-window)

	for _, b := range []struct {
		param string
		dst   *time.Time
	}{{"from", &from}, {"to", &to}} {
		raw := strings.TrimSpace(c.Query(b.param))
		if raw == "" {
			continue
		}
		t, err := parseTimeParam(raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("%s: %w", b.param, err)
		}
		if b.param == "to" && isDateOnly(raw) {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		*b.dst = t
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, errInvalidRange
	}
	return from, to, nil
}

// parseTimeParam accepts unix seconds, a YYYY-MM-DD date or RFC 3339.
func parseTimeParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", value)
}

func isDateOnly(value string) bool {
	_, err := time.Parse(time.DateOnly, value)
	return err == nil
}

// parseLimit clamps a numeric limit parameter to [lo, hi], falling back to
// def when it is missing or not a number.
func parseLimit(raw string, def, lo, hi int) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return min(max(n, lo), hi)
}

// bucketKey truncates t to its hour or day bucket label.
func bucketKey(t time.Time, bucket string) string {
	t = t.UTC()
	if bucket == "hour" {
		return t.Format("2006-01-02 15:00:00")
	}
	return t.Format(time.DateOnly)
}
