package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order when coercing timestamp strings.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"2-Jan-2006",
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

// cleanNumeric strips thousands separators, non-breaking spaces and the dash
// placeholder some exports use for empty cells.
func cleanNumeric(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, "\u2014", "")
	return strings.TrimSpace(s)
}

func parseFloat(s string) (float64, bool) {
	s = cleanNumeric(s)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func coerceFloat(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, ok := parseFloat(t)
		if !ok {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// coerceInt truncates toward zero, so 200.7 days reads as 200.
func coerceInt(v any) *int64 {
	f := coerceFloat(v)
	if f == nil {
		return nil
	}
	i := int64(*f)
	return &i
}

func coerceBool(v any) *bool {
	var b bool
	switch t := v.(type) {
	case bool:
		b = t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "t", "yes", "y", "1", "1.0":
			b = true
		case "false", "f", "no", "n", "0", "0.0":
			b = false
		default:
			return nil
		}
	default:
		f := coerceFloat(v)
		if f == nil {
			return nil
		}
		b = *f != 0
	}
	return &b
}

func coerceTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return &t
	case string:
		return ParseTimestamp(t)
	}
	return nil
}

// ParseTimestamp parses a timestamp in any of the layouts upstream exports
// are known to use. It returns nil for blank or unparseable input.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if IsMissingLabel(s) || s == "NaT" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// ParseChangePct reads a day-change value. Strings carrying a percent sign
// ("+2.50%") are divided by 100; bare numbers are already fractional.
func ParseChangePct(v any) *float64 {
	s, isString := v.(string)
	if !isString || !strings.Contains(s, "%") {
		return coerceFloat(v)
	}
	f, ok := parseFloat(strings.ReplaceAll(s, "%", ""))
	if !ok {
		return nil
	}
	f /= 100
	return &f
}

// ParseNumber exposes the lenient numeric coercion used for portfolio fields.
func ParseNumber(v any) *float64 {
	return coerceFloat(v)
}
