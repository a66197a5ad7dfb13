package database

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"
)

// Category is the semantic class a raw value is decoded into before formatting.
type Category int

const (
	CategoryUnsupported Category = iota
	CategoryInteger
	CategoryFloat
	CategoryText
	CategoryDateTime
)

func (c Category) String() string {
	switch c {
	case CategoryInteger:
		return "integer"
	case CategoryFloat:
		return "float"
	case CategoryText:
		return "text"
	case CategoryDateTime:
		return "datetime"
	default:
		return "unsupported"
	}
}

// Placeholders shown instead of a value.
const (
	NullText        = "NULL"
	UnsupportedText = "<unsupported>"
	ErrText         = "<err>"
)

// dateTimeFormat renders date-time values of the server backends.
const dateTimeFormat = "2006-01-02 15:04:05.999999999"

var errUnexpectedValue = errors.New("unexpected value")

// Cell is a single raw column value together with the type name the backend
// reported for it. A nil Value is SQL NULL.
type Cell struct {
	TypeName string
	Value    any
}

// DecodeCell turns a raw cell into its display string. It never fails:
// unknown types become UnsupportedText and undecodable values ErrText.
func DecodeCell(categories map[string]Category, c Cell) string {
	if c.Value == nil {
		return NullText
	}

	var (
		s   string
		err error
	)
	switch categories[c.TypeName] {
	case CategoryInteger:
		s, err = decodeInteger(c.Value)
	case CategoryFloat:
		s, err = decodeFloat(c.Value)
	case CategoryText:
		s, err = decodeText(c.Value)
	case CategoryDateTime:
		s, err = decodeDateTime(c.Value)
	default:
		return UnsupportedText
	}
	if err != nil {
		return ErrText
	}
	return s
}

func decodeInteger(v any) (string, error) {
	switch val := v.(type) {
	case int64:
		return strconv.FormatInt(val, 10), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int:
		return strconv.Itoa(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return "", fmt.Errorf("integer %d overflows int64", val)
		}
		return strconv.FormatUint(val, 10), nil
	case []byte:
		return parseInteger(string(val))
	case string:
		return parseInteger(val)
	default:
		return "", errUnexpectedValue
	}
}

func parseInteger(s string) (string, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}

func decodeFloat(v any) (string, error) {
	switch val := v.(type) {
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case int64:
		return strconv.FormatFloat(float64(val), 'f', -1, 64), nil
	case []byte:
		return parseFloat(string(val))
	case string:
		return parseFloat(val)
	default:
		return "", errUnexpectedValue
	}
}

func parseFloat(s string) (string, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func decodeText(v any) (string, error) {
	switch val := v.(type) {
	case string:
		if !utf8.ValidString(val) {
			return "", errors.New("invalid utf-8")
		}
		return val, nil
	case []byte:
		if !utf8.Valid(val) {
			return "", errors.New("invalid utf-8")
		}
		return string(val), nil
	default:
		return "", errUnexpectedValue
	}
}

var dateTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02",
}

func decodeDateTime(v any) (string, error) {
	switch val := v.(type) {
	case time.Time:
		return val.Format(dateTimeFormat), nil
	case []byte:
		return parseDateTime(string(val))
	case string:
		return parseDateTime(val)
	default:
		return "", errUnexpectedValue
	}
}

func parseDateTime(s string) (string, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateTimeFormat), nil
		}
	}
	return "", fmt.Errorf("unrecognized date-time %q", s)
}
