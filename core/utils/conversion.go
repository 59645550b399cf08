package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ToUint64 converts decoded JSON/text values to uint64 using explicit type switching.
// Negative numbers and unparsable input yield zero.
func ToUint64(val any) uint64 {
	switch v := val.(type) {
	case uint64:
		return v
	case uint:
		return uint64(v)
	case uint32:
		return uint64(v)
	case int:
		if v < 0 {
			return 0
		}
		return uint64(v)
	case int64:
		if v < 0 {
			return 0
		}
		return uint64(v)
	case float64:
		if v < 0 || math.IsNaN(v) {
			return 0
		}
		return uint64(math.Round(v))
	case string:
		u, _ := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		return u
	case []byte:
		u, _ := strconv.ParseUint(strings.TrimSpace(string(v)), 10, 64)
		return u
	case nil:
		return 0
	default:
		u, _ := strconv.ParseUint(fmt.Sprintf("%v", v), 10, 64)
		return u
	}
}

// ToString converts various types to string.
func ToString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToBool converts various types to bool.
// It handles bool, numeric types (1=true), and strings ("1", "true", "yes").
func ToBool(val any) bool {
	switch v := val.(type) {
	case bool:
		return v
	case float64:
		return v == 1
	case int:
		return v == 1
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		return s == "1" || s == "true" || s == "yes"
	default:
		return false
	}
}

// splitNumberUnit separates "931.5 GB" or "1TB" into its numeric value and unit.
func splitNumberUnit(s string) (float64, string, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] >= '0' && s[end] <= '9' || s[end] == '.' || s[end] == ',') {
		end++
	}
	if end == 0 {
		return 0, "", false
	}
	num := strings.ReplaceAll(s[:end], ",", "")
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, "", false
	}
	return v, strings.ToLower(strings.TrimSpace(s[end:])), true
}
