package utils

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

var decimalCapacity = map[string]float64{
	"":      1,
	"b":     1,
	"bytes": 1,
	"kb":    1e3,
	"mb":    1e6,
	"gb":    1e9,
	"tb":    1e12,
	"pb":    1e15,
	"kib":   1 << 10,
	"mib":   1 << 20,
	"gib":   1 << 30,
	"tib":   1 << 40,
	"pib":   1 << 50,
}

var binaryCapacity = map[string]float64{
	"kb": 1 << 10,
	"mb": 1 << 20,
	"gb": 1 << 30,
	"tb": 1 << 40,
	"pb": 1 << 50,
}

// ParseCapacity converts a human capacity ("1TB", "931.512 GB", "16384 MB")
// to bytes. When binaryUnits is set, KB/MB/GB/TB are read as powers of 1024,
// which is how dmidecode and storcli label their sizes.
func ParseCapacity(s string, binaryUnits bool) (uint64, bool) {
	v, unit, ok := splitNumberUnit(s)
	if !ok {
		return 0, false
	}
	mult, known := decimalCapacity[unit]
	if binaryUnits {
		if m, ok := binaryCapacity[unit]; ok {
			mult, known = m, true
		}
	}
	if !known {
		return 0, false
	}
	return uint64(math.Round(v * mult)), true
}

var speedToMbps = map[string]float64{
	"":       1e-6,
	"b/s":    1e-6,
	"bit/s":  1e-6,
	"bps":    1e-6,
	"kb/s":   1e-3,
	"kbit/s": 1e-3,
	"kbps":   1e-3,
	"mb/s":   1,
	"mbit/s": 1,
	"mbps":   1,
	"gb/s":   1e3,
	"gbit/s": 1e3,
	"gbps":   1e3,
	"tb/s":   1e6,
	"tbit/s": 1e6,
}

// ParseSpeed converts a link speed ("1Gbit/s", "10000Mb/s", "1000000000")
// to Mbit/s. A bare number is read as bit/s, the unit lshw reports in.
func ParseSpeed(s string) (uint64, bool) {
	v, unit, ok := splitNumberUnit(s)
	if !ok {
		return 0, false
	}
	mult, known := speedToMbps[unit]
	if !known {
		return 0, false
	}
	return uint64(math.Round(v * mult)), true
}

// NormalizeMAC returns a MAC address lower-case and colon-separated.
// Unparsable and all-zero addresses yield an empty string.
func NormalizeMAC(s string) string {
	var hex strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f':
			hex.WriteRune(r)
		case r == ':', r == '-', r == '.':
		default:
			return ""
		}
	}
	h := hex.String()
	if len(h) != 12 || h == "000000000000" {
		return ""
	}
	var out strings.Builder
	for i := 0; i < 12; i += 2 {
		if i > 0 {
			out.WriteByte(':')
		}
		out.WriteString(h[i : i+2])
	}
	return out.String()
}

var placeholderSerials = map[string]struct{}{
	"to be filled by o.e.m.": {},
	"not specified":          {},
	"not available":          {},
	"not applicable":         {},
	"default string":         {},
	"system serial number":   {},
	"chassis serial number":  {},
	"0123456789":             {},
	"none":                   {},
	"n/a":                    {},
	"unknown":                {},
	"invalid":                {},
	"empty":                  {},
}

// NormalizeSerial trims padding from a serial number and drops OEM placeholders.
func NormalizeSerial(s string) string {
	s = strings.Trim(s, " \t\r\n\x00.")
	if s == "" {
		return ""
	}
	if _, ok := placeholderSerials[strings.ToLower(s)]; ok {
		return ""
	}
	if strings.Trim(s, "0") == "" || strings.Trim(s, "F") == "" {
		return ""
	}
	return s
}

// oemPlaceholderUUID is shipped by several board vendors on every unit.
const oemPlaceholderUUID = "03000200-0400-0500-0006-000700080009"

// NormalizeUUID returns a canonical lower-case UUID, or an empty string
// for unparsable, nil, max and known OEM placeholder values.
func NormalizeUUID(s string) string {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil || id == uuid.Nil || id == uuid.Max {
		return ""
	}
	if id.String() == oemPlaceholderUUID {
		return ""
	}
	return id.String()
}

// NormalizeLinkState maps tool-specific link states to up, down or unknown.
func NormalizeLinkState(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "yes", "true", "1":
		return "up"
	case "down", "no", "false", "0", "lowerlayerdown", "notpresent", "dormant":
		return "down"
	default:
		return "unknown"
	}
}

// CleanString trims whitespace and drops OEM placeholder text.
func CleanString(s string) string {
	s = strings.TrimSpace(s)
	if _, ok := placeholderSerials[strings.ToLower(s)]; ok {
		return ""
	}
	return s
}
