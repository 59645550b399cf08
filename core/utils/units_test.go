package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCapacity(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		binary bool
		want   uint64
		ok     bool
	}{
		{name: "decimal terabyte", input: "1TB", want: 1_000_000_000_000, ok: true},
		{name: "spaced gigabytes", input: "500 GB", want: 500_000_000_000, ok: true},
		{name: "fractional", input: "1.2 TB", want: 1_200_000_000_000, ok: true},
		{name: "binary gib", input: "16 GiB", want: 16 << 30, ok: true},
		{name: "binary labelled GB", input: "16 GB", binary: true, want: 16 << 30, ok: true},
		{name: "bare bytes", input: "4096", want: 4096, ok: true},
		{name: "thousands separator", input: "1,024 MB", want: 1_024_000_000, ok: true},
		{name: "unknown unit", input: "12 parsecs", ok: false},
		{name: "no number", input: "No Module Installed", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCapacity(tt.input, tt.binary)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSpeed(t *testing.T) {
	tests := map[string]uint64{
		"1Gbit/s":    1000,
		"10000Mb/s":  10000,
		"25Gb/s":     25000,
		"100Mbit/s":  100,
		"1000000000": 1000,
	}
	for input, want := range tests {
		got, ok := ParseSpeed(input)
		assert.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}

	_, ok := ParseSpeed("Unknown!")
	assert.False(t, ok)
}

func TestNormalizeMAC(t *testing.T) {
	assert.Equal(t, "00:1a:2b:3c:4d:5e", NormalizeMAC("00:1A:2B:3C:4D:5E"))
	assert.Equal(t, "00:1a:2b:3c:4d:5e", NormalizeMAC("00-1a-2b-3c-4d-5e"))
	assert.Equal(t, "00:1a:2b:3c:4d:5e", NormalizeMAC("001a.2b3c.4d5e"))
	assert.Equal(t, "", NormalizeMAC("00:00:00:00:00:00"))
	assert.Equal(t, "", NormalizeMAC("not-a-mac"))
	assert.Equal(t, "", NormalizeMAC("00:1a:2b"))
}

func TestNormalizeSerial(t *testing.T) {
	assert.Equal(t, "ABC123", NormalizeSerial("  ABC123 \x00"))
	assert.Equal(t, "", NormalizeSerial("To Be Filled By O.E.M."))
	assert.Equal(t, "", NormalizeSerial("Not Specified"))
	assert.Equal(t, "", NormalizeSerial("0000000000"))
	assert.Equal(t, "", NormalizeSerial(""))
}

func TestNormalizeUUID(t *testing.T) {
	assert.Equal(t, "4c4c4544-0042-3510-8052-b4c04f333732", NormalizeUUID("4C4C4544-0042-3510-8052-B4C04F333732"))
	assert.Equal(t, "", NormalizeUUID("00000000-0000-0000-0000-000000000000"))
	assert.Equal(t, "", NormalizeUUID("FFFFFFFF-FFFF-FFFF-FFFF-FFFFFFFFFFFF"))
	assert.Equal(t, "", NormalizeUUID("03000200-0400-0500-0006-000700080009"))
	assert.Equal(t, "", NormalizeUUID("Not Settable"))
}

func TestNormalizeLinkState(t *testing.T) {
	assert.Equal(t, "up", NormalizeLinkState("UP"))
	assert.Equal(t, "down", NormalizeLinkState("LOWERLAYERDOWN"))
	assert.Equal(t, "down", NormalizeLinkState("no"))
	assert.Equal(t, "unknown", NormalizeLinkState("UNKNOWN"))
}

func TestToUint64(t *testing.T) {
	assert.Equal(t, uint64(42), ToUint64(float64(42)))
	assert.Equal(t, uint64(42), ToUint64("42"))
	assert.Equal(t, uint64(0), ToUint64(-1))
	assert.Equal(t, uint64(0), ToUint64(nil))
	assert.Equal(t, uint64(7), ToUint64(int64(7)))
}
