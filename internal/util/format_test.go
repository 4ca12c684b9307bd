package util

import (
	"math"
	"testing"
	"time"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"typical estimate", 215432.891, "$215,432.89"},
		{"small", 12.5, "$12.50"},
		{"zero", 0, "$0.00"},
		{"millions", 1234567.8, "$1,234,567.80"},
		{"negative", -1234, "$-1,234.00"},
		{"nan", math.NaN(), "$NaN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCurrency(tt.in); got != tt.want {
				t.Errorf("FormatCurrency(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{500, "500"},
		{10000, "10,000"},
	}
	for _, tt := range tests {
		if got := FormatInt(tt.in); got != tt.want {
			t.Errorf("FormatInt(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{850 * time.Microsecond, "850µs"},
		{12300 * time.Microsecond, "12.3ms"},
		{2500 * time.Millisecond, "2.50s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
