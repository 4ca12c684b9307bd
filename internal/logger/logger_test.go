package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"", zapcore.InfoLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"verbose", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := New("warn", format)
		if err != nil {
			t.Fatalf("New(%q): %v", format, err)
		}
		if l.Core().Enabled(zapcore.InfoLevel) {
			t.Errorf("%s: info should be disabled at warn level", format)
		}
		if !l.Core().Enabled(zapcore.ErrorLevel) {
			t.Errorf("%s: error should be enabled at warn level", format)
		}
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, err := New("loud", "json"); err == nil {
		t.Error("expected error for unknown level")
	}
}
