package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":      zerolog.InfoLevel,
		"debug": zerolog.DebugLevel,
		"WARN":  zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"bogus": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestConfigureWritesToOverriddenWriter(t *testing.T) {
	var buf bytes.Buffer
	SetLogWriter(&buf)

	Configure("info", "text")
	log.Info().Str("component", "logging").Msg("hello")

	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected log output to contain message, got %q", buf.String())
	}
}

func TestConfigureFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	SetLogWriter(&buf)

	Configure("warn", "text")
	log.Info().Msg("dropped")
	log.Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info message should have been filtered, got %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn message missing from output %q", out)
	}
}
