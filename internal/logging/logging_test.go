package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn")

	logger.Info("hidden")
	logger.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"error":     "ERROR",
		"WARN":      "WARN",
		" warning ": "WARN",
		"info":      "INFO",
		"debug":     "DEBUG",
		"":          "DEBUG",
	}
	for input, want := range cases {
		if got := levelFromString(input).String(); got != want {
			t.Errorf("levelFromString(%q) = %s, want %s", input, got, want)
		}
	}
}
