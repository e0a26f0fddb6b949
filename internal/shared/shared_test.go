package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name string
		ms   int64
		want string
	}{
		{name: "zero", ms: 0, want: "0:00"},
		{name: "under a minute", ms: 42_000, want: "0:42"},
		{name: "minutes", ms: 215_500, want: "3:35"},
		{name: "hours", ms: 3_725_000, want: "1:02:05"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.ms); got != tt.want {
				t.Errorf("FormatDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		in   string
		want log.Level
	}{
		{in: "", want: log.InfoLevel},
		{in: "debug", want: log.DebugLevel},
		{in: "warn", want: log.WarnLevel},
		{in: "nonsense", want: log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLogLevel(tt.in); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&buf)
		WithLogger(l, "component", "test").Info("hello")

		if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "component=test") {
			t.Errorf("unexpected log output: %s", buf.String())
		}
	})

	t.Run("level filters output", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&buf)
		SetLogLevel(l, log.WarnLevel)
		l.Info("dropped")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered, got %s", buf.String())
		}
	})
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState() error = %v", err)
	}
	b, _ := GenerateState()

	if a == "" || a == b {
		t.Errorf("expected distinct non-empty states, got %q and %q", a, b)
	}
	if strings.ContainsAny(a, "+/=") {
		t.Errorf("state should be URL safe, got %q", a)
	}
}

func TestGenerateID(t *testing.T) {
	if id := GenerateID(); len(id) != 36 {
		t.Errorf("expected uuid string, got %q", id)
	}
}

func TestBrowserCommand(t *testing.T) {
	const u = "https://accounts.spotify.com/authorize?response_type=code&client_id=cid"

	tc := []struct {
		goos string
		want []string
	}{
		{goos: "darwin", want: []string{"open", u}},
		{goos: "linux", want: []string{"xdg-open", u}},
		{goos: "windows", want: []string{"rundll32", "url.dll,FileProtocolHandler", u}},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			cmd, err := browserCommand(tt.goos, u)
			if err != nil {
				t.Fatalf("browserCommand() error = %v", err)
			}
			if strings.Join(cmd.Args, " ") != strings.Join(tt.want, " ") {
				t.Errorf("browserCommand() args = %v, want %v", cmd.Args, tt.want)
			}
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		original := getRuntime
		defer func() { getRuntime = original }()
		getRuntime = func() string { return "plan9" }

		if err := OpenBrowser(u); err == nil {
			t.Error("expected error for unsupported platform")
		}
	})
}
