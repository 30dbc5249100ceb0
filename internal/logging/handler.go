package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Output formats accepted by NewHandler.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// sentryInit is a seam for tests.
var sentryInit = sentry.Init

// ParseLevel maps "debug", "info", "warn" and "error" (any case) to a slog
// level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// NewHandler builds the process log handler writing to w.
//
// With a non-empty sentryDSN, error records are additionally forwarded to
// Sentry; if Sentry cannot be initialised the stdout handler is used alone
// and the init error is returned next to it.
func NewHandler(format, level string, w io.Writer, sentryDSN string) (slog.Handler, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var base slog.Handler
	switch format {
	case FormatJSON, "":
		base = slog.NewJSONHandler(w, opts)
	case FormatText:
		base = slog.NewTextHandler(w, opts)
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	if sentryDSN == "" {
		return base, nil
	}

	if err := sentryInit(sentry.ClientOptions{Dsn: sentryDSN}); err != nil {
		return base, fmt.Errorf("sentry init: %w", err)
	}

	return slogmulti.Fanout(
		base,
		slogsentry.Option{Level: slog.LevelError}.NewSentryHandler(),
	), nil
}
