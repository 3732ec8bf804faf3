package logs

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"

	"github.com/grafana/loki-client-go/loki"
	slogloki "github.com/samber/slog-loki/v3"
	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Alijeyrad/healthmarket_backend/config"
)

// New builds a logger from config, fanning out to stdout, a rotating file and Loki.
// The returned stop func flushes the Loki client; it is safe to call when Loki is off.
func New(cfg *config.Config) (*slog.Logger, func()) {
	level := parseLevel(cfg.Logging.Level)
	isDev := strings.EqualFold(cfg.Server.Environment, "development")
	out := cfg.Logging.Output

	var writers []io.Writer

	// stdout is the fallback when nothing else is configured
	if out.Stdout || (!out.File.Enabled && !out.Loki.Enabled) {
		writers = append(writers, os.Stdout)
	}

	if out.File.Enabled {
		writers = append(writers, &lumberjack.Logger{
			Filename:   out.File.Path,
			MaxSize:    out.File.MaxSizeMB,
			MaxBackups: out.File.MaxBackups,
			MaxAge:     out.File.MaxAgeDays,
			Compress:   out.File.Compress,
		})
	}

	var handlers []slog.Handler
	if len(writers) > 0 {
		handlers = append(handlers, newWriterHandler(io.MultiWriter(writers...), level, isDev, cfg.Logging.Format))
	}

	stop := func() {}
	if out.Loki.Enabled {
		h, client, err := newLokiHandler(out.Loki, level)
		if err != nil {
			fmt.Fprintf(os.Stderr, "loki logging disabled: %v\n", err)
		} else {
			handlers = append(handlers, h)
			stop = client.Stop
		}
	}

	var h slog.Handler
	if len(handlers) == 1 {
		h = handlers[0]
	} else {
		h = slogmulti.Fanout(handlers...)
	}

	return slog.New(h).With(
		slog.String("service", cfg.Observability.ServiceName),
		slog.String("version", cfg.Observability.ServiceVersion),
		slog.String("env", cfg.Server.Environment),
	), stop
}

func newWriterHandler(w io.Writer, level slog.Level, isDev bool, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: isDev,
	}
	if strings.EqualFold(format, "json") || !isDev {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func newLokiHandler(cfg config.LokiConfig, level slog.Level) (slog.Handler, *loki.Client, error) {
	endpoint, err := lokiPushURL(cfg)
	if err != nil {
		return nil, nil, err
	}

	lc, err := loki.NewDefaultConfig(endpoint)
	if err != nil {
		return nil, nil, err
	}
	lc.TenantID = cfg.TenantID

	client, err := loki.New(lc)
	if err != nil {
		return nil, nil, err
	}

	return slogloki.Option{Level: level, Client: client}.NewLokiHandler(), client, nil
}

// lokiPushURL appends the push path and embeds basic-auth credentials.
func lokiPushURL(cfg config.LokiConfig) (string, error) {
	u, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil {
		return "", fmt.Errorf("parse loki endpoint: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("loki endpoint %q must be absolute", cfg.Endpoint)
	}
	if !strings.HasSuffix(u.Path, "/loki/api/v1/push") {
		u.Path += "/loki/api/v1/push"
	}
	if cfg.Username != "" {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	return u.String(), nil
}

func Default() *slog.Logger {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: false,
	})
	return slog.New(h).With(slog.String("service", "healthmarket"))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
