package authsvc

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/authsvc/config"
)

const logFileName = "authsvc.log"

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds the process logger. When cfg.LogDir is set, output is
// also appended to a file there and gin's writers are redirected to it; the
// returned closer closes that file.
func NewLogger(cfg config.Config) (*slog.Logger, io.Closer, error) {
	var (
		w      io.Writer = os.Stdout
		closer io.Closer = nopCloser{}
	)

	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log dir %s: %w", cfg.LogDir, err)
		}

		path := filepath.Join(cfg.LogDir, logFileName)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", path, err)
		}

		w = io.MultiWriter(os.Stdout, f)
		gin.DefaultWriter = w
		gin.DefaultErrorWriter = w
		closer = f
	}

	return slog.New(newHandler(w, cfg.LogFormat, parseLevel(cfg.LogLevel))), closer, nil
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
