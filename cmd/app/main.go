package main

import (
	"log/slog"
	"os"

	"github.com/humanbelnik/livepoll/internal/app"
	"github.com/humanbelnik/livepoll/internal/config"
)

// @title livepoll API
// @version 1.0
// @description Live classroom polling: poll CRUD, voting and status. Realtime events are served on /ws.
// @BasePath /api
func main() {
	cfg := config.Load()

	logOpts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}
	var logger *slog.Logger
	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}
	slog.SetDefault(logger)

	app.Go(cfg)
}

func parseLogLevel(level string) slog.Level {
	switch level {
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
