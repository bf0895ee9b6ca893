package app

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/humanbelnik/livepoll/internal/config"
	http_init "github.com/humanbelnik/livepoll/internal/delivery/http/init"
	http_cors_middleware "github.com/humanbelnik/livepoll/internal/delivery/http/middleware/cors"
	http_poll "github.com/humanbelnik/livepoll/internal/delivery/http/poll"
	http_swagger "github.com/humanbelnik/livepoll/internal/delivery/http/swagger"
	ws_room "github.com/humanbelnik/livepoll/internal/delivery/ws/room"
	infra_memory_poll "github.com/humanbelnik/livepoll/internal/infra/memory/poll"
	infra_pg_init "github.com/humanbelnik/livepoll/internal/infra/postgres/init"
	infra_postgres_poll "github.com/humanbelnik/livepoll/internal/infra/postgres/poll"
	infra_redis_init "github.com/humanbelnik/livepoll/internal/infra/redis/init"
	infra_redis_latest_poll "github.com/humanbelnik/livepoll/internal/infra/redis/latest_poll"
	"github.com/humanbelnik/livepoll/internal/service/chat"
	"github.com/humanbelnik/livepoll/internal/service/membership"
	storage_poll "github.com/humanbelnik/livepoll/internal/storage/poll"
	usecase_poll "github.com/humanbelnik/livepoll/internal/usecase/poll"
)

const shutdownTimeout = 10 * time.Second

func Go(cfg *config.Config) {
	repo, closeRepo := mustBuildRepository(cfg)
	defer closeRepo()

	server := &http.Server{
		Addr:    net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: NewHandler(cfg, repo, slog.Default()),
	}

	go func() {
		slog.Info("http server listening", slog.String("addr", server.Addr), slog.String("storage", cfg.Storage.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to run HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}
}

// NewHandler wires the realtime and REST surfaces around repo.
func NewHandler(cfg *config.Config, repo usecase_poll.PollRepository, logger *slog.Logger) http.Handler {
	tracker := membership.New()
	gate := chat.New()

	pollUC := usecase_poll.New(repo, tracker, usecase_poll.WithLogger(logger))
	hub := ws_room.NewHub(tracker, gate, pollUC, ws_room.WithLogger(logger))
	pollUC.SetPublisher(hub)

	controllerPool := http_init.NewControllerPool(http_cors_middleware.AllowOrigins(cfg.HTTP.AllowedOrigins))
	controllerPool.Add(http_poll.New(pollUC, http_poll.WithLogger(logger)))
	controllerPool.AddRoot(http_swagger.New())
	controllerPool.AddRoot(ws_room.NewController(hub, cfg.HTTP.AllowedOrigins,
		ws_room.WithControllerLogger(logger),
		ws_room.WithSendBuffer(cfg.Websocket.SendBuffer),
	))
	controllerPool.Register()

	return controllerPool.Handler()
}

func mustBuildRepository(cfg *config.Config) (usecase_poll.PollRepository, func()) {
	if cfg.Storage.Driver == config.StorageMemory {
		slog.Warn("using in-memory poll storage, polls are lost on restart")
		return infra_memory_poll.New(), func() {}
	}

	pgConn := infra_pg_init.MustEstablishConn(cfg.Postgres)
	pgRepo := infra_postgres_poll.New(pgConn)
	if err := pgRepo.EnsureSchema(context.Background()); err != nil {
		log.Fatal(err)
	}
	closers := []func() error{pgConn.Close}

	var repo usecase_poll.PollRepository = pgRepo
	if cfg.Redis.Enabled {
		redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
		repo = storage_poll.New(
			pgRepo,
			infra_redis_latest_poll.New(redisConn, cfg.Redis.Key),
			storage_poll.WithLogger(slog.Default().With(slog.String("component", "poll_storage"))),
		)
		closers = append(closers, redisConn.Close)
	}

	return repo, func() {
		for _, c := range closers {
			_ = c()
		}
	}
}
