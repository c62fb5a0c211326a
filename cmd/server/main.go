// Package main runs the live polling HTTP server with WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/liveclass/polling/config"
	"github.com/liveclass/polling/internal/chatfilter"
	"github.com/liveclass/polling/internal/dependencies/clock"
	"github.com/liveclass/polling/internal/identity"
	"github.com/liveclass/polling/internal/polls"
	"github.com/liveclass/polling/internal/realtime"
	"github.com/liveclass/polling/internal/session"
	"github.com/liveclass/polling/internal/worker"
	"github.com/liveclass/polling/pkg/database"
	"github.com/liveclass/polling/pkg/queue"
	"github.com/liveclass/polling/pkg/redis"
)

func main() {
	cfg, cfgErr := config.Load()
	level := zapcore.InfoLevel
	if cfgErr == nil {
		level = cfg.Log.Level
	}
	logger := newLogger(level)
	defer logger.Sync()
	if cfgErr != nil {
		logger.Fatal("load config", zap.Error(cfgErr))
	}
	gin.SetMode(gin.ReleaseMode)

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{
		MaxConns: int32(cfg.Database.MaxConns),
	}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	teacherRepo := identity.NewRepository(pool)
	pollRepo := polls.NewRepository(pool)

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	var sink polls.Sink = pollRepo
	var workerDone chan struct{}
	if cfg.Persist.Mode == config.PersistQueue {
		rdb, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()

		jobQueue := queue.NewQueue(rdb.Client, logger)
		sink = polls.NewQueueSink(jobQueue)
		if cfg.Persist.EmbeddedWorker {
			processor := worker.NewPersistProcessor(pollRepo, jobQueue, logger.Named("worker"))
			workerDone = make(chan struct{})
			go func() {
				processor.Run(bgCtx)
				close(workerDone)
			}()
			logger.Info("persist worker started")
		}
	}

	recorder := polls.NewAsyncRecorder(sink, cfg.Persist.Buffer, cfg.Persist.Timeout, logger.Named("recorder"))
	recorderDone := make(chan struct{})
	go func() {
		recorder.Run(bgCtx)
		close(recorderDone)
	}()

	opts := cfg.Poll.SessionOptions()
	if len(cfg.Chat.CensoredWords) > 0 {
		filter, err := chatfilter.New(cfg.Chat.CensoredWords, cfg.Chat.CensorChar, logger.Named("chatfilter"))
		if err != nil {
			logger.Fatal("chat filter", zap.Error(err))
		}
		opts.Filter = filter
	}

	hub := realtime.NewHub(logger.Named("hub"))
	coord := session.NewCoordinator(hub, recorder, clock.New(), opts, logger.Named("session"))

	router := newRouter(routerDeps{
		hub:         hub,
		coord:       coord,
		identity:    identity.NewHandler(teacherRepo, logger),
		polls:       polls.NewHandler(pollRepo, logger),
		teachers:    teacherRepo,
		corsOrigins: cfg.Server.CORSAllowedOrigins,
		logger:      logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("persist_mode", string(cfg.Persist.Mode)),
			zap.String("replace_policy", string(opts.ReplacePolicy)))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	bgCancel()
	<-recorderDone
	if workerDone != nil {
		<-workerDone
	}
	logger.Info("server stopped",
		zap.Int64("records_dropped", recorder.Dropped()),
		zap.Int64("records_failed", recorder.Failed()))
}

func newLogger(level zapcore.Level) *zap.Logger {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
