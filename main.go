package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the dependencies shared by the HTTP handlers. cache and events
// may be nil when disabled.
type app struct {
	db        *gorm.DB
	cache     *resultCache
	events    *eventPublisher
	hub       *liveHub
	log       *zap.Logger
	maxUpload int64
}

func main() {
	configPath := pflag.StringP("config", "c", "config.yaml", "path to the YAML config file")
	addr := pflag.String("addr", "", "listen address, overrides server.addr")
	pflag.Parse()

	if err := run(*configPath, *addr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath, addrOverride string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if addrOverride != "" {
		cfg.Server.Addr = addrOverride
	}

	log, err := newLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}

	cache, err := newResultCache(cfg.Redis, log)
	if err != nil {
		return err
	}
	defer func() { _ = cache.close() }()

	events := newEventPublisher(cfg.MQTT, log)
	defer events.close()

	a := &app{
		db:        db,
		cache:     cache,
		events:    events,
		hub:       newLiveHub(log),
		log:       log,
		maxUpload: cfg.Upload.MaxBytes,
	}
	defer a.hub.close()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("db_driver", cfg.Database.Driver),
			zap.Bool("redis", cfg.Redis.Enabled),
			zap.Bool("mqtt", cfg.MQTT.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(a *app) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(a.log), gin.Recovery())

	r.GET("/", serveDashboard)
	r.GET("/dashboard", serveDashboard)
	r.GET("/healthz", handleHealthz(a))
	r.GET("/ws", a.hub.handle())

	r.POST("/upload", handleUpload(a))
	r.GET("/get_latest/:city", handleLatest(a))

	r.GET("/api/cities", handleCities(a))
	r.GET("/api/history/:city", handleHistory(a))
	r.GET("/api/history/:city/trend", handleTrend(a))

	r.GET("/charts/:city/:kind", handleChart(a))
	r.GET("/export/:city", handleExport(a))
	return r
}
