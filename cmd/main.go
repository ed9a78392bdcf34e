package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "pitwatch/docs"
	"pitwatch/internal/config"
	"pitwatch/internal/handlers"
	"pitwatch/internal/heatermeter"
	"pitwatch/internal/logger"
	"pitwatch/internal/metrics"
	"pitwatch/internal/mqtt"
	"pitwatch/internal/repository"
	"pitwatch/internal/repository/db"
	"pitwatch/internal/server"
	"pitwatch/internal/service"
	"pitwatch/internal/store"
)

const shutdownTimeout = 10 * time.Second

// @title                       pitwatch API
// @version                     1.0
// @description                 Polls a HeaterMeter smoker controller and serves its samples, alarms and event log.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	// load configs/config.yml and PITWATCH_* overrides
	cfg, err := config.Load("config", "configs")
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	conn, err := openDB(cfg, log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	m := metrics.New()
	source, auth, err := newSource(cfg, log, m)
	if err != nil {
		log.Fatalw("failed to open sample source", "err", err)
	}

	services := service.NewService(service.Deps{
		Repos:   repository.NewRepository(conn),
		Store:   store.New(),
		Source:  source,
		Auth:    auth,
		Metrics: m,
		Log:     log,
	}, service.Options{
		AlarmSettings:         cfg.Alarms,
		AlarmOnLostConnection: cfg.AlarmOnLostConnection,
		AlwaysSoundAlarm:      cfg.AlwaysSoundAlarm,
		SigningKey:            cfg.JWTSigningKey,
	})

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := services.Alarms.Load(ctx); err != nil {
		log.Errorw("alarm settings not loaded; using config defaults", "err", err)
	}
	if err := services.Poller.Seed(ctx); err != nil {
		log.Errorw("history cache not loaded", "err", err)
	}

	if cfg.MQTTBroker != "" {
		if err := startMQTT(ctx, cfg, services, log); err != nil {
			log.Errorw("mqtt bridge disabled", "broker", cfg.MQTTBroker, "err", err)
		}
	}

	go services.Poller.Run(ctx, cfg.PollInterval)
	go services.Alarms.Run(ctx, cfg.BackgroundUpdateInterval)

	log.Infow("pitwatch started",
		"server", cfg.Server,
		"alt_server", cfg.AltServer,
		"saved_history", cfg.SavedHistory,
		"poll_interval", cfg.PollInterval,
		"background_update_interval", cfg.BackgroundUpdateInterval,
		"keep_screen_on", cfg.KeepScreenOn,
	)

	// start HTTP server
	apiHandler := handlers.NewHandler(services, m.Handler(), log)
	srv := server.New(cfg.Port, apiHandler.InitRoutes())
	runHTTPServer(srv, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

// openDB initializes the SQLite database using configuration.
func openDB(cfg *config.Config, log *logger.Logger) (*sql.DB, error) {
	path := cfg.DBPath
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "pitwatch.db")
		path = "pitwatch.db"
	}
	return db.InitDB(path)
}

// newSource picks a live device or a saved history file. The authenticator is
// nil when replaying a file.
func newSource(cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (heatermeter.Source, *heatermeter.Authenticator, error) {
	if cfg.SavedHistory != "" {
		f, err := os.Open(cfg.SavedHistory)
		if err != nil {
			return nil, nil, fmt.Errorf("open saved history: %w", err)
		}
		defer f.Close()
		src, err := heatermeter.NewSavedSource(f)
		if err != nil {
			return nil, nil, fmt.Errorf("parse saved history %s: %w", cfg.SavedHistory, err)
		}
		return src, nil, nil
	}

	fetcher := heatermeter.NewFetcher(cfg.Server, cfg.AltServer, log, m)
	// An empty password keeps the session idle until one is set over the API.
	auth := heatermeter.NewAuthenticator(fetcher, cfg.AdminPassword, log, m)
	return heatermeter.NewDeviceSource(fetcher), auth, nil
}

// startMQTT mirrors every tick to the broker until ctx is cancelled.
func startMQTT(ctx context.Context, cfg *config.Config, services *service.Service, log *logger.Logger) error {
	hostname, _ := os.Hostname()
	pub, err := mqtt.NewRealPublisher(cfg.MQTTBroker, cfg.MQTTTopic, "pitwatch-"+hostname)
	if err != nil {
		return err
	}
	bridge := mqtt.NewBridge(pub, log.Named("mqtt"))
	services.Subscribe(bridge)
	go bridge.Run(ctx)
	log.Infow("mqtt bridge started", "broker", cfg.MQTTBroker, "topic", cfg.MQTTTopic)
	return nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, log *logger.Logger) {
	go func() {
		log.Infow("http server listening", "addr", srv.Addr())
		if err := srv.Run(); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
