package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"blog/internal/auth"
	"blog/internal/config"
	"blog/internal/db"
	"blog/internal/events"
	"blog/internal/handlers"
	"blog/internal/logger"
	"blog/internal/store"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Create data dir for DB
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		log.WithError(err).Fatal("create data dir")
	}

	dbc, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	changed, err := db.Migrate(dbc)
	if err != nil {
		log.WithError(err).Fatal("migrate database")
	}
	if changed {
		log.Info("migrations applied")
	} else {
		log.Info("no new migrations to apply")
	}
	st := store.New(dbc)
	defer st.Close()

	digester, err := auth.NewDigester(cfg.DigestScheme, cfg.BcryptCost)
	if err != nil {
		log.WithError(err).Fatal("digest scheme")
	}
	if digester.Scheme == auth.SchemeSHA256 {
		log.Warn("using the legacy unsalted sha256 credential digest")
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaTopic,
			WriteTimeout: cfg.KafkaWriteTimeout,
		}, log)
		if err != nil {
			log.WithError(err).Fatal("kafka publisher")
		}
		pub = kp
		log.WithField("topic", cfg.KafkaTopic).Info("publishing activity events to kafka")
	}
	defer pub.Close()

	h := handlers.New(st, auth.NewManager(st), digester, pub, log)

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           h.Routes(cfg.MetricsEnabled),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.WithField("addr", cfg.ServerAddr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	shutdown(srv, cfg.ShutdownTimeout, log)
}

func shutdown(srv *http.Server, timeout time.Duration, log logrus.FieldLogger) {
	log.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("error during server shutdown")
		return
	}
	log.Info("server stopped gracefully")
}
