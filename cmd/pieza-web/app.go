package main

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"pieza-web/internal/config"
	"pieza-web/internal/events"
	"pieza-web/internal/httpapi"
	"pieza-web/internal/metrics"
	"pieza-web/internal/rejections"
	"pieza-web/internal/searchapi"
	"pieza-web/internal/searchlog"
	"pieza-web/internal/session"
	"pieza-web/internal/web"
)

// app holds the wired components behind the HTTP handler.
type app struct {
	router  *mux.Router
	manager *session.Manager
	closers []io.Closer
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}
	m := metrics.New()

	var searcher session.Searcher
	var health httpapi.HealthChecker
	if cfg.DemoMode() {
		logger.Warn("no search URL configured, serving the demo catalog")
		searcher = searchapi.NewCatalog(nil, searchapi.DefaultCatalogLimit)
	} else {
		client := searchapi.NewClient(cfg.SearchURL, cfg.SearchTimeout, logger,
			searchapi.WithRejectionSink(rejections.NewStore(cfg.DataDir)))
		searcher = client
		health = client
	}

	observers := session.Observers{m, searchlog.NewWriter(cfg.DataDir, logger)}
	if cfg.KafkaBroker != "" {
		pub := events.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic, logger)
		observers = append(observers, pub)
		a.closers = append(a.closers, pub)
	}

	var store session.Store = session.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rs := session.NewRedisStore(cfg.RedisAddr)
		store = rs
		a.closers = append(a.closers, rs)
	}

	a.manager = session.NewManager(searcher, store, observers, logger, session.ManagerConfig{
		Capacity:      cfg.SessionCapacity,
		TTL:           cfg.SessionTTL,
		SearchTimeout: cfg.SearchTimeout,
	})

	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	httpapi.NewService(a.manager, health, logger, cfg.SecureCookie).RegisterRoutes(r)
	searchlog.RegisterRoutes(r, searchlog.NewQueryService(cfg.DataDir), logger)
	web.New(a.manager, logger, web.Config{Secure: cfg.SecureCookie}).RegisterRoutes(r)
	a.router = r

	return a, nil
}

func (a *app) Handler() http.Handler { return a.router }

// Close flushes the Kafka producer and closes the Redis client.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
