package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"FashionHub/internal/auth"
	"FashionHub/internal/config"
	"FashionHub/pkg/kit"
)

func main() {
	service := "auth"

	cfg, err := config.LoadAuth()
	if err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	s := &auth.Server{
		Log:      log,
		JWT:      auth.NewTokenMaker(cfg.JWTSecret),
		TokenTTL: cfg.TokenTTL,
	}

	if cfg.DatabaseURL != "" {
		pool, err := kit.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal("postgres connect failed", zap.Error(err))
		}
		defer pool.Close()

		s.Accounts = auth.NewPostgresStore(pool)
		s.Profiles = auth.NewPostgresProfileStore(pool)
		log.Info("using postgres stores")
	} else {
		s.Accounts = auth.NewMemStore()
		s.Profiles = auth.NewMemProfileStore()
		log.Warn("DATABASE_URL not set, accounts are kept in memory")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	h := auth.NewHandler(s, auth.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
		ServiceToken:   cfg.ServiceToken,
	})

	if err := kit.RunHTTPServer(ctx, cfg.Addr(), h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
