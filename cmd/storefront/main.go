package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"FashionHub/internal/config"
	"FashionHub/internal/lists"
	"FashionHub/internal/storefront"
	"FashionHub/pkg/kit"
)

func main() {
	service := "storefront"

	cfg, err := config.LoadStorefront()
	if err != nil {
		kit.NewLogger(service, "info").Fatal("load config failed", zap.Error(err))
	}

	log := kit.NewLogger(service, cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	storage, closeStorage, err := openListStorage(ctx, cfg)
	if err != nil {
		log.Fatal("list storage init failed", zap.Error(err))
	}
	defer closeStorage()
	log.Info("list storage ready", zap.String("kind", cfg.ListStorage))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	h, err := storefront.NewHandler(storefront.Deps{
		AuthURL:        cfg.AuthURL,
		CatalogURL:     cfg.CatalogURL,
		ServiceToken:   cfg.ServiceToken,
		Lists:          storage,
		PageSize:       cfg.PageSize,
		SearchDebounce: cfg.SearchDebounce,
		ProfileTTL:     cfg.ProfileCacheTTL,
		DeviceIdle:     cfg.DeviceIdle,
		CookieSecure:   cfg.CookieSecure,
		TrustProxy:     cfg.TrustProxy,
	}, storefront.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       reg,
		MetricsEnabled: cfg.MetricsEnabled,
		MetricsToken:   cfg.MetricsToken,
	})
	if err != nil {
		log.Fatal("init storefront handler failed", zap.Error(err))
	}

	if err := kit.RunHTTPServer(ctx, cfg.Addr(), h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

func openListStorage(ctx context.Context, cfg config.Storefront) (lists.Storage, func(), error) {
	switch cfg.ListStorage {
	case config.ListStorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		s := lists.NewRedisStorage(client)
		if err := kit.WithTimeout(ctx, kit.PingTimeout*5, s.Ping); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return s, func() { _ = client.Close() }, nil

	case config.ListStorageFile:
		s, err := lists.NewFileStorage(cfg.ListDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil

	default:
		return lists.NewMemStorage(), func() {}, nil
	}
}
