package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"storefront-service/handlers"
	"storefront-service/internal/auth"
	"storefront-service/internal/config"
	"storefront-service/internal/consul"
	"storefront-service/internal/orders"
	"storefront-service/internal/pricing"
	"storefront-service/internal/products"
	"storefront-service/internal/stores/kafka"
	"storefront-service/internal/stores/postgres"
	"storefront-service/internal/users"
	"storefront-service/pkg/logkey"
)

func main() {
	_ = godotenv.Load()

	if err := startApp(); err != nil {
		slog.Error("service failed to start", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func startApp() error {
	cfg := config.Load()

	slog.Info("starting service", slog.String("Service", cfg.ServiceName))

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	keys, err := auth.NewKeys(cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("setting up token keys: %w", err)
	}

	u, err := users.NewConf(db)
	if err != nil {
		return fmt.Errorf("setting up users: %w", err)
	}
	p, err := products.NewConf(db)
	if err != nil {
		return fmt.Errorf("setting up products: %w", err)
	}
	o, err := orders.NewConf(db)
	if err != nil {
		return fmt.Errorf("setting up orders: %w", err)
	}

	engine := pricing.NewEngine(cfg.TaxRate, cfg.FreeShippingThreshold, cfg.FlatShippingFee, pricing.DefaultCoupons())

	// Events are optional: without brokers the service runs without a
	// producer and checkout skips publishing.
	var k *kafka.Conf
	if len(cfg.KafkaBrokers) > 0 {
		k, err = kafka.NewConf(cfg.KafkaBrokers)
		if err != nil {
			return fmt.Errorf("connecting to kafka: %w", err)
		}
		defer k.Close()
		slog.Info("kafka producer ready", slog.Any("Brokers", cfg.KafkaBrokers))
	}

	if cfg.ConsulEnable {
		deregister, err := registerWithConsul(cfg)
		if err != nil {
			return fmt.Errorf("registering with consul: %w", err)
		}
		defer deregister()
	}

	api, err := handlers.API(cfg.EndpointPrefix, cfg.GinMode, keys, u, p, o, engine, k)
	if err != nil {
		return fmt.Errorf("building api: %w", err)
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("http server listening", slog.String("Addr", cfg.HTTPAddr))
		serverErr <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
	case sig := <-shutdown:
		slog.Info("shutdown signal received", slog.String("Signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown: %w", err)
		}
	}

	return nil
}

func registerWithConsul(cfg config.Config) (func(), error) {
	client, err := consul.NewClient()
	if err != nil {
		return nil, err
	}

	host, portStr, err := net.SplitHostPort(cfg.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("parsing http addr %q: %w", cfg.HTTPAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("parsing http port %q: %w", portStr, err)
	}
	if host == "" {
		host = "localhost"
	}

	serviceID := cfg.ServiceName + "-" + uuid.NewString()
	if err := consul.RegisterService(client, cfg.ServiceName, serviceID, host, port); err != nil {
		return nil, err
	}
	slog.Info("registered with consul", slog.String("ServiceID", serviceID))

	return func() {
		if err := consul.DeregisterService(client, serviceID); err != nil {
			slog.Error("consul deregistration failed", slog.String(logkey.ERROR, err.Error()))
		}
	}, nil
}
