package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/middleware"

	"github.com/bobaclub/counter/internal/apiclient"
	"github.com/bobaclub/counter/internal/counter"
	"github.com/bobaclub/counter/internal/vault"
)

const (
	appNamespace = "COUNTER"
	appName      = "counter"
	appVersion   = "0.1.0"
)

func main() {
	config, err := aqm.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("Cannot setup %s(%s): %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := aqm.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	vaultPath, _ := config.GetString("vault.path")
	if vaultPath == "" {
		vaultPath = "data"
	}
	vaultSecret, _ := config.GetString("vault.secret")

	store, err := vault.New(vaultPath, vaultSecret)
	if err != nil {
		log.Fatalf("Cannot open vault: %v", err)
	}

	sessions := counter.NewSessionStore(store, logger)
	sessions.Rehydrate()

	baseURL, _ := config.GetString("api.base_url")
	if baseURL == "" {
		baseURL = "http://localhost:8088"
	}
	client := apiclient.New(baseURL, sessions, logger)
	if timeoutStr, ok := config.GetString("api.timeout"); ok && timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			client.SetTimeout(timeout)
		} else {
			logger.Info("invalid api.timeout value", "value", timeoutStr, "error", err)
		}
	}

	notices := counter.NewNoticeQueue()
	client.SetNotifier(notices.Push)

	cart := counter.NewCartStore()

	// The cart never outlives the session.
	sessions.Subscribe(func(sess *counter.Session) {
		if sess == nil {
			cart.Clear()
		}
	})

	catalogTTL := time.Duration(0)
	if ttlStr, ok := config.GetString("catalog.cache_ttl"); ok && ttlStr != "" {
		if parsed, err := time.ParseDuration(ttlStr); err == nil {
			catalogTTL = parsed
		} else {
			logger.Info("invalid catalog.cache_ttl value", "value", ttlStr, "error", err)
		}
	}

	catalog := counter.NewCatalogDataAccess(client, catalogTTL)
	orders := counter.NewOrderDataAccess(client)
	auth := counter.NewAuthDataAccess(client)
	submitter := counter.NewOrderSubmitter(cart, orders, logger)

	handler := counter.NewHandler(counter.HandlerDeps{
		Sessions:  sessions,
		Cart:      cart,
		Catalog:   catalog,
		Orders:    orders,
		Auth:      auth,
		Submitter: submitter,
		Vault:     store,
		Notices:   notices,
	}, config, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger:      logger,
		DisableCORS: false,
	})

	options := []aqm.Option{
		aqm.WithConfig(config),
		aqm.WithLogger(logger),
		aqm.WithHTTPMiddleware(stack...),
		aqm.WithHTTPServerModules("web.port", handler),
		aqm.WithHealthChecks(appName),
	}

	ms := aqm.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped with error: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
