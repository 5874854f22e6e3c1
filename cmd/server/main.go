package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/avelsk/storefront/internal/config"
	"github.com/avelsk/storefront/internal/es"
	"github.com/avelsk/storefront/internal/handlers"
	"github.com/avelsk/storefront/internal/logging"
	"github.com/avelsk/storefront/internal/metrics"
	"github.com/avelsk/storefront/internal/mykafka"
	cartsvc "github.com/avelsk/storefront/internal/service/cart"
	"github.com/avelsk/storefront/internal/service/catalog"
	ordersvc "github.com/avelsk/storefront/internal/service/order"
	"github.com/avelsk/storefront/internal/service/token"
	httpserver "github.com/avelsk/storefront/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(configuration.JWT_SECRET, "JWT_SECRET")
	config.MustNonEmpty(configuration.REFRESH_SECRET, "REFRESH_SECRET")

	logger := logging.New(configuration.LogLevel)

	db, err := config.InitDB(context.Background(), configuration)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	prod, err := mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	if err != nil {
		log.Fatal(err)
	}

	searchClient, err := es.NewClient(configuration)
	if err != nil {
		logger.Warn("elasticsearch unavailable, search disabled", "error", err)
		searchClient = nil
	}

	tokens := &token.TokenService{
		DB:            db,
		JWTSecret:     []byte(configuration.JWT_SECRET),
		RefreshSecret: []byte(configuration.REFRESH_SECRET),
	}
	cartService := &cartsvc.Service{DB: db}
	orderService := &ordersvc.Service{DB: db}
	catalogService := &catalog.Service{DB: db}

	serverMetrics := metrics.NewServerMetrics(prometheus.DefaultRegisterer)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(logging.RequestLogger(logger))
	e.Use(serverMetrics.Middleware())

	deps := httpserver.Deps{
		DB:     db,
		Tokens: tokens,
		AuthHandler: &handlers.AuthHandler{
			DB: db, Tokens: tokens, Cart: cartService, Producer: prod,
		},
		CatalogHandler: &handlers.CatalogHandler{Catalog: catalogService},
		CartHandler:    &handlers.CartHandler{Cart: cartService, Producer: prod},
		OrderHandler: &handlers.OrderHandler{
			Cart: cartService, Orders: orderService, Producer: prod, Metrics: serverMetrics,
		},
		WishlistHandler: &handlers.WishlistHandler{DB: db, Catalog: catalogService},
		AdminHandler: &handlers.AdminHandler{
			DB: db, Orders: orderService, Producer: prod,
			ES: searchClient, ESIndex: "products",
			UploadDir: configuration.UploadDir,
		},
		SearchHandler: &handlers.SearchHandler{ES: searchClient, Index: "products"},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", configuration.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	logger.Info("server started", "port", configuration.ServerPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}
	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}
