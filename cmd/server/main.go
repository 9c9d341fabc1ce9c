package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/reloveshop/storefront/internal/catalog"
	"github.com/reloveshop/storefront/internal/config"
	"github.com/reloveshop/storefront/internal/gateway"
	"github.com/reloveshop/storefront/internal/httpserver"
	"github.com/reloveshop/storefront/internal/identity"
	"github.com/reloveshop/storefront/internal/logging"
	"github.com/reloveshop/storefront/internal/mykafka"
	"github.com/reloveshop/storefront/internal/search"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(cfg.JWT_SECRET, "JWT_SECRET")

	logger := logging.New(cfg.LOG_LEVEL)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("db init: %v", err)
	}

	prod, err := mykafka.NewProducer(cfg.KafkaBrokers())
	if err != nil {
		log.Fatalf("kafka producer: %v", err)
	}

	gw := gateway.New(db)

	var index catalog.SearchIndex
	if cfg.ES_URL != "" {
		esClient, err := search.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		index = search.NewIndex(esClient, cfg.ES_INDEX)
	} else {
		logger.Warn("ES_URL empty, product search disabled")
	}

	catalogSvc := &catalog.Service{Gateway: gw, Producer: prod, Index: index}
	verifier := identity.NewHTTPVerifier(cfg.GOOGLE_USERINFO_URL, cfg.FACEBOOK_USERINFO_URL)
	authSvc := identity.NewService(db, gw, prod, verifier, []byte(cfg.JWT_SECRET))

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.IntoContext(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	httpserver.Register(e, &httpserver.Deps{
		Products: &httpserver.ProductHandler{Catalog: catalogSvc},
		Cart:     &httpserver.CartHandler{},
		Checkout: &httpserver.CheckoutHandler{Gateway: gw, Producer: prod},
		Account:  &httpserver.AuthHandler{Auth: authSvc},
		Admin:    &httpserver.AdminHandler{Catalog: catalogSvc},
		Auth:     authSvc,
		Sessions: httpserver.NewSessions(),
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()
	logger.Info("storefront listening", "addr", cfg.HTTPAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}
	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	logger.Info("shutdown complete")
}
