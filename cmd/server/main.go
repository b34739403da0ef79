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

	"github.com/mercadito/tienda-backend/internal/config"
	"github.com/mercadito/tienda-backend/internal/es"
	"github.com/mercadito/tienda-backend/internal/handlers"
	"github.com/mercadito/tienda-backend/internal/handlers/cart"
	"github.com/mercadito/tienda-backend/internal/logging"
	authmw "github.com/mercadito/tienda-backend/internal/middleware/auth"
	"github.com/mercadito/tienda-backend/internal/mykafka"
	httpserver "github.com/mercadito/tienda-backend/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("error inicializando la base de datos: %v", err)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)

	var producer *mykafka.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = mykafka.NewProducer([]string{configuration.KAFKA_ADDRESS})
	} else {
		logger.Warn("KAFKA_ADDRESS not set, domain events disabled")
	}

	deps := &httpserver.Deps{
		DB:             db,
		Auth:           &authmw.Middleware{JWTSecret: jwtSecret},
		AuthHandler:    &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, Producer: producer},
		UserHandler:    &handlers.UserHandler{DB: db},
		ProductHandler: &handlers.ProductHandler{DB: db, Producer: producer},
		CartHandler:    &cart.CartHandler{DB: db, Producer: producer},
		OrderHandler:   &handlers.OrderHandler{DB: db, Producer: producer},
	}

	if configuration.ES_URL != "" {
		esClient, err := es.NewClient(configuration)
		if err != nil {
			log.Fatal(err)
		}
		deps.ProductHandler.ES = esClient
		deps.ProductHandler.Index = "productos"
		deps.SearchHandler = &handlers.SearchHandler{ES: esClient, Index: "productos"}
	} else {
		logger.Warn("ES_URL not set, product search disabled")
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.CORS())
	// Carry a request-scoped logger so handlers log with the request id.
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqLogger := logger.With("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			ctx := logging.IntoContext(c.Request().Context(), reqLogger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	httpserver.Register(e, deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http server listening", "addr", configuration.HTTP_ADDR)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "err", err)
		}
	} else {
		logger.Error("db() error", "err", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close error", "err", err)
		}
	}

	logger.Info("shutdown complete")
}
