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

	cartstore "github.com/mystor/storefront/internal/cart"
	"github.com/mystor/storefront/internal/catalog"
	"github.com/mystor/storefront/internal/config"
	"github.com/mystor/storefront/internal/es"
	"github.com/mystor/storefront/internal/handlers"
	carthandler "github.com/mystor/storefront/internal/handlers/cart"
	wishlisthandler "github.com/mystor/storefront/internal/handlers/wishlist"
	"github.com/mystor/storefront/internal/logging"
	authmw "github.com/mystor/storefront/internal/middleware/auth"
	"github.com/mystor/storefront/internal/mykafka"
	"github.com/mystor/storefront/internal/rating"
	"github.com/mystor/storefront/internal/service/token"
	httpserver "github.com/mystor/storefront/internal/transport/http"
	"github.com/mystor/storefront/internal/wishlist"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	logger := logging.New(cfg.LOG_LEVEL)

	jwtSecret := []byte(cfg.JWT_SECRET)
	refreshSecret := []byte(cfg.REFRESH_SECRET)

	brokers := []string{cfg.KAFKA_ADDRESS}
	topics := []string{"user_events", "cart_events", "product_events", "wishlist_events"}
	prod, err := mykafka.NewProducer(brokers, topics)
	if err != nil {
		log.Fatal(err)
	}

	esClient, err := es.NewClient(cfg)
	if err != nil {
		log.Fatal(err)
	}

	tokens := &token.Service{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret}
	ratings := &rating.Aggregator{DB: db}
	engine := &catalog.Engine{DB: db, Rating: ratings}
	store := cartstore.NewStore(db)

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), logging.RequestLogger(logger))

	deps := httpserver.Deps{
		DB:             db,
		AuthHandler:    &handlers.AuthHandler{DB: db, Tokens: tokens, Producer: prod},
		ProductHandler: &handlers.ProductHandler{DB: db, Producer: prod, ES: esClient, Index: "products", Rating: ratings},
		CatalogHandler: &handlers.CatalogHandler{Engine: engine},
		ReviewHandler:  &handlers.ReviewHandler{DB: db},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: "products"},
		CartHandler:    &carthandler.CartHandler{DB: db, Store: store, Producer: prod},
		WishlistHandler: &wishlisthandler.WishlistHandler{
			Service:  &wishlist.Service{DB: db, Cart: store},
			Producer: prod,
		},
		Auth: &authmw.Middleware{JWTSecret: jwtSecret},
	}

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         cfg.LISTEN_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server_start", "addr", cfg.LISTEN_ADDR)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
