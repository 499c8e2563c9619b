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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/farmeazy/farmgate/internal/backend"
	"github.com/farmeazy/farmgate/internal/cart"
	"github.com/farmeazy/farmgate/internal/cartstore"
	"github.com/farmeazy/farmgate/internal/checkout"
	"github.com/farmeazy/farmgate/internal/gateway"
	h "github.com/farmeazy/farmgate/internal/http"
)

type Config struct {
	HTTPPort         string
	BackendBaseURL   string
	BackendToken     string
	GatewayScriptURL string
	CartStore        string
	CartDir          string
	RedisAddr        string
	DeviceID         string
	RequestTimeout   time.Duration
	ShutdownTimeout  time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:         getEnv("HTTP_PORT", "7070"),
		BackendBaseURL:   getEnv("BACKEND_BASE_URL", "https://api.farmeazy.in/api"),
		BackendToken:     getEnv("BACKEND_TOKEN", ""),
		GatewayScriptURL: getEnv("GATEWAY_SCRIPT_URL", "https://checkout.razorpay.com/v1/checkout.js"),
		CartStore:        getEnv("CART_STORE", "file"),
		CartDir:          getEnv("CART_DIR", defaultCartDir()),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		DeviceID:         getEnv("DEVICE_ID", "default"),
		RequestTimeout:   30 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func defaultCartDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".farmgate"
	}
	return home + "/.farmgate"
}

func newStore(cfg *Config, bus *cartstore.Bus) (cartstore.Store, error) {
	if cfg.CartStore == "redis" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return cartstore.NewRedisStore(client, cfg.DeviceID, bus), nil
	}
	return cartstore.NewFileStore(cfg.CartDir, bus)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	cfg := loadConfig()
	if cfg.BackendToken == "" {
		log.Fatal("BACKEND_TOKEN is required")
	}

	client := backend.NewClient(backend.Config{
		BaseURL: cfg.BackendBaseURL,
		Token:   cfg.BackendToken,
		Timeout: 15 * time.Second,
	})

	bus := cartstore.NewBus()
	store, err := newStore(cfg, bus)
	if err != nil {
		log.Fatalf("failed to open cart store: %v", err)
	}

	cartSvc := cart.NewService(store, client)
	ledger := backend.NewLedger(client)

	relay := gateway.NewRelay(cfg.GatewayScriptURL)
	adapter := gateway.NewAdapter(relay)

	orch := checkout.NewOrchestrator(cartSvc, client, adapter, ledger, checkout.Config{})
	defer orch.Close()

	cartHandler := h.NewCartHandler(cartSvc, ledger, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(orch, client, relay, cfg.RequestTimeout)
	accountHandler := h.NewAccountHandler(client, cfg.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddLine)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveLine)
			r.Put("/coin-selection", cartHandler.SetCoinSelection)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", checkoutHandler.Status)
			r.Post("/", checkoutHandler.Start)
			r.Post("/retry", checkoutHandler.Retry)
			r.Post("/cancel", checkoutHandler.Cancel)
			r.Post("/gateway-result", checkoutHandler.GatewayResult)
		})
		r.Get("/coins", accountHandler.GetCoins)
		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", accountHandler.ListAddresses)
			r.Post("/", accountHandler.CreateAddress)
		})
	})

	srv := &http.Server{
		Addr:         "127.0.0.1:" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "farmgate"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("farmgate agent starting on 127.0.0.1:%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
