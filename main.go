package main

import (
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/username/tradebook/backend/src/config"
	"github.com/username/tradebook/backend/src/database"
	"github.com/username/tradebook/backend/src/handlers"
	"github.com/username/tradebook/backend/src/logger"
	"github.com/username/tradebook/backend/src/processors"
	"github.com/username/tradebook/backend/src/security"
	"github.com/username/tradebook/backend/src/services"
	"golang.org/x/time/rate"
)

func rateLimitMiddleware(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(origins []string, next http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowedOrigins[strings.TrimRight(o, "/")] = true
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] || allowedOrigins["*"] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With, X-Request-ID, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag, X-Request-ID")
		}

		if r.Method == http.MethodOptions {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Tradebook backend server starting...")

	var authService *security.AuthService
	if config.Cfg.AuthDisabled {
		logger.L.Warn("AUTH_DISABLED is set; the API is served without authentication")
	} else {
		if len(config.Cfg.JWTSecret) < 32 {
			logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
			os.Exit(1)
		}
		authService = security.NewAuthService(config.Cfg.JWTSecret)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	store := database.NewStore(database.DB)
	logger.L.Info("Database initialized successfully.")

	positionCache := services.NewPositionCache(config.Cfg.PositionCacheTTL)

	logger.L.Info("Initializing services and handlers...")
	normalizer := processors.NewTradeNormalizer()
	priceService := services.NewPriceService(config.Cfg.PriceSessionURL, config.Cfg.PriceQuoteBaseURL, config.Cfg.PriceRequestTimeout)
	accountService := services.NewAccountService(store, positionCache)
	importService := services.NewImportService(store, normalizer, services.ImportOptions{
		ErrorRatio:        config.Cfg.ImportErrorRatio,
		MaxReportedErrors: config.Cfg.ImportMaxReportedErrors,
	})
	tradeService := services.NewTradeService(store, normalizer)
	positionService := services.NewPositionService(store, processors.NewPositionReconstructor(), priceService, positionCache)

	router := handlers.NewRouter(handlers.RouterConfig{
		Accounts:  handlers.NewAccountHandler(accountService),
		Imports:   handlers.NewImportHandler(importService, accountService, config.Cfg.MaxUploadSizeBytes),
		Trades:    handlers.NewTradeHandler(tradeService),
		Positions: handlers.NewPositionHandler(positionService),
		Auth:      authService,
	})

	logger.L.Info("Applying global middleware...")
	limiter := rate.NewLimiter(rate.Limit(config.Cfg.RateLimitPerSecond), config.Cfg.RateLimitBurst)
	finalHandler := enableCORS(config.Cfg.AllowedOrigins, rateLimitMiddleware(limiter, router))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
