package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/tradebook/backend/src/security"
	"github.com/username/tradebook/backend/src/utils"
)

type RouterConfig struct {
	Accounts  *AccountHandler
	Imports   *ImportHandler
	Trades    *TradeHandler
	Positions *PositionHandler

	// Auth guards /api. Nil disables authentication.
	Auth *security.AuthService
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	utils.SendJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// NewRouter mounts every API route on a chi router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", HandleHealth)

	r.Route("/api", func(r chi.Router) {
		if cfg.Auth != nil {
			r.Use(AuthMiddleware(cfg.Auth))
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", cfg.Accounts.HandleListAccounts)
			r.Post("/", cfg.Accounts.HandleCreateAccount)
			r.Post("/import-csv", cfg.Imports.HandleImportCSVByName)
			r.Route("/{accountID}", func(r chi.Router) {
				r.Get("/", cfg.Accounts.HandleGetAccount)
				r.Patch("/", cfg.Accounts.HandleUpdateAccount)
				r.Post("/import-csv", cfg.Imports.HandleImportCSV)
				r.Get("/imports", cfg.Imports.HandleListImports)
			})
		})

		r.Route("/trades", func(r chi.Router) {
			r.Get("/", cfg.Trades.HandleListTrades)
			r.Post("/", cfg.Trades.HandleCreateTrade)
			r.Get("/{tradeID}", cfg.Trades.HandleGetTrade)
			r.Put("/{tradeID}", cfg.Trades.HandleUpdateTrade)
			r.Delete("/{tradeID}", cfg.Trades.HandleDeleteTrade)
		})

		r.Route("/positions", func(r chi.Router) {
			r.Get("/", cfg.Positions.HandleGetPositions)
			r.Post("/rebuild", cfg.Positions.HandleRebuildPositions)
			r.Post("/refresh-prices", cfg.Positions.HandleRefreshPrices)
		})
	})
	return r
}
