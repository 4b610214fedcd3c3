package handlers

import (
	"net/http"
	"strconv"

	"github.com/username/tradebook/backend/src/services"
	"github.com/username/tradebook/backend/src/utils"
)

type TradeHandler struct {
	tradeService services.TradeService
}

func NewTradeHandler(tradeService services.TradeService) *TradeHandler {
	return &TradeHandler{tradeService: tradeService}
}

// HandleListTrades supports ?account_id=, ?symbol= and ?limit=.
func (h *TradeHandler) HandleListTrades(w http.ResponseWriter, r *http.Request) {
	accountID, err := queryAccountID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	query := services.TradeQuery{AccountID: accountID, Symbol: r.URL.Query().Get("symbol")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if query.Limit, err = strconv.Atoi(raw); err != nil || query.Limit < 0 {
			utils.SendJSONError(w, "invalid limit", http.StatusBadRequest)
			return
		}
	}

	trades, err := h.tradeService.ListTrades(r.Context(), query)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, trades, http.StatusOK)
}

func (h *TradeHandler) HandleCreateTrade(w http.ResponseWriter, r *http.Request) {
	var in services.TradeInput
	if err := decodeJSON(r, &in); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	trade, err := h.tradeService.CreateTrade(r.Context(), in)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, trade, http.StatusCreated)
}

func (h *TradeHandler) HandleGetTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "tradeID")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	trade, err := h.tradeService.GetTrade(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, trade, http.StatusOK)
}

func (h *TradeHandler) HandleUpdateTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "tradeID")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var in services.TradeUpdate
	if err := decodeJSON(r, &in); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	trade, err := h.tradeService.UpdateTrade(r.Context(), id, in)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, trade, http.StatusOK)
}

func (h *TradeHandler) HandleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "tradeID")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.tradeService.DeleteTrade(r.Context(), id); err != nil {
		sendServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
