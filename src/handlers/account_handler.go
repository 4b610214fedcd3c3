package handlers

import (
	"net/http"
	"strconv"

	"github.com/username/tradebook/backend/src/models"
	"github.com/username/tradebook/backend/src/services"
	"github.com/username/tradebook/backend/src/utils"
)

type AccountHandler struct {
	accountService services.AccountService
}

func NewAccountHandler(accountService services.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

type createAccountRequest struct {
	Name     string          `json:"name"`
	Provider models.Provider `json:"provider"`
}

// HandleListAccounts lists accounts; ?active=true hides deactivated ones.
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	accounts, err := h.accountService.ListAccounts(r.Context(), activeOnly)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, accounts, http.StatusOK)
}

func (h *AccountHandler) HandleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	account, err := h.accountService.CreateAccount(r.Context(), req.Name, req.Provider)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, account, http.StatusCreated)
}

func (h *AccountHandler) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "accountID")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	account, err := h.accountService.GetAccount(r.Context(), id)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, account, http.StatusOK)
}

func (h *AccountHandler) HandleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "accountID")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req services.AccountUpdate
	if err := decodeJSON(r, &req); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	account, err := h.accountService.UpdateAccount(r.Context(), id, req)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, account, http.StatusOK)
}
