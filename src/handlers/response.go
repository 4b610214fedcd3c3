package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/username/tradebook/backend/src/logger"
	"github.com/username/tradebook/backend/src/services"
	"github.com/username/tradebook/backend/src/utils"
)

// statusForError maps service sentinels onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrAccountNotFound), errors.Is(err, services.ErrTradeNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrDuplicateTrade), errors.Is(err, services.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, services.ErrProtectedTrade):
		return http.StatusForbidden
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrMissingColumns),
		errors.Is(err, services.ErrTooManyErrors),
		errors.Is(err, services.ErrParsingFailed),
		errors.Is(err, services.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrPricingUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func sendServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("Request failed", "path", r.URL.Path, "error", err)
		utils.SendJSONError(w, "An internal error occurred. Please try again later.", status)
		return
	}
	utils.SendJSONError(w, err.Error(), status)
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// queryAccountID reads the optional account_id filter.
func queryAccountID(r *http.Request) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("account_id"))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid account_id %q", raw)
	}
	return &id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
