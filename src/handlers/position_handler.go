package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/username/tradebook/backend/src/logger"
	"github.com/username/tradebook/backend/src/services"
	"github.com/username/tradebook/backend/src/utils"
)

type PositionHandler struct {
	positionService services.PositionService
}

func NewPositionHandler(positionService services.PositionService) *PositionHandler {
	return &PositionHandler{positionService: positionService}
}

// HandleGetPositions lists stored positions with ETag support.
func (h *PositionHandler) HandleGetPositions(w http.ResponseWriter, r *http.Request) {
	accountID, err := queryAccountID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	positions, err := h.positionService.ListPositions(r.Context(), accountID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-cache, private")
	currentETag, etagErr := utils.GenerateETag(positions)
	if etagErr != nil {
		logger.FromContext(r.Context()).Error("Failed to generate ETag for positions", "error", etagErr)
	} else {
		quotedETag := fmt.Sprintf("\"%s\"", currentETag)
		w.Header().Set("ETag", quotedETag)
		for _, clientETag := range strings.Split(r.Header.Get("If-None-Match"), ",") {
			if strings.TrimSpace(clientETag) == quotedETag {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
	}
	utils.SendJSON(w, positions, http.StatusOK)
}

// HandleRebuildPositions regenerates positions for ?account_id= or for every
// active account.
func (h *PositionHandler) HandleRebuildPositions(w http.ResponseWriter, r *http.Request) {
	accountID, err := queryAccountID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.positionService.RebuildPositions(r.Context(), accountID)
	if err != nil {
		if result == nil {
			sendServiceError(w, r, err)
			return
		}
		utils.SendJSON(w, result, statusForError(err))
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

func (h *PositionHandler) HandleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	accountID, err := queryAccountID(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := h.positionService.RefreshPrices(r.Context(), accountID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}
