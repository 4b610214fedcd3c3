package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/username/tradebook/backend/src/logger"
	"github.com/username/tradebook/backend/src/models"
	"github.com/username/tradebook/backend/src/security/validation"
	"github.com/username/tradebook/backend/src/services"
	"github.com/username/tradebook/backend/src/utils"
)

const uploadField = "csv_file"

type ImportHandler struct {
	importService  services.ImportService
	accountService services.AccountService
	maxUploadSize  int64
}

func NewImportHandler(importService services.ImportService, accountService services.AccountService, maxUploadSize int64) *ImportHandler {
	return &ImportHandler{
		importService:  importService,
		accountService: accountService,
		maxUploadSize:  maxUploadSize,
	}
}

// HandleImportCSV imports an uploaded ledger into the account in the path.
func (h *ImportHandler) HandleImportCSV(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "accountID")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	file, fileHeader, ok := h.receiveUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	format, err := formFormat(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.runImport(w, r, services.ImportRequest{
		AccountID: accountID,
		Format:    format,
		Overwrite: formBool(r, "overwrite"),
		Filename:  fileHeader.Filename,
		Content:   file,
	})
}

// HandleImportCSVByName imports into the account named in the form, creating
// it with the given provider when it does not exist yet.
func (h *ImportHandler) HandleImportCSVByName(w http.ResponseWriter, r *http.Request) {
	file, fileHeader, ok := h.receiveUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	name := strings.TrimSpace(r.FormValue("account_name"))
	provider := models.Provider(strings.ToLower(strings.TrimSpace(r.FormValue("provider"))))
	if name == "" || !provider.Valid() {
		utils.SendJSONError(w, "account_name and a valid provider are required", http.StatusBadRequest)
		return
	}
	format, err := formFormat(r)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	account, err := h.accountService.GetOrCreateAccount(r.Context(), name, provider)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	h.runImport(w, r, services.ImportRequest{
		AccountID: account.ID,
		Format:    format,
		Overwrite: formBool(r, "overwrite"),
		Filename:  fileHeader.Filename,
		Content:   file,
	})
}

func (h *ImportHandler) HandleListImports(w http.ResponseWriter, r *http.Request) {
	accountID, err := pathID(r, "accountID")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	history, err := h.importService.ListImports(r.Context(), accountID)
	if err != nil {
		sendServiceError(w, r, err)
		return
	}
	if history == nil {
		history = []models.ImportHistory{}
	}
	utils.SendJSON(w, history, http.StatusOK)
}

// runImport writes the import result. Failed imports still return the result
// body so clients see the row errors.
func (h *ImportHandler) runImport(w http.ResponseWriter, r *http.Request, req services.ImportRequest) {
	log := logger.FromContext(r.Context())
	log.Info("Processing import request", "accountID", req.AccountID, "filename", req.Filename)

	result, err := h.importService.ImportLedger(r.Context(), req)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			log.Error("Import failed", "accountID", req.AccountID, "error", err)
		} else {
			log.Warn("Import rejected", "accountID", req.AccountID, "error", err)
		}
		if result == nil {
			sendServiceError(w, r, err)
			return
		}
		utils.SendJSON(w, result, status)
		return
	}
	utils.SendJSON(w, result, http.StatusOK)
}

// receiveUpload parses the multipart form and checks the declared and
// detected content types. It writes the error response itself.
func (h *ImportHandler) receiveUpload(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, bool) {
	log := logger.FromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+1024*1024)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		log.Warn("Failed to parse multipart form or request too large", "error", err, "limit", h.maxUploadSize)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", h.maxUploadSize/(1024*1024)), http.StatusBadRequest)
		return nil, nil, false
	}

	file, fileHeader, err := r.FormFile(uploadField)
	if err != nil {
		log.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "No file uploaded. Ensure 'csv_file' field is used.", http.StatusBadRequest)
		return nil, nil, false
	}
	if fileHeader.Size > h.maxUploadSize {
		file.Close()
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB", h.maxUploadSize/(1024*1024)), http.StatusBadRequest)
		return nil, nil, false
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") {
		file.Close()
		utils.SendJSONError(w, "File must be a CSV", http.StatusBadRequest)
		return nil, nil, false
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		file.Close()
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return nil, nil, false
	}
	if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
		file.Close()
		log.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return nil, nil, false
	}
	return file, fileHeader, true
}

func formFormat(r *http.Request) (models.BrokerageFormat, error) {
	raw := strings.TrimSpace(r.FormValue("format"))
	if raw == "" {
		return "", nil
	}
	return models.ParseBrokerageFormat(raw)
}

func formBool(r *http.Request, field string) bool {
	v, _ := strconv.ParseBool(r.FormValue(field))
	return v
}
