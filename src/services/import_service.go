package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/username/tradebook/backend/src/database"
	"github.com/username/tradebook/backend/src/logger"
	"github.com/username/tradebook/backend/src/models"
	"github.com/username/tradebook/backend/src/parsers"
	"github.com/username/tradebook/backend/src/processors"
	"github.com/username/tradebook/backend/src/security/validation"
	"github.com/username/tradebook/backend/src/utils"
)

const (
	DefaultImportErrorRatio        = 0.5
	DefaultImportMaxReportedErrors = 10
	// errorsInSummary is how many row errors the too-many-errors message quotes.
	errorsInSummary = 3
)

type ImportOptions struct {
	// ErrorRatio aborts an import once errors reach this share of data rows.
	ErrorRatio        float64
	MaxReportedErrors int
}

type importServiceImpl struct {
	store      *database.Store
	normalizer processors.TradeNormalizer
	opts       ImportOptions
}

func NewImportService(store *database.Store, normalizer processors.TradeNormalizer, opts ImportOptions) ImportService {
	if opts.ErrorRatio <= 0 {
		opts.ErrorRatio = DefaultImportErrorRatio
	}
	if opts.MaxReportedErrors <= 0 {
		opts.MaxReportedErrors = DefaultImportMaxReportedErrors
	}
	return &importServiceImpl{store: store, normalizer: normalizer, opts: opts}
}

// ImportLedger parses one brokerage CSV and writes its trades in a single
// transaction. Rows already in the ledger are counted as duplicates, or
// rewritten in place when req.Overwrite is set. A failed import leaves the
// ledger untouched. The returned result is never nil.
func (s *importServiceImpl) ImportLedger(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	startTime := time.Now()
	log := logger.FromContext(ctx).With("accountID", req.AccountID, "filename", req.Filename)
	log.Info("ImportLedger START", "overwrite", req.Overwrite)

	result := &ImportResult{ImportID: uuid.NewString(), Errors: []string{}}
	fail := func(sentinel error, message string, cause error) (*ImportResult, error) {
		result.Success = false
		result.Message = message
		log.Warn("ImportLedger END: failed", "duration", time.Since(startTime), "error", cause)
		if cause == nil || errors.Is(cause, sentinel) {
			return result, sentinel
		}
		return result, fmt.Errorf("%w: %v", sentinel, cause)
	}

	account, err := s.store.GetAccount(ctx, req.AccountID)
	if errors.Is(err, database.ErrNotFound) {
		return fail(ErrAccountNotFound, "Account not found", nil)
	}
	if err != nil {
		return fail(ErrPersistence, "Error processing CSV: could not load account", err)
	}

	format, err := resolveFormat(*account, req.Format)
	if err != nil {
		return fail(ErrUnsupportedFormat, err.Error(), err)
	}

	if req.Content == nil {
		return fail(ErrParsingFailed, "Error processing CSV: empty upload", nil)
	}
	raw, err := io.ReadAll(req.Content)
	if err != nil {
		return fail(ErrParsingFailed, fmt.Sprintf("Error processing CSV: %v", err), err)
	}

	history := &models.ImportHistory{
		ID:        result.ImportID,
		AccountID: account.ID,
		Filename:  req.Filename,
		FileSize:  int64(len(raw)),
		Format:    format,
		StartedAt: startTime.UTC(),
	}
	defer s.recordHistory(ctx, history, result)

	parser, err := parsers.GetParser(format)
	if err != nil {
		return fail(ErrUnsupportedFormat, err.Error(), err)
	}
	ledger, err := parser.Parse(strings.NewReader(validation.StripUnprintable(string(raw))))
	if err != nil {
		if errors.Is(err, ErrMissingColumns) {
			return fail(ErrMissingColumns, err.Error(), err)
		}
		return fail(ErrParsingFailed, fmt.Sprintf("Error processing CSV: %v", err), err)
	}
	log.Debug("Ledger parsed", "format", format, "rows", ledger.DataRows())

	var (
		pending []models.Trade
		rowErrs []string
	)
	for _, row := range ledger.Rows {
		switch {
		case row.Skipped:
			result.SkippedRows++
		case row.Err != nil:
			rowErrs = append(rowErrs, fmt.Sprintf("Row %d: %v", row.Line, row.Err))
		default:
			trade, err := s.normalizer.Normalize(account.ID, *row.Trade, models.SourceCSVImport)
			if err != nil {
				rowErrs = append(rowErrs, fmt.Sprintf("Row %d: %v", row.Line, err))
				continue
			}
			pending = append(pending, trade)
		}
	}
	for _, e := range rowErrs {
		log.Warn("Ledger row rejected", "error", e)
	}
	result.ErrorsCount = len(rowErrs)
	result.Errors = append(result.Errors, rowErrs[:utils.MinInt(len(rowErrs), s.opts.MaxReportedErrors)]...)

	if tooManyErrors(len(rowErrs), ledger.DataRows(), s.opts.ErrorRatio) {
		msg := "Too many errors in CSV. First few errors: " +
			strings.Join(rowErrs[:utils.MinInt(len(rowErrs), errorsInSummary)], "; ")
		return fail(ErrTooManyErrors, msg, nil)
	}

	var imported, duplicates, updated int
	err = s.store.WithTx(ctx, func(q *database.Queries) error {
		for i := range pending {
			t := &pending[i]
			existing, err := q.FindTradeByNaturalKey(ctx, t.NaturalKey())
			if err == nil {
				if !req.Overwrite {
					duplicates++
					continue
				}
				t.ID = existing.ID
				t.ImportSource = existing.ImportSource
				if err := q.UpdateTrade(ctx, t); err != nil {
					return err
				}
				t.CreatedAt = existing.CreatedAt
				updated++
				continue
			}
			if !errors.Is(err, database.ErrNotFound) {
				return err
			}
			if err := q.InsertTrade(ctx, t); err != nil {
				return err
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return fail(ErrPersistence, "Error processing CSV: failed to save trades", err)
	}

	result.Success = true
	result.ImportedCount = imported
	result.DuplicatesCount = duplicates
	result.UpdatedCount = updated
	result.Message = fmt.Sprintf("Imported %d trades, %d duplicates, %d rows skipped (empty data)",
		imported, duplicates, result.SkippedRows)
	if updated > 0 {
		result.Message += fmt.Sprintf(", %d updated", updated)
	}
	log.Info("ImportLedger END", "duration", time.Since(startTime),
		"imported", imported, "duplicates", duplicates, "updated", updated,
		"skipped", result.SkippedRows, "errors", result.ErrorsCount)
	return result, nil
}

func (s *importServiceImpl) ListImports(ctx context.Context, accountID int64) ([]models.ImportHistory, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return s.store.ListImportHistory(ctx, accountID)
}

// recordHistory stores the audit row for an attempt once the result is final.
func (s *importServiceImpl) recordHistory(ctx context.Context, h *models.ImportHistory, r *ImportResult) {
	h.RecordsProcessed = r.ImportedCount + r.DuplicatesCount + r.UpdatedCount + r.SkippedRows + r.ErrorsCount
	h.RecordsImported = r.ImportedCount
	h.RecordsUpdated = r.UpdatedCount
	h.RecordsDuplicates = r.DuplicatesCount
	h.RecordsSkipped = r.SkippedRows
	h.RecordsErrors = r.ErrorsCount
	h.CompletedAt = time.Now().UTC()
	h.Status = models.ImportStatusCompleted
	if !r.Success {
		h.Status = models.ImportStatusFailed
		h.ErrorMessage = r.Message
	}
	if err := s.store.InsertImportHistory(context.WithoutCancel(ctx), h); err != nil {
		logger.L.Error("Failed to record import history", "importID", h.ID, "error", err)
	}
}

func resolveFormat(account models.Account, requested models.BrokerageFormat) (models.BrokerageFormat, error) {
	if requested != "" {
		return requested, nil
	}
	if f, ok := account.Format(); ok {
		return f, nil
	}
	return "", fmt.Errorf("account %q has provider %q with no CSV format; choose one explicitly", account.Name, account.Provider)
}

// tooManyErrors reports whether row errors reached ratio of all data rows.
func tooManyErrors(errorCount, dataRows int, ratio float64) bool {
	return errorCount > 0 && float64(errorCount) >= ratio*float64(dataRows)
}
