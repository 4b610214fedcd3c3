package services

import (
	"errors"

	"github.com/username/tradebook/backend/src/parsers/tabular"
)

var (
	ErrParsingFailed      = errors.New("failed to parse ledger file")
	ErrMissingColumns     = tabular.ErrMissingColumns
	ErrTooManyErrors      = errors.New("too many errors in ledger file")
	ErrUnsupportedFormat  = errors.New("unsupported brokerage format")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrTradeNotFound      = errors.New("trade not found")
	ErrDuplicateTrade     = errors.New("trade already recorded")
	ErrProtectedTrade     = errors.New("synced trades cannot be deleted")
	ErrValidation         = errors.New("validation failed")
	ErrPersistence        = errors.New("failed to persist changes")
	ErrPricingUnavailable = errors.New("price quotes unavailable")
)
