package models

import (
	"fmt"
	"strings"
	"time"
)

type Provider string

const (
	ProviderRobinhood Provider = "robinhood"
	ProviderFidelity  Provider = "fidelity"
	ProviderManual    Provider = "manual"
	ProviderAPI       Provider = "api"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderRobinhood, ProviderFidelity, ProviderManual, ProviderAPI:
		return true
	}
	return false
}

// BrokerageFormat is the closed set of CSV layouts the importer understands.
type BrokerageFormat string

const (
	// FormatA is the fixed-column Robinhood activity export.
	FormatA BrokerageFormat = "robinhood"
	// FormatB is the Fidelity history export with a free-text preamble and
	// encoded option symbols.
	FormatB BrokerageFormat = "fidelity"
)

// ParseBrokerageFormat accepts either the variant letter or the provider name.
func ParseBrokerageFormat(s string) (BrokerageFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", string(FormatA):
		return FormatA, nil
	case "b", string(FormatB):
		return FormatB, nil
	}
	return "", fmt.Errorf("unknown brokerage format %q", s)
}

type Account struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Provider  Provider  `json:"provider"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Format returns the CSV layout implied by the account's provider.
func (a Account) Format() (BrokerageFormat, bool) {
	switch a.Provider {
	case ProviderRobinhood:
		return FormatA, true
	case ProviderFidelity:
		return FormatB, true
	}
	return "", false
}
