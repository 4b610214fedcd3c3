package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/tradebook/backend/src/logger"
	"golang.org/x/net/publicsuffix"
)

const (
	PriceStatusOK          = "OK"
	PriceStatusUnavailable = "UNAVAILABLE"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/108.0.0.0 Safari/537.36"
)

var crumbPattern = regexp.MustCompile(`"CrumbStore":{"crumb":"(.*?)"}`)

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol              string              `json:"symbol"`
			RegularMarketPrice  decimal.NullDecimal `json:"regularMarketPrice"`
			RegularMarketChange decimal.NullDecimal `json:"regularMarketChange"`
			Currency            string              `json:"currency"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"quoteResponse"`
}

// priceServiceImpl fetches quotes from Yahoo Finance. The v7 quote endpoint
// wants session cookies plus a crumb scraped from a quote page.
type priceServiceImpl struct {
	httpClient   *http.Client
	sessionURL   string
	quoteBaseURL string

	mu    sync.Mutex
	crumb string
}

// NewPriceService returns a quote client. The session is opened lazily on
// the first request.
func NewPriceService(sessionURL, quoteBaseURL string, timeout time.Duration) PriceService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &priceServiceImpl{
		httpClient:   &http.Client{Jar: jar, Timeout: timeout},
		sessionURL:   sessionURL,
		quoteBaseURL: strings.TrimRight(quoteBaseURL, "/"),
	}
}

// initializeSession visits a quote page to collect cookies and the crumb.
func (s *priceServiceImpl) initializeSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.crumb != "" {
		return s.crumb, nil
	}

	logger.L.Info("Initializing Yahoo Finance session")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.sessionURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to open Yahoo session: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read Yahoo session page: %w", err)
	}
	matches := crumbPattern.FindStringSubmatch(string(body))
	if len(matches) < 2 {
		return "", fmt.Errorf("could not find crumb in Yahoo Finance response")
	}
	s.crumb = matches[1]
	return s.crumb, nil
}

func (s *priceServiceImpl) resetSession() {
	s.mu.Lock()
	s.crumb = ""
	s.mu.Unlock()
}

// GetCurrentPrices quotes symbols in one batched request. Every requested
// symbol appears in the result; those without a usable quote are marked
// UNAVAILABLE.
func (s *priceServiceImpl) GetCurrentPrices(ctx context.Context, symbols []string) (map[string]PriceInfo, error) {
	result := make(map[string]PriceInfo, len(symbols))
	var unique []string
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		if _, ok := result[sym]; !ok {
			result[sym] = PriceInfo{Status: PriceStatusUnavailable}
			unique = append(unique, sym)
		}
	}
	if len(unique) == 0 {
		return result, nil
	}

	crumb, err := s.initializeSession(ctx)
	if err != nil {
		logger.L.Warn("Yahoo session unavailable, quoting without crumb", "error", err)
	}

	quotes, status, err := s.fetchQuotes(ctx, unique, crumb)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		// Stale crumb; retry once with a fresh session.
		s.resetSession()
		if crumb, err = s.initializeSession(ctx); err == nil {
			quotes, _, err = s.fetchQuotes(ctx, unique, crumb)
		}
	}
	if err != nil {
		return result, err
	}

	for sym, info := range quotes {
		if _, ok := result[sym]; ok {
			result[sym] = info
		}
	}
	return result, nil
}

func (s *priceServiceImpl) fetchQuotes(ctx context.Context, symbols []string, crumb string) (map[string]PriceInfo, int, error) {
	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))
	if crumb != "" {
		params.Set("crumb", crumb)
	}
	quoteURL := s.quoteBaseURL + "/v7/finance/quote?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, quoteURL, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to call Yahoo quote API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, resp.StatusCode, fmt.Errorf("yahoo quote API returned status %d: %s", resp.StatusCode, string(body))
	}

	var quoteData yahooQuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quoteData); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to decode Yahoo quote response: %w", err)
	}
	if quoteData.QuoteResponse.Error != nil {
		return nil, resp.StatusCode, fmt.Errorf("yahoo quote API error: %v", quoteData.QuoteResponse.Error)
	}

	quotes := make(map[string]PriceInfo, len(quoteData.QuoteResponse.Result))
	for _, q := range quoteData.QuoteResponse.Result {
		if !q.RegularMarketPrice.Valid {
			continue
		}
		quotes[strings.ToUpper(q.Symbol)] = PriceInfo{
			Status:   PriceStatusOK,
			Price:    q.RegularMarketPrice.Decimal,
			Change:   q.RegularMarketChange,
			Currency: q.Currency,
		}
	}
	logger.L.Debug("Yahoo quotes fetched", "requested", len(symbols), "received", len(quotes))
	return quotes, resp.StatusCode, nil
}
