package services

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Price         string `json:"05. price"`
		PreviousClose string `json:"08. previous close"`
	} `json:"Global Quote"`
}

type companyOverviewResponse struct {
	Symbol  string `json:"Symbol"`
	PERatio string `json:"PERatio"`
}

// Quote carries the price fields extracted from one GLOBAL_QUOTE call.
// Either field may be nil when the provider has no value for it.
type Quote struct {
	CurrentPrice  *float64
	PreviousClose *float64
}

// PercentChangeToday derives today's move from the current price and the
// previous close. Nil unless both are present and the close is non-zero.
func (q *Quote) PercentChangeToday() *float64 {
	if q.CurrentPrice == nil || q.PreviousClose == nil || *q.PreviousClose == 0 {
		return nil
	}
	pct := (*q.CurrentPrice - *q.PreviousClose) / *q.PreviousClose * 100
	return &pct
}

// QuoteService fetches live quote data from Alpha Vantage. A short-lived
// per-symbol cache keeps a multi-row portfolio from hammering the provider
// within a single burst of requests.
type QuoteService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *cache.Cache
}

func NewQuoteService(apiKey, baseURL string, cacheTTL time.Duration) *QuoteService {
	if apiKey == "" {
		log.Fatal("ALPHA_VANTAGE_API_KEY not set in environment variables")
	}
	var c *cache.Cache
	if cacheTTL > 0 {
		c = cache.New(cacheTTL, 2*cacheTTL)
	}
	return &QuoteService{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      c,
	}
}

// GetQuote fetches the current price and previous close for a symbol.
// Missing or unparseable fields come back nil; only a transport failure or a
// non-2xx status is an error.
func (s *QuoteService) GetQuote(symbol string) (*Quote, error) {
	cacheKey := "quote:" + strings.ToUpper(symbol)
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			quote := cached.(Quote)
			return &quote, nil
		}
	}

	body, err := s.query("GLOBAL_QUOTE", symbol)
	if err != nil {
		return nil, err
	}

	quote := &Quote{}
	var parsed globalQuoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Printf("unexpected quote response for %s: %v", symbol, err)
	} else {
		quote.CurrentPrice = parseQuoteField(parsed.GlobalQuote.Price)
		quote.PreviousClose = parseQuoteField(parsed.GlobalQuote.PreviousClose)
	}
	if quote.CurrentPrice == nil {
		log.Printf("no price found for symbol %s in quote response", symbol)
	}

	if s.cache != nil {
		s.cache.Set(cacheKey, *quote, cache.DefaultExpiration)
	}
	return quote, nil
}

// GetPERatio fetches the PE ratio from the company overview endpoint. An
// absent or non-numeric value (Alpha Vantage reports "None" for loss-making
// companies) comes back nil without an error.
func (s *QuoteService) GetPERatio(symbol string) (*float64, error) {
	cacheKey := "pe:" + strings.ToUpper(symbol)
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			return cached.(*float64), nil
		}
	}

	body, err := s.query("OVERVIEW", symbol)
	if err != nil {
		return nil, err
	}

	var parsed companyOverviewResponse
	var peRatio *float64
	if err := json.Unmarshal(body, &parsed); err != nil {
		log.Printf("unexpected overview response for %s: %v", symbol, err)
	} else {
		peRatio = parseQuoteField(parsed.PERatio)
	}

	if s.cache != nil {
		s.cache.Set(cacheKey, peRatio, cache.DefaultExpiration)
	}
	return peRatio, nil
}

func (s *QuoteService) query(function, symbol string) ([]byte, error) {
	requestURL := fmt.Sprintf("%s?function=%s&symbol=%s&apikey=%s",
		s.baseURL, function, url.QueryEscape(symbol), s.apiKey)

	resp, err := s.httpClient.Get(requestURL)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("quote provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote response: %w", err)
	}
	return body, nil
}

// parseQuoteField parses a provider value, treating blank, "None" and "-"
// as unavailable rather than an error.
func parseQuoteField(raw string) *float64 {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" || cleaned == "-" || strings.EqualFold(cleaned, "None") {
		return nil
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &value
}
