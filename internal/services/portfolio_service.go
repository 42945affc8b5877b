package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/mystocks/internal/models"
	"github.com/example/mystocks/internal/store"
)

// Quoter is the slice of the quote client the portfolio service depends on.
type Quoter interface {
	GetQuote(symbol string) (*Quote, error)
	GetPERatio(symbol string) (*float64, error)
}

// PortfolioService combines stored holdings with live market data.
type PortfolioService struct {
	store  store.PortfolioStore
	quotes Quoter
}

func NewPortfolioService(portfolioStore store.PortfolioStore, quotes Quoter) *PortfolioService {
	return &PortfolioService{store: portfolioStore, quotes: quotes}
}

// Enrich builds the view row for one entry: price fetch first, then the
// valuation fetch. Any individual metric may be absent; only an unreachable
// provider fails the call.
func (s *PortfolioService) Enrich(entry models.PortfolioEntry) (models.PortfolioViewEntry, error) {
	quote, err := s.quotes.GetQuote(entry.Symbol)
	if err != nil {
		return models.PortfolioViewEntry{}, fmt.Errorf("failed to fetch quote for %s: %w", entry.Symbol, err)
	}
	peRatio, err := s.quotes.GetPERatio(entry.Symbol)
	if err != nil {
		return models.PortfolioViewEntry{}, fmt.Errorf("failed to fetch PE ratio for %s: %w", entry.Symbol, err)
	}
	metrics := models.StockMetrics{
		Price:              quote.CurrentPrice,
		PercentChangeToday: quote.PercentChangeToday(),
		PERatio:            peRatio,
	}
	return models.NewPortfolioViewEntry(entry, metrics), nil
}

// List returns the whole portfolio enriched with fresh market data. A quote
// failure fails the listing; no partial list is returned.
func (s *PortfolioService) List(ctx context.Context) ([]models.PortfolioViewEntry, error) {
	entries, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	views := make([]models.PortfolioViewEntry, 0, len(entries))
	for _, entry := range entries {
		view, err := s.Enrich(entry)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// Add stores a new entry and returns the refreshed enriched list.
func (s *PortfolioService) Add(ctx context.Context, symbol string, quantity float64) ([]models.PortfolioViewEntry, error) {
	entry := models.PortfolioEntry{Symbol: symbol, Quantity: quantity}
	if err := s.store.Save(ctx, &entry); err != nil {
		return nil, err
	}
	return s.List(ctx)
}

// Edit replaces the symbol and quantity of an existing entry, keeping its
// id. An id unknown to the store leaves the portfolio untouched; the fresh
// list is returned either way.
func (s *PortfolioService) Edit(ctx context.Context, id primitive.ObjectID, symbol string, quantity float64) ([]models.PortfolioViewEntry, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if err == nil {
		existing.Symbol = symbol
		existing.Quantity = quantity
		if err := s.store.Save(ctx, existing); err != nil {
			return nil, err
		}
	}
	return s.List(ctx)
}

// Delete removes the entry with the given id (no-op when unknown) and
// returns the refreshed enriched list.
func (s *PortfolioService) Delete(ctx context.Context, id primitive.ObjectID) ([]models.PortfolioViewEntry, error) {
	if err := s.store.DeleteByID(ctx, id); err != nil {
		return nil, err
	}
	return s.List(ctx)
}

// Entries returns the raw stored rows, used by the export endpoint.
func (s *PortfolioService) Entries(ctx context.Context) ([]models.PortfolioEntry, error) {
	return s.store.FindAll(ctx)
}

// Import replaces the whole portfolio with the staged entries and reports
// how many were imported.
func (s *PortfolioService) Import(ctx context.Context, entries []models.PortfolioEntry) (int, error) {
	if err := s.store.ReplaceAll(ctx, entries); err != nil {
		return 0, fmt.Errorf("failed to import portfolio: %w", err)
	}
	return len(entries), nil
}
