package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/mystocks/internal/models"
)

// ErrNotFound is returned by FindByID when no entry has the given id.
var ErrNotFound = errors.New("portfolio entry not found")

// PortfolioStore persists portfolio entries keyed by their object id.
type PortfolioStore interface {
	// Save upserts: a zero id gets a fresh one assigned, a set id replaces
	// the stored entry (or creates it when absent).
	Save(ctx context.Context, entry *models.PortfolioEntry) error
	// SaveAll bulk-inserts, assigning ids to entries that have none.
	SaveAll(ctx context.Context, entries []models.PortfolioEntry) error
	FindAll(ctx context.Context) ([]models.PortfolioEntry, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.PortfolioEntry, error)
	// DeleteByID is a no-op when the id is unknown.
	DeleteByID(ctx context.Context, id primitive.ObjectID) error
	DeleteAll(ctx context.Context) error
	// ReplaceAll swaps the whole portfolio for the given entries. The old
	// rows are removed only after the new ones are written, so a failure
	// mid-swap never leaves the portfolio empty.
	ReplaceAll(ctx context.Context, entries []models.PortfolioEntry) error
}
