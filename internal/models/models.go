package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StaticStock is a row in the built-in reference list served by /getStocks.
type StaticStock struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// PortfolioEntry is the persisted holding. ID is assigned by the store on
// first save and stable afterwards. Quantity may be fractional.
type PortfolioEntry struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Symbol   string             `bson:"symbol" json:"symbol"`
	Quantity float64            `bson:"quantity" json:"quantity"`
}

// StockMetrics is the live market slice of a view row. Never persisted;
// any field may be nil when the provider has no data for it.
type StockMetrics struct {
	Price              *float64 `json:"price"`
	PercentChangeToday *float64 `json:"percentChangeToday"`
	PERatio            *float64 `json:"peRatio"`
}

// PortfolioViewEntry is the read model returned to clients: a stored entry
// plus metrics fetched at request time. Missing metrics serialize as null.
type PortfolioViewEntry struct {
	ID                 primitive.ObjectID `json:"id"`
	Symbol             string             `json:"symbol"`
	Quantity           float64            `json:"quantity"`
	Price              *float64           `json:"price"`
	PercentChangeToday *float64           `json:"percentChangeToday"`
	PERatio            *float64           `json:"peRatio"`
}

// NewPortfolioViewEntry glues a stored entry to the metrics fetched for it.
func NewPortfolioViewEntry(entry PortfolioEntry, metrics StockMetrics) PortfolioViewEntry {
	return PortfolioViewEntry{
		ID:                 entry.ID,
		Symbol:             entry.Symbol,
		Quantity:           entry.Quantity,
		Price:              metrics.Price,
		PercentChangeToday: metrics.PercentChangeToday,
		PERatio:            metrics.PERatio,
	}
}
