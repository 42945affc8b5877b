package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/mystocks/internal/models"
)

// StockHandler serves the built-in reference stock list.
type StockHandler struct {
	stocks []models.StaticStock
}

func NewStockHandler() *StockHandler {
	return &StockHandler{
		stocks: []models.StaticStock{
			{Symbol: "AAPL", Price: 189.12},
			{Symbol: "GOOGL", Price: 2735.45},
			{Symbol: "MSFT", Price: 299.35},
			{Symbol: "AMZN", Price: 3450.16},
			{Symbol: "TSLA", Price: 730.91},
		},
	}
}

// GetStock returns the entry matching ?symbol= case-insensitively, falling
// back to the first entry when the symbol is absent or unknown.
func (h *StockHandler) GetStock(c *gin.Context) {
	symbol := c.Query("symbol")
	for _, stock := range h.stocks {
		if strings.EqualFold(stock.Symbol, symbol) {
			c.JSON(http.StatusOK, stock)
			return
		}
	}
	c.JSON(http.StatusOK, h.stocks[0])
}

func (h *StockHandler) GetStocks(c *gin.Context) {
	c.JSON(http.StatusOK, h.stocks)
}
