package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the REST surface onto a gin engine. The exact paths are
// the published API contract and must not change.
func NewRouter(stockHandler *StockHandler, portfolioHandler *PortfolioHandler, frontendOrigin string) *gin.Engine {
	router := gin.Default()
	router.Use(corsMiddleware(frontendOrigin))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "MyStocks Portfolio API",
			"version": "1.0.0",
			"endpoints": []string{
				"GET /health",
				"GET /getStock?symbol=",
				"GET /getStocks",
				"GET /portfolio",
				"POST /portfolio",
				"POST /portfolio/edit",
				"POST /portfolio/delete",
				"GET /portfolio/export",
				"POST /portfolio/import",
				"GET /portfolio/template",
			},
		})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "OK",
			"message": "MyStocks Portfolio API is running",
		})
	})

	router.GET("/getStock", stockHandler.GetStock)
	router.GET("/getStocks", stockHandler.GetStocks)

	router.GET("/portfolio", portfolioHandler.GetPortfolio)
	router.POST("/portfolio", portfolioHandler.AddEntry)
	router.POST("/portfolio/edit", portfolioHandler.EditEntry)
	router.POST("/portfolio/delete", portfolioHandler.DeleteEntry)
	router.GET("/portfolio/export", portfolioHandler.ExportPortfolio)
	router.POST("/portfolio/import", portfolioHandler.ImportPortfolio)
	router.GET("/portfolio/template", portfolioHandler.DownloadTemplate)

	return router
}

// corsMiddleware permits cross-origin requests from the configured
// front-end origin.
func corsMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
