package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/example/mystocks/config"
	"github.com/example/mystocks/internal/handlers"
	"github.com/example/mystocks/internal/services"
	"github.com/example/mystocks/internal/store"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	cfg := config.Load()

	// Initialize MongoDB
	config.ConnectDB(cfg.MongoURI, cfg.DatabaseName)
	defer config.DisconnectDB()

	// Initialize services
	quoteService := services.NewQuoteService(cfg.AlphaVantageKey, cfg.AlphaVantageURL, cfg.QuoteCacheTTL)
	portfolioStore := store.NewMongoStore(config.GetCollection("portfolio"))
	portfolioService := services.NewPortfolioService(portfolioStore, quoteService)

	// Initialize handlers
	stockHandler := handlers.NewStockHandler()
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)

	router := handlers.NewRouter(stockHandler, portfolioHandler, cfg.FrontendOrigin)

	// Static dashboard
	router.Static("/app", "./web")

	fmt.Printf("🚀 MyStocks backend running on port %s\n", cfg.Port)
	fmt.Printf("📊 API available at http://localhost:%s\n", cfg.Port)
	fmt.Printf("📈 Dashboard available at http://localhost:%s/app\n", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
