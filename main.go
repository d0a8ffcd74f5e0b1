package main

import (
	"log"
	"net/http"
	"strings"

	"pricewatch/cache"
	"pricewatch/config"
	"pricewatch/database"
	"pricewatch/handlers"
	"pricewatch/middleware"
	"pricewatch/pricing"
	"pricewatch/repository"
	"pricewatch/scheduler"
	"pricewatch/scraper"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Initialize database
	if err := database.InitDatabase(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	if err := database.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	productRepo := repository.NewProductRepository()

	// Build the two scrape tiers over the same shop configs. The browser
	// tier is primary; the static tier takes over when no browser is
	// available on the host.
	configs := scraper.DefaultSourceConfigs()
	browserTier := scraper.NewBrowserTier(configs)
	staticTier := scraper.NewStaticTier(configs, cfg.SourceTimeout)

	matcher := pricing.NewMatcher()
	matcher.Threshold = cfg.MatchThreshold

	results := cache.New(cfg.CacheTTL)

	orchestrator := scraper.New(browserTier, staticTier, matcher, results, scraper.Options{
		SourceTimeout: cfg.SourceTimeout,
		BatchDelay:    cfg.BatchDelay,
	})
	defer orchestrator.Close()

	// Scheduled catalog refresh
	refresher := scheduler.NewCatalogRefresher(orchestrator, cfg.RefreshSchedule)
	refresher.Start()
	defer refresher.Stop()

	h := handlers.NewHandlers(productRepo, orchestrator, refresher, cfg.Strategy, cfg.MaxScrapeWorkers)
	defer h.Close()

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RateLimitMiddleware(cfg.RateLimitPerSecond))

	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Catalog management
	api.HandleFunc("/products", h.AddProduct).Methods("POST")
	api.HandleFunc("/products", h.GetProducts).Methods("GET")
	api.HandleFunc("/products/{id}", h.GetProduct).Methods("GET")
	api.HandleFunc("/products/{id}", h.DeleteProduct).Methods("DELETE")

	// Scraping
	api.HandleFunc("/products/{id}/scrape", h.ScrapeProduct).Methods("POST")
	api.HandleFunc("/products/{id}/scrape-async", h.ScrapeProductAsync).Methods("POST")
	api.HandleFunc("/refresh", h.RefreshCatalog).Methods("POST")

	// Pricing
	api.HandleFunc("/products/{id}/advice", h.GetAdvice).Methods("GET")
	api.HandleFunc("/suggestions", h.GetSuggestions).Methods("GET")

	// Invoice import
	api.HandleFunc("/invoice/parse", h.ParseInvoice).Methods("POST")

	// Task management
	api.HandleFunc("/tasks/stats", h.GetTaskStats).Methods("GET")
	api.HandleFunc("/tasks/{taskId}", h.GetTaskStatus).Methods("GET")

	// CORS configuration
	c := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	log.Printf("🌐 Server starting on port %s", cfg.Port)
	log.Printf("📋 API endpoints:")
	log.Printf("   GET    /health - Health check")
	log.Printf("   POST   /api/v1/products - Add product")
	log.Printf("   GET    /api/v1/products - List catalog")
	log.Printf("   POST   /api/v1/products/{id}/scrape - Scrape competitor prices now")
	log.Printf("   GET    /api/v1/products/{id}/advice - Pricing recommendation")
	log.Printf("   GET    /api/v1/suggestions - Bulk catalog summary")
	log.Printf("   POST   /api/v1/invoice/parse - Parse invoice lines")

	log.Fatal(http.ListenAndServe(cfg.Host+":"+cfg.Port, c.Handler(r)))
}
