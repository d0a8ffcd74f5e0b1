package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"pricewatch/invoice"
	"pricewatch/models"
	"pricewatch/pricing"
	"pricewatch/repository"
	"pricewatch/scheduler"
	"pricewatch/scraper"

	"github.com/gorilla/mux"
)

type Handlers struct {
	productRepo  *repository.ProductRepository
	orchestrator *scraper.Orchestrator
	advisor      *pricing.Advisor
	refresher    *scheduler.CatalogRefresher
	taskManager  *scheduler.TaskManager
	strategy     models.Strategy
}

func NewHandlers(productRepo *repository.ProductRepository, orchestrator *scraper.Orchestrator,
	refresher *scheduler.CatalogRefresher, strategy string, maxWorkers int) *Handlers {

	h := &Handlers{
		productRepo:  productRepo,
		orchestrator: orchestrator,
		advisor:      pricing.NewAdvisor(),
		refresher:    refresher,
		strategy:     models.Strategy(strategy),
	}
	h.taskManager = scheduler.NewTaskManager(h.performScrape, maxWorkers)
	return h
}

// Close stops the task manager. The orchestrator is owned by main.
func (h *Handlers) Close() {
	if h.taskManager != nil {
		h.taskManager.Stop()
	}
}

// performScrape scrapes one product and persists the snapshots. Used by the
// sync endpoint and the task manager alike.
func (h *Handlers) performScrape(productID int) (*models.ScrapeResult, error) {
	product, err := h.productRepo.GetProductByID(productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %v", err)
	}

	query := models.SourceQuery{ProductName: product.Name, ReferencePrice: product.MyPrice}
	result := h.orchestrator.ScrapeProduct(context.Background(), query)

	if result.Status != models.ScrapeFailed {
		if err := h.productRepo.ReplaceSnapshots(productID, result); err != nil {
			log.Printf("❌ Failed to store snapshots for %q: %v", product.Name, err)
		}
	}
	return result, nil
}

// HealthCheck returns a simple health check response
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "pricewatch",
		"version":   "1.0.0",
	}
	writeJSON(w, http.StatusOK, response)
}

// AddProduct adds a product to the catalog
func (h *Handlers) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req models.AddProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Product name is required")
		return
	}

	product, err := h.productRepo.AddProduct(req.Name, req.MyPrice, req.Link)
	if err != nil {
		log.Printf("Failed to add product: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to add product")
		return
	}

	// Kick off the initial competitor scrape in the background
	task := h.taskManager.SubmitTask(product.ID)
	log.Printf("Initial scrape for %q queued as task %s", product.Name, task.ID)

	writeJSON(w, http.StatusCreated, product)
}

// GetProducts returns the catalog with latest competitor prices
func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productRepo.GetProducts()
	if err != nil {
		log.Printf("Failed to get products: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get products")
		return
	}

	// Ensure we always return an array, even if empty
	if products == nil {
		products = []models.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProduct returns one product with its snapshots
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := h.productRepo.GetProductByID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	snapshots, err := h.productRepo.GetSnapshots(id)
	if err != nil {
		log.Printf("Failed to get snapshots: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get snapshots")
		return
	}
	if snapshots == nil {
		snapshots = []models.PriceSnapshot{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"product":   product,
		"snapshots": snapshots,
	})
}

// DeleteProduct removes a product and its snapshots
func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.productRepo.DeleteProduct(id); err != nil {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

// ScrapeProduct runs a synchronous competitor scrape for one product
func (h *Handlers) ScrapeProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	result, err := h.performScrape(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ScrapeProductAsync queues a competitor scrape and returns the task
func (h *Handlers) ScrapeProductAsync(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if _, err := h.productRepo.GetProductByID(id); err != nil {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	task := h.taskManager.SubmitTask(id)
	writeJSON(w, http.StatusAccepted, task)
}

// GetTaskStatus returns the state of an async scrape task
func (h *Handlers) GetTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]

	task, exists := h.taskManager.GetTask(taskID)
	if !exists {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// GetTaskStats returns task manager statistics
func (h *Handlers) GetTaskStats(w http.ResponseWriter, r *http.Request) {
	active, completed := h.taskManager.Stats()
	writeJSON(w, http.StatusOK, map[string]int{
		"active":    active,
		"completed": completed,
	})
}

// RefreshCatalog triggers a full catalog refresh in the background
func (h *Handlers) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	go h.refresher.RefreshAll()
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Catalog refresh started"})
}

// GetSuggestions returns the bulk pricing summary for the whole catalog
func (h *Handlers) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	products, err := h.productRepo.GetProducts()
	if err != nil {
		log.Printf("Failed to get products: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to get products")
		return
	}
	writeJSON(w, http.StatusOK, h.advisor.Suggest(products))
}

// GetAdvice returns a pricing recommendation for one product. The strategy
// query parameter overrides the configured default.
func (h *Handlers) GetAdvice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	product, err := h.productRepo.GetProductByID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}

	strategy := h.strategy
	if s := r.URL.Query().Get("strategy"); s != "" {
		strategy = models.Strategy(s)
	}

	advice := h.advisor.Recommend(product.MyPrice, product.CompetitorPrices, strategy)
	analysis := h.advisor.Analyze(product.MyPrice, product.CompetitorPrices)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"product":  product.Name,
		"my_price": product.MyPrice,
		"analysis": analysis,
		"advice":   advice,
	})
}

// ParseInvoice extracts catalog items from invoice text lines
func (h *Handlers) ParseInvoice(w http.ResponseWriter, r *http.Request) {
	var req models.ParseInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Lines) == 0 {
		writeError(w, http.StatusBadRequest, "Invoice lines are required")
		return
	}

	items := invoice.ParseLines(req.Lines)
	if items == nil {
		items = []models.CatalogItem{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid product ID")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
