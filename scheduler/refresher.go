package scheduler

import (
	"context"
	"log"

	"pricewatch/models"
	"pricewatch/repository"
	"pricewatch/scraper"

	"github.com/robfig/cron/v3"
)

// CatalogRefresher re-scrapes every catalog product on a cron schedule and
// persists the fresh snapshots.
type CatalogRefresher struct {
	cron         *cron.Cron
	productRepo  *repository.ProductRepository
	orchestrator *scraper.Orchestrator
	schedule     string
}

func NewCatalogRefresher(orchestrator *scraper.Orchestrator, schedule string) *CatalogRefresher {
	return &CatalogRefresher{
		cron:         cron.New(cron.WithSeconds()),
		productRepo:  repository.NewProductRepository(),
		orchestrator: orchestrator,
		schedule:     schedule,
	}
}

// Start schedules the recurring refresh.
func (cr *CatalogRefresher) Start() {
	_, err := cr.cron.AddFunc(cr.schedule, cr.RefreshAll)
	if err != nil {
		log.Printf("Failed to schedule catalog refresh: %v", err)
		return
	}

	cr.cron.Start()
	log.Printf("Catalog refresh scheduled (%s)", cr.schedule)
}

// Stop stops the scheduler. The orchestrator is owned by the caller and is
// not closed here.
func (cr *CatalogRefresher) Stop() {
	if cr.cron != nil {
		cr.cron.Stop()
	}
}

// RefreshAll scrapes every product in the catalog and replaces its
// competitor snapshots with the fresh results.
func (cr *CatalogRefresher) RefreshAll() {
	log.Println("Starting scheduled catalog refresh")

	products, err := cr.productRepo.GetProducts()
	if err != nil {
		log.Printf("Failed to load catalog: %v", err)
		return
	}
	if len(products) == 0 {
		log.Println("No products to refresh")
		return
	}

	log.Printf("Refreshing competitor prices for %d products", len(products))

	queries := make([]models.SourceQuery, len(products))
	for i, p := range products {
		queries[i] = models.SourceQuery{ProductName: p.Name, ReferencePrice: p.MyPrice}
	}

	results := cr.orchestrator.ScrapeCatalog(context.Background(), queries)

	refreshed := 0
	for i, result := range results {
		if result.Status == models.ScrapeFailed {
			log.Printf("⚠️ Refresh found no prices for %q, keeping previous snapshots", products[i].Name)
			continue
		}
		if err := cr.productRepo.ReplaceSnapshots(products[i].ID, result); err != nil {
			log.Printf("Failed to store snapshots for %q: %v", products[i].Name, err)
			continue
		}
		refreshed++
	}

	log.Printf("Catalog refresh done: %d/%d products updated", refreshed, len(products))
}
