package repository

import (
	"database/sql"
	"fmt"
	"time"

	"pricewatch/database"
	"pricewatch/models"
)

type ProductRepository struct{}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{}
}

// AddProduct inserts a catalog product.
func (r *ProductRepository) AddProduct(name string, myPrice float64, link string) (*models.Product, error) {
	query := `
		INSERT INTO products (name, my_price, link, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $4)
		RETURNING id, name, my_price, currency, link, scraped_at, created_at, updated_at
	`

	var product models.Product
	now := time.Now()
	err := database.DB.QueryRow(query, name, myPrice, link, now).Scan(
		&product.ID, &product.Name, &product.MyPrice, &product.Currency,
		&product.Link, &product.ScrapedAt, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add product: %v", err)
	}
	return &product, nil
}

// GetProducts returns the catalog with the latest competitor prices
// attached, newest first.
func (r *ProductRepository) GetProducts() ([]models.Product, error) {
	query := `
		SELECT id, name, my_price, currency, link, scraped_at, created_at, updated_at
		FROM products
		ORDER BY created_at DESC
	`

	rows, err := database.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %v", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		err := rows.Scan(
			&product.ID, &product.Name, &product.MyPrice, &product.Currency,
			&product.Link, &product.ScrapedAt, &product.CreatedAt, &product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %v", err)
		}
		products = append(products, product)
	}

	for i := range products {
		prices, err := r.latestPrices(products[i].ID)
		if err != nil {
			return nil, err
		}
		products[i].CompetitorPrices = prices
	}
	return products, nil
}

// GetProductByID returns one product with its latest competitor prices.
func (r *ProductRepository) GetProductByID(id int) (*models.Product, error) {
	query := `
		SELECT id, name, my_price, currency, link, scraped_at, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	var product models.Product
	err := database.DB.QueryRow(query, id).Scan(
		&product.ID, &product.Name, &product.MyPrice, &product.Currency,
		&product.Link, &product.ScrapedAt, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product not found")
		}
		return nil, fmt.Errorf("failed to get product: %v", err)
	}

	prices, err := r.latestPrices(product.ID)
	if err != nil {
		return nil, err
	}
	product.CompetitorPrices = prices
	return &product, nil
}

// DeleteProduct removes a product and its snapshots.
func (r *ProductRepository) DeleteProduct(id int) error {
	result, err := database.DB.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %v", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("product not found")
	}
	return nil
}

// ReplaceSnapshots swaps a product's competitor snapshots wholesale with
// the given scrape result and stamps the product's scrape time. Snapshots
// are never updated in place.
func (r *ProductRepository) ReplaceSnapshots(productID int, result *models.ScrapeResult) error {
	tx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM price_snapshots WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("failed to clear snapshots: %v", err)
	}

	insert := `
		INSERT INTO price_snapshots (product_id, source_id, matched_name, price, url, found, match_score, note, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, cr := range result.Results {
		_, err := tx.Exec(insert, productID, cr.SourceID, cr.MatchedName, cr.Price,
			cr.URL, cr.Found, cr.MatchScore, cr.Note, result.ScrapedAt)
		if err != nil {
			return fmt.Errorf("failed to insert snapshot: %v", err)
		}
	}

	if _, err := tx.Exec(`UPDATE products SET scraped_at = $1, updated_at = $1 WHERE id = $2`,
		result.ScrapedAt, productID); err != nil {
		return fmt.Errorf("failed to stamp product: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshots: %v", err)
	}
	return nil
}

// GetSnapshots returns a product's current snapshots in source order.
func (r *ProductRepository) GetSnapshots(productID int) ([]models.PriceSnapshot, error) {
	query := `
		SELECT id, product_id, source_id, matched_name, price, url, found, match_score, note, scraped_at
		FROM price_snapshots
		WHERE product_id = $1
		ORDER BY id
	`

	rows, err := database.DB.Query(query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshots: %v", err)
	}
	defer rows.Close()

	var snapshots []models.PriceSnapshot
	for rows.Next() {
		var s models.PriceSnapshot
		err := rows.Scan(&s.ID, &s.ProductID, &s.SourceID, &s.MatchedName,
			&s.Price, &s.URL, &s.Found, &s.MatchScore, &s.Note, &s.ScrapedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %v", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, nil
}

// latestPrices returns the snapshot prices for a product in source order,
// zeros included so the slice keeps the expected length.
func (r *ProductRepository) latestPrices(productID int) ([]float64, error) {
	rows, err := database.DB.Query(
		`SELECT price, found FROM price_snapshots WHERE product_id = $1 ORDER BY id`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot prices: %v", err)
	}
	defer rows.Close()

	var prices []float64
	for rows.Next() {
		var price float64
		var found bool
		if err := rows.Scan(&price, &found); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot price: %v", err)
		}
		if !found {
			price = 0
		}
		prices = append(prices, price)
	}
	return prices, nil
}
