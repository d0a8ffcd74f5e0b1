package models

import (
	"fmt"
	"math/rand"
	"time"
)

// TaskStatus represents the status of an async scrape task
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// ScrapeTask represents an async competitor scrape for one product
type ScrapeTask struct {
	ID          string        `json:"id"`
	ProductID   int           `json:"product_id"`
	Status      TaskStatus    `json:"status"`
	Message     string        `json:"message"`
	Result      *ScrapeResult `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// NewScrapeTask creates a queued scrape task for a product
func NewScrapeTask(productID int) *ScrapeTask {
	return &ScrapeTask{
		ID:        generateTaskID(),
		ProductID: productID,
		Status:    TaskStatusQueued,
		Message:   "Task queued for processing",
		CreatedAt: time.Now(),
	}
}

// Start marks the task as processing
func (t *ScrapeTask) Start() {
	t.Status = TaskStatusProcessing
	t.Message = "Scraping competitor sources..."
	now := time.Now()
	t.StartedAt = &now
}

// Complete marks the task as completed with the scrape result
func (t *ScrapeTask) Complete(result *ScrapeResult) {
	t.Status = TaskStatusCompleted
	t.Message = "Scrape completed"
	t.Result = result
	now := time.Now()
	t.CompletedAt = &now
}

// Fail marks the task as failed
func (t *ScrapeTask) Fail(errMsg string) {
	t.Status = TaskStatusFailed
	t.Message = "Scrape failed"
	t.Error = errMsg
	now := time.Now()
	t.CompletedAt = &now
}

// IsCompleted returns true if the task is in a final state
func (t *ScrapeTask) IsCompleted() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// IsActive returns true if the task is still queued or running
func (t *ScrapeTask) IsActive() bool {
	return t.Status == TaskStatusQueued || t.Status == TaskStatusProcessing
}

// Duration returns how long the task has been (or was) running
func (t *ScrapeTask) Duration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	endTime := time.Now()
	if t.CompletedAt != nil {
		endTime = *t.CompletedAt
	}
	return endTime.Sub(*t.StartedAt)
}

func generateTaskID() string {
	return fmt.Sprintf("task_%s_%04d", time.Now().Format("20060102150405"), rand.Intn(10000))
}
