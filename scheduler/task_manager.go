package scheduler

import (
	"log"
	"sync"

	"pricewatch/models"
)

// ScrapeFunc runs the competitor scrape for one product.
type ScrapeFunc func(productID int) (*models.ScrapeResult, error)

// TaskManager runs product scrapes asynchronously on a bounded worker pool
// and keeps task state for status polling.
type TaskManager struct {
	tasks      map[string]*models.ScrapeTask
	taskQueue  chan *models.ScrapeTask
	maxWorkers int
	scrapeFunc ScrapeFunc
	mutex      sync.RWMutex
	stopChan   chan struct{}
	stopOnce   sync.Once
}

// NewTaskManager starts the worker pool.
func NewTaskManager(scrapeFunc ScrapeFunc, maxWorkers int) *TaskManager {
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	tm := &TaskManager{
		tasks:      make(map[string]*models.ScrapeTask),
		taskQueue:  make(chan *models.ScrapeTask, 100),
		maxWorkers: maxWorkers,
		scrapeFunc: scrapeFunc,
		stopChan:   make(chan struct{}),
	}

	for i := 0; i < maxWorkers; i++ {
		go tm.worker()
	}
	log.Printf("🚀 Task manager started with %d workers", maxWorkers)
	return tm
}

// SubmitTask queues an async scrape for a product.
func (tm *TaskManager) SubmitTask(productID int) *models.ScrapeTask {
	task := models.NewScrapeTask(productID)

	tm.mutex.Lock()
	tm.tasks[task.ID] = task
	tm.mutex.Unlock()

	select {
	case tm.taskQueue <- task:
		log.Printf("📝 Task %s submitted for product %d", task.ID, productID)
	default:
		task.Fail("task queue is full")
		log.Printf("❌ Failed to submit task %s - queue full", task.ID)
	}
	return task
}

// GetTask returns a task by ID.
func (tm *TaskManager) GetTask(taskID string) (*models.ScrapeTask, bool) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	task, exists := tm.tasks[taskID]
	return task, exists
}

// Stats returns counts of active and completed tasks.
func (tm *TaskManager) Stats() (active, completed int) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	for _, task := range tm.tasks {
		if task.IsActive() {
			active++
		} else {
			completed++
		}
	}
	return active, completed
}

// CleanupCompleted drops finished tasks from the registry.
func (tm *TaskManager) CleanupCompleted() int {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	removed := 0
	for id, task := range tm.tasks {
		if task.IsCompleted() {
			delete(tm.tasks, id)
			removed++
		}
	}
	return removed
}

// Stop shuts the worker pool down.
func (tm *TaskManager) Stop() {
	tm.stopOnce.Do(func() { close(tm.stopChan) })
}

func (tm *TaskManager) worker() {
	for {
		select {
		case <-tm.stopChan:
			return
		case task := <-tm.taskQueue:
			tm.process(task)
		}
	}
}

func (tm *TaskManager) process(task *models.ScrapeTask) {
	task.Start()

	result, err := tm.scrapeFunc(task.ProductID)
	if err != nil {
		task.Fail(err.Error())
		log.Printf("❌ Task %s failed: %v", task.ID, err)
		return
	}

	task.Complete(result)
	log.Printf("✅ Task %s completed in %v (status: %s)", task.ID, task.Duration(), result.Status)
}
