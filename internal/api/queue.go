package api

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// queueSize is the number of tasks that may wait behind the running one.
const queueSize = 100

var (
	ErrQueueFull       = errors.New("queue is full")
	ErrQueueNotRunning = errors.New("queue is not running")
)

// RequestQueue runs keyword and suite tasks one at a time. The keyword
// library drives a single active browser, so requests never interleave.
type RequestQueue struct {
	tasks     chan *RequestTask
	mu        sync.RWMutex
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	processor TaskProcessor
}

// TaskProcessor defines the interface for processing tasks
type TaskProcessor interface {
	ProcessTask(ctx context.Context, task *RequestTask) *TaskResponse
}

// NewRequestQueue creates a new request queue
func NewRequestQueue(processor TaskProcessor) *RequestQueue {
	ctx, cancel := context.WithCancel(context.Background())
	return &RequestQueue{
		tasks:     make(chan *RequestTask, queueSize),
		ctx:       ctx,
		cancel:    cancel,
		processor: processor,
	}
}

// Start begins processing requests from the queue
func (q *RequestQueue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return fmt.Errorf("queue is already running")
	}

	q.running = true
	q.wg.Add(1)

	go q.processLoop()
	log.Debug("Request queue started")
	return nil
}

// Stop stops the request queue and waits for the current task to complete
func (q *RequestQueue) Stop() error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return ErrQueueNotRunning
	}
	q.running = false
	q.cancel()
	close(q.tasks)
	q.mu.Unlock()

	q.wg.Wait()
	log.Debug("Request queue stopped")
	return nil
}

// AddTask adds a new task to the queue
func (q *RequestQueue) AddTask(task *RequestTask) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if !q.running {
		return ErrQueueNotRunning
	}

	select {
	case q.tasks <- task:
		log.Debugf("Task %s added to queue", task.ID)
		return nil
	case <-q.ctx.Done():
		return fmt.Errorf("queue is shutting down")
	default:
		return ErrQueueFull
	}
}

// processLoop handles tasks sequentially
func (q *RequestQueue) processLoop() {
	defer q.wg.Done()

	for {
		select {
		case task, ok := <-q.tasks:
			if !ok {
				log.Debug("Task channel closed, stopping process loop")
				return
			}
			if q.ctx.Err() != nil {
				continue
			}

			log.Debugf("Processing %s task %s", task.Kind, task.ID)
			startTime := time.Now()

			response := q.processor.ProcessTask(q.ctx, task)

			log.Debugf("Task %s completed in %v", task.ID, time.Since(startTime))

			// Response is buffered, a waiting handler may already be gone
			select {
			case task.Response <- response:
			case <-q.ctx.Done():
				log.Debugf("Context cancelled while sending response for task %s", task.ID)
				return
			case <-time.After(30 * time.Second):
				log.Debugf("Timeout sending response for task %s", task.ID)
			}

		case <-q.ctx.Done():
			log.Debug("Context cancelled, stopping process loop")
			return
		}
	}
}

// GetQueueLength returns the current number of tasks in the queue
func (q *RequestQueue) GetQueueLength() int {
	return len(q.tasks)
}

// IsRunning returns whether the queue is currently running
func (q *RequestQueue) IsRunning() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.running
}
