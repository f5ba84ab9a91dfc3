package queue

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrQueueEmpty  = errors.New("queue is empty")
	ErrQueueClosed = errors.New("queue is closed")
)

// Task is one product URL waiting to be scraped.
type Task struct {
	ID        string
	URL       string
	CreatedAt time.Time
}

func NewTask(url string) *Task {
	return &Task{
		ID:        uuid.NewString(),
		URL:       url,
		CreatedAt: time.Now(),
	}
}

// FIFO is an in-memory task queue drained strictly in submission
// order; URLs are processed one at a time.
type FIFO struct {
	mu     sync.Mutex
	tasks  []*Task
	closed bool
}

func NewFIFO() *FIFO {
	return &FIFO{tasks: make([]*Task, 0)}
}

func (q *FIFO) Push(task *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.tasks = append(q.tasks, task)
	return nil
}

func (q *FIFO) Pop() (*Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		if q.closed {
			return nil, ErrQueueClosed
		}
		return nil, ErrQueueEmpty
	}

	task := q.tasks[0]
	q.tasks = q.tasks[1:]
	return task, nil
}

func (q *FIFO) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *FIFO) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
