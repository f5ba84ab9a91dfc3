package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Item is the outcome of one URL in a batch run.
type Item struct {
	TaskID         string    `json:"task_id"`
	URL            string    `json:"url"`
	Status         string    `json:"status"`
	Title          string    `json:"title,omitempty"`
	SKU            string    `json:"sku,omitempty"`
	OutputDir      string    `json:"output_dir,omitempty"`
	CSVPath        string    `json:"csv_path,omitempty"`
	ImagesZipPath  string    `json:"images_zip_path,omitempty"`
	ImageCount     int       `json:"image_count"`
	VariationCount int       `json:"variation_count"`
	Error          string    `json:"error,omitempty"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Batch collects per-URL outcomes for one invocation and persists them
// as summary.json next to the product outputs.
type Batch struct {
	mu         sync.Mutex
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Items      []Item    `json:"items"`
}

func NewBatch() *Batch {
	return &Batch{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Items:     make([]Item, 0),
	}
}

func (b *Batch) Add(item Item) {
	b.mu.Lock()
	defer b.mu.Unlock()

	item.FinishedAt = time.Now()
	b.Items = append(b.Items, item)
}

// Completed returns the successful items in submission order.
func (b *Batch) Completed() []Item {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Item
	for _, item := range b.Items {
		if item.Status == StatusCompleted {
			out = append(out, item)
		}
	}
	return out
}

// Save writes the batch summary as indented JSON.
func (b *Batch) Save(path string) error {
	b.mu.Lock()
	b.FinishedAt = time.Now()
	data, err := json.MarshalIndent(b, "", "  ")
	b.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	return nil
}
