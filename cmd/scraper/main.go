package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/gonature/product-scraper/internal/archive"
	"github.com/gonature/product-scraper/internal/config"
	"github.com/gonature/product-scraper/internal/enhance"
	"github.com/gonature/product-scraper/internal/fetch"
	"github.com/gonature/product-scraper/internal/pipeline"
	"github.com/gonature/product-scraper/internal/queue"
	"github.com/gonature/product-scraper/internal/report"
	"github.com/gonature/product-scraper/pkg/logger"
)

func main() {
	var (
		urls      = flag.String("urls", "", "Comma-separated list of product page URLs to scrape")
		inputFile = flag.String("file", "", "File containing product URLs (one per line)")
		brand     = flag.String("brand", "", "Brand name (optional)")
		category  = flag.String("category", "", "Category assigned to every product")
		tags      = flag.String("tags", "", "Comma-separated tags assigned to every product")
		skuPrefix = flag.String("sku-prefix", "", "Prefix for generated SKUs when the page has none")
		outPrefix = flag.String("out-prefix", "", "Base name for output files (defaults to the product slug)")
		maxImages = flag.Int("max-images", 0, "Maximum number of images to download per product")
		outputDir = flag.String("out", "", "Directory that receives per-product output folders")
		noAI      = flag.Bool("no-ai", false, "Disable AI description enhancement even when configured")
	)
	flag.Parse()

	// A missing .env file is not an error; env vars may come from anywhere.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	applyFlags(cfg, *brand, *category, *tags, *skuPrefix, *outPrefix, *maxImages, *outputDir)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Starting product scraper")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
	}()

	taskQueue := queue.NewFIFO()
	defer taskQueue.Close()

	if err := loadTasks(taskQueue, *urls, *inputFile, flag.Args()); err != nil {
		logger.Error("Failed to load tasks", "error", err)
		os.Exit(1)
	}

	if taskQueue.Size() == 0 {
		fmt.Println("No URLs to process. Use -urls, -file, or pass URLs as arguments.")
		flag.Usage()
		os.Exit(1)
	}

	client := fetch.NewClient(cfg.Scraper.Timeout, cfg.Scraper.UserAgent)

	var enhancer pipeline.Enhancer
	if cfg.Enhance.Enabled && !*noAI {
		enhancer = enhance.New(cfg.Enhance.APIKey, cfg.Enhance.Model, cfg.Enhance.BaseURL,
			cfg.Enhance.Timeout, logger)
		logger.Info("Description enhancement enabled", "model", cfg.Enhance.Model)
	}

	p := pipeline.New(client, enhancer, cfg.Import, logger)
	batch := report.NewBatch()

	logger.Info("Starting scraping", "tasks", taskQueue.Size())

	drainQueue(ctx, taskQueue, p, batch, logger)

	summaryPath := filepath.Join(cfg.Import.OutputDir, "summary.json")
	if err := batch.Save(summaryPath); err != nil {
		logger.Error("Failed to write run summary", "error", err)
	}

	completed := batch.Completed()
	if len(completed) > 1 {
		bundlePath := filepath.Join(cfg.Import.OutputDir, "export_bundle.zip")
		entries := make([]archive.BundleEntry, 0, len(completed))
		for _, item := range completed {
			entries = append(entries, archive.BundleEntry{
				Dir:   item.OutputDir,
				Files: []string{item.CSVPath, item.ImagesZipPath},
			})
		}
		if err := archive.WriteBundle(bundlePath, entries); err != nil {
			logger.Error("Failed to write export bundle", "error", err)
		} else {
			fmt.Printf("Export bundle: %s\n", bundlePath)
		}
	}

	logger.Info("Scraping completed",
		"total", len(batch.Items), "succeeded", len(completed))
}

// drainQueue processes tasks until the queue is empty or ctx is
// cancelled. It always returns normally so the caller can still write
// the summary and bundle for whatever completed.
func drainQueue(ctx context.Context, q *queue.FIFO, p *pipeline.Pipeline, batch *report.Batch, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("Context cancelled, stopping batch")
			return
		default:
		}

		task, err := q.Pop()
		if err != nil {
			return
		}

		logger.Info("Processing task", "url", task.URL)

		result, err := p.ProcessURL(ctx, task.URL)
		if err != nil {
			logger.Error("Failed to scrape product", "url", task.URL, "error", err)
			batch.Add(report.Item{
				TaskID: task.ID,
				URL:    task.URL,
				Status: report.StatusFailed,
				Error:  err.Error(),
			})
			continue
		}

		batch.Add(report.Item{
			TaskID:         task.ID,
			URL:            task.URL,
			Status:         report.StatusCompleted,
			Title:          result.Title,
			SKU:            result.SKU,
			OutputDir:      result.OutputDir,
			CSVPath:        result.CSVPath,
			ImagesZipPath:  result.ImagesZipPath,
			ImageCount:     result.ImageCount,
			VariationCount: result.VariationCount,
		})

		printResult(result)
	}
}

func applyFlags(cfg *config.Config, brand, category, tags, skuPrefix, outPrefix string, maxImages int, outputDir string) {
	if brand != "" {
		cfg.Import.Brand = brand
	}
	if category != "" {
		cfg.Import.Category = category
	}
	if tags != "" {
		cfg.Import.Tags = tags
	}
	if skuPrefix != "" {
		cfg.Import.SKUPrefix = skuPrefix
	}
	if outPrefix != "" {
		cfg.Import.OutPrefix = outPrefix
	}
	if maxImages > 0 {
		cfg.Import.MaxImages = maxImages
	}
	if outputDir != "" {
		cfg.Import.OutputDir = outputDir
	}
}

func loadTasks(q *queue.FIFO, urls, inputFile string, args []string) error {
	var urlList []string

	if urls != "" {
		urlList = append(urlList, strings.Split(urls, ",")...)
	}

	urlList = append(urlList, args...)

	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "#") {
				urlList = append(urlList, line)
			}
		}
	}

	for _, item := range urlList {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !strings.HasPrefix(item, "http://") && !strings.HasPrefix(item, "https://") {
			return fmt.Errorf("not a product URL: %q", item)
		}
		if err := q.Push(queue.NewTask(item)); err != nil {
			return fmt.Errorf("failed to enqueue %s: %w", item, err)
		}
	}

	return nil
}

func printResult(r *pipeline.Result) {
	fmt.Printf("Product: %s\n", r.Title)
	fmt.Printf("SKU: %s\n", r.SKU)
	fmt.Printf("Images: %d\n", r.ImageCount)
	if r.VariationCount > 0 {
		fmt.Printf("Variations: %d\n", r.VariationCount)
	}
	fmt.Printf("CSV: %s\n", r.CSVPath)
	fmt.Printf("Images zip: %s\n", r.ImagesZipPath)
	fmt.Println("---")
}
