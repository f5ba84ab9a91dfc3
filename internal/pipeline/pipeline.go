package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gonature/product-scraper/internal/archive"
	"github.com/gonature/product-scraper/internal/catalog"
	"github.com/gonature/product-scraper/internal/config"
	"github.com/gonature/product-scraper/internal/enhance"
	"github.com/gonature/product-scraper/internal/extract"
	"github.com/gonature/product-scraper/internal/fetch"
	"github.com/gonature/product-scraper/internal/imageproc"
	"github.com/gonature/product-scraper/internal/models"
	"github.com/gonature/product-scraper/internal/slug"
)

// Enhancer is the optional description-rewrite collaborator. A nil
// Enhancer disables enhancement entirely.
type Enhancer interface {
	Enhance(ctx context.Context, prompt string) (string, error)
}

// Pipeline runs the per-URL scrape: fetch, extract, normalize images,
// build rows, write the output bundle. URLs are independent; only the
// main page fetch or a total parse failure abort one URL.
type Pipeline struct {
	client   *fetch.Client
	enhancer Enhancer
	cfg      config.Import
	logger   *slog.Logger
}

func New(client *fetch.Client, enhancer Enhancer, cfg config.Import, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		client:   client,
		enhancer: enhancer,
		cfg:      cfg,
		logger:   logger.With("component", "pipeline"),
	}
}

// Result summarizes one successfully processed product URL.
type Result struct {
	Title          string
	SKU            string
	OutputDir      string
	CSVPath        string
	ImagesZipPath  string
	Gallery        []string
	ImageCount     int
	VariationCount int
}

// ProcessURL scrapes one product page and writes its catalog CSV and
// image archive under a per-product output directory.
func (p *Pipeline) ProcessURL(ctx context.Context, rawURL string) (*Result, error) {
	body, err := p.client.Get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	base, err := baseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	blocks, malformedBlocks := extract.JSONLDBlocks(doc)
	if malformedBlocks > 0 {
		p.logger.Warn("skipped malformed JSON-LD blocks", "url", rawURL, "count", malformedBlocks)
	}
	product, _ := extract.PickProduct(blocks)

	text := extract.ExtractText(doc, product)

	sku := extract.ExtractSKU(doc)
	if sku == "" {
		sku = p.cfg.SKUPrefix + slug.Make(text.Title)
	}

	candidates := extract.CollectImageCandidates(doc, base, product)
	if len(candidates) > p.cfg.MaxImages {
		candidates = candidates[:p.cfg.MaxImages]
	}

	attrs, variations, varStatus := extract.ParseVariations(doc, base)
	if varStatus == extract.StatusMalformed {
		p.logger.Warn("variation data present but unparseable, treating as simple product", "url", rawURL)
	}

	titleSlug := slug.Make(text.Title)
	outDir := filepath.Join(p.cfg.OutputDir, "out_"+titleSlug)
	imgDir := filepath.Join(outDir, "images")
	if err := os.MkdirAll(imgDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	processed := p.processImages(ctx, candidates, imgDir)

	p.mapVariationImages(variations, processed)

	record := models.ProductRecord{
		URL:              rawURL,
		Title:            text.Title,
		ShortDescription: text.ShortDescription,
		LongDescription:  text.LongDescription,
		SKU:              sku,
		Brand:            p.cfg.Brand,
		Categories:       p.cfg.Category,
		Tags:             p.cfg.Tags,
		ScrapedAt:        time.Now(),
	}

	if p.enhancer != nil {
		if enhanced, err := p.enhancer.Enhance(ctx, enhance.BuildPrompt(record.Title, record.ShortDescription)); err != nil {
			p.logger.Warn("description enhancement failed, keeping heuristic text", "url", rawURL, "error", err)
		} else {
			record.ShortDescription, record.LongDescription = enhance.SplitCopy(enhanced)
		}
	}

	gallery := galleryFilenames(processed, p.cfg.GalleryLimit)

	rows, droppedAttrs := catalog.BuildRows(catalog.BuildInput{
		Name:             record.Title,
		SKU:              record.SKU,
		ShortDescription: record.ShortDescription,
		LongDescription:  record.LongDescription,
		GalleryFilenames: gallery,
		Categories:       record.Categories,
		Tags:             record.Tags,
		Attributes:       attrs,
		Variations:       variations,
	})
	if len(droppedAttrs) > 0 {
		p.logger.Warn("attribute keys beyond the 3 reserved slots were dropped",
			"url", rawURL, "dropped", droppedAttrs)
	}

	prefix := p.cfg.OutPrefix
	if prefix == "" {
		prefix = titleSlug
	}

	csvPath := filepath.Join(outDir, prefix+".csv")
	if err := catalog.WriteCSV(csvPath, rows); err != nil {
		return nil, err
	}

	zipPath := filepath.Join(outDir, prefix+"_images.zip")
	if err := archive.WriteImagesZip(zipPath, imgDir, processedFilenames(processed)); err != nil {
		return nil, err
	}

	p.logger.Info("product processed",
		"url", rawURL,
		"title", text.Title,
		"sku", sku,
		"images", len(processed),
		"variations", len(variations),
	)

	return &Result{
		Title:          text.Title,
		SKU:            sku,
		OutputDir:      outDir,
		CSVPath:        csvPath,
		ImagesZipPath:  zipPath,
		Gallery:        gallery,
		ImageCount:     len(processed),
		VariationCount: len(variations),
	}, nil
}

// processImages downloads and normalizes each candidate sequentially.
// A failed fetch or decode skips only that image.
func (p *Pipeline) processImages(ctx context.Context, candidates []models.ImageCandidate, imgDir string) []models.ProcessedImage {
	processed := make([]models.ProcessedImage, 0, len(candidates))

	for i, cand := range candidates {
		data, err := p.client.Get(ctx, cand.URL)
		if err != nil {
			p.logger.Warn("skipping image, fetch failed", "url", cand.URL, "error", err)
			continue
		}

		img, err := imageproc.Decode(data)
		if err != nil {
			p.logger.Warn("skipping image, decode failed", "url", cand.URL, "error", err)
			continue
		}

		filename := imageFilename(cand.URL, i+1)
		if err := imageproc.SaveJPEG(imageproc.Normalize(img), filepath.Join(imgDir, filename)); err != nil {
			p.logger.Warn("skipping image, write failed", "url", cand.URL, "error", err)
			continue
		}

		processed = append(processed, models.ProcessedImage{Filename: filename, SourceURL: cand.URL})
	}

	return processed
}

// mapVariationImages swaps each variation's image URL for the matching
// processed filename. A variation whose image was never processed
// falls back to the first gallery image, if any.
func (p *Pipeline) mapVariationImages(variations []models.Variation, processed []models.ProcessedImage) {
	byURL := make(map[string]string, len(processed))
	for _, img := range processed {
		byURL[img.SourceURL] = img.Filename
	}

	for i := range variations {
		if filename, ok := byURL[stripQuery(variations[i].Image)]; ok {
			variations[i].Image = filename
			continue
		}
		if len(processed) > 0 {
			variations[i].Image = processed[0].Filename
		} else {
			variations[i].Image = ""
		}
	}
}

// imageFilename derives a collision-free local name from the source
// URL basename plus a 2-digit ordinal.
func imageFilename(srcURL string, ordinal int) string {
	name := "img"
	if u, err := url.Parse(srcURL); err == nil {
		base := path.Base(u.Path)
		if s := slug.Make(strings.TrimSuffix(base, path.Ext(base))); s != "item" {
			name = s
		}
	}
	return fmt.Sprintf("%s-%02d.jpg", name, ordinal)
}

func galleryFilenames(processed []models.ProcessedImage, limit int) []string {
	names := processedFilenames(processed)
	if len(names) > limit {
		names = names[:limit]
	}
	return names
}

func processedFilenames(processed []models.ProcessedImage) []string {
	names := make([]string, len(processed))
	for i, img := range processed {
		names[i] = img.Filename
	}
	return names
}

// baseURL reduces a page URL to scheme://host/ for resolving relative
// links.
func baseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("URL missing scheme or host: %s", rawURL)
	}
	return &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}, nil
}

func stripQuery(u string) string {
	if idx := strings.Index(u, "?"); idx >= 0 {
		return u[:idx]
	}
	return u
}
