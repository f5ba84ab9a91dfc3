package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"html"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gonature/product-scraper/internal/config"
	"github.com/gonature/product-scraper/internal/fetch"
	"github.com/gonature/product-scraper/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 180, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newPipeline(t *testing.T, outputDir string) *Pipeline {
	t.Helper()
	cfg := config.Import{
		SKUPrefix:    "GN-",
		MaxImages:    12,
		GalleryLimit: 6,
		OutputDir:    outputDir,
	}
	client := fetch.NewClient(5*time.Second, "test-agent/1.0")
	return New(client, nil, cfg, logger.New("error", "text"))
}

func readCSVRows(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))

	r := csv.NewReader(bytes.NewReader(data[3:]))
	records, err := r.ReadAll()
	require.NoError(t, err)
	return records
}

func column(header []string, name string) int {
	for i, c := range header {
		if c == name {
			return i
		}
	}
	return -1
}

func TestProcessURLSimpleProduct(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/img/pack.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes(t, 400, 300))
	})
	mux.HandleFunc("/product", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head>
			<meta property="og:image" content="%s/img/pack.jpg">
		</head><body>
			<h1>Trail Pack 30L</h1>
		</body></html>`, srv.URL)
	})

	outDir := t.TempDir()
	p := newPipeline(t, outDir)

	res, err := p.ProcessURL(context.Background(), srv.URL+"/product")
	require.NoError(t, err)

	assert.Equal(t, "Trail Pack 30L", res.Title)
	assert.Equal(t, "GN-Trail-Pack-30L", res.SKU, "SKU falls back to prefix plus title slug")
	assert.Equal(t, 1, res.ImageCount)
	assert.Zero(t, res.VariationCount)
	assert.Equal(t, filepath.Join(outDir, "out_Trail-Pack-30L"), res.OutputDir)

	records := readCSVRows(t, res.CSVPath)
	require.Len(t, records, 2, "header plus single simple row")

	header := records[0]
	row := records[1]
	assert.Equal(t, "simple", row[column(header, "Type")])
	assert.Equal(t, "pack-01.jpg", row[column(header, "Images")])

	zr, err := zip.OpenReader(res.ImagesZipPath)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "pack-01.jpg", zr.File[0].Name)

	// processed file exists on disk too
	_, err = os.Stat(filepath.Join(res.OutputDir, "images", "pack-01.jpg"))
	assert.NoError(t, err)
}

func TestProcessURLVariableProduct(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	for _, name := range []string{"black", "blue"} {
		name := name
		mux.HandleFunc("/img/"+name+".jpg", func(w http.ResponseWriter, r *http.Request) {
			w.Write(pngBytes(t, 200, 200))
		})
	}

	mux.HandleFunc("/product", func(w http.ResponseWriter, r *http.Request) {
		variations := fmt.Sprintf(`[
			{"attributes":{"attribute_pa_color":"Black"},"sku":"TP-BLK","display_price":199,"image":{"src":"%s/img/black.jpg"}},
			{"attributes":{"attribute_pa_color":"Blue"},"sku":"TP-BLU","display_price":209,"image":{"src":"%s/img/blue.jpg"}}
		]`, srv.URL, srv.URL)

		fmt.Fprintf(w, `<html><body>
			<h1 class="product_title">Trail Pack 30L</h1>
			<span class="sku">TP-30L</span>
			<div class="woocommerce-product-gallery">
				<img src="%s/img/black.jpg"><img src="%s/img/blue.jpg">
			</div>
			<form class="variations_form" data-product_variations="%s"></form>
		</body></html>`, srv.URL, srv.URL, html.EscapeString(variations))
	})

	p := newPipeline(t, t.TempDir())

	res, err := p.ProcessURL(context.Background(), srv.URL+"/product")
	require.NoError(t, err)

	assert.Equal(t, "TP-30L", res.SKU, "page SKU wins over generated one")
	assert.Equal(t, 2, res.ImageCount)
	assert.Equal(t, 2, res.VariationCount)

	records := readCSVRows(t, res.CSVPath)
	require.Len(t, records, 4, "header, parent, two variations")

	header := records[0]
	parent := records[1]
	assert.Equal(t, "variable", parent[column(header, "Type")])
	assert.Equal(t, "Color", parent[column(header, "Attribute 1 name")])
	assert.Equal(t, "Black|Blue", parent[column(header, "Attribute 1 value(s)")])

	blackRow := records[2]
	assert.Equal(t, "variation", blackRow[column(header, "Type")])
	assert.Equal(t, "TP-30L", blackRow[column(header, "Parent")])
	assert.Equal(t, "Black", blackRow[column(header, "Attribute 1 value(s)")])
	assert.Equal(t, "black-01.jpg", blackRow[column(header, "Images")])

	blueRow := records[3]
	assert.Equal(t, "Blue", blueRow[column(header, "Attribute 1 value(s)")])
	assert.Equal(t, "blue-02.jpg", blueRow[column(header, "Images")])
}

func TestProcessURLVariationImageFallback(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/img/main.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes(t, 100, 100))
	})
	mux.HandleFunc("/product", func(w http.ResponseWriter, r *http.Request) {
		// variation carries no image of its own
		variations := `[{"attributes":{"attribute_pa_size":"M"},"sku":"V-M"}]`
		fmt.Fprintf(w, `<html><body>
			<h1>Dry Bag</h1>
			<div class="gallery"><img src="%s/img/main.jpg"></div>
			<form class="variations_form" data-product_variations="%s"></form>
		</body></html>`, srv.URL, html.EscapeString(variations))
	})

	p := newPipeline(t, t.TempDir())

	res, err := p.ProcessURL(context.Background(), srv.URL+"/product")
	require.NoError(t, err)

	records := readCSVRows(t, res.CSVPath)
	header := records[0]
	variationRow := records[2]
	assert.Equal(t, "main-01.jpg", variationRow[column(header, "Images")],
		"variation without an image inherits the first gallery file")
}

func TestProcessURLSkipsBrokenImages(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/img/good.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes(t, 50, 80))
	})
	mux.HandleFunc("/img/missing.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	mux.HandleFunc("/img/corrupt.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not an image"))
	})
	mux.HandleFunc("/product", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
			<h1>Camp Stove</h1>
			<div class="images">
				<img src="%s/img/missing.jpg">
				<img src="%s/img/corrupt.jpg">
				<img src="%s/img/good.jpg">
			</div>
		</body></html>`, srv.URL, srv.URL, srv.URL)
	})

	p := newPipeline(t, t.TempDir())

	res, err := p.ProcessURL(context.Background(), srv.URL+"/product")
	require.NoError(t, err, "broken images must not fail the pipeline")
	assert.Equal(t, 1, res.ImageCount)
	assert.Equal(t, []string{"good-03.jpg"}, res.Gallery)
}

func TestProcessURLPageFetchFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := newPipeline(t, t.TempDir())

	_, err := p.ProcessURL(context.Background(), srv.URL+"/product")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch page")
}

func TestProcessURLMaxImagesCap(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	for i := 1; i <= 5; i++ {
		i := i
		mux.HandleFunc(fmt.Sprintf("/img/p%d.jpg", i), func(w http.ResponseWriter, r *http.Request) {
			w.Write(pngBytes(t, 20, 20))
		})
	}
	mux.HandleFunc("/product", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><h1>Tent</h1><div class="gallery">
			<img src="%[1]s/img/p1.jpg"><img src="%[1]s/img/p2.jpg"><img src="%[1]s/img/p3.jpg">
			<img src="%[1]s/img/p4.jpg"><img src="%[1]s/img/p5.jpg">
		</div></body></html>`, srv.URL)
	})

	cfg := config.Import{SKUPrefix: "GN-", MaxImages: 2, GalleryLimit: 6, OutputDir: t.TempDir()}
	client := fetch.NewClient(5*time.Second, "test-agent/1.0")
	p := New(client, nil, cfg, logger.New("error", "text"))

	res, err := p.ProcessURL(context.Background(), srv.URL+"/product")
	require.NoError(t, err)
	assert.Equal(t, 2, res.ImageCount)
}
