package enhance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gonature/product-scraper/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnhance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req["model"])

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Great pack.\n\n- light\n- tough"}},
			},
		})
	}))
	defer srv.Close()

	e := New("test-key", "gpt-4o-mini", srv.URL, 5*time.Second, logger.New("error", "text"))

	got, err := e.Enhance(context.Background(), "rewrite this")
	require.NoError(t, err)
	assert.Equal(t, "Great pack.\n\n- light\n- tough", got)
}

func TestEnhanceFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "HTTP error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "rate limited", http.StatusTooManyRequests)
			},
		},
		{
			name: "API error payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"message": "invalid key"},
				})
			},
		},
		{
			name: "Empty choices",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
			},
		},
		{
			name: "Garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			e := New("test-key", "gpt-4o-mini", srv.URL, 5*time.Second, logger.New("error", "text"))

			_, err := e.Enhance(context.Background(), "prompt")
			assert.Error(t, err)
		})
	}
}

func TestEnhanceWithoutKey(t *testing.T) {
	e := New("", "gpt-4o-mini", "https://api.example.com/v1", time.Second, logger.New("error", "text"))

	_, err := e.Enhance(context.Background(), "prompt")
	assert.Error(t, err)
}

func TestSplitCopy(t *testing.T) {
	short, long := SplitCopy("First paragraph.\n\nSecond paragraph with details.")
	assert.Equal(t, "First paragraph.", short)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph with details.", long)
}

func TestSplitCopyCapsShort(t *testing.T) {
	first := strings.Repeat("x", 500)
	short, _ := SplitCopy(first + "\nrest")
	assert.Len(t, []rune(short), 400)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt("Trail Pack 30L", "A pack.")
	assert.Contains(t, p, "Trail Pack 30L")
	assert.Contains(t, p, "A pack.")
}
