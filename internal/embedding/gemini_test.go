package embedding

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/docsy/internal/models"
)

func TestGeminiProvider_Embed(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.URL.Query().Get("key") != "test-key" && r.Header.Get("X-Goog-Api-Key") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		// embedContent answers with "embedding", batchEmbedContents with "embeddings".
		if strings.HasSuffix(gotPath, ":embedContent") {
			_, _ = w.Write([]byte(`{"embedding":{"values":[3,4]}}`))
			return
		}
		_, _ = w.Write([]byte(`{"embeddings":[{"values":[3,4]}]}`))
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), ProviderConfig{APIKey: "test-key", BaseURL: srv.URL + "/", Dimensions: 2})
	if err != nil {
		t.Fatal(err)
	}
	v, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gotPath, "models/"+DefaultGeminiModel+":") {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(gotBody, `"outputDimensionality":2`) {
		t.Errorf("request body lacks outputDimensionality 2: %s", gotBody)
	}
	if len(v) != 2 || math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("vector = %v, want unit length [0.6 0.8]", v)
	}
}

func TestGeminiProvider_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"invalid model","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), ProviderConfig{APIKey: "k", BaseURL: srv.URL + "/", Dimensions: 2})
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Embed(context.Background(), "hello")
	if !errors.Is(err, models.ErrProvider) {
		t.Fatalf("want ErrProvider, got %v", err)
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestNewGeminiProvider_requiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), ProviderConfig{})
	if !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("want ErrConfiguration, got %v", err)
	}
}
