package vector

import (
	"errors"
	"testing"

	"github.com/hyperjump/docsy/internal/config"
	"github.com/hyperjump/docsy/internal/models"
)

func TestNewVectorIndex(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.VectorConfig
		wantType string
		wantErr  error
	}{
		{"memory", config.VectorConfig{Type: "memory"}, "memory", nil},
		{"qdrant", config.VectorConfig{Type: "qdrant", URL: "http://localhost:6333"}, "qdrant", nil},
		{"qdrant without url", config.VectorConfig{Type: "qdrant"}, "", models.ErrConfiguration},
		{"unknown", config.VectorConfig{Type: "faiss"}, "", models.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := NewVectorIndex(tt.cfg, "", 4, nil)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			defer idx.Close()
			if idx.Type() != tt.wantType {
				t.Errorf("Type = %s, want %s", idx.Type(), tt.wantType)
			}
		})
	}
}
