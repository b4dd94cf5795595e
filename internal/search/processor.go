package search

import (
	"strings"

	"github.com/hyperjump/docsy/internal/config"
	"github.com/hyperjump/docsy/internal/models"
)

// ProcessQuery trims the query text, validates it and applies the configured limits.
func ProcessQuery(query *models.SearchQuery, cfg config.RetrievalConfig) error {
	query.Query = strings.TrimSpace(query.Query)
	return query.Validate(cfg.SearchLimit, cfg.MaxLimit)
}
