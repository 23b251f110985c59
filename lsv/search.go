package lsv

import (
	"context"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SearchRequest describes a full-text search across the caller's vaults.
//
// Encrypted documents are matched by path and metadata only; the service
// never indexes sealed content.
type SearchRequest struct {
	Query   string `json:"query"`
	VaultID string `json:"vaultId,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}

// Validate reports whether the request is complete enough to submit.
func (r SearchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Query, validation.Required),
		validation.Field(&r.Limit, validation.Min(0), validation.Max(100)),
	)
}

// SearchResult is a single scored hit.
type SearchResult struct {
	VaultID string  `json:"vaultId"`
	Path    string  `json:"path"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// SearchService queries documents across vaults.
type SearchService struct {
	client *Client
}

type searchResponse struct {
	Results []SearchResult `json:"results"`
}

// Query runs a search and returns scored hits, best first.
func (s *SearchService) Query(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("lsv: invalid search request: %w", err)
	}

	var out searchResponse
	if err := s.client.do(ctx, http.MethodPost, searchPath, nil, req, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}
