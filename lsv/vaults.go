package lsv

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Vault is a named container for documents. An encrypted vault holds
// envelope-sealed content the service cannot read.
type Vault struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Encrypted     bool      `json:"encrypted"`
	DocumentCount int       `json:"documentCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// VaultsService manages vaults.
type VaultsService struct {
	client *Client
}

// CreateVaultInput describes a vault to create.
type CreateVaultInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Encrypted   bool   `json:"encrypted"`
}

// Validate reports whether the input is complete enough to submit.
func (in CreateVaultInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 128)),
		validation.Field(&in.Description, validation.Length(0, 1024)),
	)
}

// UpdateVaultInput describes a partial vault update. Empty fields are left
// unchanged.
type UpdateVaultInput struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

type listVaultsResponse struct {
	Vaults []Vault `json:"vaults"`
	Total  int     `json:"total"`
}

// Create creates a vault. The input is validated locally before any request
// is sent.
func (s *VaultsService) Create(ctx context.Context, in CreateVaultInput) (*Vault, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("lsv: invalid vault input: %w", err)
	}

	var vault Vault
	if err := s.client.do(ctx, http.MethodPost, vaultsPath, nil, in, &vault); err != nil {
		return nil, err
	}
	return &vault, nil
}

// Get retrieves a vault by ID.
func (s *VaultsService) Get(ctx context.Context, id string) (*Vault, error) {
	var vault Vault
	if err := s.client.do(ctx, http.MethodGet, vaultPath(id), nil, nil, &vault); err != nil {
		return nil, err
	}
	return &vault, nil
}

// List retrieves the caller's vaults. opts may be nil for the first page
// with server defaults.
func (s *VaultsService) List(ctx context.Context, opts *ListOptions) ([]Vault, error) {
	var out listVaultsResponse
	if err := s.client.do(ctx, http.MethodGet, vaultsPath, opts.values(), nil, &out); err != nil {
		return nil, err
	}
	return out.Vaults, nil
}

// Update applies a partial update to a vault.
func (s *VaultsService) Update(ctx context.Context, id string, in UpdateVaultInput) (*Vault, error) {
	var vault Vault
	if err := s.client.do(ctx, http.MethodPatch, vaultPath(id), nil, in, &vault); err != nil {
		return nil, err
	}
	return &vault, nil
}

// Delete removes a vault and every document in it. The server refuses with
// a ConflictError when the vault still has active connectors.
func (s *VaultsService) Delete(ctx context.Context, id string) error {
	return s.client.do(ctx, http.MethodDelete, vaultPath(id), nil, nil, nil)
}

func vaultPath(id string) string {
	return vaultsPath + "/" + url.PathEscape(id)
}
