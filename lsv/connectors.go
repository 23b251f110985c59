package lsv

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mitchellh/mapstructure"
)

// Connector types.
const (
	ConnectorS3     = "s3"
	ConnectorGitHub = "github"
	ConnectorGDrive = "gdrive"
)

// Connector sync statuses.
const (
	ConnectorIdle    = "idle"
	ConnectorSyncing = "syncing"
	ConnectorError   = "error"
)

// Connector syncs an external content source into a vault.
//
// Config is provider-specific and loosely typed; DecodeConfig maps it onto a
// caller-defined struct.
type Connector struct {
	ID         string         `json:"id"`
	VaultID    string         `json:"vaultId"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	Config     map[string]any `json:"config"`
	LastSyncAt *time.Time     `json:"lastSyncAt,omitempty"`
}

// DecodeConfig decodes the provider-specific configuration into out.
func (c *Connector) DecodeConfig(out any) error {
	if err := mapstructure.Decode(c.Config, out); err != nil {
		return fmt.Errorf("lsv: decoding connector config: %w", err)
	}
	return nil
}

// SyncJob reports a sync run triggered on a connector.
type SyncJob struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"startedAt"`
}

// ConnectorsService manages connectors.
type ConnectorsService struct {
	client *Client
}

// CreateConnectorInput describes a connector to create.
type CreateConnectorInput struct {
	VaultID string         `json:"vaultId"`
	Type    string         `json:"type"`
	Name    string         `json:"name"`
	Config  map[string]any `json:"config,omitempty"`
}

// Validate reports whether the input is complete enough to submit.
func (in CreateConnectorInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.VaultID, validation.Required),
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Type, validation.Required,
			validation.In(ConnectorS3, ConnectorGitHub, ConnectorGDrive)),
	)
}

type listConnectorsResponse struct {
	Connectors []Connector `json:"connectors"`
	Total      int         `json:"total"`
}

// Create creates a connector. Credentials inside Config are stored
// server-side and never returned on reads.
func (s *ConnectorsService) Create(ctx context.Context, in CreateConnectorInput) (*Connector, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("lsv: invalid connector input: %w", err)
	}

	var conn Connector
	if err := s.client.do(ctx, http.MethodPost, connectorsPath, nil, in, &conn); err != nil {
		return nil, err
	}
	return &conn, nil
}

// Get retrieves a connector by ID.
func (s *ConnectorsService) Get(ctx context.Context, id string) (*Connector, error) {
	var conn Connector
	if err := s.client.do(ctx, http.MethodGet, connectorPath(id), nil, nil, &conn); err != nil {
		return nil, err
	}
	return &conn, nil
}

// List retrieves the account's connectors.
func (s *ConnectorsService) List(ctx context.Context, opts *ListOptions) ([]Connector, error) {
	var out listConnectorsResponse
	if err := s.client.do(ctx, http.MethodGet, connectorsPath, opts.values(), nil, &out); err != nil {
		return nil, err
	}
	return out.Connectors, nil
}

// Delete removes a connector. Documents it already synced stay in the vault.
func (s *ConnectorsService) Delete(ctx context.Context, id string) error {
	return s.client.do(ctx, http.MethodDelete, connectorPath(id), nil, nil, nil)
}

// Sync triggers a sync run. A run already in progress is reported as a
// ConflictError by the server.
func (s *ConnectorsService) Sync(ctx context.Context, id string) (*SyncJob, error) {
	var job SyncJob
	if err := s.client.do(ctx, http.MethodPost, connectorPath(id)+"/sync", nil, nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func connectorPath(id string) string {
	return connectorsPath + "/" + url.PathEscape(id)
}
