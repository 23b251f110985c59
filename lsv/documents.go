package lsv

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Document is a single piece of content stored in a vault, addressed by a
// slash-separated path.
type Document struct {
	VaultID     string    `json:"vaultId"`
	Path        string    `json:"path"`
	Content     string    `json:"content"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size"`
	Encrypted   bool      `json:"encrypted"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DocumentsService manages documents inside vaults.
//
// When a vault key is supplied, content is sealed client-side before upload
// and opened after download; the service only ever stores envelopes and
// cannot read them.
type DocumentsService struct {
	client *Client
}

// PutDocumentInput describes content to write.
type PutDocumentInput struct {
	Content     string
	ContentType string

	// VaultKey, when set, encrypts Content into an envelope before upload.
	VaultKey string
}

// GetDocumentOptions controls document retrieval.
type GetDocumentOptions struct {
	// VaultKey, when set, opens enveloped content after download.
	// Plaintext documents pass through untouched.
	VaultKey string
}

type putDocumentRequest struct {
	Content     string `json:"content"`
	ContentType string `json:"contentType,omitempty"`
	Encrypted   bool   `json:"encrypted,omitempty"`
}

type listDocumentsResponse struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}

// Put writes a document, creating it or replacing its content.
func (s *DocumentsService) Put(ctx context.Context, vaultID, path string, in PutDocumentInput) (*Document, error) {
	body := putDocumentRequest{
		Content:     in.Content,
		ContentType: in.ContentType,
	}

	if in.VaultKey != "" {
		sealed, err := EncryptContent(in.Content, in.VaultKey)
		if err != nil {
			return nil, err
		}
		body.Content = sealed
		body.Encrypted = true
	}

	var doc Document
	if err := s.client.do(ctx, http.MethodPut, documentPath(vaultID, path), nil, body, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Get retrieves a document. opts may be nil to return content exactly as
// stored.
func (s *DocumentsService) Get(ctx context.Context, vaultID, path string, opts *GetDocumentOptions) (*Document, error) {
	var doc Document
	if err := s.client.do(ctx, http.MethodGet, documentPath(vaultID, path), nil, nil, &doc); err != nil {
		return nil, err
	}

	if opts != nil && opts.VaultKey != "" && IsEncryptedEnvelope(doc.Content) {
		plaintext, err := DecryptContent(doc.Content, opts.VaultKey)
		if err != nil {
			return nil, err
		}
		doc.Content = plaintext
	}

	return &doc, nil
}

// List retrieves document metadata for a vault. Returned documents carry no
// content; use Get for that.
func (s *DocumentsService) List(ctx context.Context, vaultID string, opts *ListOptions) ([]Document, error) {
	var out listDocumentsResponse
	path := vaultPath(vaultID) + "/documents"
	if err := s.client.do(ctx, http.MethodGet, path, opts.values(), nil, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// Delete removes a document.
func (s *DocumentsService) Delete(ctx context.Context, vaultID, path string) error {
	return s.client.do(ctx, http.MethodDelete, documentPath(vaultID, path), nil, nil, nil)
}

func documentPath(vaultID, docPath string) string {
	return vaultPath(vaultID) + "/documents/" + escapeDocumentPath(docPath)
}

// escapeDocumentPath escapes each segment of a document path while
// preserving the slashes that separate them, so "notes/2024/plan.md" stays
// three segments on the wire.
func escapeDocumentPath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
