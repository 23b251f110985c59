package lsv

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func TestDocumentsPut_SealsWithVaultKey(t *testing.T) {
	key := newTestVaultKey(t)

	var gotMethod string
	var gotBody struct {
		Content     string `json:"content"`
		ContentType string `json:"contentType"`
		Encrypted   bool   `json:"encrypted"`
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		jsonResponse(w, http.StatusOK, `{"vaultId":"v1","path":"notes.md","encrypted":true}`)
	})

	client, _ := newTestClient(t, handler, Config{})

	doc, err := client.Documents.Put(context.Background(), "v1", "notes.md", PutDocumentInput{
		Content:  "the plan is in motion",
		VaultKey: key,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("expected PUT, got %s", gotMethod)
	}

	if !gotBody.Encrypted {
		t.Fatal("expected the encrypted flag set")
	}
	if !IsEncryptedEnvelope(gotBody.Content) {
		t.Fatalf("uploaded content is not an envelope: %q", gotBody.Content)
	}

	// The service must only ever see ciphertext; prove the envelope opens
	// back to the original plaintext.
	plaintext, err := DecryptContent(gotBody.Content, key)
	if err != nil {
		t.Fatalf("failed to open uploaded envelope: %v", err)
	}
	if plaintext != "the plan is in motion" {
		t.Fatalf("unexpected plaintext: %q", plaintext)
	}

	if !doc.Encrypted {
		t.Fatal("expected the returned document marked encrypted")
	}
}

func TestDocumentsPut_PlaintextWithoutKey(t *testing.T) {
	var gotBody struct {
		Content   string `json:"content"`
		Encrypted bool   `json:"encrypted"`
	}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		jsonResponse(w, http.StatusOK, `{"vaultId":"v1","path":"notes.md"}`)
	})

	client, _ := newTestClient(t, handler, Config{})

	if _, err := client.Documents.Put(context.Background(), "v1", "notes.md", PutDocumentInput{
		Content: "public notes",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotBody.Content != "public notes" {
		t.Fatalf("expected content untouched, got %q", gotBody.Content)
	}
	if gotBody.Encrypted {
		t.Fatal("expected no encrypted flag without a key")
	}
}

func documentServer(t *testing.T, content string) http.Handler {
	t.Helper()

	doc, err := json.Marshal(map[string]any{
		"vaultId":   "v1",
		"path":      "notes.md",
		"content":   content,
		"encrypted": IsEncryptedEnvelope(content),
	})
	if err != nil {
		t.Fatalf("failed to encode document: %v", err)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, string(doc))
	})
}

func TestDocumentsGet_OpensEnvelope(t *testing.T) {
	key := newTestVaultKey(t)
	sealed := encryptForTest(t, "quarterly numbers", key)

	client, _ := newTestClient(t, documentServer(t, sealed), Config{})

	doc, err := client.Documents.Get(context.Background(), "v1", "notes.md", &GetDocumentOptions{VaultKey: key})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Content != "quarterly numbers" {
		t.Fatalf("expected opened plaintext, got %q", doc.Content)
	}
}

func TestDocumentsGet_PassesThroughPlaintext(t *testing.T) {
	key := newTestVaultKey(t)

	client, _ := newTestClient(t, documentServer(t, "already plaintext"), Config{})

	doc, err := client.Documents.Get(context.Background(), "v1", "notes.md", &GetDocumentOptions{VaultKey: key})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Content != "already plaintext" {
		t.Fatalf("expected plaintext passed through, got %q", doc.Content)
	}
}

func TestDocumentsGet_WithoutOptionsReturnsStored(t *testing.T) {
	key := newTestVaultKey(t)
	sealed := encryptForTest(t, "secret", key)

	client, _ := newTestClient(t, documentServer(t, sealed), Config{})

	doc, err := client.Documents.Get(context.Background(), "v1", "notes.md", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !IsEncryptedEnvelope(doc.Content) {
		t.Fatal("expected the stored envelope returned untouched")
	}
}

func TestDocumentsGet_WrongKey(t *testing.T) {
	sealed := encryptForTest(t, "secret", newTestVaultKey(t))

	client, _ := newTestClient(t, documentServer(t, sealed), Config{})

	_, err := client.Documents.Get(context.Background(), "v1", "notes.md", &GetDocumentOptions{
		VaultKey: newTestVaultKey(t),
	})
	if !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestDocumentPath_EscapesSegments(t *testing.T) {
	var gotPath string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		jsonResponse(w, http.StatusOK, `{"vaultId":"v1","path":"notes/2024/q1 plan.md"}`)
	})

	client, _ := newTestClient(t, handler, Config{})

	if _, err := client.Documents.Get(context.Background(), "v1", "notes/2024/q1 plan.md", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "/api/v1/vaults/v1/documents/notes/2024/q1%20plan.md"
	if gotPath != want {
		t.Fatalf("unexpected request path:\n got: %s\nwant: %s", gotPath, want)
	}
}
