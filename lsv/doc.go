// Package lsv is the Go client SDK for the Locksafe Vault API.
//
// Locksafe Vault stores documents in vaults, optionally sealed client-side
// so the service only ever holds ciphertext it cannot read. The package
// wraps the HTTP API behind typed services (vaults, documents, search,
// billing, admin, webhooks, connectors) and owns the security layer every
// request passes through:
//
//   - HMAC request signing with a per-request timestamp and nonce, keeping
//     replay exposure inside the server's five-minute acceptance window
//   - access/refresh token lifecycle with proactive, coalesced refresh
//   - authenticated AES-256-GCM envelope encryption for document content
//
// # Usage
//
// Create a client with New and call operations through its service fields:
//
//	client, err := lsv.New(lsv.Config{
//		BaseURL: "https://api.locksafe.io",
//		APIKey:  os.Getenv("LSV_API_KEY"),
//	})
//	if err != nil {
//		// ...
//	}
//	vault, err := client.Vaults.Create(ctx, lsv.CreateVaultInput{Name: "notes"})
//
// Failures are classified into the package's typed errors; branch on them
// with errors.As:
//
//	var notFound *lsv.NotFoundError
//	if errors.As(err, &notFound) {
//		// ...
//	}
//
// # Encryption
//
// Vault keys are generated client-side with GenerateVaultKey and are never
// stored by the SDK; callers persist them out of band. Passing a key to
// document operations seals content into an envelope before upload and opens
// envelopes after download.
package lsv
