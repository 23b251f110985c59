package lsv

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SignatureHeaders carries the three headers that authenticate a signed
// request: the signature itself, the timestamp it was computed at, and the
// per-request nonce.
//
// The server recomputes the signature from the received method, path, body,
// and these two header values; all three must therefore travel together.
type SignatureHeaders struct {
	Signature string
	Timestamp string
	Nonce     string
}

// Apply sets the signature headers on h.
func (sh SignatureHeaders) Apply(h http.Header) {
	h.Set(SignatureHeader, sh.Signature)
	h.Set(SignatureTimestampHeader, sh.Timestamp)
	h.Set(SignatureNonceHeader, sh.Nonce)
}

// SignatureHeadersFromHTTP extracts the signature headers from an inbound
// request or webhook delivery.
func SignatureHeadersFromHTTP(h http.Header) SignatureHeaders {
	return SignatureHeaders{
		Signature: h.Get(SignatureHeader),
		Timestamp: h.Get(SignatureTimestampHeader),
		Nonce:     h.Get(SignatureNonceHeader),
	}
}

// GenerateNonce returns a fresh nonce: 16 cryptographically random bytes as
// 32 lowercase hex characters.
//
// A nonce is used for exactly one request. Combined with the timestamp it
// lets the server reject replayed requests inside the acceptance window.
func GenerateNonce() (string, error) {
	buf := make([]byte, nonceSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("lsv: generating nonce: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// BuildSignaturePayload assembles the canonical string covered by a request
// signature:
//
//	METHOD \n PATH \n TIMESTAMP \n NONCE \n SHA256HEX(BODY)
//
// The method is upper-cased and any query string is stripped from the path,
// so equivalent requests canonicalize identically on both ends. An absent
// body hashes as the empty string.
func BuildSignaturePayload(method, path, timestamp, nonce, body string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	sum := sha256.Sum256([]byte(body))

	return strings.ToUpper(method) + "\n" +
		path + "\n" +
		timestamp + "\n" +
		nonce + "\n" +
		hex.EncodeToString(sum[:])
}

// SignPayload computes the HMAC-SHA256 of payload under secret, encoded as
// 64 lowercase hex characters.
func SignPayload(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignRequest produces the signature headers for a single request. Each call
// draws a fresh nonce and timestamp, so signing the same request twice
// yields different headers; a retried request must be re-signed.
func SignRequest(apiKey, method, path, body string) (SignatureHeaders, error) {
	return signRequestAt(apiKey, method, path, body, time.Now())
}

func signRequestAt(apiKey, method, path, body string, now time.Time) (SignatureHeaders, error) {
	nonce, err := GenerateNonce()
	if err != nil {
		return SignatureHeaders{}, err
	}

	timestamp := now.UTC().Format(signatureTimestampLayout)
	payload := BuildSignaturePayload(method, path, timestamp, nonce, body)

	return SignatureHeaders{
		Signature: SignPayload(apiKey, payload),
		Timestamp: timestamp,
		Nonce:     nonce,
	}, nil
}
