package lsv

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// envelope is the JSON wire form of an encrypted document. The GCM auth tag
// travels as its own field rather than appended to the ciphertext, so the
// shape is explicit and versionable.
type envelope struct {
	Version    int    `json:"version"`
	Algorithm  string `json:"algorithm"`
	IV         string `json:"iv"`
	AuthTag    string `json:"authTag"`
	Ciphertext string `json:"ciphertext"`
}

const (
	envelopeVersion   = 1
	envelopeAlgorithm = "aes-256-gcm"

	vaultKeySize    = 32
	envelopeIVSize  = 12
	envelopeTagSize = 16
)

// GenerateVaultKey returns a fresh 256-bit vault key encoded as 64 lowercase
// hex characters.
//
// The key never leaves the client; losing it makes the vault's encrypted
// documents permanently unreadable.
func GenerateVaultKey() (string, error) {
	key := make([]byte, vaultKeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("lsv: generating vault key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// decodeVaultKey decodes and length-checks a hex vault key. Non-hex input
// surfaces as a length error too, matching how truncated decodes fail.
func decodeVaultKey(keyHex string) ([]byte, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != vaultKeySize {
		return nil, ErrInvalidKeyLength
	}
	return key, nil
}

// EncryptContent seals plaintext under the vault key and returns the
// envelope as a JSON string.
//
// Every call draws a fresh random IV, so encrypting the same content twice
// yields different envelopes.
func EncryptContent(plaintext, keyHex string) (string, error) {
	key, err := decodeVaultKey(keyHex)
	if err != nil {
		return "", err
	}

	aead, err := newVaultAEAD(key)
	if err != nil {
		return "", err
	}

	iv := make([]byte, envelopeIVSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("lsv: generating iv: %w", err)
	}

	sealed := aead.Seal(nil, iv, []byte(plaintext), nil)
	split := len(sealed) - envelopeTagSize

	out, err := json.Marshal(envelope{
		Version:    envelopeVersion,
		Algorithm:  envelopeAlgorithm,
		IV:         hex.EncodeToString(iv),
		AuthTag:    hex.EncodeToString(sealed[split:]),
		Ciphertext: hex.EncodeToString(sealed[:split]),
	})
	if err != nil {
		return "", fmt.Errorf("lsv: encoding envelope: %w", err)
	}

	return string(out), nil
}

// DecryptContent opens an envelope produced by EncryptContent and returns
// the plaintext.
//
// The key is checked before the envelope is even parsed, so a wrong-length
// key reports ErrInvalidKeyLength no matter how mangled the envelope is.
// Tampered ciphertext fails with ErrAuthenticationFailed; garbled plaintext
// is never returned.
func DecryptContent(envelopeJSON, keyHex string) (string, error) {
	key, err := decodeVaultKey(keyHex)
	if err != nil {
		return "", err
	}

	var env envelope
	if err := json.Unmarshal([]byte(envelopeJSON), &env); err != nil {
		return "", ErrInvalidEnvelope
	}
	// Ciphertext is allowed to be empty: sealing an empty document produces
	// an envelope with only an auth tag.
	if env.IV == "" || env.AuthTag == "" {
		return "", ErrInvalidEnvelope
	}
	if env.Version != envelopeVersion {
		return "", ErrUnsupportedVersion
	}
	if env.Algorithm != envelopeAlgorithm {
		return "", ErrUnsupportedAlgorithm
	}

	iv, err := hex.DecodeString(env.IV)
	if err != nil || len(iv) != envelopeIVSize {
		return "", ErrInvalidEnvelope
	}
	tag, err := hex.DecodeString(env.AuthTag)
	if err != nil || len(tag) != envelopeTagSize {
		return "", ErrInvalidEnvelope
	}
	ciphertext, err := hex.DecodeString(env.Ciphertext)
	if err != nil {
		return "", ErrInvalidEnvelope
	}

	aead, err := newVaultAEAD(key)
	if err != nil {
		return "", err
	}

	plaintext, err := aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", ErrAuthenticationFailed
	}

	return string(plaintext), nil
}

// IsEncryptedEnvelope reports whether content looks like an encrypted
// envelope.
//
// This is a structural probe only: a true result means the expected fields
// are present, not that the ciphertext authenticates. It lets callers route
// mixed vault content without attempting decryption.
func IsEncryptedEnvelope(content string) bool {
	var env envelope
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return false
	}

	return env.Version == envelopeVersion &&
		env.Algorithm == envelopeAlgorithm &&
		env.IV != "" && env.AuthTag != ""
}

func newVaultAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("lsv: initializing cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("lsv: initializing cipher: %w", err)
	}
	return aead, nil
}
