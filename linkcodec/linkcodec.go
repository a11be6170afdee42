// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package linkcodec

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrInvalidToken is returned for any malformed, tampered or wrong-key token.
// Decoding deliberately never reveals which check failed, so a forger gets
// no oracle distinguishing a bad session id from a bad signature.
var ErrInvalidToken = errors.New("invalid voting token")

// KeySize is the per-session key length in bytes (256-bit).
const KeySize = chacha20poly1305.KeySize

// payload is the authenticated plaintext sealed inside a token. Tokens carry
// no expiry of their own; expiry is enforced by the manager checking the
// session's status.
type payload struct {
	SessionID     string `json:"sid"`
	ParticipantID string `json:"pid"`
}

// GenerateKey returns a fresh per-session symmetric key from a
// cryptographically secure random source. Keys are stored separately from
// the session record, never transmitted to participants and never logged.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate link key: %w", err)
	}
	return key, nil
}

// Encode seals (sessionID, participantID) into an opaque URL-safe token
// authenticated under key. Any bit-flip invalidates the token.
func Encode(sessionID, participantID string, key []byte) (string, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", fmt.Errorf("bad link key: %w", err)
	}

	plaintext, err := json.Marshal(payload{SessionID: sessionID, ParticipantID: participantID})
	if err != nil {
		return "", fmt.Errorf("failed to encode token payload: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate token nonce: %w", err)
	}

	// nonce || ciphertext, base64url without padding
	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode opens a token under key and returns the embedded
// (sessionID, participantID). Every failure mode is ErrInvalidToken.
func Decode(token string, key []byte) (sessionID, participantID string, err error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(sealed) < aead.NonceSize() {
		return "", "", ErrInvalidToken
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	var p payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return "", "", ErrInvalidToken
	}
	if p.SessionID == "" || p.ParticipantID == "" {
		return "", "", ErrInvalidToken
	}
	return p.SessionID, p.ParticipantID, nil
}
