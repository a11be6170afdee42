// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package linkcodec mints and resolves encrypted participant links.

Each session owns one 256-bit symmetric key, generated at session creation
and stored alongside (but never inside) the session record. Encode seals a
(session id, participant id) pair with ChaCha20-Poly1305 into an opaque,
URL-safe token:

	token, err := linkcodec.Encode(sessionID, participantID, key)
	// → used as /vote/{token}

Decode authenticates and opens the token:

	sid, pid, err := linkcodec.Decode(token, key)

Every decoding failure — malformed base64, truncation, tampering, a token
minted under another session's key — returns the single sentinel
ErrInvalidToken. Keys are never derived from session metadata, so leaking a
session's id or title does not help forge a token.
*/
package linkcodec
