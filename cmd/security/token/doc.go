// Package token provides bearer-credential digest primitives for scribe.
//
// Bearer credentials are signed tokens that exceed bcrypt's 72-byte input
// limit, so they are reduced to a fixed 64-char hex digest before the
// credential verifier hashes or checks them.
//
// Modes:
// - Default dev mode: SHA-256(token) when no HMAC key is configured.
// - Production mode: HMAC-SHA256(token, key) when SCRIBE_TOKEN_HMAC_KEY is set.
//
// Policy:
//   - If SCRIBE_REQUIRE_TOKEN_HMAC=true, the server refuses to start unless the
//     key is present and at least 32 bytes long.
package token
