// Package password is scribe's credential verifier.
//
// It hashes secrets with bcrypt at a fixed, documented work factor
// (DefaultCost, overridable via SCRIBE_BCRYPT_COST) and verifies them against
// stored hashes. It is used both for login passwords and for the pre-digested
// bearer credential stored on every session.
//
// Security notes:
// - Stored hashes are treated as untrusted input during Verify. Malformed
//   hashes, or hashes whose cost is far above the configured one, never match.
// - The slow hashing step runs off the caller goroutine so that request
//   cancellation and deadlines are honored.
package password
