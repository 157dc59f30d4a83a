// Package session implements scribe's session architecture.
//
// A session is a server-side record keyed by a ULID and bound to the
// (user, ip, user agent) triple it was opened from. A login from a triple
// that already holds an active, unexpired record renews that record in place;
// any other login opens a new one.
//
// Every protected request presents two values: the session id and a signed
// bearer token (JWT HS256 by default, PASETO v4.public optionally) whose
// claims bind it to the session and user. Only a bcrypt hash of the token's
// digest is persisted; raw tokens never reach storage.
//
// Expiry is lazy: validation flips an expired record to inactive. Records are
// never hard-deleted, and bans are enforced at validation time only.
//
// Transport (cookies, headers, status codes) lives in the auth/api package.
package session
