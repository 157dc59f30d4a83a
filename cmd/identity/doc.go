// Package identity holds scribe's user principal and its persistence.
//
// Users are an external collaborator of the session subsystem: sessions
// reference them by id, and validation reads their ban and admin flags.
// The package provides the User type, Postgres and in-memory stores, ULID
// generation, and the shared error taxonomy used by HTTP handlers.
package identity
