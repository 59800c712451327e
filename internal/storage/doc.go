// Package storage persists users and reminders in SQLite.
//
// The schema is embedded and applied on open. All reminder instants are
// stored as UTC unix milliseconds; user rows carry the parsing
// preferences (timezone, numeric date order) the parser needs.
//
// Lookups for identities that do not exist return ErrNotFound so callers
// can distinguish a broken upstream contract from an empty result.
package storage
