// Package models defines domain entities and persistence interfaces for the MoodTunes recommendation service.
//
// The only persistent entity is [User]: a minimal record binding the
// Spotify and Fitbit identities of one person together with the OAuth
// tokens the upstream adapters need. Everything else the service handles
// (payloads, playlist items) is transient per-request data and lives in
// the feed package.
//
// [User] implements the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
