// Package repositories implements SQLite persistence for users and meetings.
//
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
// Lookups that match nothing return errors wrapping [shared.ErrNotFound].
//
// Key Implementations:
//   - [UserRepository] : User accounts, API token lookups and the stored calendar credential
//   - [MeetingRepository] : Owner-scoped meeting persistence with scope and range filters
//
// Sequence numbers provide stable, human-readable ordering independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
