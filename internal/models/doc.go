// Package models defines domain entities and persistence interfaces for the huddle meeting scheduler.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing provider data
//   - [CalendarEvent] : Normalized Google Calendar event used by read and availability queries
//   - [MeetingFilter] : List criteria (scope and time window) for owner-scoped meeting queries
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [User] : Meeting owners holding an API token and the opaque calendar credential
//   - [Meeting] : Scheduled meetings, optionally linked to a provider event
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
