// Package tasks implements the owner-scoped meeting operations and their calendar mirror.
//
// # Scheduler
//
// [Scheduler] sits between the transports (HTTP handlers, CLI commands, TUI) and the storage and
// calendar layers:
//
//   - [Scheduler.List] and [Scheduler.Get] read the owner's meetings
//   - [Scheduler.Create] validates, persists, and optionally pushes a new event
//   - [Scheduler.Update] applies a partial patch and pushes it to a linked event
//   - [Scheduler.Delete] removes the linked event on a best-effort basis, then the meeting
//   - [Scheduler.SyncToCalendar] pushes a single unsynced meeting
//
// Local persistence always wins. Calendar failures during create and update are returned
// as [Result.CalendarError] next to the stored meeting instead of failing the call.
//
// # Bulk Sync
//
// [Scheduler.SyncAll] pushes every unsynced meeting in a scope through a rate limited worker
// pool and reports [ProgressUpdate] values on a non-blocking channel.
package tasks
