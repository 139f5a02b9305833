// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI browses one user's meetings across several views:
//  1. [UpcomingView] and [PastView] : Meeting lists, switched with tab
//  2. [CalendarView] : Month grid marking days that hold meetings
//  3. [DetailView] : A single meeting, with an option to push it to Google Calendar
//  4. [ConfirmView] : Confirm a single or bulk sync
//  5. [SyncView] and [ResultView] : Bulk sync progress and its outcome
//
// Bulk sync progress flows through a channel from [tasks.Scheduler.SyncAll] and arrives as one
// [Msg] per update, so the Update loop never blocks.
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, enter, esc, y/n, q) with contextual help
// displayed via charmbracelet/bubbles/help.
package ui
