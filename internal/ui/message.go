package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgMeetingsFetched MsgKind = iota
	MsgMeetingSynced
	MsgProgressUpdate
	MsgSyncComplete
)

type meetingsFetched struct {
	scope    models.Scope
	meetings []*models.Meeting
	err      error
}

type meetingSynced struct {
	meeting *models.Meeting
	err     error
}

type syncComplete struct {
	result *tasks.BulkSyncResult
	err    error
}

// meetingsFetchedMsg is the constructor for [MsgMeetingsFetched]
func meetingsFetchedMsg(scope models.Scope, meetings []*models.Meeting, err error) Msg {
	return Msg{kind: MsgMeetingsFetched, data: meetingsFetched{scope, meetings, err}}
}

// meetingSyncedMsg is the constructor for [MsgMeetingSynced]
func meetingSyncedMsg(meeting *models.Meeting, err error) Msg {
	return Msg{kind: MsgMeetingSynced, data: meetingSynced{meeting, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// syncCompleteMsg is the constructor for [MsgSyncComplete]
func syncCompleteMsg(result *tasks.BulkSyncResult, err error) Msg {
	return Msg{kind: MsgSyncComplete, data: syncComplete{result, err}}
}
