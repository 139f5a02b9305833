package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/huddle/internal/formatter"
	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	UpcomingView ViewState = iota
	PastView
	CalendarView
	DetailView
	ConfirmView
	SyncView
	ResultView
)

// Scheduler is the subset of [tasks.Scheduler] the TUI drives.
type Scheduler interface {
	List(ctx context.Context, owner *models.User, filter models.MeetingFilter) ([]*models.Meeting, error)
	SyncToCalendar(ctx context.Context, owner *models.User, id string) (*models.Meeting, error)
	SyncAll(ctx context.Context, prog chan<- tasks.ProgressUpdate, owner *models.User, opts tasks.BulkSyncOpts) (*tasks.BulkSyncResult, error)
}

type syncOutcome struct {
	result *tasks.BulkSyncResult
	err    error
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	back         ViewState
	scheduler    Scheduler
	owner        *models.User
	loc          *time.Location
	now          func() time.Time
	width        int
	height       int
	upcoming     list.Model
	past         list.Model
	meetings     map[models.Scope][]*models.Meeting
	month        time.Time
	selected     *models.Meeting
	progressChan chan tasks.ProgressUpdate
	done         chan syncOutcome
	progress     tasks.ProgressUpdate
	result       *tasks.BulkSyncResult
	status       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model browsing owner's meetings, rendered in loc.
func NewModel(ctx context.Context, scheduler Scheduler, owner *models.User, loc *time.Location) *Model {
	if loc == nil {
		loc = time.UTC
	}
	m := &Model{
		ctx:       ctx,
		view:      UpcomingView,
		scheduler: scheduler,
		owner:     owner,
		loc:       loc,
		now:       time.Now,
		meetings:  map[models.Scope][]*models.Meeting{},
		help:      help.New(),
		keys:      newKeyMap(),
	}
	m.month = StartOfMonth(m.now(), loc)
	m.upcoming = newMeetingList("Upcoming meetings", nil)
	m.past = newMeetingList("Past meetings", nil)
	return m
}

func newMeetingList(title string, items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	return l
}

// Init fetches both the upcoming and past meetings.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(models.ScopeUpcoming), m.fetch(models.ScopePast))
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.upcoming.SetSize(msg.Width-4, msg.Height-8)
		m.past.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgMeetingsFetched:
		data := msg.data.(meetingsFetched)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.meetings[data.scope] = data.meetings
		items := meetingItems(data.meetings, m.loc)
		switch data.scope {
		case models.ScopeUpcoming:
			m.upcoming.SetItems(items)
		case models.ScopePast:
			m.past.SetItems(items)
		}
		return m, nil

	case MsgMeetingSynced:
		data := msg.data.(meetingSynced)
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Sync failed: %v", data.err))
			m.view = DetailView
			return m, nil
		}
		m.selected = data.meeting
		m.status = styles.ok.Render("Meeting synced to Google Calendar")
		m.view = DetailView
		return m, m.fetch(models.ScopeUpcoming)

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgSyncComplete:
		data := msg.data.(syncComplete)
		m.result = data.result
		m.progressChan = nil
		m.done = nil
		m.view = ResultView
		if data.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Sync failed: %v", data.err))
			return m, nil
		}
		m.status = ""
		return m, tea.Batch(m.fetch(models.ScopeUpcoming), m.fetch(models.ScopePast))
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if (m.view == UpcomingView || m.view == PastView) && m.currentList().FilterState() == list.Filtering {
		return m.updateLists(msg)
	}
	if key.Matches(msg, m.keys.quit) && m.view != SyncView {
		return m, tea.Quit
	}

	switch m.view {
	case UpcomingView, PastView:
		return m.handleListKeys(msg)
	case CalendarView:
		return m.handleCalendarKeys(msg)
	case DetailView:
		return m.handleDetailKeys(msg)
	case ConfirmView:
		return m.handleConfirmKeys(msg)
	case ResultView:
		if key.Matches(msg, m.keys.back) || key.Matches(msg, m.keys.enter) {
			m.view = UpcomingView
			m.result = nil
			m.status = ""
		}
	}
	return m, nil
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	current := m.currentList()

	switch {
	case key.Matches(msg, m.keys.tab):
		m.nextView()
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		m.err = nil
		return m, tea.Batch(m.fetch(models.ScopeUpcoming), m.fetch(models.ScopePast))
	case key.Matches(msg, m.keys.syncAll):
		m.back = m.view
		m.selected = nil
		m.view = ConfirmView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := current.SelectedItem().(meetingItem); ok {
			m.back = m.view
			m.selected = item.meeting
			m.status = ""
			m.view = DetailView
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleCalendarKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.tab):
		m.nextView()
	case key.Matches(msg, m.keys.prev):
		m.month = m.month.AddDate(0, -1, 0)
	case key.Matches(msg, m.keys.next):
		m.month = m.month.AddDate(0, 1, 0)
	}
	return m, nil
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = m.back
		m.status = ""
	case key.Matches(msg, m.keys.sync):
		if m.selected.Synced() {
			m.status = styles.warn.Render("Meeting already synced to calendar")
			return m, nil
		}
		m.view = ConfirmView
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		if m.selected != nil {
			m.view = DetailView
		} else {
			m.view = m.back
		}
	case key.Matches(msg, m.keys.yes):
		if m.selected != nil {
			return m, m.syncSelected()
		}
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) nextView() {
	switch m.view {
	case UpcomingView:
		m.view = PastView
	case PastView:
		m.view = CalendarView
	default:
		m.view = UpcomingView
	}
}

func (m *Model) currentList() *list.Model {
	if m.view == PastView {
		return &m.past
	}
	return &m.upcoming
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case UpcomingView:
		m.upcoming, cmd = m.upcoming.Update(msg)
	case PastView:
		m.past, cmd = m.past.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetch(scope models.Scope) tea.Cmd {
	return func() tea.Msg {
		meetings, err := m.scheduler.List(m.ctx, m.owner, models.MeetingFilter{Scope: scope, Now: m.now()})
		return meetingsFetchedMsg(scope, meetings, err)
	}
}

func (m *Model) syncSelected() tea.Cmd {
	id := m.selected.ID()
	return func() tea.Msg {
		meeting, err := m.scheduler.SyncToCalendar(m.ctx, m.owner, id)
		return meetingSyncedMsg(meeting, err)
	}
}

// startSync runs [tasks.Scheduler.SyncAll] in the background; progress and the final
// outcome are delivered one message at a time through waitForProgress.
func (m *Model) startSync() tea.Cmd {
	prog := make(chan tasks.ProgressUpdate, 50)
	done := make(chan syncOutcome, 1)
	m.progressChan = prog
	m.done = done
	m.progress = tasks.ProgressUpdate{}

	go func() {
		result, err := m.scheduler.SyncAll(m.ctx, prog, m.owner, tasks.BulkSyncOpts{Scope: models.ScopeUpcoming})
		close(prog)
		done <- syncOutcome{result: result, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	prog, done := m.progressChan, m.done
	return func() tea.Msg {
		if prog == nil {
			return syncCompleteMsg(m.result, nil)
		}
		update, ok := <-prog
		if !ok {
			out := <-done
			return syncCompleteMsg(out.result, out.err)
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress r to retry or q to quit", m.err))
	}

	switch m.view {
	case UpcomingView:
		return m.renderList(m.upcoming)
	case PastView:
		return m.renderList(m.past)
	case CalendarView:
		return m.renderCalendar()
	case DetailView:
		return m.renderDetail()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) renderList(l list.Model) string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.tab, m.keys.syncAll, m.keys.refresh, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", l.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderCalendar() string {
	all := append(append([]*models.Meeting{}, m.meetings[models.ScopePast]...), m.meetings[models.ScopeUpcoming]...)
	grid := RenderMonth(m.month, m.now(), all)
	helpKeys := []key.Binding{m.keys.prev, m.keys.next, m.keys.tab, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", grid, m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDetail() string {
	mt := m.selected
	var b strings.Builder
	b.WriteString(styles.title.Render(mt.Title()))
	b.WriteString("\n")

	start, end := mt.StartTime().In(m.loc), mt.EndTime().In(m.loc)
	b.WriteString(fmt.Sprintf("When:      %s - %s (%s)\n",
		start.Format("Mon Jan 2 2006 15:04"), end.Format("15:04 MST"), formatter.FormatDuration(mt.Duration())))
	if mt.Description() != "" {
		b.WriteString(fmt.Sprintf("About:     %s\n", mt.Description()))
	}
	if attendees := mt.Attendees(); len(attendees) > 0 {
		b.WriteString(fmt.Sprintf("Attendees: %s\n", strings.Join(attendees, ", ")))
	}
	if mt.Synced() {
		b.WriteString(styles.ok.Render(fmt.Sprintf("Synced:    %s", mt.ExternalEventID())))
	} else {
		b.WriteString(styles.warn.Render("Not synced to Google Calendar"))
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}

	helpKeys := []key.Binding{m.keys.sync, m.keys.back, m.keys.quit}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderConfirm() string {
	var title string
	if m.selected != nil {
		title = fmt.Sprintf("Sync '%s' to Google Calendar?", m.selected.Title())
	} else {
		pending := 0
		for _, mt := range m.meetings[models.ScopeUpcoming] {
			if !mt.Synced() {
				pending++
			}
		}
		title = fmt.Sprintf("Sync %d unsynced upcoming meetings to Google Calendar?", pending)
	}
	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n\n%s", styles.title.Render(title), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderSync() string {
	var b strings.Builder
	b.WriteString(styles.title.Render("Syncing meetings"))
	b.WriteString("\n")

	if m.progress.Message == "" {
		b.WriteString("Starting...\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Phase: %s\n", m.progress.Phase))
	if m.progress.Total > 0 {
		pct := float64(m.progress.Step) / float64(m.progress.Total) * 100
		b.WriteString(fmt.Sprintf("Progress: %d/%d (%.0f%%)\n", m.progress.Step, m.progress.Total, pct))
	}
	b.WriteString(m.progress.Message + "\n")
	return b.String()
}

func (m *Model) renderResult() string {
	var b strings.Builder
	if m.result == nil {
		b.WriteString(styles.title.Render("Sync did not run"))
		b.WriteString("\n")
	} else {
		b.WriteString(styles.title.Render("Sync complete"))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("Considered: %d\n", m.result.Considered))
		b.WriteString(styles.ok.Render(fmt.Sprintf("Synced:     %d", m.result.Synced)))
		b.WriteString("\n")
		if m.result.Failed > 0 {
			b.WriteString(styles.err.Render(fmt.Sprintf("Failed:     %d", m.result.Failed)))
			b.WriteString("\n")
			for _, r := range m.result.Results {
				if !r.Success {
					b.WriteString(fmt.Sprintf("  • %s: %s\n", r.Title, r.Error))
				}
			}
		}
	}
	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	b.WriteString("\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}
