package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/shared"
)

// BulkSyncOpts contains configuration for [Scheduler.SyncAll].
type BulkSyncOpts struct {
	Scope      models.Scope // Which meetings to consider (default: upcoming)
	NumWorkers int          // Concurrent workers (default: 3, max: 10)
	RateLimit  float64      // Event inserts per second (default: 5)
	Now        time.Time    // Reference point for Scope (default: time.Now)
}

// MeetingSyncResult is the outcome for a single meeting.
type MeetingSyncResult struct {
	MeetingID string `json:"meeting_id"`
	Title     string `json:"title"`
	EventID   string `json:"event_id,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// BulkSyncResult summarises a [Scheduler.SyncAll] run.
type BulkSyncResult struct {
	Considered int                 `json:"considered"`
	Synced     int                 `json:"synced"`
	Failed     int                 `json:"failed"`
	Results    []MeetingSyncResult `json:"results"`
}

// SyncAll mirrors every unsynced meeting of owner within opts.Scope to the calendar.
//
// Meetings are pushed by a rate limited worker pool; a failed meeting is recorded and the
// rest continue. The first meeting is pushed alone so an expired token is refreshed once,
// and a credential failure there stops the run.
func (s *Scheduler) SyncAll(ctx context.Context, prog chan<- ProgressUpdate, owner *models.User, opts BulkSyncOpts) (*BulkSyncResult, error) {
	if !owner.CalendarConnected() {
		return nil, shared.ErrNotConnected
	}

	if opts.Scope == "" {
		opts.Scope = models.ScopeUpcoming
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	sendProgress(prog, loadingMeetingsUpdate())
	meetings, err := s.meetings.ListForUser(ctx, owner.ID(), models.MeetingFilter{Scope: opts.Scope, Now: opts.Now})
	if err != nil {
		return nil, fmt.Errorf("failed to load meetings: %w", err)
	}

	pending := make([]*models.Meeting, 0, len(meetings))
	for _, m := range meetings {
		if !m.Synced() {
			pending = append(pending, m)
		}
	}
	sendProgress(prog, foundMeetingsUpdate(len(pending), len(meetings)))

	result := &BulkSyncResult{
		Considered: len(pending),
		Results:    make([]MeetingSyncResult, 0, len(pending)),
	}
	if len(pending) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	record := func(res MeetingSyncResult, m *models.Meeting, err error) {
		result.Results = append(result.Results, res)
		step := len(result.Results)
		if res.Success {
			result.Synced++
			sendProgress(prog, syncCompletedUpdate(step, len(pending), m))
		} else {
			result.Failed++
			sendProgress(prog, syncFailedUpdate(step, len(pending), m, err))
		}
	}

	if err := limiter.Wait(ctx); err != nil {
		return result, err
	}
	first := pending[0]
	res, err := s.syncOne(ctx, owner, first)
	record(res, first, err)
	if IsCredentialError(err) {
		return result, err
	}

	jobs := make(chan *models.Meeting, len(pending))
	results := make(chan syncOutcome, len(pending))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go s.syncWorker(ctx, &wg, owner, jobs, results)
	}

	go func() {
		defer close(jobs)
		for _, m := range pending[1:] {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- m
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for out := range results {
		record(out.result, out.meeting, out.err)
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("sync interrupted after %d of %d meetings: %w", len(result.Results), len(pending), err)
	}
	return result, nil
}

type syncOutcome struct {
	meeting *models.Meeting
	result  MeetingSyncResult
	err     error
}

// syncWorker pushes meetings from the jobs channel until it is closed or ctx ends.
func (s *Scheduler) syncWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	owner *models.User,
	jobs <-chan *models.Meeting,
	results chan<- syncOutcome,
) {
	defer wg.Done()

	for m := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := s.syncOne(ctx, owner, m)
		results <- syncOutcome{meeting: m, result: res, err: err}
	}
}

func (s *Scheduler) syncOne(ctx context.Context, owner *models.User, m *models.Meeting) (MeetingSyncResult, error) {
	res := MeetingSyncResult{MeetingID: m.ID(), Title: m.Title()}
	if err := s.mirror(ctx, owner, m); err != nil {
		s.logger.Warn("bulk sync failed", "meeting", m.ID(), "err", err)
		res.Error = err.Error()
		return res, err
	}
	res.EventID = m.ExternalEventID()
	res.Success = true
	return res, nil
}

// sendProgress sends a progress update without blocking when nobody is listening.
func sendProgress(prog chan<- ProgressUpdate, update ProgressUpdate) {
	if prog == nil {
		return
	}
	select {
	case prog <- update:
	default:
	}
}
