package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/huddle/internal/models"
	"github.com/desertthunder/huddle/internal/repositories"
	"github.com/desertthunder/huddle/internal/services"
	"github.com/desertthunder/huddle/internal/shared"
	tu "github.com/desertthunder/huddle/internal/testing"
)

func seedMeetings(t *testing.T, f *fixture, titles ...string) {
	t.Helper()
	start := time.Now().Add(24 * time.Hour).Truncate(time.Minute)
	for i, title := range titles {
		in := MeetingInput{
			Title:     title,
			StartTime: start.Add(time.Duration(i) * time.Hour),
			EndTime:   start.Add(time.Duration(i)*time.Hour + 30*time.Minute),
		}
		if _, err := f.scheduler.Create(context.Background(), f.owner, in, false); err != nil {
			t.Fatalf("failed to seed %s: %v", title, err)
		}
	}
}

func TestSyncAll(t *testing.T) {
	ctx := context.Background()

	t.Run("syncs every unsynced meeting", func(t *testing.T) {
		f := newFixture(t)
		seedMeetings(t, f, "One", "Two", "Three", "Four")

		prog := make(chan ProgressUpdate, 32)
		result, err := f.scheduler.SyncAll(ctx, prog, f.owner, BulkSyncOpts{NumWorkers: 2, RateLimit: 1000})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Considered != 4 || result.Synced != 4 || result.Failed != 0 {
			t.Errorf("unexpected result: %+v", result)
		}

		list, _ := f.scheduler.List(ctx, f.owner, models.MeetingFilter{})
		for _, m := range list {
			if !m.Synced() {
				t.Errorf("expected %s to be synced", m.Title())
			}
		}

		close(prog)
		var syncUpdates int
		for u := range prog {
			if u.Phase == SyncMeetings {
				syncUpdates++
			}
		}
		if syncUpdates != 4 {
			t.Errorf("expected 4 sync updates, got %d", syncUpdates)
		}
	})

	t.Run("skips synced meetings", func(t *testing.T) {
		f := newFixture(t)
		seedMeetings(t, f, "One", "Two")
		if _, err := f.scheduler.SyncAll(ctx, nil, f.owner, BulkSyncOpts{RateLimit: 1000}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		before := f.calendar.calls()

		result, err := f.scheduler.SyncAll(ctx, nil, f.owner, BulkSyncOpts{RateLimit: 1000})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Considered != 0 {
			t.Errorf("expected nothing to sync, got %d", result.Considered)
		}
		if f.calendar.calls() != before {
			t.Errorf("expected no calendar calls, got %d", f.calendar.calls()-before)
		}
	})

	t.Run("records partial failures", func(t *testing.T) {
		f := newFixture(t)
		seedMeetings(t, f, "One", "Broken", "Three")
		f.calendar.failTitle = "Broken"

		result, err := f.scheduler.SyncAll(ctx, nil, f.owner, BulkSyncOpts{NumWorkers: 3, RateLimit: 1000})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Synced != 2 || result.Failed != 1 {
			t.Errorf("expected 2 synced and 1 failed, got %+v", result)
		}
		for _, r := range result.Results {
			if r.Title == "Broken" && (r.Success || r.Error == "") {
				t.Errorf("expected failure recorded for Broken, got %+v", r)
			}
		}
	})

	t.Run("credential failure stops the run", func(t *testing.T) {
		f := newFixture(t)
		seedMeetings(t, f, "One", "Two", "Three")
		f.calendar.createErr = shared.ErrExpiredNoRefresh

		result, err := f.scheduler.SyncAll(ctx, nil, f.owner, BulkSyncOpts{RateLimit: 1000})
		if !errors.Is(err, shared.ErrExpiredNoRefresh) {
			t.Fatalf("expected ErrExpiredNoRefresh, got %v", err)
		}
		if f.calendar.createCalls != 1 {
			t.Errorf("expected a single attempt, got %d", f.calendar.createCalls)
		}
		if result.Failed != 1 {
			t.Errorf("expected 1 failure recorded, got %d", result.Failed)
		}
	})

	t.Run("not connected", func(t *testing.T) {
		f := newFixture(t)
		f.owner.ClearCalendarToken()

		if _, err := f.scheduler.SyncAll(ctx, nil, f.owner, BulkSyncOpts{}); !errors.Is(err, shared.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
		if f.calendar.calls() != 0 {
			t.Errorf("expected 0 calendar calls, got %d", f.calendar.calls())
		}
	})

	t.Run("past scope is opt-in", func(t *testing.T) {
		f := newFixture(t)
		past := time.Now().Add(-48 * time.Hour).Truncate(time.Minute)
		in := MeetingInput{Title: "Old", StartTime: past, EndTime: past.Add(time.Hour)}
		if _, err := f.scheduler.Create(ctx, f.owner, in, false); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}

		result, _ := f.scheduler.SyncAll(ctx, nil, f.owner, BulkSyncOpts{RateLimit: 1000})
		if result.Considered != 0 {
			t.Errorf("expected default scope to skip past meetings, got %d", result.Considered)
		}

		result, _ = f.scheduler.SyncAll(ctx, nil, f.owner, BulkSyncOpts{Scope: models.ScopeAll, RateLimit: 1000})
		if result.Synced != 1 {
			t.Errorf("expected past meeting synced with all scope, got %+v", result)
		}
	})

	t.Run("token expiring mid-run is refreshed once", func(t *testing.T) {
		db := tu.NewTestDB(t)
		users := repositories.NewUserRepository(db)
		meetings := repositories.NewMeetingRepository(db)
		fake := tu.NewFakeGoogle(t)
		logger := shared.NewLogger(io.Discard)

		owner := models.NewUser(0, "owner@example.com", "Owner")
		if err := users.Create(ctx, owner); err != nil {
			t.Fatalf("failed to create owner: %v", err)
		}
		// oauth2 treats a token as expired 10s early, so this one lapses shortly after the run starts
		blob, _ := json.Marshal(&oauth2.Token{
			AccessToken:  "access-1",
			TokenType:    "Bearer",
			RefreshToken: tu.FakeRefreshToken,
			Expiry:       time.Now().Add(10*time.Second + 150*time.Millisecond),
		})
		if err := users.UpdateCalendarToken(ctx, owner, string(blob)); err != nil {
			t.Fatalf("failed to store token: %v", err)
		}

		link := services.NewCalendarLink(fake.GoogleConfig(), users, nil, logger)
		bridge := services.NewSyncBridge(link, nil, 5*time.Second, logger)
		scheduler := NewScheduler(meetings, bridge, logger)

		start := time.Now().Add(24 * time.Hour).Truncate(time.Minute)
		for i := 0; i < 8; i++ {
			in := MeetingInput{
				Title:     fmt.Sprintf("Meeting %d", i),
				StartTime: start.Add(time.Duration(i) * time.Hour),
				EndTime:   start.Add(time.Duration(i)*time.Hour + 30*time.Minute),
			}
			if _, err := scheduler.Create(ctx, owner, in, false); err != nil {
				t.Fatalf("failed to seed: %v", err)
			}
		}

		result, err := scheduler.SyncAll(ctx, nil, owner, BulkSyncOpts{NumWorkers: 4, RateLimit: 20})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Synced != 8 || result.Failed != 0 {
			t.Errorf("unexpected result: %+v", result)
		}
		if fake.RefreshCalls() != 1 {
			t.Errorf("expected exactly one refresh, got %d", fake.RefreshCalls())
		}
		if fake.EventCount() != 8 {
			t.Errorf("expected 8 provider events, got %d", fake.EventCount())
		}
	})
}

func TestPhaseString(t *testing.T) {
	if LoadMeetings.String() != "load_meetings" || SyncMeetings.String() != "sync_meetings" {
		t.Errorf("unexpected phase names: %s %s", LoadMeetings, SyncMeetings)
	}
	if Phase(99).String() != "" {
		t.Errorf("expected empty name for unknown phase")
	}
}
