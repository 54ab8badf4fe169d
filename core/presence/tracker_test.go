package presence

import (
	"context"
	"testing"
	"time"

	"github.com/shidqimaqshid/geoattend-app-sub000/core"
	"github.com/shidqimaqshid/geoattend-app-sub000/core/geo"
)

type fakeRepo struct {
	records  map[string]ActiveSession
	cleanups map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		records:  make(map[string]ActiveSession),
		cleanups: make(map[string]bool),
	}
}

func (r *fakeRepo) UpsertActiveSession(_ context.Context, rec ActiveSession) error {
	r.records[rec.UserID] = rec
	return nil
}

func (r *fakeRepo) GetActiveSession(_ context.Context, userID string) (ActiveSession, error) {
	if rec, ok := r.records[userID]; ok {
		return rec, nil
	}
	return ActiveSession{}, ErrNotFound
}

func (r *fakeRepo) QueryActiveSessions(_ context.Context) ([]ActiveSession, error) {
	out := make([]ActiveSession, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out, nil
}

func (r *fakeRepo) DeleteActiveSession(_ context.Context, userID string) error {
	delete(r.records, userID)
	return nil
}

func (r *fakeRepo) RegisterDisconnectCleanup(_ context.Context, userID string) error {
	r.cleanups[userID] = true
	return nil
}

func TestHeartbeat(t *testing.T) {
	repo := newFakeRepo()
	tracker := NewTracker(repo, 3*time.Minute)
	now := time.Date(2024, time.September, 9, 7, 0, 0, 0, time.UTC)
	tracker.nowFunc = func() time.Time { return now }

	coords := &geo.Coordinates{Latitude: -6.2, Longitude: 106.8}
	rec, err := tracker.Heartbeat(context.Background(), "guru-1", Profile{Name: "Pak Budi", Role: "teacher", Device: "android"}, coords)
	if err != nil {
		t.Fatalf("Heartbeat() failed: %v", err)
	}
	if rec.LastSeen != core.TimeToMillis(now) {
		t.Errorf("LastSeen = %d, want %d", rec.LastSeen, core.TimeToMillis(now))
	}
	if !repo.cleanups["guru-1"] {
		t.Error("Heartbeat() did not register the disconnect cleanup")
	}

	// refresh moves LastSeen forward
	now = now.Add(time.Minute)
	rec, err = tracker.Heartbeat(context.Background(), "guru-1", Profile{Name: "Pak Budi", Role: "teacher"}, nil)
	if err != nil {
		t.Fatalf("Heartbeat() failed: %v", err)
	}
	if stored := repo.records["guru-1"]; stored.LastSeen != core.TimeToMillis(now) {
		t.Errorf("stored LastSeen = %d, want %d", stored.LastSeen, core.TimeToMillis(now))
	}
}

func TestIsOnline(t *testing.T) {
	now := time.Date(2024, time.September, 9, 7, 0, 0, 0, time.UTC)
	threshold := 3 * time.Minute

	tests := []struct {
		name     string
		lastSeen time.Time
		want     bool
	}{
		{name: "just seen", lastSeen: now, want: true},
		{name: "within threshold", lastSeen: now.Add(-2 * time.Minute), want: true},
		{name: "at threshold", lastSeen: now.Add(-threshold), want: false},
		{name: "stale", lastSeen: now.Add(-10 * time.Minute), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ActiveSession{UserID: "u", LastSeen: core.TimeToMillis(tt.lastSeen)}
			if got := IsOnline(rec, now, threshold); got != tt.want {
				t.Errorf("IsOnline() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOnlineAndDisconnect(t *testing.T) {
	repo := newFakeRepo()
	tracker := NewTracker(repo, 3*time.Minute)
	now := time.Date(2024, time.September, 9, 7, 0, 0, 0, time.UTC)
	tracker.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	if _, err := tracker.Heartbeat(ctx, "guru-1", Profile{Name: "Pak Budi", Role: "teacher"}, nil); err != nil {
		t.Fatalf("Heartbeat() failed: %v", err)
	}

	// a record heartbeated 5 minutes ago is offline
	tracker.nowFunc = func() time.Time { return now.Add(-5 * time.Minute) }
	if _, err := tracker.Heartbeat(ctx, "guru-2", Profile{Name: "Bu Sari", Role: "teacher"}, nil); err != nil {
		t.Fatalf("Heartbeat() failed: %v", err)
	}
	tracker.nowFunc = func() time.Time { return now }

	online, err := tracker.Online(ctx)
	if err != nil {
		t.Fatalf("Online() failed: %v", err)
	}
	if len(online) != 1 || online[0].UserID != "guru-1" {
		t.Errorf("Online() = %v, want [guru-1]", online)
	}

	if err = tracker.Disconnect(ctx, "guru-1"); err != nil {
		t.Fatalf("Disconnect() failed: %v", err)
	}
	if _, err = repo.GetActiveSession(ctx, "guru-1"); err != ErrNotFound {
		t.Errorf("record still present after Disconnect(): err = %v", err)
	}
}
