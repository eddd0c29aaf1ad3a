package audit

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-thermal/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-thermal/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-thermal/migrations"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "events.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup
	require.NoError(t, db.Migrate(ctx, migrations.FS))
	return NewSQLiteRepository(db.DB)
}

func TestRepository_CreateAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	for i, action := range []string{"start", "command_failed", "stop", "start"} {
		ev := &Event{
			Action:    action,
			SiteID:    "site-001",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if action == "command_failed" {
			ev.Details = map[string]any{"command": "on", "attempts": 2}
		}
		require.NoError(t, repo.Create(ctx, ev))
		assert.Regexp(t, `^evt-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`, ev.ID)
	}

	res, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, defaultLimit, res.Limit)
	require.Len(t, res.Events, 4)
	assert.Equal(t, "start", res.Events[0].Action)
	assert.Equal(t, base.Add(3*time.Second), res.Events[0].CreatedAt)
	assert.Equal(t, "stop", res.Events[1].Action)

	failed := res.Events[2]
	assert.Equal(t, "command_failed", failed.Action)
	assert.Equal(t, "on", failed.Details["command"])
	assert.Equal(t, 2.0, failed.Details["attempts"])
	assert.Nil(t, res.Events[3].Details)
}

func TestRepository_ListFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		action := "start"
		if i%2 == 1 {
			action = "stop"
		}
		require.NoError(t, repo.Create(ctx, &Event{Action: action, SiteID: "s", CreatedAt: base.Add(time.Duration(i) * time.Minute)}))
	}

	tests := []struct {
		name      string
		filter    Filter
		wantTotal int
		wantLen   int
	}{
		{"by action", Filter{Action: "stop"}, 2, 2},
		{"since", Filter{Since: base.Add(3 * time.Minute)}, 2, 2},
		{"paged", Filter{Limit: 2, Offset: 2}, 5, 2},
		{"past the end", Filter{Offset: 10}, 5, 0},
		{"limit clamped", Filter{Limit: 1000}, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, res.Total)
			assert.Len(t, res.Events, tt.wantLen)
			assert.NotNil(t, res.Events)
			assert.LessOrEqual(t, res.Limit, maxLimit)
		})
	}
}

func TestRepository_SameTimestampNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, &Event{Action: "start", SiteID: "s", CreatedAt: at}))
	require.NoError(t, repo.Create(ctx, &Event{Action: "stop", SiteID: "s", CreatedAt: at}))

	res, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, "stop", res.Events[0].Action)
}

func TestRecorder_WritesQueuedEvents(t *testing.T) {
	repo := newTestRepo(t)
	rec := NewRecorder(repo, "site-007", 16)

	rec.RecordEvent("start", map[string]any{"setpoint": 225.0})
	rec.RecordEvent("stop", nil)
	rec.Close()

	res, err := repo.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	for _, ev := range res.Events {
		assert.Equal(t, "site-007", ev.SiteID)
	}
	actions := []string{res.Events[0].Action, res.Events[1].Action}
	assert.ElementsMatch(t, []string{"start", "stop"}, actions)
}

func TestRecorder_AfterCloseIsDropped(t *testing.T) {
	repo := &blockingRepo{}
	rec := NewRecorder(repo, "s", 1)
	rec.Close()
	rec.Close()

	rec.RecordEvent("start", nil)
	assert.Zero(t, repo.count())
}

func TestRecorder_FullQueueDrops(t *testing.T) {
	repo := &blockingRepo{release: make(chan struct{})}
	rec := NewRecorder(repo, "s", 1)

	// One in flight (blocked), one queued, the rest dropped.
	for i := 0; i < 5; i++ {
		rec.RecordEvent("start", nil)
	}
	close(repo.release)
	rec.Close()

	assert.LessOrEqual(t, repo.count(), 2)
	assert.GreaterOrEqual(t, repo.count(), 1)
}

func TestRecorder_RepositoryErrorDoesNotStop(t *testing.T) {
	repo := &blockingRepo{failFirst: true}
	rec := NewRecorder(repo, "s", 4)

	rec.RecordEvent("start", nil)
	rec.RecordEvent("stop", nil)
	rec.Close()

	assert.Equal(t, 1, repo.count())
}

// blockingRepo is an in-memory Repository that can stall or fail writes.
type blockingRepo struct {
	mu        sync.Mutex
	events    []Event
	release   chan struct{}
	failFirst bool
	calls     int
}

func (b *blockingRepo) Create(ctx context.Context, ev *Event) error {
	if b.release != nil {
		select {
		case <-b.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.failFirst && b.calls == 1 {
		return errors.New("disk full")
	}
	b.events = append(b.events, *ev)
	return nil
}

func (b *blockingRepo) List(context.Context, Filter) (*ListResult, error) {
	return &ListResult{}, nil
}

func (b *blockingRepo) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}
