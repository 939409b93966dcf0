package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sviatkkk/task-planner-bot/internal/domain"
)

func TestScan_EmitsGlobalThenTaskEvents(t *testing.T) {
	repo := newFakeRepo()
	now := time.UnixMilli(100_000)

	repo.setGlobal(1, domain.Every(time.Minute), time.UnixMilli(60_000))
	st := domain.NewTaskState()
	st.Tasks = []domain.Task{{Text: "a", Urgent: true}}
	st.SetReminder(0, domain.Every(30*time.Second), time.UnixMilli(90_000))
	repo.tasks[1] = st

	due := NewScanner(repo, testLogger()).Scan(context.Background(), now)

	require.Len(t, due, 2)
	assert.Equal(t, DueEvent{ChatID: 1, Scope: ScopeGlobal}, due[0])
	assert.Equal(t, DueEvent{ChatID: 1, Scope: ScopeTask, TaskIndex: 0}, due[1])
}

func TestScan_NotDueYet(t *testing.T) {
	repo := newFakeRepo()
	repo.setGlobal(1, domain.Every(time.Minute), time.UnixMilli(200_000))

	due := NewScanner(repo, testLogger()).Scan(context.Background(), time.UnixMilli(100_000))
	assert.Empty(t, due)
}

func TestScan_DisabledRegistryEntryIsSkipped(t *testing.T) {
	// Registry membership is add-only, so a disabled timer can still be
	// listed; the scan must skip the whole chat, due per-task reminders
	// included.
	repo := newFakeRepo()
	repo.register(5)
	next := time.UnixMilli(1_000)
	sc := domain.Every(time.Minute)
	repo.timers[5] = domain.TimerConfig{Enabled: false, Schedule: &sc, NextFireAt: &next}
	st := domain.NewTaskState()
	st.Tasks = []domain.Task{{Text: "a"}}
	st.SetReminder(0, domain.Every(time.Minute), time.UnixMilli(1_000))
	repo.tasks[5] = st

	due := NewScanner(repo, testLogger()).Scan(context.Background(), time.UnixMilli(100_000))
	assert.Empty(t, due)
}

func TestScan_CompletedTaskWithStaleTimestampIsSkipped(t *testing.T) {
	repo := newFakeRepo()
	repo.setGlobal(1, domain.Every(time.Minute), time.UnixMilli(200_000))
	st := domain.NewTaskState()
	st.Tasks = []domain.Task{{Text: "a"}}
	st.SetReminder(0, domain.Every(time.Minute), time.UnixMilli(1_000))
	st.Completed[0] = true // completed after the reminder went stale
	repo.tasks[1] = st

	due := NewScanner(repo, testLogger()).Scan(context.Background(), time.UnixMilli(100_000))
	assert.Empty(t, due)
}

func TestScan_LoadFailureDoesNotAbortPass(t *testing.T) {
	repo := newFakeRepo()
	repo.setGlobal(1, domain.Every(time.Minute), time.UnixMilli(1_000))
	repo.setGlobal(2, domain.Every(time.Minute), time.UnixMilli(1_000))
	repo.loadTimersErr[1] = errors.New("kv down")

	due := NewScanner(repo, testLogger()).Scan(context.Background(), time.UnixMilli(100_000))

	require.Len(t, due, 1)
	assert.Equal(t, int64(2), due[0].ChatID)
}

func TestScan_NoDuplicateWithinPass(t *testing.T) {
	repo := newFakeRepo()
	repo.setGlobal(1, domain.Every(time.Minute), time.UnixMilli(1_000))
	st := domain.NewTaskState()
	st.Tasks = []domain.Task{{Text: "a"}, {Text: "b"}}
	st.SetReminder(0, domain.Every(time.Minute), time.UnixMilli(1_000))
	st.SetReminder(1, domain.DailyAt(9, 0), time.UnixMilli(1_000))
	repo.tasks[1] = st

	due := NewScanner(repo, testLogger()).Scan(context.Background(), time.UnixMilli(100_000))

	seen := make(map[DueEvent]bool)
	for _, ev := range due {
		require.False(t, seen[ev], "duplicate event %+v", ev)
		seen[ev] = true
	}
	assert.Len(t, due, 3)
}
