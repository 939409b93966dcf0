package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sviatkkk/task-planner-bot/internal/domain"
)

// fakeRepo is an in-memory store.Repo with per-chat error injection.
type fakeRepo struct {
	mu     sync.Mutex
	active []int64
	timers map[int64]domain.TimerConfig
	tasks  map[int64]domain.TaskState

	loadTimersErr map[int64]error
	loadTasksErr  map[int64]error
	saveTimersErr error
	saveTasksErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		timers:        make(map[int64]domain.TimerConfig),
		tasks:         make(map[int64]domain.TaskState),
		loadTimersErr: make(map[int64]error),
		loadTasksErr:  make(map[int64]error),
	}
}

func (f *fakeRepo) LoadTimers(_ context.Context, chatID int64) (domain.TimerConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.loadTimersErr[chatID]; err != nil {
		return domain.TimerConfig{}, err
	}
	return f.timers[chatID], nil
}

func (f *fakeRepo) SaveTimers(_ context.Context, chatID int64, cfg domain.TimerConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveTimersErr != nil {
		return f.saveTimersErr
	}
	f.timers[chatID] = cfg
	if cfg.Enabled {
		for _, id := range f.active {
			if id == chatID {
				return nil
			}
		}
		f.active = append(f.active, chatID)
	}
	return nil
}

func (f *fakeRepo) LoadTasks(_ context.Context, chatID int64) (domain.TaskState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.loadTasksErr[chatID]; err != nil {
		return domain.TaskState{}, err
	}
	st, ok := f.tasks[chatID]
	if !ok {
		return domain.NewTaskState(), nil
	}
	return st, nil
}

func (f *fakeRepo) SaveTasks(_ context.Context, chatID int64, st domain.TaskState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveTasksErr != nil {
		return f.saveTasksErr
	}
	f.tasks[chatID] = st
	return nil
}

func (f *fakeRepo) ActiveChats(context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.active...), nil
}

func (f *fakeRepo) Close() error { return nil }

// helpers

func (f *fakeRepo) setGlobal(chatID int64, s domain.Schedule, next time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := next
	f.timers[chatID] = domain.TimerConfig{Enabled: true, Schedule: &s, Label: s.Label(), NextFireAt: &n}
	f.active = append(f.active, chatID)
}

func (f *fakeRepo) register(chatID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = append(f.active, chatID)
}

type sentGlobal struct {
	chatID int64
	label  string
	tasks  []string
}

type sentTask struct {
	chatID int64
	index  int
	text   string
}

// fakeSender records outbound reminders and can fail on demand.
type fakeSender struct {
	mu      sync.Mutex
	globals []sentGlobal
	tasks   []sentTask
	sendErr error
}

func (f *fakeSender) SendGlobalReminder(chatID int64, label string, tasks []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.globals = append(f.globals, sentGlobal{chatID: chatID, label: label, tasks: tasks})
	return nil
}

func (f *fakeSender) SendTaskReminder(chatID int64, index int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.tasks = append(f.tasks, sentTask{chatID: chatID, index: index, text: text})
	return nil
}

func testLogger() *zap.Logger { return zap.NewNop() }
