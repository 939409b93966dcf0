package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sviatkkk/task-planner-bot/internal/domain"
)

// Handle is a cancellable armed timer.
type Handle interface {
	Stop() bool
}

// Factory arms a one-shot timer that runs fn after d. Production uses
// AfterFunc; tests inject a fake to fire deterministically.
type Factory func(d time.Duration, fn func()) Handle

// AfterFunc is the production Factory backed by time.AfterFunc.
func AfterFunc(d time.Duration, fn func()) Handle {
	return time.AfterFunc(d, fn)
}

// retryDelay spaces out re-fires after a transient store failure.
const retryDelay = time.Minute

type timerState int

const (
	stateUnset timerState = iota
	stateArmed
	stateFired
	stateCleared
)

type timerKey struct {
	chatID int64
	scope  Scope
	index  int
}

// scheduleTimer is one armed schedule instance. Cleared is terminal: a
// replaced or cancelled instance never fires again, a fresh instance is
// armed in its place.
type scheduleTimer struct {
	state  timerState
	handle Handle
}

// TimerManager is the live-timer realization of the engine: instead of
// periodic scans, each schedule holds an armed timer that fires the same
// dispatch/advance/persist steps for that one schedule and then re-arms
// itself from the newly persisted instant. Next-fire math is shared with
// the scan path, so both shapes compute identical instants.
type TimerManager struct {
	engine  *Engine
	log     *zap.Logger
	factory Factory
	clock   func() time.Time

	mu     sync.Mutex
	timers map[timerKey]*scheduleTimer
}

// NewTimerManager creates a manager firing through the given engine.
func NewTimerManager(engine *Engine, log *zap.Logger) *TimerManager {
	return &TimerManager{
		engine:  engine,
		log:     log,
		factory: AfterFunc,
		clock:   time.Now,
		timers:  make(map[timerKey]*scheduleTimer),
	}
}

// WithFactory overrides the timer factory and clock; used by tests.
func (m *TimerManager) WithFactory(f Factory, clock func() time.Time) *TimerManager {
	m.factory = f
	m.clock = clock
	return m
}

// ArmGlobal arms (or replaces) the chat's global timer to fire at the
// given instant.
func (m *TimerManager) ArmGlobal(chatID int64, at time.Time) {
	m.arm(timerKey{chatID: chatID, scope: ScopeGlobal}, at)
}

// ArmTask arms (or replaces) one task's reminder timer.
func (m *TimerManager) ArmTask(chatID int64, index int, at time.Time) {
	m.arm(timerKey{chatID: chatID, scope: ScopeTask, index: index}, at)
}

// CancelGlobal clears the chat's armed global timer, if any. Effective
// before the next firing is observed.
func (m *TimerManager) CancelGlobal(chatID int64) {
	m.cancel(timerKey{chatID: chatID, scope: ScopeGlobal})
}

// CancelTask clears one task's armed reminder timer, if any.
func (m *TimerManager) CancelTask(chatID int64, index int) {
	m.cancel(timerKey{chatID: chatID, scope: ScopeTask, index: index})
}

// ResyncTasks re-keys the chat's armed task timers against the given
// state. Removing a task shifts every later task down one position, so
// index-keyed timers go stale; this drops all of the chat's task
// instances and re-arms from the persisted next-reminder instants.
func (m *TimerManager) ResyncTasks(chatID int64, st domain.TaskState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, t := range m.timers {
		if k.chatID != chatID || k.scope != ScopeTask {
			continue
		}
		if t.handle != nil {
			t.handle.Stop()
		}
		t.state = stateCleared
		delete(m.timers, k)
	}
	for i, task := range st.Tasks {
		if !st.Done(i) && task.Schedule != nil && task.NextReminderAt != nil {
			m.armLocked(timerKey{chatID: chatID, scope: ScopeTask, index: i}, *task.NextReminderAt)
		}
	}
}

// CancelAll clears every armed timer; used on shutdown.
func (m *TimerManager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, t := range m.timers {
		if t.handle != nil {
			t.handle.Stop()
		}
		t.state = stateCleared
		delete(m.timers, k)
	}
}

// Rehydrate re-arms timers from persisted state after a restart: the
// registry's enabled global timers plus every task reminder of those
// chats.
func (m *TimerManager) Rehydrate(ctx context.Context) error {
	chats, err := m.engine.repo.ActiveChats(ctx)
	if err != nil {
		return err
	}
	for _, chatID := range chats {
		cfg, err := m.engine.repo.LoadTimers(ctx, chatID)
		if err != nil {
			m.log.Error("rehydrate: load timers failed", zap.Int64("chatID", chatID), zap.Error(err))
			continue
		}
		if cfg.Enabled && cfg.NextFireAt != nil {
			m.ArmGlobal(chatID, *cfg.NextFireAt)
		}

		st, err := m.engine.repo.LoadTasks(ctx, chatID)
		if err != nil {
			m.log.Error("rehydrate: load tasks failed", zap.Int64("chatID", chatID), zap.Error(err))
			continue
		}
		for i, t := range st.Tasks {
			if !st.Done(i) && t.Schedule != nil && t.NextReminderAt != nil {
				m.ArmTask(chatID, i, *t.NextReminderAt)
			}
		}
	}
	return nil
}

func (m *TimerManager) arm(k timerKey, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.armLocked(k, at)
}

func (m *TimerManager) armLocked(k timerKey, at time.Time) {
	if old, ok := m.timers[k]; ok {
		if old.handle != nil {
			old.handle.Stop()
		}
		old.state = stateCleared
	}
	st := &scheduleTimer{state: stateArmed}
	m.timers[k] = st

	delay := time.Until(at)
	if m.clock != nil {
		delay = at.Sub(m.clock())
	}
	if delay < 0 {
		delay = 0
	}
	st.handle = m.factory(delay, func() { m.fire(k, st) })
}

func (m *TimerManager) cancel(k timerKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timers[k]
	if !ok {
		return
	}
	if t.handle != nil {
		t.handle.Stop()
	}
	t.state = stateCleared
	delete(m.timers, k)
}

// fire runs the engine steps for one schedule and re-arms from the new
// next-fire instant. A stale instance (replaced or cancelled after the
// callback was already in flight) is dropped without side effects.
func (m *TimerManager) fire(k timerKey, st *scheduleTimer) {
	m.mu.Lock()
	current, ok := m.timers[k]
	if !ok || current != st || st.state != stateArmed {
		m.mu.Unlock()
		return
	}
	st.state = stateFired
	m.mu.Unlock()

	ctx := context.Background()
	now := m.clock()
	var (
		next  time.Time
		fired bool
		err   error
	)
	if k.scope == ScopeGlobal {
		next, fired, err = m.engine.FireGlobal(ctx, k.chatID, now)
	} else {
		next, fired, err = m.engine.FireTask(ctx, k.chatID, k.index, now)
	}
	if err != nil {
		m.log.Error("live timer fire failed",
			zap.Int64("chatID", k.chatID), zap.Int("scope", int(k.scope)),
			zap.Int("taskIndex", k.index), zap.Error(err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timers[k] != st {
		// Replaced while firing; the newer instance owns the key.
		return
	}
	switch {
	case err != nil:
		// Transient failure: keep the schedule alive and retry, the way
		// the scan variant retries on its next invocation.
		m.armLocked(k, now.Add(retryDelay))
	case !fired || next.IsZero():
		// Schedule was cleared, completed or disabled under us.
		st.state = stateCleared
		delete(m.timers, k)
	default:
		m.armLocked(k, next)
	}
}
