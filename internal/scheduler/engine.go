package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sviatkkk/task-planner-bot/internal/store"
)

// Sender is the minimal outbound surface the engine needs.
// telegram.Router implements it.
type Sender interface {
	// SendGlobalReminder delivers one aggregated message listing the
	// tasks covered by the chat's global schedule.
	SendGlobalReminder(chatID int64, label string, tasks []string) error
	// SendTaskReminder delivers a single task's reminder with the
	// complete / stop / keep actions attached.
	SendTaskReminder(chatID int64, taskIndex int, text string) error
}

// Engine processes due reminders: dispatch, advance the schedule, persist.
// The same per-schedule steps back both deployment shapes — the periodic
// scan and the live-timer manager.
type Engine struct {
	repo    store.Repo
	log     *zap.Logger
	sender  Sender
	scanner *Scanner
}

// NewEngine creates the reconciliation engine.
func NewEngine(repo store.Repo, log *zap.Logger, sender Sender) *Engine {
	return &Engine{
		repo:    repo,
		log:     log,
		sender:  sender,
		scanner: NewScanner(repo, log),
	}
}

// Reconcile runs one pass: scan for due schedules at now and process
// each in scan order. A failure on one event never aborts the rest of
// the pass. Returns the number of events whose schedule was advanced
// and persisted.
func (e *Engine) Reconcile(ctx context.Context, now time.Time) int {
	processed := 0
	for _, ev := range e.scanner.Scan(ctx, now) {
		var (
			fired bool
			err   error
		)
		switch ev.Scope {
		case ScopeGlobal:
			_, fired, err = e.FireGlobal(ctx, ev.ChatID, now)
		case ScopeTask:
			_, fired, err = e.FireTask(ctx, ev.ChatID, ev.TaskIndex, now)
		}
		if err != nil {
			e.log.Error("reminder event failed",
				zap.Int64("chatID", ev.ChatID),
				zap.Int("scope", int(ev.Scope)),
				zap.Int("taskIndex", ev.TaskIndex),
				zap.Error(err),
			)
			continue
		}
		if fired {
			processed++
		}
	}
	return processed
}

// FireGlobal dispatches and advances one chat's global schedule. It
// re-reads the chat's state, so a timer disabled between scan and
// processing is a harmless no-op (fired=false). Dispatch is skipped when
// no task is covered, but the schedule still advances so a quiet timer
// does not stay due forever. A send failure is logged and the schedule
// still advances: losing a reminder silently is the worse failure here,
// and an occasional duplicate after a persist failure is accepted.
// Returns the newly persisted next-fire instant for the live-timer
// variant to re-arm from.
func (e *Engine) FireGlobal(ctx context.Context, chatID int64, now time.Time) (time.Time, bool, error) {
	cfg, err := e.repo.LoadTimers(ctx, chatID)
	if err != nil {
		return time.Time{}, false, err
	}
	if !cfg.Enabled || cfg.Schedule == nil || cfg.NextFireAt == nil {
		return time.Time{}, false, nil
	}

	st, err := e.repo.LoadTasks(ctx, chatID)
	if err != nil {
		return time.Time{}, false, err
	}
	var covered []string
	for i := range st.Tasks {
		if st.CoveredByGlobal(i) {
			covered = append(covered, st.Tasks[i].Text)
		}
	}
	if len(covered) > 0 {
		if err := e.sender.SendGlobalReminder(chatID, cfg.Label, covered); err != nil {
			e.log.Error("send global reminder failed", zap.Int64("chatID", chatID), zap.Error(err))
		}
	}

	next, err := cfg.Schedule.Next(*cfg.NextFireAt, now)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("advance global schedule: %w", err)
	}
	cfg.NextFireAt = &next
	if err := e.repo.SaveTimers(ctx, chatID, cfg); err != nil {
		return time.Time{}, false, err
	}
	return next, true, nil
}

// FireTask dispatches and advances one task's own reminder. Like
// FireGlobal it re-reads state first: a task completed, removed or
// stopped since the scan is a no-op.
func (e *Engine) FireTask(ctx context.Context, chatID int64, index int, now time.Time) (time.Time, bool, error) {
	st, err := e.repo.LoadTasks(ctx, chatID)
	if err != nil {
		return time.Time{}, false, err
	}
	if index < 0 || index >= len(st.Tasks) || st.Done(index) {
		return time.Time{}, false, nil
	}
	t := st.Tasks[index]
	if t.Schedule == nil || t.NextReminderAt == nil {
		return time.Time{}, false, nil
	}

	if err := e.sender.SendTaskReminder(chatID, index, t.Text); err != nil {
		e.log.Error("send task reminder failed",
			zap.Int64("chatID", chatID), zap.Int("taskIndex", index), zap.Error(err))
	}

	next, err := t.Schedule.Next(*t.NextReminderAt, now)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("advance task schedule: %w", err)
	}
	st.Tasks[index].NextReminderAt = &next
	if err := e.repo.SaveTasks(ctx, chatID, st); err != nil {
		return time.Time{}, false, err
	}
	return next, true, nil
}
