package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sviatkkk/task-planner-bot/internal/store"
)

// Scope says which schedule of a chat a due event refers to.
type Scope int

const (
	// ScopeGlobal is the chat's global timer.
	ScopeGlobal Scope = iota
	// ScopeTask is one task's own reminder; TaskIndex identifies it.
	ScopeTask
)

// DueEvent identifies a schedule whose next-fire instant has passed.
type DueEvent struct {
	ChatID    int64
	Scope     Scope
	TaskIndex int // meaningful for ScopeTask only
}

// Scanner walks the active-chat registry and finds schedules due at a
// given instant.
type Scanner struct {
	repo store.Repo
	log  *zap.Logger
}

// NewScanner creates a Scanner.
func NewScanner(repo store.Repo, log *zap.Logger) *Scanner {
	return &Scanner{repo: repo, log: log}
}

// Scan returns the schedules due at now, in registry order, global
// timer before per-task reminders within each chat. A registry entry
// whose global timer is disabled (or has no next-fire instant) is
// skipped entirely, per-task reminders included. The result is a
// one-shot snapshot: schedules becoming due later need a fresh Scan.
// A chat whose state fails to load is logged and skipped; the rest of
// the registry is still scanned.
func (s *Scanner) Scan(ctx context.Context, now time.Time) []DueEvent {
	chats, err := s.repo.ActiveChats(ctx)
	if err != nil {
		s.log.Error("scan: load registry failed", zap.Error(err))
		return nil
	}

	var due []DueEvent
	for _, chatID := range chats {
		cfg, err := s.repo.LoadTimers(ctx, chatID)
		if err != nil {
			s.log.Error("scan: load timers failed", zap.Int64("chatID", chatID), zap.Error(err))
			continue
		}
		// Registry membership is add-only, so disabled entries linger.
		if !cfg.Enabled || cfg.NextFireAt == nil {
			continue
		}
		if !cfg.NextFireAt.After(now) {
			due = append(due, DueEvent{ChatID: chatID, Scope: ScopeGlobal})
		}

		st, err := s.repo.LoadTasks(ctx, chatID)
		if err != nil {
			s.log.Error("scan: load tasks failed", zap.Int64("chatID", chatID), zap.Error(err))
			continue
		}
		for i, t := range st.Tasks {
			if st.Done(i) || t.Schedule == nil || t.NextReminderAt == nil {
				continue
			}
			if !t.NextReminderAt.After(now) {
				due = append(due, DueEvent{ChatID: chatID, Scope: ScopeTask, TaskIndex: i})
			}
		}
	}
	return due
}
