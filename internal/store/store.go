package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sviatkkk/task-planner-bot/internal/domain"
)

// Keys in the KV collaborator, one timers record and one tasks record
// per chat, plus one registry record listing chats with enabled global
// timers.
const activeChatsKey = "active_timers:list"

func timersKey(chatID int64) string { return fmt.Sprintf("timers:%d", chatID) }
func tasksKey(chatID int64) string  { return fmt.Sprintf("tasks:%d", chatID) }

// Repo defines the persistence operations the bot and the reminder
// engine need, all keyed by chat ID. Loads never fail on a missing key;
// they return a default record instead.
type Repo interface {
	LoadTimers(ctx context.Context, chatID int64) (domain.TimerConfig, error)
	SaveTimers(ctx context.Context, chatID int64, cfg domain.TimerConfig) error
	LoadTasks(ctx context.Context, chatID int64) (domain.TaskState, error)
	SaveTasks(ctx context.Context, chatID int64, st domain.TaskState) error
	ActiveChats(ctx context.Context) ([]int64, error)
	Close() error
}

// Store implements Repo on top of a KV collaborator with JSON records.
type Store struct{ kv KV }

// New wraps a KV into the typed store.
func New(kv KV) *Store { return &Store{kv: kv} }

// LoadTimers returns the chat's global timer configuration, or a
// default-disabled one when none was saved yet.
func (s *Store) LoadTimers(ctx context.Context, chatID int64) (domain.TimerConfig, error) {
	raw, ok, err := s.kv.Get(ctx, timersKey(chatID))
	if err != nil {
		return domain.TimerConfig{}, fmt.Errorf("load timers: %w", err)
	}
	if !ok {
		return domain.TimerConfig{}, nil
	}
	var rec timersRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.TimerConfig{}, fmt.Errorf("decode timers: %w", err)
	}
	return fromTimersRecord(rec), nil
}

// SaveTimers persists the configuration. An enabled config also upserts
// the chat into the active registry; the read-modify-write de-duplicates
// before writing back, so concurrent duplicate inserts stay harmless.
func (s *Store) SaveTimers(ctx context.Context, chatID int64, cfg domain.TimerConfig) error {
	raw, err := json.Marshal(toTimersRecord(cfg))
	if err != nil {
		return fmt.Errorf("encode timers: %w", err)
	}
	if err := s.kv.Set(ctx, timersKey(chatID), raw); err != nil {
		return fmt.Errorf("save timers: %w", err)
	}
	if cfg.Enabled {
		return s.registerActive(ctx, chatID)
	}
	return nil
}

// LoadTasks returns the chat's task state, empty when none was saved yet.
func (s *Store) LoadTasks(ctx context.Context, chatID int64) (domain.TaskState, error) {
	raw, ok, err := s.kv.Get(ctx, tasksKey(chatID))
	if err != nil {
		return domain.TaskState{}, fmt.Errorf("load tasks: %w", err)
	}
	if !ok {
		return domain.NewTaskState(), nil
	}
	var rec tasksRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.TaskState{}, fmt.Errorf("decode tasks: %w", err)
	}
	return fromTasksRecord(rec), nil
}

// SaveTasks overwrites the chat's whole task state.
func (s *Store) SaveTasks(ctx context.Context, chatID int64, st domain.TaskState) error {
	raw, err := json.Marshal(toTasksRecord(st))
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := s.kv.Set(ctx, tasksKey(chatID), raw); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

// ActiveChats returns the registry of chats with an enabled global timer.
// Entries whose timer was later disabled may remain; the scanner skips
// them at load time.
func (s *Store) ActiveChats(ctx context.Context) ([]int64, error) {
	raw, ok, err := s.kv.Get(ctx, activeChatsKey)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	return ids, nil
}

// Close releases the underlying KV.
func (s *Store) Close() error { return s.kv.Close() }

func (s *Store) registerActive(ctx context.Context, chatID int64) error {
	ids, err := s.ActiveChats(ctx)
	if err != nil {
		return err
	}
	seen := make(map[int64]bool, len(ids))
	deduped := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			deduped = append(deduped, id)
		}
	}
	if seen[chatID] {
		return nil
	}
	deduped = append(deduped, chatID)

	raw, err := json.Marshal(deduped)
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}
	if err := s.kv.Set(ctx, activeChatsKey, raw); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}
