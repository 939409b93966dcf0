package store

import (
	"strconv"
	"time"

	"github.com/sviatkkk/task-planner-bot/internal/domain"
)

// JSON records mirror the persisted key-value layout. Instants are epoch
// milliseconds; the completion map is keyed by the task's position
// rendered as a string.

const (
	scheduleInterval = "interval"
	scheduleDaily    = "daily_hour"
)

type scheduleRecord struct {
	Type       string `json:"type"`
	IntervalMs int64  `json:"intervalMs,omitempty"`
	Hour       int    `json:"hour,omitempty"`
	Minute     int    `json:"minute,omitempty"`
}

type timersRecord struct {
	Enabled    bool            `json:"enabled"`
	Schedule   *scheduleRecord `json:"schedule,omitempty"`
	Label      string          `json:"label,omitempty"`
	NextFireAt *int64          `json:"nextFireAt,omitempty"`
}

type taskRecord struct {
	Text           string          `json:"text"`
	Urgent         bool            `json:"urgent"`
	Schedule       *scheduleRecord `json:"reminderSchedule,omitempty"`
	Label          string          `json:"reminderLabel,omitempty"`
	NextReminderAt *int64          `json:"nextReminder,omitempty"`
}

type tasksRecord struct {
	Tasks     []taskRecord    `json:"tasks"`
	Completed map[string]bool `json:"completed"`
}

func toScheduleRecord(s *domain.Schedule) *scheduleRecord {
	if s == nil {
		return nil
	}
	if s.Kind == domain.KindDaily {
		return &scheduleRecord{Type: scheduleDaily, Hour: s.Hour, Minute: s.Minute}
	}
	return &scheduleRecord{Type: scheduleInterval, IntervalMs: s.Interval.Milliseconds()}
}

func fromScheduleRecord(r *scheduleRecord) *domain.Schedule {
	if r == nil {
		return nil
	}
	var s domain.Schedule
	if r.Type == scheduleDaily {
		s = domain.DailyAt(r.Hour, r.Minute)
	} else {
		s = domain.Every(time.Duration(r.IntervalMs) * time.Millisecond)
	}
	return &s
}

func toMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func fromMillis(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms)
	return &t
}

func toTimersRecord(cfg domain.TimerConfig) timersRecord {
	return timersRecord{
		Enabled:    cfg.Enabled,
		Schedule:   toScheduleRecord(cfg.Schedule),
		Label:      cfg.Label,
		NextFireAt: toMillis(cfg.NextFireAt),
	}
}

func fromTimersRecord(r timersRecord) domain.TimerConfig {
	return domain.TimerConfig{
		Enabled:    r.Enabled,
		Schedule:   fromScheduleRecord(r.Schedule),
		Label:      r.Label,
		NextFireAt: fromMillis(r.NextFireAt),
	}
}

func toTasksRecord(st domain.TaskState) tasksRecord {
	rec := tasksRecord{
		Tasks:     make([]taskRecord, 0, len(st.Tasks)),
		Completed: make(map[string]bool, len(st.Completed)),
	}
	for _, t := range st.Tasks {
		rec.Tasks = append(rec.Tasks, taskRecord{
			Text:           t.Text,
			Urgent:         t.Urgent,
			Schedule:       toScheduleRecord(t.Schedule),
			Label:          t.Label,
			NextReminderAt: toMillis(t.NextReminderAt),
		})
	}
	for i, done := range st.Completed {
		if done {
			rec.Completed[strconv.Itoa(i)] = true
		}
	}
	return rec
}

func fromTasksRecord(rec tasksRecord) domain.TaskState {
	st := domain.NewTaskState()
	for _, t := range rec.Tasks {
		st.Tasks = append(st.Tasks, domain.Task{
			Text:           t.Text,
			Urgent:         t.Urgent,
			Schedule:       fromScheduleRecord(t.Schedule),
			Label:          t.Label,
			NextReminderAt: fromMillis(t.NextReminderAt),
		})
	}
	for k, done := range rec.Completed {
		if !done {
			continue
		}
		if i, err := strconv.Atoi(k); err == nil {
			st.Completed[i] = true
		}
	}
	return st
}
