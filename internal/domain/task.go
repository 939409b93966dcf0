package domain

import "time"

// TimerConfig holds a chat's global reminder settings. The global
// schedule covers every uncompleted task that is not urgent and has no
// reminder of its own.
//
// Invariant: Enabled implies Schedule and NextFireAt are both set.
type TimerConfig struct {
	Enabled    bool
	Schedule   *Schedule
	Label      string
	NextFireAt *time.Time
}

// Task is one entry of a chat's ordered task list. Urgent is set once at
// creation and never changes afterwards. NextReminderAt is present iff
// Schedule is present.
type Task struct {
	Text           string
	Urgent         bool
	Schedule       *Schedule
	Label          string
	NextReminderAt *time.Time
}

// TaskState is a chat's task list plus the positional completion map.
// Completion is keyed by index rather than stored on the task so that
// replacing a task's text leaves its completion flag untouched.
type TaskState struct {
	Tasks     []Task
	Completed map[int]bool
}

// NewTaskState returns an empty state with an initialized completion map.
func NewTaskState() TaskState {
	return TaskState{Completed: make(map[int]bool)}
}

// Done reports whether task i is marked completed.
func (st TaskState) Done(i int) bool {
	return st.Completed[i]
}

// CoveredByGlobal reports whether task i falls under the chat's global
// schedule: uncompleted, not urgent and without a reminder of its own.
func (st TaskState) CoveredByGlobal(i int) bool {
	if i < 0 || i >= len(st.Tasks) || st.Completed[i] {
		return false
	}
	t := st.Tasks[i]
	return !t.Urgent && t.Schedule == nil
}

// SetReminder attaches a schedule to task i with its initial next-fire
// instant and label.
func (st *TaskState) SetReminder(i int, s Schedule, next time.Time) {
	if i < 0 || i >= len(st.Tasks) {
		return
	}
	sc := s
	st.Tasks[i].Schedule = &sc
	st.Tasks[i].Label = s.Label()
	st.Tasks[i].NextReminderAt = &next
}

// ClearReminder drops task i's own reminder. Mandatory when the task is
// completed or removed, or the reminder is stopped.
func (st *TaskState) ClearReminder(i int) {
	if i < 0 || i >= len(st.Tasks) {
		return
	}
	st.Tasks[i].Schedule = nil
	st.Tasks[i].Label = ""
	st.Tasks[i].NextReminderAt = nil
}

// Complete marks task i done and clears its reminder.
func (st *TaskState) Complete(i int) {
	if i < 0 || i >= len(st.Tasks) {
		return
	}
	if st.Completed == nil {
		st.Completed = make(map[int]bool)
	}
	st.Completed[i] = true
	st.ClearReminder(i)
}

// Remove deletes task i and shifts completion flags down so they keep
// following their tasks.
func (st *TaskState) Remove(i int) {
	if i < 0 || i >= len(st.Tasks) {
		return
	}
	st.Tasks = append(st.Tasks[:i], st.Tasks[i+1:]...)
	shifted := make(map[int]bool, len(st.Completed))
	for idx, done := range st.Completed {
		switch {
		case idx < i:
			shifted[idx] = done
		case idx > i:
			shifted[idx-1] = done
		}
	}
	st.Completed = shifted
}
