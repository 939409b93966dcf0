package domain

import (
	"testing"
	"time"
)

func TestCoveredByGlobal(t *testing.T) {
	next := time.Now().Add(time.Hour)
	st := NewTaskState()
	st.Tasks = []Task{
		{Text: "plain"},
		{Text: "urgent", Urgent: true},
		{Text: "own schedule", Schedule: &Schedule{Kind: KindInterval, Interval: time.Hour}, NextReminderAt: &next},
		{Text: "done"},
	}
	st.Completed[3] = true

	want := []bool{true, false, false, false}
	for i, w := range want {
		if got := st.CoveredByGlobal(i); got != w {
			t.Fatalf("task %d: want %v, got %v", i, w, got)
		}
	}
	if st.CoveredByGlobal(-1) || st.CoveredByGlobal(4) {
		t.Fatal("out-of-range index must not be covered")
	}
}

func TestComplete_ClearsReminder(t *testing.T) {
	st := NewTaskState()
	st.Tasks = []Task{{Text: "a"}}
	st.SetReminder(0, Every(time.Minute), time.Now())

	st.Complete(0)

	if !st.Done(0) {
		t.Fatal("task not marked done")
	}
	tk := st.Tasks[0]
	if tk.Schedule != nil || tk.NextReminderAt != nil || tk.Label != "" {
		t.Fatalf("reminder not cleared: %+v", tk)
	}
}

func TestRemove_ShiftsCompletionFlags(t *testing.T) {
	st := NewTaskState()
	st.Tasks = []Task{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	st.Completed[0] = true
	st.Completed[2] = true

	st.Remove(1)

	if len(st.Tasks) != 2 || st.Tasks[1].Text != "c" {
		t.Fatalf("unexpected tasks: %+v", st.Tasks)
	}
	if !st.Done(0) || !st.Done(1) {
		t.Fatalf("completion flags did not follow their tasks: %+v", st.Completed)
	}
}

func TestSetReminder_ReplacesExisting(t *testing.T) {
	st := NewTaskState()
	st.Tasks = []Task{{Text: "a"}}
	st.SetReminder(0, Every(time.Minute), time.UnixMilli(60_000))
	st.SetReminder(0, DailyAt(9, 0), time.UnixMilli(120_000))

	tk := st.Tasks[0]
	if tk.Schedule == nil || tk.Schedule.Kind != KindDaily {
		t.Fatalf("schedule not replaced: %+v", tk.Schedule)
	}
	if tk.Label != "09:00 (daily)" {
		t.Fatalf("label not updated: %q", tk.Label)
	}
	if !tk.NextReminderAt.Equal(time.UnixMilli(120_000)) {
		t.Fatalf("next not updated: %v", tk.NextReminderAt)
	}
}
