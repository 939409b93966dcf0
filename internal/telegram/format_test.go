package telegram

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sviatkkk/task-planner-bot/internal/domain"
)

func TestRenderPlainList_Markers(t *testing.T) {
	st := domain.NewTaskState()
	st.Tasks = []domain.Task{
		{Text: "call mom"},
		{Text: "pay rent", Urgent: true},
		{Text: "water plants"},
	}
	st.SetReminder(2, domain.Every(time.Hour), time.Now())
	st.Completed[0] = true

	out := renderPlainList(st, true)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], doneMark))
	assert.True(t, strings.HasPrefix(lines[1], urgentMark))
	// Has its own reminder, so not under the global timer.
	assert.True(t, strings.HasPrefix(lines[2], todoMark))
	assert.Contains(t, lines[2], timerMark)
	assert.Contains(t, lines[2], "1 h")
}

func TestRenderPlainList_GlobalCoverage(t *testing.T) {
	st := domain.NewTaskState()
	st.Tasks = []domain.Task{{Text: "a"}}

	assert.True(t, strings.HasPrefix(renderPlainList(st, true), generalMark))
	assert.True(t, strings.HasPrefix(renderPlainList(st, false), todoMark))
}

func TestRenderTaskList_SectionsAndStrikethrough(t *testing.T) {
	st := domain.NewTaskState()
	st.Tasks = []domain.Task{{Text: "done one"}, {Text: "open one"}}
	st.Completed[0] = true

	out := renderTaskList(st, false)
	assert.Contains(t, out, "Done:")
	assert.Contains(t, out, "To do:")
	assert.Contains(t, out, "~done one~")
	assert.Less(t, strings.Index(out, "done one"), strings.Index(out, "open one"))
}

func TestRenderTaskList_EscapesUserText(t *testing.T) {
	st := domain.NewTaskState()
	st.Tasks = []domain.Task{{Text: "fix bug #1 (urgent!)"}}

	out := renderTaskList(st, false)
	assert.Contains(t, out, `\#1`)
	assert.Contains(t, out, `\(urgent\!\)`)
}

func TestHourKeyboard_CoversAllHours(t *testing.T) {
	kb := hourKeyboard("pick_global_hour")
	assert.Len(t, kb.InlineKeyboard, 6)

	seen := map[string]bool{}
	for _, row := range kb.InlineKeyboard {
		assert.Len(t, row, 4)
		for _, btn := range row {
			seen[*btn.CallbackData] = true
		}
	}
	assert.Len(t, seen, 24)
	assert.True(t, seen["pick_global_hour:0"])
	assert.True(t, seen["pick_global_hour:23"])
}

func TestTaskActionKeyboard_CallbackData(t *testing.T) {
	kb := taskActionKeyboard(4)
	row := kb.InlineKeyboard[0]
	assert.Equal(t, "task_action:complete:4", *row[0].CallbackData)
	assert.Equal(t, "task_action:stop:4", *row[1].CallbackData)
	assert.Equal(t, "task_action:keep:4", *row[2].CallbackData)
}

func TestTimerMenu_ListsEveryOption(t *testing.T) {
	out := timerMenu("Pick one:")
	for i, opt := range timerOptions {
		assert.Contains(t, out, fmt.Sprintf("%d. %s", i+1, opt.label))
	}
	assert.Contains(t, out, "16:45")
}
