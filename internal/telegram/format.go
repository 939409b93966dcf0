package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sviatkkk/task-planner-bot/internal/domain"
)

func escapeMD(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

// taskLine renders one task for a plain-text list.
func taskLine(i int, t domain.Task, done, underGlobal bool) string {
	marker := todoMark
	switch {
	case done:
		marker = doneMark
	case t.Urgent:
		marker = urgentMark
	case underGlobal:
		marker = generalMark
	}
	line := fmt.Sprintf("%s %d. %s", marker, i+1, t.Text)
	if t.Label != "" {
		line += " " + timerMark + " " + t.Label
	}
	return line
}

// taskLineMD renders one task for a MarkdownV2 list; completed tasks are
// struck through.
func taskLineMD(i int, t domain.Task, done, underGlobal bool) string {
	marker := todoMark
	switch {
	case done:
		marker = doneMark
	case t.Urgent:
		marker = urgentMark
	case underGlobal:
		marker = generalMark
	}
	text := escapeMD(t.Text)
	if done {
		text = "~" + text + "~"
	}
	line := fmt.Sprintf("%s %s %s", marker, escapeMD(fmt.Sprintf("%d.", i+1)), text)
	if t.Label != "" {
		line += " " + timerMark + " " + escapeMD(t.Label)
	}
	if underGlobal {
		line += " " + escapeMD("(under the global timer)")
	}
	return line
}

// renderTaskList builds the /list body: completed tasks first, then
// uncompleted ones, MarkdownV2-escaped.
func renderTaskList(st domain.TaskState, globalEnabled bool) string {
	var completed, uncompleted []string
	for i, t := range st.Tasks {
		done := st.Done(i)
		underGlobal := globalEnabled && st.CoveredByGlobal(i)
		line := taskLineMD(i, t, done, underGlobal)
		if done {
			completed = append(completed, line)
		} else {
			uncompleted = append(uncompleted, line)
		}
	}
	var b strings.Builder
	b.WriteString(escapeMD("📋 Your tasks:") + "\n")
	if len(completed) > 0 {
		b.WriteString(doneMark + " " + escapeMD("Done:") + "\n" + strings.Join(completed, "\n") + "\n")
	}
	if len(uncompleted) > 0 {
		b.WriteString(todoMark + " " + escapeMD("To do:") + "\n" + strings.Join(uncompleted, "\n"))
	}
	return b.String()
}

// renderPlainList builds a numbered plain list of all tasks, used when
// asking which task to remove, edit or complete.
func renderPlainList(st domain.TaskState, globalEnabled bool) string {
	lines := make([]string, 0, len(st.Tasks))
	for i, t := range st.Tasks {
		underGlobal := globalEnabled && st.CoveredByGlobal(i)
		lines = append(lines, taskLine(i, t, st.Done(i), underGlobal))
	}
	return strings.Join(lines, "\n")
}
