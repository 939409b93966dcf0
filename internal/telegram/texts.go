package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sviatkkk/task-planner-bot/internal/domain"
)

const (
	startText = "Hi 👋 I'm your task planner! Send me a task to get started.\n" +
		"Use /help to see everything I can do."
	helpText = "Available commands:\n" +
		"/add – add a task\n" +
		"/remove – delete a task\n" +
		"/edit – change a task's text\n" +
		"/complete – mark a task as done\n" +
		"/list – show your tasks\n" +
		"/timer – set up recurring reminders"
	unknownText   = "Sorry, I didn't get that. Pick one of the commands in /help"
	emptyListText = "Your task list is empty.\nUse /add to create a task."

	doneMark    = "✅"
	todoMark    = "▫️"
	urgentMark  = "🔥"
	generalMark = "🟢"
	timerMark   = "⏰"
)

// timerOption is one entry of the reminder frequency menu.
type timerOption struct {
	label    string
	schedule domain.Schedule
	pickHour bool // ask for a wall-clock hour instead
}

var timerOptions = []timerOption{
	{label: "1 minute", schedule: domain.Every(time.Minute)},
	{label: "1 hour", schedule: domain.Every(time.Hour)},
	{label: "3 hours", schedule: domain.Every(3 * time.Hour)},
	{label: "10 hours", schedule: domain.Every(10 * time.Hour)},
	{label: "Pick an hour", pickHour: true},
	{label: "Every day", schedule: domain.Every(24 * time.Hour)},
}

// timerMenu renders the numbered frequency menu.
func timerMenu(header string) string {
	var b strings.Builder
	b.WriteString(header + "\n")
	for i, opt := range timerOptions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, opt.label)
	}
	b.WriteString("\nOr type a time like 16:45 for a daily reminder.")
	return b.String()
}

func withFooter(text string) string {
	return text + "\n\nMore features — /help"
}

// taskActionKeyboard builds the three reminder actions for one task.
func taskActionKeyboard(index int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Mark as done", fmt.Sprintf("task_action:complete:%d", index)),
			tgbotapi.NewInlineKeyboardButtonData("⏸️ Stop reminding", fmt.Sprintf("task_action:stop:%d", index)),
			tgbotapi.NewInlineKeyboardButtonData("🔁 Keep reminding", fmt.Sprintf("task_action:keep:%d", index)),
		),
	)
}

// hourKeyboard builds a 6×4 grid of hours 00..23. prefix is the callback
// prefix including any flow-specific arguments, e.g. "pick_hour:3" or
// "pick_global_hour".
func hourKeyboard(prefix string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, 6)
	for r := 0; r < 6; r++ {
		row := make([]tgbotapi.InlineKeyboardButton, 0, 4)
		for c := 0; c < 4; c++ {
			hour := r*4 + c
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%02d:00", hour),
				fmt.Sprintf("%s:%d", prefix, hour),
			))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
