package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/sviatkkk/task-planner-bot/internal/domain"
)

var errTaskNotFound = errors.New("task not found")

// --- Commands ---

func (r *Router) handleStart(_ context.Context, chatID int64) {
	r.setState(chatID, stateIdle)
	r.sendText(chatID, startText)
}

func (r *Router) handleAdd(_ context.Context, chatID int64) {
	r.setState(chatID, stateAwaitTaskText)
	r.sendText(chatID, "Send the task text in one message.")
}

func (r *Router) handleList(ctx context.Context, chatID int64) {
	st, err := r.repo.LoadTasks(ctx, chatID)
	if err != nil {
		r.log.Error("load tasks failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, "Error reading your tasks. Please try again later.")
		return
	}
	if len(st.Tasks) == 0 {
		r.sendText(chatID, withFooter(emptyListText))
		return
	}
	cfg, err := r.repo.LoadTimers(ctx, chatID)
	if err != nil {
		r.log.Error("load timers failed", zap.Int64("chatID", chatID), zap.Error(err))
		cfg = domain.TimerConfig{}
	}
	r.sendMarkdown(chatID, renderTaskList(st, cfg.Enabled)+"\n\n"+escapeMD("More features — /help"))
}

func (r *Router) handleRemove(ctx context.Context, chatID int64) {
	r.askForIndex(ctx, chatID, stateAwaitRemovalIndex, "Enter the number of the task to delete:")
}

func (r *Router) handleEdit(ctx context.Context, chatID int64) {
	r.askForIndex(ctx, chatID, stateAwaitEditIndex, "Enter the number of the task to change:")
}

func (r *Router) handleComplete(ctx context.Context, chatID int64) {
	st, ok := r.loadTasksOrComplain(ctx, chatID)
	if !ok {
		return
	}
	allDone := true
	for i := range st.Tasks {
		if !st.Done(i) {
			allDone = false
			break
		}
	}
	if allDone {
		r.sendText(chatID, "All tasks are done! Add new ones with /add.")
		return
	}
	r.setState(chatID, stateAwaitCompletionIndex)
	r.sendText(chatID, doneMark+" Enter the number of the task you finished:\n"+renderPlainList(st, false))
}

func (r *Router) handleTimer(_ context.Context, chatID int64) {
	r.setState(chatID, stateAwaitGlobalTimerChoice)
	r.sendText(chatID, timerMenu(timerMark+" Choose how often to remind you:"))
}

func (r *Router) askForIndex(ctx context.Context, chatID int64, next convState, prompt string) {
	st, ok := r.loadTasksOrComplain(ctx, chatID)
	if !ok {
		return
	}
	r.setState(chatID, next)
	r.sendText(chatID, prompt+"\n"+renderPlainList(st, false))
}

func (r *Router) loadTasksOrComplain(ctx context.Context, chatID int64) (domain.TaskState, bool) {
	st, err := r.repo.LoadTasks(ctx, chatID)
	if err != nil {
		r.log.Error("load tasks failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, "Error reading your tasks. Please try again later.")
		return domain.TaskState{}, false
	}
	if len(st.Tasks) == 0 {
		r.sendText(chatID, emptyListText)
		return domain.TaskState{}, false
	}
	return st, true
}

// --- Conversation steps ---

func (r *Router) onTaskText(ctx context.Context, chatID int64, c *conversation, text string) {
	if text == "" {
		r.sendText(chatID, "The task text cannot be empty. Try again.")
		return
	}
	st, err := r.repo.LoadTasks(ctx, chatID)
	if err != nil {
		r.log.Error("load tasks failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, "Could not save the task. Please try again later.")
		return
	}
	st.Tasks = append(st.Tasks, domain.Task{Text: text})
	if err := r.repo.SaveTasks(ctx, chatID, st); err != nil {
		r.log.Error("save tasks failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, "Could not save the task. Please try again later.")
		return
	}
	c.pendingTask = len(st.Tasks) - 1
	c.state = stateAwaitUrgency
	r.sendText(chatID, "Is this task urgent?\n1. Yes\n2. No (it will fall under the global timer)")
}

func (r *Router) onUrgencyAnswer(ctx context.Context, chatID int64, c *conversation, text string) {
	ans := strings.ToLower(strings.TrimSpace(text))
	if ans == "1" || ans == "yes" {
		// Urgency is set exactly once, at creation.
		st, err := r.repo.LoadTasks(ctx, chatID)
		if err == nil && c.pendingTask < len(st.Tasks) {
			st.Tasks[c.pendingTask].Urgent = true
			err = r.repo.SaveTasks(ctx, chatID, st)
		}
		if err != nil {
			r.log.Error("mark urgent failed", zap.Int64("chatID", chatID), zap.Error(err))
			r.sendText(chatID, "Could not save the task. Please try again later.")
			c.state = stateIdle
			return
		}
		c.state = stateAwaitTaskTimerChoice
		r.sendText(chatID, timerMenu("Choose a reminder for this task:"))
		return
	}

	c.state = stateIdle
	st, err := r.repo.LoadTasks(ctx, chatID)
	if err != nil {
		r.log.Error("load tasks failed", zap.Int64("chatID", chatID), zap.Error(err))
		return
	}
	msg := "Task saved. Your tasks:\n" + renderPlainList(st, false) + "\nAdd more with /add"
	if cfg, err := r.repo.LoadTimers(ctx, chatID); err == nil && cfg.Enabled && cfg.Label != "" {
		msg += "\n\nGlobal timer — " + cfg.Label
	}
	r.sendText(chatID, withFooter(msg))
}

func (r *Router) onTaskTimerChoice(ctx context.Context, chatID int64, c *conversation, text string) {
	idx := c.pendingTask
	if n := domain.ParseIndex(text, len(timerOptions)); n >= 0 {
		opt := timerOptions[n]
		if opt.pickHour {
			msg := tgbotapi.NewMessage(chatID, "Pick an hour for the daily reminder:")
			msg.ReplyMarkup = hourKeyboard("pick_hour:" + strconv.Itoa(idx))
			if _, err := r.bot.Send(msg); err != nil {
				r.log.Warn("send failed", zap.Int64("chatID", chatID), zap.Error(err))
			}
			return
		}
		r.applyTaskSchedule(ctx, chatID, c, idx, opt.schedule)
		return
	}
	if sc, err := domain.ParseClockTime(text); err == nil {
		r.applyTaskSchedule(ctx, chatID, c, idx, sc)
		return
	}
	r.sendText(chatID, "Enter a valid option number or a time like 16:45.")
}

func (r *Router) applyTaskSchedule(ctx context.Context, chatID int64, c *conversation, idx int, sc domain.Schedule) {
	st, label, err := r.setTaskReminder(ctx, chatID, idx, sc)
	if err != nil {
		r.log.Error("set task reminder failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, "Could not set the reminder. Please try again later.")
		return
	}
	c.state = stateIdle
	r.sendText(chatID, withFooter("🔔 Task reminder set: "+label+"\nYour tasks:\n"+renderPlainList(st, false)))
}

func (r *Router) onRemovalIndex(ctx context.Context, chatID int64, c *conversation, text string) {
	st, err := r.repo.LoadTasks(ctx, chatID)
	if err != nil {
		r.log.Error("load tasks failed", zap.Int64("chatID", chatID), zap.Error(err))
		return
	}
	i := domain.ParseIndex(text, len(st.Tasks))
	if i < 0 {
		r.sendText(chatID, withFooter("Enter a valid task number to delete."))
		return
	}
	st.ClearReminder(i)
	st.Remove(i)
	if err := r.repo.SaveTasks(ctx, chatID, st); err != nil {
		r.log.Error("save tasks failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, "Could not delete the task. Please try again later.")
		return
	}
	// Removal shifts the surviving tasks' positions, so every armed
	// task timer is re-keyed, not just the removed one cancelled.
	r.timers.ResyncTasks(chatID, st)
	c.state = stateIdle
	if len(st.Tasks) == 0 {
		r.sendText(chatID, withFooter("Task deleted. "+emptyListText))
		return
	}
	r.sendText(chatID, withFooter("Updated list:\n"+renderPlainList(st, false)))
}

func (r *Router) onEditIndex(ctx context.Context, chatID int64, c *conversation, text string) {
	st, err := r.repo.LoadTasks(ctx, chatID)
	if err != nil {
		r.log.Error("load tasks failed", zap.Int64("chatID", chatID), zap.Error(err))
		return
	}
	i := domain.ParseIndex(text, len(st.Tasks))
	if i < 0 {
		r.sendText(chatID, "Enter a valid task number to edit.")
		return
	}
	c.editIndex = i
	c.state = stateAwaitEditText
	r.sendText(chatID, "Enter the new text for this task:")
}

func (r *Router) onEditText(ctx context.Context, chatID int64, c *conversation, text string) {
	if text == "" {
		r.sendText(chatID, "The task text cannot be empty. Try again.")
		return
	}
	st, err := r.repo.LoadTasks(ctx, chatID)
	if err != nil {
		r.log.Error("load tasks failed", zap.Int64("chatID", chatID), zap.Error(err))
		return
	}
	if c.editIndex >= len(st.Tasks) {
		c.state = stateIdle
		r.sendText(chatID, "That task no longer exists.")
		return
	}
	// Only the text changes; urgency, reminder and completion stay put.
	st.Tasks[c.editIndex].Text = text
	if err := r.repo.SaveTasks(ctx, chatID, st); err != nil {
		r.log.Error("save tasks failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, "Could not save the change. Please try again later.")
		return
	}
	c.state = stateIdle
	r.sendText(chatID, withFooter("Saved! Your updated list:\n"+renderPlainList(st, false)))
}

func (r *Router) onCompletionIndex(ctx context.Context, chatID int64, c *conversation, text string) {
	st, err := r.repo.LoadTasks(ctx, chatID)
	if err != nil {
		r.log.Error("load tasks failed", zap.Int64("chatID", chatID), zap.Error(err))
		return
	}
	i := domain.ParseIndex(text, len(st.Tasks))
	if i < 0 {
		r.sendText(chatID, "Enter a valid task number to complete.")
		return
	}
	if st.Done(i) {
		r.sendText(chatID, withFooter("That task is already done. Pick another one."))
		return
	}
	st.Complete(i)
	if err := r.repo.SaveTasks(ctx, chatID, st); err != nil {
		r.log.Error("save tasks failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, "Could not save the change. Please try again later.")
		return
	}
	r.timers.CancelTask(chatID, i)
	c.state = stateIdle
	r.sendMarkdown(chatID, escapeMD("Task done! Your updated list:")+"\n"+renderTaskList(st, false))
}

func (r *Router) onGlobalTimerChoice(ctx context.Context, chatID int64, c *conversation, text string) {
	if n := domain.ParseIndex(text, len(timerOptions)); n >= 0 {
		opt := timerOptions[n]
		if opt.pickHour {
			msg := tgbotapi.NewMessage(chatID, "Pick an hour for the daily global reminder:")
			msg.ReplyMarkup = hourKeyboard("pick_global_hour")
			if _, err := r.bot.Send(msg); err != nil {
				r.log.Warn("send failed", zap.Int64("chatID", chatID), zap.Error(err))
			}
			return
		}
		r.applyGlobalSchedule(ctx, chatID, c, opt.schedule)
		return
	}
	if sc, err := domain.ParseClockTime(text); err == nil {
		r.applyGlobalSchedule(ctx, chatID, c, sc)
		return
	}
	r.sendText(chatID, "Enter a valid option number or a time like 16:45.")
}

func (r *Router) applyGlobalSchedule(ctx context.Context, chatID int64, c *conversation, sc domain.Schedule) {
	label, err := r.setGlobalSchedule(ctx, chatID, sc)
	if err != nil {
		r.log.Error("set global timer failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, "Could not set the timer. Please try again later.")
		return
	}
	c.state = stateIdle
	r.sendText(chatID, withFooter("Timer set: "+label))
}

// --- Callbacks ---

func (r *Router) handleTaskAction(ctx context.Context, chatID int64, data string, cb *tgbotapi.CallbackQuery) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return
	}
	action := parts[1]
	i, err := strconv.Atoi(parts[2])
	if err != nil {
		return
	}

	if action == "keep" {
		// No-op acknowledgement; the reminder keeps firing.
		r.answerCallback(cb.ID, "Will keep reminding")
		r.sendText(chatID, withFooter("Okay — I'll keep reminding you about this task."))
		return
	}

	st, err := r.repo.LoadTasks(ctx, chatID)
	if err != nil || i < 0 || i >= len(st.Tasks) {
		r.answerCallback(cb.ID, "Task not found")
		return
	}

	switch action {
	case "complete":
		st.Complete(i)
		if err := r.repo.SaveTasks(ctx, chatID, st); err != nil {
			r.log.Error("save tasks failed", zap.Int64("chatID", chatID), zap.Error(err))
			r.answerCallback(cb.ID, "Something went wrong")
			return
		}
		r.timers.CancelTask(chatID, i)
		r.dropInlineKeyboard(cb)
		r.answerCallback(cb.ID, "Task marked as done")
		r.sendMarkdown(chatID, escapeMD("Marked the task as done.")+"\n"+renderTaskList(st, false))
	case "stop":
		st.ClearReminder(i)
		if err := r.repo.SaveTasks(ctx, chatID, st); err != nil {
			r.log.Error("save tasks failed", zap.Int64("chatID", chatID), zap.Error(err))
			r.answerCallback(cb.ID, "Something went wrong")
			return
		}
		r.timers.CancelTask(chatID, i)
		r.dropInlineKeyboard(cb)
		r.answerCallback(cb.ID, "Reminder stopped")
		r.sendText(chatID, withFooter("Stopped reminding about this task. Set a new timer to turn it back on."))
	}
}

func (r *Router) handlePickTaskHour(ctx context.Context, chatID int64, data string, cb *tgbotapi.CallbackQuery) {
	parts := strings.Split(data, ":")
	if len(parts) != 3 {
		return
	}
	idx, err1 := strconv.Atoi(parts[1])
	hour, err2 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil {
		return
	}
	st, label, err := r.setTaskReminder(ctx, chatID, idx, domain.DailyAt(hour, 0))
	if err != nil {
		r.log.Error("set task reminder failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.answerCallback(cb.ID, "Something went wrong")
		return
	}
	r.setState(chatID, stateIdle)
	r.dropInlineKeyboard(cb)
	r.answerCallback(cb.ID, "Hour set")
	r.sendText(chatID, withFooter("Daily reminder at "+label+" set.\nYour tasks:\n"+renderPlainList(st, false)))
}

func (r *Router) handlePickGlobalHour(ctx context.Context, chatID int64, data string, cb *tgbotapi.CallbackQuery) {
	parts := strings.Split(data, ":")
	if len(parts) != 2 {
		return
	}
	hour, err := strconv.Atoi(parts[1])
	if err != nil {
		return
	}
	label, err := r.setGlobalSchedule(ctx, chatID, domain.DailyAt(hour, 0))
	if err != nil {
		r.log.Error("set global timer failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.answerCallback(cb.ID, "Something went wrong")
		return
	}
	r.setState(chatID, stateIdle)
	r.dropInlineKeyboard(cb)
	r.answerCallback(cb.ID, "Hour set")
	r.sendText(chatID, withFooter("Daily global reminder set: "+label))
}

// --- Mutations ---

// setTaskReminder attaches (or replaces) one task's reminder schedule
// and arms the live timer when one is running.
func (r *Router) setTaskReminder(ctx context.Context, chatID int64, idx int, sc domain.Schedule) (domain.TaskState, string, error) {
	st, err := r.repo.LoadTasks(ctx, chatID)
	if err != nil {
		return domain.TaskState{}, "", err
	}
	if idx < 0 || idx >= len(st.Tasks) {
		return domain.TaskState{}, "", errTaskNotFound
	}
	next, err := sc.First(time.Now())
	if err != nil {
		return domain.TaskState{}, "", err
	}
	st.SetReminder(idx, sc, next)
	if err := r.repo.SaveTasks(ctx, chatID, st); err != nil {
		return domain.TaskState{}, "", err
	}
	r.timers.ArmTask(chatID, idx, next)
	return st, sc.Label(), nil
}

// setGlobalSchedule replaces the chat's global timer with a new rule and
// arms the live timer when one is running.
func (r *Router) setGlobalSchedule(ctx context.Context, chatID int64, sc domain.Schedule) (string, error) {
	next, err := sc.First(time.Now())
	if err != nil {
		return "", err
	}
	cfg := domain.TimerConfig{
		Enabled:    true,
		Schedule:   &sc,
		Label:      sc.Label(),
		NextFireAt: &next,
	}
	if err := r.repo.SaveTimers(ctx, chatID, cfg); err != nil {
		return "", err
	}
	r.timers.ArmGlobal(chatID, next)
	return cfg.Label, nil
}
