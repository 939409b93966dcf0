package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/sviatkkk/task-planner-bot/internal/domain"
	"github.com/sviatkkk/task-planner-bot/internal/store"
)

// convState is one step of a chat's conversation. Each state accepts
// only the input it expects; everything else falls through to the
// "didn't understand" reply.
type convState int

const (
	stateIdle convState = iota
	stateAwaitTaskText
	stateAwaitUrgency
	stateAwaitTaskTimerChoice
	stateAwaitRemovalIndex
	stateAwaitEditIndex
	stateAwaitEditText
	stateAwaitCompletionIndex
	stateAwaitGlobalTimerChoice
)

// conversation is the per-chat FSM plus the indices the flows carry
// between steps.
type conversation struct {
	state       convState
	pendingTask int // task awaiting urgency/timer choice
	editIndex   int // task being edited
}

// Timers keeps armed live timers in step with task and timer mutations.
// The scan deployment plugs in NopTimers.
type Timers interface {
	ArmGlobal(chatID int64, at time.Time)
	ArmTask(chatID int64, index int, at time.Time)
	CancelGlobal(chatID int64)
	CancelTask(chatID int64, index int)
	// ResyncTasks re-keys the chat's armed task timers after a mutation
	// that shifts task positions.
	ResyncTasks(chatID int64, st domain.TaskState)
}

// NopTimers satisfies Timers with no-ops for the scan deployment, where
// the persisted next-fire fields alone drive due checks.
type NopTimers struct{}

func (NopTimers) ArmGlobal(int64, time.Time) {}

func (NopTimers) ArmTask(int64, int, time.Time) {}

func (NopTimers) CancelGlobal(int64) {}

func (NopTimers) CancelTask(int64, int) {}

func (NopTimers) ResyncTasks(int64, domain.TaskState) {}

// Router wires Telegram updates to handlers and holds the per-chat
// conversation state (non-persistent, in-memory).
type Router struct {
	bot    *tgbotapi.BotAPI
	log    *zap.Logger
	repo   store.Repo
	timers Timers

	mu   sync.Mutex
	conv map[int64]*conversation
}

// NewRouter creates a router with no live timers attached.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo store.Repo) *Router {
	return &Router{
		bot:    bot,
		log:    log,
		repo:   repo,
		timers: NopTimers{},
		conv:   make(map[int64]*conversation),
	}
}

// AttachTimers plugs in the live-timer manager. Must be called before
// updates flow; the default is NopTimers.
func (r *Router) AttachTimers(t Timers) { r.timers = t }

func (r *Router) conversation(chatID int64) *conversation {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conv[chatID]
	if !ok {
		c = &conversation{}
		r.conv[chatID] = c
	}
	return c
}

func (r *Router) setState(chatID int64, s convState) {
	r.conversation(chatID).state = s
}

// HandleUpdate routes a single update. Commands reset any pending flow;
// free-form text feeds the current conversation state.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		chatID := upd.Message.Chat.ID
		text := strings.TrimSpace(upd.Message.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			r.handleStart(ctx, chatID)
		case strings.HasPrefix(text, "/help"):
			r.sendText(chatID, helpText)
		case strings.HasPrefix(text, "/add"):
			r.handleAdd(ctx, chatID)
		case strings.HasPrefix(text, "/remove"):
			r.handleRemove(ctx, chatID)
		case strings.HasPrefix(text, "/edit"):
			r.handleEdit(ctx, chatID)
		case strings.HasPrefix(text, "/complete"):
			r.handleComplete(ctx, chatID)
		case strings.HasPrefix(text, "/list"):
			r.handleList(ctx, chatID)
		case strings.HasPrefix(text, "/timer"):
			r.handleTimer(ctx, chatID)
		default:
			r.handleFreeForm(ctx, chatID, text)
		}
		return
	}

	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		if cb.Message == nil {
			return
		}
		chatID := cb.Message.Chat.ID
		data := cb.Data

		switch {
		case strings.HasPrefix(data, "task_action:"):
			r.handleTaskAction(ctx, chatID, data, cb)
		case strings.HasPrefix(data, "pick_hour:"):
			r.handlePickTaskHour(ctx, chatID, data, cb)
		case strings.HasPrefix(data, "pick_global_hour:"):
			r.handlePickGlobalHour(ctx, chatID, data, cb)
		default:
			// Unknown callback — ignore silently
		}
	}
}

// handleFreeForm feeds text into the chat's conversation state.
func (r *Router) handleFreeForm(ctx context.Context, chatID int64, text string) {
	c := r.conversation(chatID)
	switch c.state {
	case stateAwaitTaskText:
		r.onTaskText(ctx, chatID, c, text)
	case stateAwaitUrgency:
		r.onUrgencyAnswer(ctx, chatID, c, text)
	case stateAwaitTaskTimerChoice:
		r.onTaskTimerChoice(ctx, chatID, c, text)
	case stateAwaitRemovalIndex:
		r.onRemovalIndex(ctx, chatID, c, text)
	case stateAwaitEditIndex:
		r.onEditIndex(ctx, chatID, c, text)
	case stateAwaitEditText:
		r.onEditText(ctx, chatID, c, text)
	case stateAwaitCompletionIndex:
		r.onCompletionIndex(ctx, chatID, c, text)
	case stateAwaitGlobalTimerChoice:
		r.onGlobalTimerChoice(ctx, chatID, c, text)
	default:
		r.sendText(chatID, unknownText)
	}
}

// --- Generic send helpers ---

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Warn("send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (r *Router) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (r *Router) answerCallback(id, text string) {
	if _, err := r.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		r.log.Warn("answer callback failed", zap.Error(err))
	}
}

func (r *Router) dropInlineKeyboard(cb *tgbotapi.CallbackQuery) {
	edit := tgbotapi.NewEditMessageReplyMarkup(
		cb.Message.Chat.ID, cb.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	if _, err := r.bot.Request(edit); err != nil {
		r.log.Debug("drop inline keyboard failed", zap.Error(err))
	}
}

// --- Sender implementation (scheduler.Sender) ---

// SendGlobalReminder delivers one aggregated reminder listing the tasks
// under the chat's global timer.
func (r *Router) SendGlobalReminder(chatID int64, label string, tasks []string) error {
	lines := make([]string, 0, len(tasks))
	for i, t := range tasks {
		lines = append(lines, generalMark+" "+strconv.Itoa(i+1)+". "+t)
	}
	text := "🔔 Reminder (" + label + ")\n" + strings.Join(lines, "\n")
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendTaskReminder delivers one task's reminder with the complete /
// stop / keep actions attached.
func (r *Router) SendTaskReminder(chatID int64, taskIndex int, text string) error {
	msg := tgbotapi.NewMessage(chatID, withFooter("🔔 Reminder: "+text))
	msg.ReplyMarkup = taskActionKeyboard(taskIndex)
	_, err := r.bot.Send(msg)
	return err
}
