package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	runSecretHeader     = "X-Run-Reminders-Secret"
	webhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"
)

// Reconciler runs one due-reminder pass and reports how many events were
// processed. scheduler.Engine implements it.
type Reconciler interface {
	Reconcile(ctx context.Context, now time.Time) int
}

// UpdateHandler consumes decoded Telegram updates. telegram.Router
// implements it.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, upd tgbotapi.Update)
}

// Server is the HTTP surface: the guarded run-reminders trigger, the
// optional Telegram webhook receiver and a health probe.
type Server struct {
	log     *zap.Logger
	engine  Reconciler
	updates UpdateHandler

	runSecret     string
	webhookSecret string
}

// New creates the HTTP surface. updates may be nil when the bot runs in
// polling mode; the webhook route then answers 404.
func New(log *zap.Logger, engine Reconciler, updates UpdateHandler, runSecret, webhookSecret string) *Server {
	return &Server{
		log:           log,
		engine:        engine,
		updates:       updates,
		runSecret:     runSecret,
		webhookSecret: webhookSecret,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/api/run-reminders", s.handleRunReminders)
	mux.HandleFunc("/api/telegram", s.handleWebhook)
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleRunReminders triggers one reconciliation pass. The configured
// secret must be present and match; an unset secret disables the
// endpoint entirely rather than leaving it open.
func (s *Server) handleRunReminders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.runSecret == "" {
		s.log.Error("run-reminders called but no secret is configured")
		http.Error(w, "server misconfigured", http.StatusInternalServerError)
		return
	}
	got := r.Header.Get(runSecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.runSecret)) != 1 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	processed := s.engine.Reconcile(r.Context(), time.Now())
	s.log.Info("run-reminders pass finished", zap.Int("processed", processed))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"processed": processed,
	})
}

// handleWebhook receives Telegram updates pushed by the Bot API.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.updates == nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.webhookSecret != "" {
		got := r.Header.Get(webhookSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.webhookSecret)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	var upd tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		s.log.Warn("bad webhook payload", zap.Error(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	s.updates.HandleUpdate(r.Context(), upd)
	w.WriteHeader(http.StatusOK)
}
