package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raushankrgupta/shopbot/logger"
	"github.com/raushankrgupta/shopbot/models"
	apperrors "github.com/raushankrgupta/shopbot/pkg/errors"
	"github.com/raushankrgupta/shopbot/utils"
)

const (
	maxBodyBytes   = 1 << 16
	defaultHistory = 10
	maxHistory     = 50
)

// Classifier turns chat text into an intent
type Classifier interface {
	Classify(ctx context.Context, text string) (models.Intent, error)
}

// Dispatcher runs the task for an intent
type Dispatcher interface {
	Dispatch(ctx context.Context, sessionID string, in models.Intent) (*models.ChatResponse, error)
}

// History persists chat exchanges and serves past searches
type History interface {
	SaveChat(ctx context.Context, log *models.ChatLog) error
	RecentSearches(ctx context.Context, limit int64) ([]models.SearchResult, error)
}

// Handler serves the chat API
type Handler struct {
	classifier Classifier
	dispatcher Dispatcher
	history    History
	sites      []string
	log        *logger.Logger
	started    time.Time
}

// NewHandler creates a Handler. history may be nil.
func NewHandler(c Classifier, d Dispatcher, history History, sites []string, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Default
	}
	return &Handler{
		classifier: c,
		dispatcher: d,
		history:    history,
		sites:      sites,
		log:        log.WithField("component", "api"),
		started:    time.Now(),
	}
}

// Chat handles POST /chat: classify the message, run the task, reply
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("request_id", utils.RequestID(r.Context()))

	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		utils.RespondError(w, log, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		utils.RespondError(w, log, "message is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	entry := &models.ChatLog{
		SessionID: req.SessionID,
		UserID:    UserID(r.Context()),
		Message:   req.Message,
		CreatedAt: time.Now(),
	}
	defer h.record(r.Context(), entry)

	in, err := h.classifier.Classify(r.Context(), req.Message)
	if err != nil {
		entry.Error = err.Error()
		utils.RespondError(w, log, err.Error(), statusFor(err))
		return
	}
	entry.Intent = in
	log.Debug().Str("task", string(in.Task)).Str("site", in.Site).Str("query", in.Query).Msg("Classified message")

	resp, err := h.dispatcher.Dispatch(r.Context(), req.SessionID, in)
	if err != nil {
		entry.Error = err.Error()
		utils.RespondError(w, log, err.Error(), statusFor(err))
		return
	}
	entry.Reply = resp.Reply

	utils.RespondJSON(w, http.StatusOK, resp)
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// Sites handles GET /sites
func (h *Handler) Sites(w http.ResponseWriter, r *http.Request) {
	tasks := make([]string, len(models.TaskTypes))
	for i, t := range models.TaskTypes {
		tasks[i] = string(t)
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"sites": h.sites,
		"tasks": tasks,
	})
}

// Recent handles GET /history?limit=N
func (h *Handler) Recent(w http.ResponseWriter, r *http.Request) {
	log := h.log.WithField("request_id", utils.RequestID(r.Context()))
	if h.history == nil {
		utils.RespondError(w, log, apperrors.ErrNotConfigured.Error(), http.StatusServiceUnavailable)
		return
	}

	limit := int64(defaultHistory)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 {
			utils.RespondError(w, log, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistory)
	}

	results, err := h.history.RecentSearches(r.Context(), limit)
	if err != nil {
		utils.RespondError(w, log, err.Error(), statusFor(err))
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	utils.RespondJSON(w, http.StatusOK, results)
}

func (h *Handler) record(ctx context.Context, entry *models.ChatLog) {
	if h.history == nil {
		return
	}
	// The request context may already be cancelled once the reply is written
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := h.history.SaveChat(ctx, entry); err != nil {
		h.log.Warn().Err(err).Msg("Could not record chat")
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidIntent):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrUnknownTask), errors.Is(err, apperrors.ErrNoScraper):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, apperrors.ErrLoginTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, apperrors.ErrBlocked):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
