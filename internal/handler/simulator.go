package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/leaseiq/leaseiq/internal/events"
	"github.com/leaseiq/leaseiq/internal/middleware"
	"github.com/leaseiq/leaseiq/internal/model"
	"github.com/leaseiq/leaseiq/internal/simulator"
	"github.com/leaseiq/leaseiq/pkg/logger"
)

// SimulatorHandler handles dealer simulator endpoints.
type SimulatorHandler struct {
	engine *simulator.Engine
	events *events.Publisher
	logger *logger.Logger
}

// NewSimulatorHandler creates a new simulator handler.
func NewSimulatorHandler(engine *simulator.Engine, pub *events.Publisher, log *logger.Logger) *SimulatorHandler {
	return &SimulatorHandler{
		engine: engine,
		events: pub,
		logger: log,
	}
}

// Chat handles POST /api/simulator/chat
func (h *SimulatorHandler) Chat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.SimulatorChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageContent(req.Message); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.engine.Respond(ctx, &req)
	if err != nil {
		h.logger.Error("simulator reply failed",
			zap.String("thread_id", req.ThreadID), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to fetch simulator data")
		return
	}

	h.events.SimulatorExchange(ctx, req.ThreadID, req.FileID, reply.Branch)

	writeJSON(w, http.StatusOK, model.SimulatorChatResponse{AssistantMessage: reply.Text})
}

// Suggestions handles GET /api/simulator/suggestions/{threadID}
func (h *SimulatorHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	suggestions := simulator.Suggestions(threadID)
	if suggestions == nil {
		writeMessage(w, http.StatusNotFound, "unknown thread")
		return
	}

	writeJSON(w, http.StatusOK, suggestions)
}
