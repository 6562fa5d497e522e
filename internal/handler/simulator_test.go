package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/leaseiq/leaseiq/internal/model"
	"github.com/leaseiq/leaseiq/internal/simulator"
	"github.com/leaseiq/leaseiq/pkg/logger"
)

type staticLeases struct {
	lease *model.Lease
}

func (s *staticLeases) LeaseByID(ctx context.Context, id int64) (*model.Lease, error) {
	if s.lease == nil || s.lease.ID != id {
		return nil, errors.New("not found")
	}
	return s.lease, nil
}

func simulatorRouter(h *SimulatorHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/simulator/chat", h.Chat)
	r.Get("/api/simulator/suggestions/{threadID}", h.Suggestions)
	return r
}

func TestSimulatorChat(t *testing.T) {
	engine := simulator.New(&staticLeases{lease: &model.Lease{ID: 7, CarName: "Honda Civic"}}, nil, logger.Nop())
	h := NewSimulatorHandler(engine, nil, logger.Nop())

	body, _ := json.Marshal(model.SimulatorChatRequest{
		Message:  "can you match their quote",
		FileID:   7,
		ThreadID: "thread-2",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/simulator/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	simulatorRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.SimulatorChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.AssistantMessage, "written quote for that Honda Civic")
}

func TestSimulatorChatRejectsEmptyMessage(t *testing.T) {
	engine := simulator.New(&staticLeases{}, nil, logger.Nop())
	h := NewSimulatorHandler(engine, nil, logger.Nop())

	body, _ := json.Marshal(model.SimulatorChatRequest{ThreadID: "thread-1"})
	req := httptest.NewRequest(http.MethodPost, "/api/simulator/chat", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	simulatorRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSimulatorSuggestions(t *testing.T) {
	engine := simulator.New(&staticLeases{}, nil, logger.Nop())
	h := NewSimulatorHandler(engine, nil, logger.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/simulator/suggestions/thread-2", nil)
	rec := httptest.NewRecorder()
	simulatorRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var out []model.Suggestion
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 4)
	require.Equal(t, "b-q1", out[0].ID)
}

func TestSimulatorSuggestionsUnknownThread(t *testing.T) {
	engine := simulator.New(&staticLeases{}, nil, logger.Nop())
	h := NewSimulatorHandler(engine, nil, logger.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/simulator/suggestions/thread-99", nil)
	rec := httptest.NewRecorder()
	simulatorRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
