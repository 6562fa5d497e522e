package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/leaseiq/leaseiq/internal/events"
	"github.com/leaseiq/leaseiq/internal/middleware"
	"github.com/leaseiq/leaseiq/internal/model"
	"github.com/leaseiq/leaseiq/internal/store"
	"github.com/leaseiq/leaseiq/pkg/logger"
	"github.com/leaseiq/leaseiq/pkg/metrics"
)

// LeaseStore is the persistence surface the lease handler needs.
type LeaseStore interface {
	SaveLease(ctx context.Context, userID int, lease *model.Lease) error
	LeasesByUser(ctx context.Context, userID int) ([]model.Lease, error)
	DeleteLease(ctx context.Context, id int64) error
}

// LeaseHandler handles lease persistence endpoints.
type LeaseHandler struct {
	leases LeaseStore
	events *events.Publisher
	logger *logger.Logger
}

// NewLeaseHandler creates a new lease handler.
func NewLeaseHandler(leases LeaseStore, pub *events.Publisher, log *logger.Logger) *LeaseHandler {
	return &LeaseHandler{
		leases: leases,
		events: pub,
		logger: log,
	}
}

// Save handles POST /api/leases/save
func (h *LeaseHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req model.SaveLeaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID != middleware.GetUserID(ctx) {
		writeMessage(w, http.StatusForbidden, "cannot save leases for another user")
		return
	}
	if req.Data.ID == 0 {
		writeMessage(w, http.StatusBadRequest, "lease id is required")
		return
	}
	if err := middleware.ValidateCarName(req.Data.CarName); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.leases.SaveLease(ctx, req.UserID, &req.Data); err != nil {
		h.logger.Error("failed to save lease",
			zap.Int64("lease_id", req.Data.ID), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "failed to save lease")
		return
	}

	metrics.LeaseSavesTotal.Inc()
	h.events.LeaseSaved(ctx, req.UserID, &req.Data)

	writeMessage(w, http.StatusOK, "Saved")
}

// List handles GET /api/leases/{userID}
func (h *LeaseHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if userID != middleware.GetUserID(ctx) {
		writeMessage(w, http.StatusForbidden, "cannot read leases for another user")
		return
	}

	leases, err := h.leases.LeasesByUser(ctx, userID)
	if err != nil {
		h.logger.Error("failed to list leases", zap.Int("user_id", userID), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "failed to fetch leases")
		return
	}

	writeJSON(w, http.StatusOK, leases)
}

// Delete handles DELETE /api/leases/{id}
func (h *LeaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid lease id")
		return
	}

	err = h.leases.DeleteLease(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Lease not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete lease", zap.Int64("lease_id", id), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "failed to delete lease")
		return
	}

	metrics.LeaseDeletesTotal.Inc()
	h.events.LeaseDeleted(ctx, id)

	writeMessage(w, http.StatusOK, "Lease deleted")
}
