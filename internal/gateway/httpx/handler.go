package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jcmexdev/coffee-sagas/internal/domain"
	"github.com/jcmexdev/coffee-sagas/internal/engine"
	"github.com/jcmexdev/coffee-sagas/internal/gateway/httpx/middlewares"
	"github.com/jcmexdev/coffee-sagas/internal/pkg/cache"
)

// resultCacheTTL bounds how long terminal results stay in the shared cache.
const resultCacheTTL = 24 * time.Hour

// Handler serves the order API: start, status query, cancel signal, and
// terminal-result fetch.
type Handler struct {
	engine  *engine.Engine
	results cache.Cache // nil-safe: caching skipped if nil
}

// NewHandler wires the handler. results may be nil — terminal results are
// then served from the engine's registry only.
func NewHandler(eng *engine.Engine, results cache.Cache) *Handler {
	return &Handler{engine: eng, results: results}
}

// StartOrder validates the request and launches a new order instance. The
// caller gets an initial snapshot back immediately; the order continues in
// the background.
func (h *Handler) StartOrder(w http.ResponseWriter, r *http.Request) {
	var req StartOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	if req.OrderID == "" {
		req.OrderID = uuid.NewString()
	}

	size, err := domain.ParseDrinkSize(req.Size)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_size", err.Error())
		return
	}

	order := domain.OrderRequest{OrderID: req.OrderID, Drink: req.Drink, Size: size}

	requestID, _ := r.Context().Value(middlewares.ContextKeyRequestID).(string)
	slog.InfoContext(r.Context(), "starting order", "request_id", requestID, "order_id", order.OrderID)

	inst, err := h.engine.StartOrder(r.Context(), order)
	switch {
	case errors.Is(err, engine.ErrDuplicateOrder):
		writeError(w, http.StatusConflict, "duplicate_order", err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, mapStatus(inst.Status()))
}

// GetOrderStatus serves the read-only status query for a single order.
func (h *Handler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, mapStatus(inst.Status()))
}

// CancelOrder delivers the cancel signal. Fire-and-forget: the signal is
// accepted even when the order can no longer observe it (already terminal
// or past its last pre-step check).
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	inst, ok := h.instance(w, r)
	if !ok {
		return
	}
	inst.Cancel()
	w.WriteHeader(http.StatusAccepted)
}

// GetOrderResult blocks until the order reaches a terminal status and
// returns the result snapshot. Repeated fetches return the identical value;
// terminal results are additionally kept in the shared cache so reattaching
// clients can be served without touching the engine.
func (h *Handler) GetOrderResult(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "order_id_required", "")
		return
	}

	if h.results != nil {
		key := h.results.GenerateKey("result", orderID)
		if raw, err := h.results.Get(r.Context(), key); err == nil && raw != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(raw))
			return
		}
	}

	inst, ok := h.engine.Instance(orderID)
	if !ok {
		writeError(w, http.StatusNotFound, "order_not_found", "")
		return
	}

	result, err := inst.Result(r.Context())
	if err != nil {
		// Client went away before the order finished; it can reattach later.
		writeError(w, http.StatusGatewayTimeout, "result_not_ready", err.Error())
		return
	}

	resp := mapResult(result)
	if h.results != nil {
		if raw, err := json.Marshal(resp); err == nil {
			key := h.results.GenerateKey("result", orderID)
			if err := h.results.Set(r.Context(), key, string(raw), resultCacheTTL); err != nil {
				slog.WarnContext(r.Context(), "failed to cache order result", "order_id", orderID, "error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) instance(w http.ResponseWriter, r *http.Request) (*engine.Instance, bool) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "order_id_required", "")
		return nil, false
	}
	inst, ok := h.engine.Instance(orderID)
	if !ok {
		writeError(w, http.StatusNotFound, "order_not_found", "")
		return nil, false
	}
	return inst, true
}

func mapStatus(s domain.StatusSnapshot) StatusResponse {
	return StatusResponse{
		OrderID:     s.OrderID,
		Charged:     s.Charged,
		Brewed:      s.Brewed,
		ReceiptSent: s.ReceiptSent,
		Cancelled:   s.Cancelled,
		AmountCents: s.AmountCents,
		Status:      string(s.Status),
	}
}

func mapResult(r domain.OrderResult) ResultResponse {
	return ResultResponse{
		OrderID:     r.OrderID,
		Status:      string(r.Status),
		Charged:     r.Charged,
		Brewed:      r.Brewed,
		ReceiptSent: r.ReceiptSent,
		AmountCents: r.AmountCents,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}
