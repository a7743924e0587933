package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"
)

type handlers struct {
	deps Dependencies
}

type errorResponse struct {
	Error       string                    `json:"error"`
	Message     string                    `json:"message"`
	Transaction *models.BridgeTransaction `json:"transaction,omitempty"`
}

type subscriptionResponse struct {
	Id string `json:"id"`
}

type healthResponse struct {
	Healthy        bool                   `json:"healthy"`
	ServiceHealths []models.ServiceHealth `json:"service_healths"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrSubmission):
		return http.StatusBadGateway
	case common.IsValidationError(err):
		return http.StatusBadRequest
	case common.IsNotFound(err):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("[HTTP] Error writing response")
	}
}

func writeError(w http.ResponseWriter, err error, tx *models.BridgeTransaction) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("[HTTP] Request failed")
	}
	writeJSON(w, status, errorResponse{
		Error:       common.ErrorKind(err),
		Message:     err.Error(),
		Transaction: tx,
	})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "BadRequest", Message: message})
}

func (h *handlers) createTransfer(w http.ResponseWriter, r *http.Request) {
	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	tx, err := h.deps.Transfers.CreateTransfer(r.Context(), req)
	if err != nil {
		writeError(w, err, tx)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *handlers) getTransfer(w http.ResponseWriter, r *http.Request) {
	tx, err := h.deps.Transfers.GetTransfer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (h *handlers) listTransfersFor(w http.ResponseWriter, r *http.Request) {
	txs, err := h.deps.Transfers.ListTransfersFor(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *handlers) listActive(w http.ResponseWriter, r *http.Request) {
	txs, err := h.deps.Active.ListActive(r.Context())
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *handlers) getStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Stats.GetStats())
}

func (h *handlers) subscribe(w http.ResponseWriter, r *http.Request) {
	var sub models.Subscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	id, err := h.deps.Notifications.Subscribe(sub)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, subscriptionResponse{Id: id})
}

func (h *handlers) unsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Notifications.Unsubscribe(chi.URLParam(r, "id")); err != nil {
		writeError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Notifications.History(chi.URLParam(r, "recipient")))
}

func (h *handlers) failures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Notifications.Failures())
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Healthy: true, ServiceHealths: []models.ServiceHealth{}}
	if h.deps.Health != nil {
		resp.ServiceHealths = h.deps.Health()
	}
	for _, s := range resp.ServiceHealths {
		if !s.Healthy {
			resp.Healthy = false
		}
	}

	status := http.StatusOK
	if !resp.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
