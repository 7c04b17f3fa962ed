package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/hirepro/funnel/internal/entity"
)

// LookupHandler serves the bot when it runs as a separate process from the
// web app and cannot share the database: an authenticated read of one lead
// by canonical phone.
type LookupHandler struct {
	leads    entity.LeadRepositoryInterface
	adminKey string
}

func NewLookupHandler(leads entity.LeadRepositoryInterface, adminKey string) *LookupHandler {
	return &LookupHandler{leads: leads, adminKey: adminKey}
}

type lookupResponse struct {
	OK    bool         `json:"ok"`
	Error string       `json:"error,omitempty"`
	Row   *entity.Lead `json:"row,omitempty"`
}

func (h *LookupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if h.adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.adminKey)) != 1 {
		writeJSON(w, http.StatusUnauthorized, lookupResponse{OK: false, Error: "Unauthorized"})
		return
	}

	e164 := r.URL.Query().Get("e164")
	if e164 == "" {
		writeJSON(w, http.StatusBadRequest, lookupResponse{OK: false, Error: "Missing e164"})
		return
	}

	lead, err := h.leads.FindByPhone(r.Context(), e164)
	if errors.Is(err, entity.ErrLeadNotFound) {
		writeJSON(w, http.StatusNotFound, lookupResponse{OK: false, Error: "Not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, lookupResponse{OK: false, Error: "Server error"})
		return
	}

	writeJSON(w, http.StatusOK, lookupResponse{OK: true, Row: lead})
}
