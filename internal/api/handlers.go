package api

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/susu3304/loanbot/internal/ledger"
)

//go:embed web/index.html
var indexHTML []byte

const maxMessageLength = 2000

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleWebInterface(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(indexHTML)
}

// Protected handlers
func (a *API) handleChat(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	if len(req.Message) > maxMessageLength {
		http.Error(w, "message too long", http.StatusRequestEntityTooLarge)
		return
	}

	reply := a.engine.Handle(r.Context(), claims.UserID, req.Message)
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (a *API) handleListLoans(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	loans, err := a.loans.ListActiveLoans(r.Context(), claims.UserID)
	if err != nil {
		a.logger.Error("list loans failed", zap.String("request_id", requestID(r.Context())), zap.Error(err))
		http.Error(w, "failed to list loans", http.StatusInternalServerError)
		return
	}
	if loans == nil {
		loans = []ledger.Loan{}
	}
	writeJSON(w, http.StatusOK, loans)
}

func (a *API) handleListRepayments(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	notes, err := a.loans.Repayments(r.Context(), claims.UserID)
	if err != nil {
		a.logger.Error("list repayments failed", zap.String("request_id", requestID(r.Context())), zap.Error(err))
		http.Error(w, "failed to list repayments", http.StatusInternalServerError)
		return
	}
	if notes == nil {
		notes = []ledger.Loan{}
	}
	writeJSON(w, http.StatusOK, notes)
}
