package handler

import (
	"log/slog"
	"net/http"

	"github.com/tahsin/medistock/internal/service"
)

// AdminHandler serves the read-only listings the original app exposed:
// registered users and the login history.
type AdminHandler struct {
	authSvc *service.AuthService
	audit   *service.AuditLogger
	logger  *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(authSvc *service.AuthService, audit *service.AuditLogger, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{authSvc: authSvc, audit: audit, logger: logger}
}

// HandleUsers lists all local accounts, newest first.
//
// HTTP: GET /api/users
func (h *AdminHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authSvc.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("listing users failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleLoginHistory lists the audit trail, most recent event first.
//
// HTTP: GET /api/login-history
func (h *AdminHandler) HandleLoginHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.audit.History(r.Context())
	if err != nil {
		h.logger.Error("listing login history failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
