package api

import (
	"net/http"

	service "github.com/okian/reviewdesk/internal/app"
	"github.com/okian/reviewdesk/pkg/logger"
)

type resetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type assignmentsResponse struct {
	CurrentUser            string                   `json:"current_user"`
	Assignments            []service.AssignmentView `json:"assignments"`
	CurrentUserAssignments []int                    `json:"current_user_assignments"`
	TotalCompanies         int                      `json:"total_companies"`
}

type testResponse struct {
	Status          string `json:"status"`
	Message         string `json:"message"`
	CompaniesLoaded int    `json:"companies_loaded"`
}

// adminHandler serves operator routes. They are not authenticated.
type adminHandler struct {
	deps Dependencies
	cfg  settings
}

// HandleReset handles POST /api/admin/reset.
func (h *adminHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.deps.Reset(r.Context())
	h.cfg.logger.Info(r.Context(), "admin reset",
		logger.String("request_id", RequestIDFrom(r.Context())))
	writeJSON(w, http.StatusOK, resetResponse{
		Success: true,
		Message: "All progress and leaderboard reset successfully",
	})
}

// HandleStats handles GET /api/admin/stats.
func (h *adminHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.AdminStats())
}

// HandleAssignments handles GET /api/debug/assignments.
func (h *adminHandler) HandleAssignments(w http.ResponseWriter, r *http.Request) {
	holder := HolderFrom(r.Context())
	mine := h.deps.HeldBy(holder)
	if mine == nil {
		mine = []int{}
	}
	writeJSON(w, http.StatusOK, assignmentsResponse{
		CurrentUser:            logger.ShortHolder(holder),
		Assignments:            h.deps.Assignments(),
		CurrentUserAssignments: mine,
		TotalCompanies:         h.deps.CatalogSize(),
	})
}

// HandleTest handles GET /api/test.
func (h *adminHandler) HandleTest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, testResponse{
		Status:          "success",
		Message:         "API is working!",
		CompaniesLoaded: h.deps.CatalogSize(),
	})
}
