package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/reviewdesk/internal/app"
	"github.com/okian/reviewdesk/internal/domain/catalog"
	"github.com/okian/reviewdesk/internal/domain/leaderboard"
	"github.com/okian/reviewdesk/pkg/logger"
	"github.com/okian/reviewdesk/pkg/metrics"
)

const exportTimeLayout = "20060102_150405"

type leaderboardResponse struct {
	Leaderboard []leaderboard.Row `json:"leaderboard"`
	TotalUsers  int               `json:"total_users"`
}

// reportHandler serves read-only aggregates.
type reportHandler struct {
	deps Dependencies
	cfg  settings
}

// HandleProgress handles GET /api/progress.
func (h *reportHandler) HandleProgress(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Progress())
}

// HandleLeaderboard handles GET /api/leaderboard.
func (h *reportHandler) HandleLeaderboard(w http.ResponseWriter, _ *http.Request) {
	rows := h.deps.Leaderboard()
	if rows == nil {
		rows = []leaderboard.Row{}
	}
	writeJSON(w, http.StatusOK, leaderboardResponse{Leaderboard: rows, TotalUsers: len(rows)})
}

// HandleExport handles GET /api/export/{category} and streams a CSV attachment.
func (h *reportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	exp, err := h.deps.Export(category)
	switch {
	case errors.Is(err, service.ErrInvalidCategory):
		writeMessage(w, http.StatusBadRequest, "invalid_category", "Invalid category")
		return
	case errors.Is(err, service.ErrNothingToExport):
		writeMessage(w, http.StatusBadRequest, "nothing_to_export",
			fmt.Sprintf("No %s companies to export", category))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	filename := fmt.Sprintf("%s_websites_%s.csv", exp.Category, h.cfg.now().Format(exportTimeLayout))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.WriteHeader(http.StatusOK)
	if err := catalog.WriteCSV(w, exp.Columns, exp.Reviews); err != nil {
		metrics.RecordErrorByComponent("export", "write")
		h.cfg.logger.Warn(r.Context(), "csv export interrupted",
			logger.String("category", string(exp.Category)), logger.Error(err))
	}
}
