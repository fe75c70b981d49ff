package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	service "github.com/okian/reviewdesk/internal/app"
	"github.com/okian/reviewdesk/internal/domain/leaderboard"
	"github.com/okian/reviewdesk/internal/domain/model"
	"github.com/okian/reviewdesk/pkg/logger"
)

const (
	msgAssignmentExpired = "Unable to mark company - assignment may have expired"
	msgWrongOwner        = "This company is assigned to another reviewer - reload to get your own"
	msgUsernameRequired  = "Username is required"
	msgMissingIndex      = "No company index provided"
	msgTryLater          = "All remaining companies are assigned to other reviewers - try again later"
)

// itemView is an item as the browser renders it.
type itemView struct {
	Index   int               `json:"company_index"`
	Company map[string]string `json:"company"`
}

func newItemView(it model.Item) itemView {
	return itemView{Index: it.Position, Company: it.Fields}
}

type currentResponse struct {
	RequiresUsername bool               `json:"requires_username,omitempty"`
	Finished         bool               `json:"finished"`
	Message          string             `json:"message,omitempty"`
	Company          map[string]string  `json:"company,omitempty"`
	CompanyIndex     *int               `json:"company_index,omitempty"`
	Preloaded        []itemView         `json:"preloaded,omitempty"`
	Progress         service.Progress   `json:"progress"`
	UserID           string             `json:"user_id,omitempty"`
	Username         string             `json:"username,omitempty"`
	UserStats        *leaderboard.Entry `json:"user_stats,omitempty"`
}

type usernameResponse struct {
	Success   bool               `json:"success"`
	Username  string             `json:"username"`
	UserStats *leaderboard.Entry `json:"user_stats,omitempty"`
}

type checkUsernameResponse struct {
	HasUsername bool   `json:"has_username"`
	Username    string `json:"username,omitempty"`
}

type markResponse struct {
	Success   bool               `json:"success"`
	Duplicate bool               `json:"duplicate,omitempty"`
	Category  model.Category     `json:"category,omitempty"`
	UserStats *leaderboard.Entry `json:"user_stats,omitempty"`
}

// reviewHandler serves the reviewer-facing routes.
type reviewHandler struct {
	deps Dependencies
	cfg  settings
}

// HandleCurrent handles GET /api/current?preload=N.
func (h *reviewHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	holder := HolderFrom(ctx)
	if holder == "" {
		writeError(w, http.StatusBadRequest, "no_holder", ErrNoHolder)
		return
	}

	preload := 0
	if raw := r.URL.Query().Get("preload"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrInvalidQuery)
			return
		}
		preload = n
	}

	username, ok := h.resolveUsername(w, r, holder)
	if !ok {
		writeJSON(w, http.StatusOK, currentResponse{
			RequiresUsername: true,
			Progress:         h.deps.Progress(),
		})
		return
	}
	stats := h.userStats(username)

	a, err := h.deps.GetAssignment(ctx, holder, preload)
	if errors.Is(err, service.ErrCatalogExhausted) {
		p := h.deps.Progress()
		resp := currentResponse{
			Finished:  true,
			Progress:  p,
			Username:  username,
			UserStats: stats,
		}
		if p.Completed < p.Total {
			resp.Message = msgTryLater
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}
	if err != nil {
		h.cfg.logger.Error(ctx, "assignment failed", logger.Holder(holder), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}

	idx := a.Current.Position
	resp := currentResponse{
		Company:      a.Current.Fields,
		CompanyIndex: &idx,
		Progress:     h.deps.Progress(),
		UserID:       logger.ShortHolder(holder),
		Username:     username,
		UserStats:    stats,
	}
	for _, it := range a.Preloaded {
		resp.Preloaded = append(resp.Preloaded, newItemView(it))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleCheckUsername handles GET /api/check-username.
func (h *reviewHandler) HandleCheckUsername(w http.ResponseWriter, r *http.Request) {
	holder := HolderFrom(r.Context())
	if holder == "" {
		writeError(w, http.StatusBadRequest, "no_holder", ErrNoHolder)
		return
	}
	name, ok := h.resolveUsername(w, r, holder)
	writeJSON(w, http.StatusOK, checkUsernameResponse{HasUsername: ok, Username: name})
}

// HandleSetUsername handles POST /api/set-username.
func (h *reviewHandler) HandleSetUsername(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	holder := HolderFrom(ctx)
	if holder == "" {
		writeError(w, http.StatusBadRequest, "no_holder", ErrNoHolder)
		return
	}

	var req usernameRequest
	if err := decodeRequest(r, &req); err != nil {
		if missingField(err, "Username") {
			writeMessage(w, http.StatusBadRequest, "username_required", msgUsernameRequired)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	entry, err := h.deps.RegisterUsername(ctx, holder, req.Username)
	if errors.Is(err, service.ErrEmptyUsername) {
		writeMessage(w, http.StatusBadRequest, "username_required", msgUsernameRequired)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	h.setUsernameCookie(w, entry.Username)
	writeJSON(w, http.StatusOK, usernameResponse{
		Success:   true,
		Username:  entry.Username,
		UserStats: &entry,
	})
}

// HandleMark handles POST /api/mark.
func (h *reviewHandler) HandleMark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	holder := HolderFrom(ctx)
	if holder == "" {
		writeError(w, http.StatusBadRequest, "no_holder", ErrNoHolder)
		return
	}

	var req markRequest
	if err := decodeRequest(r, &req); err != nil {
		if missingField(err, "CompanyIndex") {
			writeMessage(w, http.StatusBadRequest, "missing_index", msgMissingIndex)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	// request ids are scoped to the holder so two browsers cannot collide
	var requestID string
	if req.RequestID != "" {
		requestID = holder + ":" + req.RequestID
	}

	v, err := h.deps.RecordVerdictOnce(ctx, holder, requestID, *req.CompanyIndex, req.Liked)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateRequest):
			writeJSON(w, http.StatusOK, markResponse{Success: true, Duplicate: true})
		case errors.Is(err, service.ErrOutOfRange):
			writeError(w, http.StatusBadRequest, "out_of_range", err)
		case errors.Is(err, service.ErrNotAssigned):
			writeMessage(w, http.StatusConflict, "assignment_expired", msgAssignmentExpired)
		case errors.Is(err, service.ErrWrongOwner):
			writeMessage(w, http.StatusConflict, "wrong_owner", msgWrongOwner)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}

	resp := markResponse{Success: true, Category: model.CategoryOf(v.Review.Liked)}
	if v.Stats.Username != "" {
		resp.UserStats = &v.Stats
	}
	writeJSON(w, http.StatusOK, resp)
}

// resolveUsername returns the holder's username. Stale sessions are expired
// first; a holder whose session lapsed is re-bound from the username cookie.
func (h *reviewHandler) resolveUsername(w http.ResponseWriter, r *http.Request, holder string) (string, bool) {
	h.deps.ExpireSessions(r.Context())
	if name, ok := h.deps.Username(holder); ok && name != "" {
		return name, true
	}
	c, err := r.Cookie(h.cfg.usernameCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		h.clearUsernameCookie(w)
		return "", false
	}
	entry, err := h.deps.RegisterUsername(r.Context(), holder, raw)
	if err != nil {
		h.clearUsernameCookie(w)
		return "", false
	}
	return entry.Username, true
}

func (h *reviewHandler) userStats(username string) *leaderboard.Entry {
	if e, ok := h.deps.UserStats(username); ok {
		return &e
	}
	return nil
}

func (h *reviewHandler) setUsernameCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.usernameCookie,
		Value:    url.QueryEscape(name),
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *reviewHandler) clearUsernameCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   h.cfg.usernameCookie,
		Path:   "/",
		MaxAge: -1,
	})
}
