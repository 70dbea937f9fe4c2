package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"donationfeed/internal/domain"
	"donationfeed/internal/feed"
)

type approveResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Feed    *feedResponse `json:"feed,omitempty"`
}

// ApproveDonation forwards the approval and, only when it succeeded, answers
// with a freshly built admin feed.
func (a *App) ApproveDonation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid donation id")
		return
	}

	result := a.Approver.ApproveDonation(r.Context(), id)
	resp := approveResponse{Success: result.Success, Message: result.Message}
	if result.Success {
		refreshed := a.buildFeed(r, feed.Viewer{Role: domain.RoleAdmin})
		resp.Feed = &refreshed
	} else {
		a.logger().Info().Int64("donation_id", id).Str("message", result.Message).Msg("donation approval rejected")
	}
	a.json(w, http.StatusOK, resp)
}
