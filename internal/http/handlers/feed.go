package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"donationfeed/internal/domain"
	"donationfeed/internal/feed"
	"donationfeed/internal/render"
)

type feedResponse struct {
	Feed      domain.Feed       `json:"feed"`
	Fragments []render.Fragment `json:"fragments"`
}

// UserFeed serves the donor view. Gateway and cache trouble never surfaces as
// an error here; the aggregator degrades instead.
func (a *App) UserFeed(w http.ResponseWriter, r *http.Request) {
	username, err := url.PathUnescape(chi.URLParam(r, "username"))
	if err != nil || strings.TrimSpace(username) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "username required")
		return
	}
	a.json(w, http.StatusOK, a.buildFeed(r, feed.Viewer{Role: domain.RoleUser, Username: username}))
}

func (a *App) AdminFeed(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.buildFeed(r, feed.Viewer{Role: domain.RoleAdmin}))
}

func (a *App) buildFeed(r *http.Request, viewer feed.Viewer) feedResponse {
	f := a.Feed.Build(r.Context(), viewer)
	return feedResponse{Feed: f, Fragments: render.Feed(f, a.now())}
}
