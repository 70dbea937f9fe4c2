package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"donationfeed/internal/announcements"
	"donationfeed/internal/domain"
)

const maxAnnouncementBody = 64 << 10

type announcementsResponse struct {
	Announcements []domain.Announcement `json:"announcements"`
}

func (a *App) ListLocalAnnouncements(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, announcementsResponse{Announcements: nonNil(a.Cache.List(r.Context()))})
}

func (a *App) CreateLocalAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req domain.Announcement
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnnouncementBody))
	if err := dec.Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Author) == "" && a.DefaultAuthor != "" {
		req.Author = a.DefaultAuthor
	}
	entry, err := announcements.Prepare(req, a.now())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAnnouncement) {
			a.error(w, http.StatusBadRequest, "invalid_announcement", err.Error())
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to prepare announcement")
		return
	}

	list, err := a.Cache.Add(r.Context(), entry)
	if err != nil {
		a.logger().Error().Err(err).Msg("announcement cache write failed")
		a.error(w, http.StatusServiceUnavailable, "cache_unavailable", "announcement cache unavailable")
		return
	}
	a.json(w, http.StatusCreated, announcementsResponse{Announcements: nonNil(list)})
}

// DeleteLocalAnnouncement removes by timestamp key, given as RFC 3339.
func (a *App) DeleteLocalAnnouncement(w http.ResponseWriter, r *http.Request) {
	raw, err := url.PathUnescape(chi.URLParam(r, "timestamp"))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid timestamp")
		return
	}
	key, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "timestamp must be RFC 3339")
		return
	}

	list, err := a.Cache.Remove(r.Context(), key)
	if err != nil {
		a.logger().Error().Err(err).Msg("announcement cache write failed")
		a.error(w, http.StatusServiceUnavailable, "cache_unavailable", "announcement cache unavailable")
		return
	}
	a.json(w, http.StatusOK, announcementsResponse{Announcements: nonNil(list)})
}

func nonNil(list []domain.Announcement) []domain.Announcement {
	if list == nil {
		return []domain.Announcement{}
	}
	return list
}
