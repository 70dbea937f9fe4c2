package handlers

import (
	"context"
	"net/http"

	"donationfeed/internal/announcements"
)

type cachePeeker interface {
	Peek(ctx context.Context) announcements.Result
}

// Health always answers 200 because feeds degrade instead of failing. The
// announcement cache state comes from a read-only peek; the check never seeds
// or repairs the cache.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if peeker, ok := a.Cache.(cachePeeker); ok {
		body["announcementCache"] = string(peeker.Peek(r.Context()).State)
	}
	a.json(w, http.StatusOK, body)
}
