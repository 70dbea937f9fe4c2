package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"donationfeed/internal/domain"
	"donationfeed/internal/feed"
	"donationfeed/internal/infra"
)

// App carries the collaborators shared by every handler.
type App struct {
	Feed          *feed.Aggregator
	Approver      domain.DonationApprover
	Cache         domain.AnnouncementCache
	DefaultAuthor string
	// Location is used when rendering dates; nil keeps UTC.
	Location *time.Location
	Logger   *infra.Logger
	Now      func() time.Time
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorBody{Error: errorDetail{Code: errCode, Message: message}})
}

func (a *App) now() time.Time {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	loc := a.Location
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc)
}

func (a *App) logger() *infra.Logger {
	return infra.LoggerOrDiscard(a.Logger)
}
