package domain

import "time"

const (
	AudienceAllDonors = "All Donors"
	AudienceVolunteer = "Volunteers"

	PriorityNormal    = "Normal"
	PriorityImportant = "Important"
	PriorityUrgent    = "Urgent"

	DefaultAuthor = "Administrator"
)

// Announcement is a broadcast community notice. It has no owner; Timestamp doubles
// as its key inside the local cache.
type Announcement struct {
	Title     string    `json:"title" validate:"required,max=200"`
	Message   string    `json:"message" validate:"required,max=4000"`
	Audience  string    `json:"audience" validate:"max=100"`
	Priority  string    `json:"priority" validate:"max=50"`
	Author    string    `json:"author" validate:"max=100"`
	Timestamp time.Time `json:"timestamp"`
}
