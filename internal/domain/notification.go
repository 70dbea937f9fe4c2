package domain

import "time"

// Role selects which donations a viewer may see.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// EntryKind tags the payload carried by a NotificationEntry.
type EntryKind string

const (
	EntrySection      EntryKind = "section"
	EntryDonation     EntryKind = "donation"
	EntryAnnouncement EntryKind = "announcement"
	EntryPlaceholder  EntryKind = "placeholder"
)

// AnnouncementSource records where the announcement section of a feed came from.
type AnnouncementSource string

const (
	SourceRemote AnnouncementSource = "remote"
	SourceLocal  AnnouncementSource = "local"
	SourceNone   AnnouncementSource = "none"
)

// NotificationEntry is one element of a feed. Exactly one payload matching Kind is set.
type NotificationEntry struct {
	Kind         EntryKind                 `json:"kind"`
	Section      *SectionMarker            `json:"section,omitempty"`
	Donation     *DonationNotification     `json:"donation,omitempty"`
	Announcement *AnnouncementNotification `json:"announcement,omitempty"`
	Placeholder  *Placeholder              `json:"placeholder,omitempty"`
}

type SectionMarker struct {
	Title string `json:"title"`
}

type Placeholder struct {
	Text string `json:"text"`
}

// DonationNotification carries everything needed to render a donation status update.
type DonationNotification struct {
	ID           int64          `json:"id"`
	Username     string         `json:"username"`
	FullName     string         `json:"fullName"`
	DonationType DonationType   `json:"donationType"`
	Amount       float64        `json:"amount"`
	Message      string         `json:"message,omitempty"`
	Status       DonationStatus `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	ApprovedAt   *time.Time     `json:"approvedAt,omitempty"`
}

type AnnouncementNotification struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Audience  string    `json:"audience"`
	Priority  string    `json:"priority"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}

// Feed is the aggregated, render-ready view for one viewer. It is rebuilt on every request.
type Feed struct {
	Role               Role                `json:"role"`
	Username           string              `json:"username,omitempty"`
	GeneratedAt        time.Time           `json:"generatedAt"`
	AnnouncementSource AnnouncementSource  `json:"announcementSource"`
	Entries            []NotificationEntry `json:"entries"`
}

func SectionEntry(title string) NotificationEntry {
	return NotificationEntry{Kind: EntrySection, Section: &SectionMarker{Title: title}}
}

func PlaceholderEntry(text string) NotificationEntry {
	return NotificationEntry{Kind: EntryPlaceholder, Placeholder: &Placeholder{Text: text}}
}

func DonationEntry(d Donation) NotificationEntry {
	return NotificationEntry{Kind: EntryDonation, Donation: &DonationNotification{
		ID:           d.ID,
		Username:     d.Username,
		FullName:     d.FullName,
		DonationType: d.DonationType,
		Amount:       d.Amount,
		Message:      d.Message,
		Status:       d.Status,
		CreatedAt:    d.CreatedAt,
		ApprovedAt:   d.ApprovedAt,
	}}
}

func AnnouncementEntry(a Announcement) NotificationEntry {
	return NotificationEntry{Kind: EntryAnnouncement, Announcement: &AnnouncementNotification{
		Title:     a.Title,
		Message:   a.Message,
		Audience:  a.Audience,
		Priority:  a.Priority,
		Author:    a.Author,
		Timestamp: a.Timestamp,
	}}
}
