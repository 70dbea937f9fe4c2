package domain

import (
	"context"
	"time"
)

// DonationGateway reads donation snapshots from the donation server. Failures are
// absorbed by implementations and reported as empty results.
type DonationGateway interface {
	FetchUserDonations(ctx context.Context, username string) []Donation
	FetchAllDonations(ctx context.Context) []Donation
}

// AnnouncementFetcher is the primary announcement feed. It must return an error
// wrapping ErrSourceUnavailable when the source cannot be trusted, so callers can
// tell "confirmed empty" from "unreachable".
type AnnouncementFetcher interface {
	FetchAnnouncements(ctx context.Context) ([]Announcement, error)
}

// AnnouncementCache is the local fallback for announcements.
type AnnouncementCache interface {
	List(ctx context.Context) []Announcement
	Add(ctx context.Context, entry Announcement) ([]Announcement, error)
	Remove(ctx context.Context, key time.Time) ([]Announcement, error)
}

// DonationApprover moves a pending donation to approved on the server.
type DonationApprover interface {
	ApproveDonation(ctx context.Context, id int64) ActionResult
}
