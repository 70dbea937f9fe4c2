// Package feed assembles the notification feed shown to donors and administrators.
package feed

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"donationfeed/internal/domain"
	"donationfeed/internal/infra"
	"donationfeed/internal/metrics"
)

// AdminDonationLimit caps the donations an administrator sees, applied to the
// most recent records before status filtering.
const AdminDonationLimit = 20

const (
	PendingHeading        = "Pending"
	ApprovedHeading       = "Approved"
	NoDonationsText       = "No donations yet"
	UserAnnouncementHead  = "Community Announcements"
	AdminAnnouncementHead = "Posted Announcements"
)

// Viewer identifies who the feed is built for. Username is required for RoleUser.
type Viewer struct {
	Role     domain.Role
	Username string
}

// Option customizes an Aggregator.
type Option func(*Aggregator)

// WithClock injects the time source used to stamp feeds.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the logger used for fallback and degradation events.
func WithLogger(l *infra.Logger) Option {
	return func(a *Aggregator) {
		a.logger = infra.LoggerOrDiscard(l)
	}
}

// Aggregator merges donation status updates with announcements. It holds no
// state between calls; every Build reads its sources again.
type Aggregator struct {
	donations domain.DonationGateway
	remote    domain.AnnouncementFetcher
	local     domain.AnnouncementCache
	now       func() time.Time
	logger    *infra.Logger
}

func New(donations domain.DonationGateway, remote domain.AnnouncementFetcher, local domain.AnnouncementCache, opts ...Option) *Aggregator {
	a := &Aggregator{
		donations: donations,
		remote:    remote,
		local:     local,
		now:       time.Now,
		logger:    infra.LoggerOrDiscard(nil),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build produces the feed for viewer. It never fails: unreadable donations
// yield an empty donation section, and an unavailable announcement source falls
// back to the local cache.
func (a *Aggregator) Build(ctx context.Context, viewer Viewer) domain.Feed {
	feed := domain.Feed{
		Role:        viewer.Role,
		Username:    viewer.Username,
		GeneratedAt: a.now(),
	}

	pending, approved := partition(a.loadDonations(ctx, viewer))
	if len(pending) > 0 {
		feed.Entries = append(feed.Entries, domain.SectionEntry(PendingHeading))
		for _, d := range pending {
			feed.Entries = append(feed.Entries, domain.DonationEntry(d))
		}
	}
	if len(approved) > 0 {
		feed.Entries = append(feed.Entries, domain.SectionEntry(ApprovedHeading))
		for _, d := range approved {
			feed.Entries = append(feed.Entries, domain.DonationEntry(d))
		}
	}
	if len(pending) == 0 && len(approved) == 0 {
		feed.Entries = append(feed.Entries, domain.PlaceholderEntry(NoDonationsText))
	}

	announcements, source := a.resolveAnnouncements(ctx)
	feed.AnnouncementSource = source
	if len(announcements) > 0 {
		feed.Entries = append(feed.Entries, domain.SectionEntry(announcementHeading(viewer.Role)))
		for _, ann := range announcements {
			feed.Entries = append(feed.Entries, domain.AnnouncementEntry(ann))
		}
	}

	metrics.FeedBuilds.WithLabelValues(string(viewer.Role), string(source)).Inc()
	return feed
}

func (a *Aggregator) loadDonations(ctx context.Context, viewer Viewer) []domain.Donation {
	switch viewer.Role {
	case domain.RoleAdmin:
		all := slices.Clone(a.donations.FetchAllDonations(ctx))
		slices.SortStableFunc(all, func(x, y domain.Donation) int {
			return y.CreatedAt.Compare(x.CreatedAt)
		})
		if len(all) > AdminDonationLimit {
			all = all[:AdminDonationLimit]
		}
		return all
	case domain.RoleUser:
		if strings.TrimSpace(viewer.Username) == "" {
			a.logger.Warn().Msg("feed: user feed requested without username")
			return nil
		}
		return a.donations.FetchUserDonations(ctx, viewer.Username)
	default:
		a.logger.Warn().Str("role", string(viewer.Role)).Msg("feed: unknown role, no donations shown")
		return nil
	}
}

// partition keeps PENDING and APPROVED donations and orders each group newest
// first. Approved donations sort by approval time when the server provides it.
func partition(donations []domain.Donation) (pending, approved []domain.Donation) {
	for _, d := range donations {
		switch d.Status {
		case domain.StatusPending:
			pending = append(pending, d)
		case domain.StatusApproved:
			approved = append(approved, d)
		}
	}
	slices.SortStableFunc(pending, func(x, y domain.Donation) int {
		return y.CreatedAt.Compare(x.CreatedAt)
	})
	slices.SortStableFunc(approved, func(x, y domain.Donation) int {
		return y.EffectiveTime().Compare(x.EffectiveTime())
	})
	return pending, approved
}

func (a *Aggregator) resolveAnnouncements(ctx context.Context) ([]domain.Announcement, domain.AnnouncementSource) {
	remote, err := a.remote.FetchAnnouncements(ctx)
	if err == nil && len(remote) > 0 {
		sorted := slices.Clone(remote)
		slices.SortStableFunc(sorted, func(x, y domain.Announcement) int {
			return y.Timestamp.Compare(x.Timestamp)
		})
		return sorted, domain.SourceRemote
	}

	event := a.logger.Debug()
	if err != nil && !errors.Is(err, domain.ErrSourceUnavailable) {
		event = a.logger.Warn()
	}
	event.Err(err).Int("remote_count", len(remote)).Msg("feed: using local announcement cache")

	local := a.local.List(ctx)
	if len(local) == 0 {
		return nil, domain.SourceNone
	}
	return local, domain.SourceLocal
}

func announcementHeading(role domain.Role) string {
	if role == domain.RoleAdmin {
		return AdminAnnouncementHead
	}
	return UserAnnouncementHead
}
