// Package render turns an aggregated feed into display fragments.
package render

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"donationfeed/internal/domain"
)

// DateLayout matches the en-US "short month, 2-digit hour" display used by the web client.
const DateLayout = "Jan 2, 2006, 03:04 PM"

const itemsPrefix = "Items:"

var printer = message.NewPrinter(language.English)

// titleCase builds a new Caser per call; Casers keep state and are not safe for concurrent use.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// Fragment is a display-ready view of one feed entry.
type Fragment struct {
	Kind    domain.EntryKind `json:"kind"`
	Heading string           `json:"heading,omitempty"`
	Title   string           `json:"title,omitempty"`
	Body    string           `json:"body,omitempty"`
	Badge   string           `json:"badge,omitempty"`
	Meta    string           `json:"meta,omitempty"`
	When    string           `json:"when,omitempty"`
}

// Feed formats every entry of feed. Dates are shown in now's location and
// announcement ages are measured against now.
func Feed(feed domain.Feed, now time.Time) []Fragment {
	out := make([]Fragment, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		switch e.Kind {
		case domain.EntrySection:
			if e.Section != nil {
				out = append(out, Fragment{Kind: e.Kind, Heading: e.Section.Title})
			}
		case domain.EntryPlaceholder:
			if e.Placeholder != nil {
				out = append(out, Fragment{Kind: e.Kind, Body: e.Placeholder.Text})
			}
		case domain.EntryDonation:
			if e.Donation != nil {
				out = append(out, donation(*e.Donation, now.Location()))
			}
		case domain.EntryAnnouncement:
			if e.Announcement != nil {
				out = append(out, announcement(*e.Announcement, now))
			}
		}
	}
	return out
}

func donation(d domain.DonationNotification, loc *time.Location) Fragment {
	f := Fragment{
		Kind:  domain.EntryDonation,
		Title: fmt.Sprintf("%s donation", titleCase(string(d.DonationType))),
		Body:  DonationSummary(d),
		Badge: titleCase(string(d.Status)),
	}
	if donor := strings.TrimSpace(d.FullName); donor != "" {
		f.Meta = donor
	} else {
		f.Meta = d.Username
	}

	when := d.CreatedAt
	if d.Status == domain.StatusApproved && d.ApprovedAt != nil && !d.ApprovedAt.IsZero() {
		when = *d.ApprovedAt
	}
	f.When = FormatDate(when, loc)
	return f
}

func announcement(a domain.AnnouncementNotification, now time.Time) Fragment {
	meta := []string{}
	if a.Author != "" {
		meta = append(meta, "by "+a.Author)
	}
	if a.Audience != "" {
		meta = append(meta, "for "+a.Audience)
	}
	meta = append(meta, RelativeAge(a.Timestamp, now))

	return Fragment{
		Kind:  domain.EntryAnnouncement,
		Title: a.Title,
		Body:  a.Message,
		Badge: a.Priority,
		Meta:  strings.Join(meta, ", "),
		When:  FormatDate(a.Timestamp, now.Location()),
	}
}

// DonationSummary is the one-line description of what was donated.
func DonationSummary(d domain.DonationNotification) string {
	if d.DonationType == domain.DonationCash {
		return FormatAmount(d.Amount)
	}
	if first, _, _ := strings.Cut(d.Message, "\n"); strings.HasPrefix(first, itemsPrefix) {
		if items := strings.TrimSpace(strings.TrimPrefix(first, itemsPrefix)); items != "" {
			return itemsPrefix + " " + items
		}
	}
	return titleCase(string(d.DonationType))
}

// FormatAmount renders a peso amount with English digit grouping, e.g. ₱1,500.00.
func FormatAmount(amount float64) string {
	return "₱" + printer.Sprintf("%.2f", amount)
}

func FormatDate(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}

// RelativeAge describes how long before now t happened. Future times read as "just now".
func RelativeAge(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d/(24*time.Hour)), "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
