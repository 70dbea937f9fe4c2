package announcements

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"donationfeed/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Prepare normalizes an announcement authored by an administrator: fields are
// trimmed, blank audience/priority/author get the board defaults, and a zero
// timestamp is replaced by now. Timestamps are kept in UTC at millisecond
// precision because they double as removal keys.
func Prepare(in domain.Announcement, now time.Time) (domain.Announcement, error) {
	out := domain.Announcement{
		Title:     strings.TrimSpace(in.Title),
		Message:   strings.TrimSpace(in.Message),
		Audience:  strings.TrimSpace(in.Audience),
		Priority:  strings.TrimSpace(in.Priority),
		Author:    strings.TrimSpace(in.Author),
		Timestamp: in.Timestamp,
	}
	if out.Audience == "" {
		out.Audience = domain.AudienceAllDonors
	}
	if out.Priority == "" {
		out.Priority = domain.PriorityNormal
	}
	if out.Author == "" {
		out.Author = domain.DefaultAuthor
	}
	if out.Timestamp.IsZero() {
		out.Timestamp = now
	}
	out.Timestamp = out.Timestamp.UTC().Truncate(time.Millisecond)

	if err := validate.Struct(out); err != nil {
		return domain.Announcement{}, fmt.Errorf("%w: %s", domain.ErrInvalidAnnouncement, describe(err))
	}
	return out, nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, field+" is required")
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
