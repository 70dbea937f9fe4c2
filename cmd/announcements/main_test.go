package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"donationfeed/internal/domain"
)

func setupFileCache(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("CACHE_BACKEND", "file")
	t.Setenv("CACHE_PATH", t.TempDir())
	t.Setenv("ANNOUNCEMENT_DEFAULT_AUTHOR", "Barangay Office")
}

func runJSON(t *testing.T, now time.Time, args ...string) []domain.Announcement {
	t.Helper()
	var out bytes.Buffer
	if err := run(context.Background(), args, &out, func() time.Time { return now }); err != nil {
		t.Fatalf("run(%v): %v", args, err)
	}
	var list []domain.Announcement
	if err := json.Unmarshal(out.Bytes(), &list); err != nil {
		t.Fatalf("decode output: %v (%s)", err, out.String())
	}
	return list
}

func TestAddListRemove(t *testing.T) {
	setupFileCache(t)
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	seeded := runJSON(t, now, "-action", "list")
	if len(seeded) != 2 {
		t.Fatalf("seeded list = %d entries, want 2", len(seeded))
	}

	posted := now.Add(time.Hour)
	added := runJSON(t, now, "-action", "add", "-title", "Clothing drive", "-message", "Bring clothes", "-timestamp", posted.Format(time.RFC3339))
	if len(added) != 3 || added[0].Title != "Clothing drive" {
		t.Fatalf("after add = %+v", added)
	}
	if added[0].Author != "Barangay Office" {
		t.Fatalf("author = %q, want %q", added[0].Author, "Barangay Office")
	}

	listed := runJSON(t, now, "-action", "list")
	if len(listed) != 3 || !listed[0].Timestamp.Equal(posted) {
		t.Fatalf("list did not persist across runs: %+v", listed)
	}

	removed := runJSON(t, now, "-action", "remove", "-timestamp", posted.Format(time.RFC3339))
	if len(removed) != 2 {
		t.Fatalf("after remove = %d entries, want 2", len(removed))
	}
}

func TestRunErrors(t *testing.T) {
	setupFileCache(t)
	now := func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) }
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown action", []string{"-action", "purge"}, "unsupported action"},
		{"remove without key", []string{"-action", "remove"}, "-timestamp is required"},
		{"bad timestamp", []string{"-action", "remove", "-timestamp", "yesterday"}, "invalid -timestamp"},
		{"missing title", []string{"-action", "add", "-message", "m"}, "title is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := run(context.Background(), tc.args, &bytes.Buffer{}, now)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("run error = %v, want containing %q", err, tc.want)
			}
		})
	}

	err := run(context.Background(), []string{"-action", "add", "-title", "t"}, &bytes.Buffer{}, now)
	if !errors.Is(err, domain.ErrInvalidAnnouncement) {
		t.Fatalf("missing message error = %v, want ErrInvalidAnnouncement", err)
	}
}
