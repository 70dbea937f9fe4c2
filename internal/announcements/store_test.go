package announcements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"donationfeed/internal/domain"
	"donationfeed/internal/storage"
)

var baseTime = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return baseTime }

type faultyKV struct {
	*storage.MemoryKV
	getErr error
	setErr error
}

func (f *faultyKV) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return f.MemoryKV.Get(ctx, key)
}

func (f *faultyKV) Set(ctx context.Context, key, value string) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func newTestStore(kv storage.KV) *Store {
	return NewStore(kv, Options{Clock: fixedClock})
}

func stored(t *testing.T, kv storage.KV) []domain.Announcement {
	t.Helper()
	raw, err := kv.Get(context.Background(), DefaultKey)
	if err != nil {
		t.Fatalf("read stored payload: %v", err)
	}
	var items []domain.Announcement
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("decode stored payload: %v", err)
	}
	return items
}

func TestListSeedsDefaultsOnFirstUse(t *testing.T) {
	kv := storage.NewMemoryKV()
	store := newTestStore(kv)

	res := store.Load(context.Background())
	if res.State != StateSeeded {
		t.Fatalf("State = %q, want %q", res.State, StateSeeded)
	}
	if len(res.Announcements) != 2 {
		t.Fatalf("expected 2 seed announcements, got %d", len(res.Announcements))
	}
	if res.Announcements[0].Title != "Barangay Relief Packing" || res.Announcements[1].Title != "Typhoon Response Update" {
		t.Fatalf("unexpected seed order: %q, %q", res.Announcements[0].Title, res.Announcements[1].Title)
	}
	if !res.Announcements[0].Timestamp.Equal(baseTime) {
		t.Fatalf("first seed timestamp = %s, want %s", res.Announcements[0].Timestamp, baseTime)
	}
	if !res.Announcements[1].Timestamp.Equal(baseTime.Add(-24 * time.Hour)) {
		t.Fatalf("second seed timestamp = %s, want 24h earlier", res.Announcements[1].Timestamp)
	}
	if got := stored(t, kv); len(got) != 2 {
		t.Fatalf("seeds not persisted, stored %d", len(got))
	}

	again := store.Load(context.Background())
	if again.State != StateOK {
		t.Fatalf("second Load State = %q, want %q", again.State, StateOK)
	}
	if len(again.Announcements) != 2 || again.Announcements[0].Title != "Barangay Relief Packing" {
		t.Fatalf("second Load returned %#v", again.Announcements)
	}
}

func TestSeedAuthorIsConfigurable(t *testing.T) {
	store := NewStore(storage.NewMemoryKV(), Options{Clock: fixedClock, DefaultAuthor: "maria.admin"})
	list := store.List(context.Background())
	if list[0].Author != "maria.admin" {
		t.Fatalf("first seed author = %q, want maria.admin", list[0].Author)
	}
	if list[1].Author != domain.DefaultAuthor {
		t.Fatalf("second seed author = %q, want %q", list[1].Author, domain.DefaultAuthor)
	}
}

func TestEnsureDefaultsNeverOverwrites(t *testing.T) {
	kv := storage.NewMemoryKV()
	store := newTestStore(kv)
	ctx := context.Background()

	seeded, err := store.EnsureDefaults(ctx)
	if err != nil || !seeded {
		t.Fatalf("EnsureDefaults() = %v, %v; want true, nil", seeded, err)
	}
	if err := kv.Set(ctx, DefaultKey, "[]"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	seeded, err = store.EnsureDefaults(ctx)
	if err != nil || seeded {
		t.Fatalf("EnsureDefaults() on existing data = %v, %v; want false, nil", seeded, err)
	}
	if raw, _ := kv.Get(ctx, DefaultKey); raw != "[]" {
		t.Fatalf("existing data overwritten: %q", raw)
	}
	if list := store.List(ctx); len(list) != 0 {
		t.Fatalf("empty stored array should list as empty, got %d", len(list))
	}
}

func TestLoadRecoversFromCorruptPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "invalid json", payload: "{not json"},
		{name: "object instead of array", payload: `{"title":"x"}`},
		{name: "null", payload: "null"},
		{name: "truncated array", payload: `[{"title":"x"},`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kv := storage.NewMemoryKV()
			if err := kv.Set(context.Background(), DefaultKey, tc.payload); err != nil {
				t.Fatalf("Set: %v", err)
			}
			res := newTestStore(kv).Load(context.Background())
			if res.State != StateRecovered {
				t.Fatalf("State = %q, want %q", res.State, StateRecovered)
			}
			if res.Cause == nil {
				t.Fatalf("expected recovery cause")
			}
			if len(res.Announcements) != 2 {
				t.Fatalf("expected reseeded defaults, got %d", len(res.Announcements))
			}
			if got := stored(t, kv); len(got) != 2 || got[0].Title != "Barangay Relief Packing" {
				t.Fatalf("reseeded defaults not persisted: %#v", got)
			}
		})
	}
}

func TestLoadSkipsUnreadableEntries(t *testing.T) {
	const payload = `[
		{"title":"older","message":"m","timestamp":"2025-06-01T07:00:00Z"},
		{"title":"blank time","timestamp":""},
		"junk",
		null,
		{"title":"bad time","timestamp":"yesterday"},
		{"title":"newer","message":"m","timestamp":"2025-06-01T09:00:00Z"}
	]`
	kv := storage.NewMemoryKV()
	if err := kv.Set(context.Background(), DefaultKey, payload); err != nil {
		t.Fatalf("Set: %v", err)
	}
	store := newTestStore(kv)

	res := store.Load(context.Background())
	if res.State != StatePartial {
		t.Fatalf("State = %q, want %q", res.State, StatePartial)
	}
	if res.Cause == nil {
		t.Fatal("expected a cause describing the skipped entries")
	}
	if len(res.Announcements) != 2 || res.Announcements[0].Title != "newer" || res.Announcements[1].Title != "older" {
		t.Fatalf("Announcements = %#v, want [newer older]", res.Announcements)
	}
	if raw, _ := kv.Get(context.Background(), DefaultKey); raw != payload {
		t.Fatal("a read rewrote the stored payload")
	}

	// the next write persists only the readable entries
	if _, err := store.Add(context.Background(), domain.Announcement{Title: "fresh", Timestamp: baseTime.Add(time.Hour)}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := stored(t, kv); len(got) != 3 {
		t.Fatalf("stored after Add = %d entries, want 3", len(got))
	}
	if res := store.Load(context.Background()); res.State != StateOK {
		t.Fatalf("State after Add = %q, want %q", res.State, StateOK)
	}
}

func TestPeekNeverWrites(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantState State
		wantCount int
	}{
		{name: "missing", wantState: StateMissing},
		{name: "corrupt", payload: "{not json", wantState: StateCorrupt},
		{name: "partial", payload: `[{"title":"a","timestamp":"2025-06-01T07:00:00Z"},"junk"]`, wantState: StatePartial, wantCount: 1},
		{name: "ok", payload: `[{"title":"a","timestamp":"2025-06-01T07:00:00Z"}]`, wantState: StateOK, wantCount: 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			kv := storage.NewMemoryKV()
			if tc.payload != "" {
				if err := kv.Set(context.Background(), DefaultKey, tc.payload); err != nil {
					t.Fatalf("Set: %v", err)
				}
			}
			res := newTestStore(kv).Peek(context.Background())
			if res.State != tc.wantState {
				t.Fatalf("State = %q, want %q", res.State, tc.wantState)
			}
			if len(res.Announcements) != tc.wantCount {
				t.Fatalf("Announcements = %d, want %d", len(res.Announcements), tc.wantCount)
			}
			raw, err := kv.Get(context.Background(), DefaultKey)
			if tc.payload == "" {
				if !errors.Is(err, storage.ErrNotFound) {
					t.Fatalf("Peek seeded the cache: %q, %v", raw, err)
				}
				return
			}
			if raw != tc.payload {
				t.Fatalf("Peek rewrote the payload to %q", raw)
			}
		})
	}
}

func TestLoadRecoversFromReadFailure(t *testing.T) {
	kv := &faultyKV{MemoryKV: storage.NewMemoryKV(), getErr: errors.New("quota exceeded")}
	res := newTestStore(kv).Load(context.Background())
	if res.State != StateRecovered {
		t.Fatalf("State = %q, want %q", res.State, StateRecovered)
	}
	if len(res.Announcements) != 2 {
		t.Fatalf("expected defaults, got %d", len(res.Announcements))
	}
}

func TestLoadUnavailableWhenReseedFails(t *testing.T) {
	kv := &faultyKV{MemoryKV: storage.NewMemoryKV(), setErr: errors.New("storage disabled")}
	res := newTestStore(kv).Load(context.Background())
	if res.State != StateUnavailable {
		t.Fatalf("State = %q, want %q", res.State, StateUnavailable)
	}
	if res.Announcements == nil || len(res.Announcements) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", res.Announcements)
	}
	if res.Cause == nil {
		t.Fatal("expected cause for unavailable state")
	}
}

func TestListSortsNewestFirst(t *testing.T) {
	kv := storage.NewMemoryKV()
	items := []domain.Announcement{
		{Title: "old", Timestamp: baseTime.Add(-2 * time.Hour)},
		{Title: "new", Timestamp: baseTime},
		{Title: "mid", Timestamp: baseTime.Add(-time.Hour)},
	}
	raw, _ := json.Marshal(items)
	_ = kv.Set(context.Background(), DefaultKey, string(raw))

	list := newTestStore(kv).List(context.Background())
	want := []string{"new", "mid", "old"}
	for i, title := range want {
		if list[i].Title != title {
			t.Fatalf("list[%d] = %q, want %q", i, list[i].Title, title)
		}
	}
}

func TestSaveTruncatesWithoutSorting(t *testing.T) {
	kv := storage.NewMemoryKV()
	store := newTestStore(kv)
	var items []domain.Announcement
	for i := 0; i < 12; i++ {
		items = append(items, domain.Announcement{Title: fmt.Sprintf("a%d", i), Timestamp: baseTime.Add(time.Duration(i) * time.Minute)})
	}
	if err := store.Save(context.Background(), items); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got := stored(t, kv)
	if len(got) != MaxEntries {
		t.Fatalf("stored %d entries, want %d", len(got), MaxEntries)
	}
	if got[0].Title != "a0" || got[9].Title != "a9" {
		t.Fatalf("Save reordered entries: first %q last %q", got[0].Title, got[9].Title)
	}
}

func TestAddKeepsTenMostRecent(t *testing.T) {
	kv := storage.NewMemoryKV()
	store := newTestStore(kv)
	ctx := context.Background()

	// hours 1..25 added out of order
	for i := 0; i < 25; i++ {
		hour := (i*7)%25 + 1
		entry := domain.Announcement{Title: fmt.Sprintf("h%d", hour), Timestamp: baseTime.Add(time.Duration(hour) * time.Hour)}
		if _, err := store.Add(ctx, entry); err != nil {
			t.Fatalf("Add #%d: %v", i, err)
		}
		if n := len(store.List(ctx)); n > MaxEntries {
			t.Fatalf("after Add #%d list has %d entries", i, n)
		}
	}

	list := store.List(ctx)
	if len(list) != MaxEntries {
		t.Fatalf("len(list) = %d, want %d", len(list), MaxEntries)
	}
	for i, a := range list {
		want := fmt.Sprintf("h%d", 25-i)
		if a.Title != want {
			t.Fatalf("list[%d] = %q, want %q", i, a.Title, want)
		}
	}
}

func TestAddPrependsToSeeds(t *testing.T) {
	store := newTestStore(storage.NewMemoryKV())
	entry := domain.Announcement{Title: "Clothing drive", Message: "Drop-off at the chapel", Timestamp: baseTime.Add(time.Minute)}
	updated, err := store.Add(context.Background(), entry)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(updated) != 3 || updated[0].Title != "Clothing drive" {
		t.Fatalf("Add returned %#v", updated)
	}
}

func TestAddAfterCorruptionKeepsCap(t *testing.T) {
	kv := storage.NewMemoryKV()
	_ = kv.Set(context.Background(), DefaultKey, "garbage")
	store := newTestStore(kv)
	for i := 1; i <= 12; i++ {
		if _, err := store.Add(context.Background(), domain.Announcement{Title: fmt.Sprintf("n%d", i), Timestamp: baseTime.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	list := store.List(context.Background())
	if len(list) != MaxEntries || list[0].Title != "n12" || list[9].Title != "n3" {
		t.Fatalf("unexpected list after recovery: first=%q last=%q len=%d", list[0].Title, list[len(list)-1].Title, len(list))
	}
}

func TestAddReportsPersistFailure(t *testing.T) {
	kv := &faultyKV{MemoryKV: storage.NewMemoryKV(), setErr: errors.New("full")}
	if _, err := newTestStore(kv).Add(context.Background(), domain.Announcement{Title: "x", Timestamp: baseTime}); err == nil {
		t.Fatal("expected persist error")
	}
}

func TestRemoveByTimestamp(t *testing.T) {
	store := newTestStore(storage.NewMemoryKV())
	ctx := context.Background()
	seeds := store.List(ctx)

	remaining, err := store.Remove(ctx, seeds[1].Timestamp)
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Title != "Barangay Relief Packing" {
		t.Fatalf("Remove returned %#v", remaining)
	}
	if list := store.List(ctx); len(list) != 1 {
		t.Fatalf("removal not persisted, list has %d", len(list))
	}

	remaining, err = store.Remove(ctx, baseTime.Add(time.Hour))
	if err != nil {
		t.Fatalf("Remove of unknown key: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("unknown key removed entries: %#v", remaining)
	}
}

func TestRemoveLastEntryLeavesEmptyCache(t *testing.T) {
	kv := storage.NewMemoryKV()
	store := newTestStore(kv)
	ctx := context.Background()
	for _, a := range store.List(ctx) {
		if _, err := store.Remove(ctx, a.Timestamp); err != nil {
			t.Fatalf("Remove: %v", err)
		}
	}
	res := store.Load(ctx)
	if res.State != StateOK || len(res.Announcements) != 0 {
		t.Fatalf("Load after removing all = %q with %d entries, want ok/empty", res.State, len(res.Announcements))
	}
}
