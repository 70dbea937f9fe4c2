// Package announcements implements the local announcement cache used when the
// donation server's announcement endpoint cannot be reached.
package announcements

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"donationfeed/internal/domain"
	"donationfeed/internal/infra"
	"donationfeed/internal/metrics"
	"donationfeed/internal/storage"
)

// MaxEntries bounds how many announcements are persisted.
const MaxEntries = 10

// DefaultKey is the storage key the cache lives under.
const DefaultKey = "adminAnnouncements"

// State describes how a Load was satisfied.
type State string

const (
	// StateOK means the stored payload was read and decoded as-is.
	StateOK State = "ok"
	// StatePartial means the payload was an array but some elements were
	// unreadable; they are left out of the result and dropped on the next write.
	StatePartial State = "partial"
	// StateSeeded means nothing was stored yet and the defaults were written.
	StateSeeded State = "seeded"
	// StateRecovered means the stored payload was unreadable and was replaced by the defaults.
	StateRecovered State = "recovered"
	// StateUnavailable means the defaults could not be persisted; the result is empty.
	StateUnavailable State = "unavailable"

	// StateMissing and StateCorrupt are only reported by Peek, which never repairs.
	StateMissing State = "missing"
	StateCorrupt State = "corrupt"
)

// Result is the outcome of Load or Peek. Cause is set for every state except
// StateOK, StateSeeded and StateMissing.
type Result struct {
	Announcements []domain.Announcement
	State         State
	Cause         error
}

var (
	errNotSequence = errors.New("stored announcements are not a JSON array")
	errNotObject   = errors.New("not an announcement object")
)

// Options configures a Store.
type Options struct {
	Key           string
	DefaultAuthor string
	Clock         func() time.Time
	Logger        *infra.Logger
}

// Store is a bounded, newest-first announcement cache over a storage.KV.
// Writes within one process are serialized; separate processes sharing a
// backend race and the last write wins.
type Store struct {
	mu            sync.Mutex
	kv            storage.KV
	key           string
	defaultAuthor string
	now           func() time.Time
	logger        *infra.Logger
}

func NewStore(kv storage.KV, opts Options) *Store {
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}
	author := opts.DefaultAuthor
	if author == "" {
		author = domain.DefaultAuthor
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Store{
		kv:            kv,
		key:           key,
		defaultAuthor: author,
		now:           now,
		logger:        infra.LoggerOrDiscard(opts.Logger),
	}
}

// Defaults returns the two seed announcements, stamped relative to the store clock.
func (s *Store) Defaults() []domain.Announcement {
	now := s.now().UTC().Truncate(time.Millisecond)
	return []domain.Announcement{
		{
			Title:     "Barangay Relief Packing",
			Message:   "Volunteers needed at the municipal gym on Saturday, 9AM. Please bring your own water bottle.",
			Audience:  domain.AudienceVolunteer,
			Priority:  domain.PriorityImportant,
			Author:    s.defaultAuthor,
			Timestamp: now,
		},
		{
			Title:     "Typhoon Response Update",
			Message:   "Cash donations are prioritized this week to purchase additional tarpaulins and rice sacks.",
			Audience:  domain.AudienceAllDonors,
			Priority:  domain.PriorityUrgent,
			Author:    domain.DefaultAuthor,
			Timestamp: now.Add(-24 * time.Hour),
		},
	}
}

// EnsureDefaults writes the seed announcements if the key holds nothing yet and
// reports whether it did. Existing data, valid or not, is left alone.
func (s *Store) EnsureDefaults(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.kv.Get(ctx, s.key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, err
	}
	if err == nil && raw != "" {
		return false, nil
	}
	if err := s.save(ctx, s.Defaults()); err != nil {
		return false, err
	}
	return true, nil
}

// Load reads the cache, seeding it on first use and reseeding it when the stored
// payload cannot be read or is not a JSON array. Unreadable elements of an
// otherwise valid array are skipped, not reseeded.
func (s *Store) Load(ctx context.Context) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// List returns the cached announcements, newest first. It never fails; see Load
// for how unreadable state is handled.
func (s *Store) List(ctx context.Context) []domain.Announcement {
	return s.Load(ctx).Announcements
}

// Save persists the first MaxEntries items of list in the given order.
func (s *Store) Save(ctx context.Context, list []domain.Announcement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, list)
}

// Add puts entry in front of the current list and persists it. The oldest
// announcements fall off once more than MaxEntries are held.
func (s *Store) Add(ctx context.Context, entry domain.Announcement) ([]domain.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.load(ctx).Announcements
	updated := make([]domain.Announcement, 0, len(current)+1)
	updated = append(updated, entry)
	updated = append(updated, current...)
	sortNewestFirst(updated)
	updated = truncate(updated)
	if err := s.save(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Remove drops every announcement whose timestamp equals key.
func (s *Store) Remove(ctx context.Context, key time.Time) ([]domain.Announcement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.load(ctx).Announcements
	filtered := slices.DeleteFunc(slices.Clone(current), func(a domain.Announcement) bool {
		return a.Timestamp.Equal(key)
	})
	if err := s.save(ctx, filtered); err != nil {
		return nil, err
	}
	return filtered, nil
}

// Peek reports what is stored without seeding, repairing or counting recoveries.
func (s *Store) Peek(ctx context.Context) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.read(ctx)
	switch {
	case snap.missing:
		return Result{Announcements: []domain.Announcement{}, State: StateMissing}
	case snap.unusable:
		return Result{Announcements: []domain.Announcement{}, State: StateCorrupt, Cause: snap.cause}
	case snap.skipped > 0:
		return Result{Announcements: snap.items, State: StatePartial, Cause: snap.cause}
	}
	return Result{Announcements: snap.items, State: StateOK}
}

func (s *Store) load(ctx context.Context) Result {
	snap := s.read(ctx)
	switch {
	case snap.missing:
		return s.reseed(ctx, StateSeeded, "", nil)
	case snap.unusable:
		return s.reseed(ctx, StateRecovered, snap.label, snap.cause)
	case snap.skipped > 0:
		s.logger.Warn().Err(snap.cause).Str("key", s.key).Int("skipped", snap.skipped).
			Msg("announcements: skipped unreadable entries")
		metrics.CacheRecoveries.WithLabelValues("element").Inc()
		return Result{Announcements: snap.items, State: StatePartial, Cause: snap.cause}
	}
	return Result{Announcements: snap.items, State: StateOK}
}

type snapshot struct {
	items    []domain.Announcement
	missing  bool
	unusable bool
	label    string
	cause    error
	skipped  int
}

func (s *Store) read(ctx context.Context) snapshot {
	raw, err := s.kv.Get(ctx, s.key)
	switch {
	case errors.Is(err, storage.ErrNotFound), err == nil && raw == "":
		return snapshot{missing: true}
	case err != nil:
		return snapshot{unusable: true, label: "read", cause: fmt.Errorf("read: %w", err)}
	}

	items, skipped, err := decode(raw)
	if items == nil {
		return snapshot{unusable: true, label: "decode", cause: fmt.Errorf("decode: %w", err)}
	}
	sortNewestFirst(items)
	snap := snapshot{items: items, skipped: skipped}
	if skipped > 0 {
		snap.cause = fmt.Errorf("decode: %w", err)
	}
	return snap
}

func (s *Store) reseed(ctx context.Context, state State, label string, cause error) Result {
	defaults := s.Defaults()
	if state == StateRecovered {
		s.logger.Warn().Err(cause).Str("key", s.key).Msg("announcements: cache unreadable, reseeding defaults")
		metrics.CacheRecoveries.WithLabelValues(label).Inc()
	}
	if err := s.save(ctx, defaults); err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("announcements: persist defaults failed")
		if cause != nil {
			err = errors.Join(cause, err)
		}
		return Result{Announcements: []domain.Announcement{}, State: StateUnavailable, Cause: err}
	}
	return Result{Announcements: defaults, State: state, Cause: cause}
}

func (s *Store) save(ctx context.Context, list []domain.Announcement) error {
	list = truncate(list)
	if list == nil {
		list = []domain.Announcement{}
	}
	payload, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("announcements: encode: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(payload)); err != nil {
		return fmt.Errorf("announcements: persist: %w", err)
	}
	return nil
}

// decode requires a JSON array. Elements that are not announcement objects are
// skipped and counted; the returned error joins their failures. A nil slice
// means the payload as a whole is unusable.
func decode(raw string) ([]domain.Announcement, int, error) {
	trimmed := bytes.TrimSpace([]byte(raw))
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, 0, errNotSequence
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, 0, err
	}

	items := make([]domain.Announcement, 0, len(elems))
	var errs []error
	for i, elem := range elems {
		if len(elem) == 0 || elem[0] != '{' {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, errNotObject))
			continue
		}
		var a domain.Announcement
		if err := json.Unmarshal(elem, &a); err != nil {
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
			continue
		}
		items = append(items, a)
	}
	return items, len(errs), errors.Join(errs...)
}

func sortNewestFirst(items []domain.Announcement) {
	slices.SortStableFunc(items, func(a, b domain.Announcement) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
}

func truncate(items []domain.Announcement) []domain.Announcement {
	if len(items) > MaxEntries {
		return items[:MaxEntries]
	}
	return items
}
