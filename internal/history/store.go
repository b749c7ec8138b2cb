package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/clif-c-of-mcp-server/internal/domain"
)

// Defaults for the persisted history.
const (
	DefaultKey        = "clif-c-of-history"
	DefaultMaxEntries = domain.MaxHistoryEntries
)

// exportVersion is the version of the JSON export format.
const exportVersion = "1.0"

// Options configures a Store.
type Options struct {
	Key        string
	MaxEntries int
	Timeout    time.Duration // per storage call; zero means no limit
}

// Store is the bounded, newest-first list of saved evaluations. The
// in-memory list is authoritative: storage failures are logged and the
// store carries on with what it has. After a failed read nothing is written
// back until a Load succeeds, so the persisted list is never replaced by a
// partial one.
type Store struct {
	mu         sync.RWMutex
	storage    Storage
	key        string
	maxEntries int
	timeout    time.Duration
	entries    []domain.HistoryEntry
	loadFailed bool
	logger     *logrus.Logger
}

// Export represents the JSON export format.
type Export struct {
	Version    string                `json:"version"`
	ExportedAt time.Time             `json:"exported_at"`
	Count      int                   `json:"count"`
	Entries    []domain.HistoryEntry `json:"entries"`
}

// NewStore creates a store over storage. Call Load to read persisted entries.
func NewStore(storage Storage, opts Options, logger *logrus.Logger) *Store {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	return &Store{
		storage:    storage,
		key:        opts.Key,
		maxEntries: opts.MaxEntries,
		timeout:    opts.Timeout,
		entries:    []domain.HistoryEntry{},
		logger:     logger,
	}
}

// Load replaces the in-memory list with the persisted one. A missing or
// corrupt value leaves an empty list. An unreadable one also leaves an empty
// list and suspends writes until a later Load succeeds.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = []domain.HistoryEntry{}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	data, err := s.storage.Get(ctx, s.key)
	if errors.Is(err, domain.ErrNotFound) {
		s.loadFailed = false
		return
	}
	if err != nil {
		s.loadFailed = true
		s.logger.WithError(err).WithFields(s.storageFields()).Warn("Failed to read history, starting empty")
		return
	}
	s.loadFailed = false

	var entries []domain.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.WithError(err).WithFields(s.storageFields()).Warn("Failed to decode history, starting empty")
		return
	}

	s.entries = normalize(entries, s.maxEntries)
	s.logger.WithField("entries", len(s.entries)).Debug("History loaded")
}

// Add saves result as the newest entry, evicting the oldest beyond the cap.
func (s *Store) Add(ctx context.Context, result *domain.DiagnosisResult) domain.HistoryEntry {
	entry := domain.HistoryEntry{
		ID:              newID(),
		Timestamp:       time.Now().UTC(),
		DiagnosisResult: *result,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]domain.HistoryEntry, 0, len(s.entries)+1)
	entries = append(entries, entry)
	entries = append(entries, s.entries...)
	if len(entries) > s.maxEntries {
		entries = entries[:s.maxEntries]
	}
	s.entries = entries
	s.persist(ctx)

	s.logger.WithFields(logrus.Fields{
		"id":         entry.ID,
		"aclf_grade": entry.Grade,
		"entries":    len(s.entries),
	}).Info("Evaluation saved to history")

	return entry
}

// Remove deletes the entry with id. It reports whether an entry was removed;
// an unknown id changes nothing.
func (s *Store) Remove(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]domain.HistoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.ID != id {
			entries = append(entries, e)
		}
	}
	if len(entries) == len(s.entries) {
		return false
	}
	s.entries = entries
	s.persist(ctx)
	return true
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = []domain.HistoryEntry{}
	s.persist(ctx)
}

// Get returns the entry with id.
func (s *Store) Get(id string) (domain.HistoryEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.ID == id {
			return e, true
		}
	}
	return domain.HistoryEntry{}, false
}

// List returns a copy of the entries, newest first.
func (s *Store) List() []domain.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.HistoryEntry{}, s.entries...)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// MaxEntries returns the cap on retained entries.
func (s *Store) MaxEntries() int {
	return s.maxEntries
}

// ExportFileName is the file name an export taken at t is written to.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("history_export_%s.json", t.Format("20060102_150405"))
}

// ExportJSON writes every entry to writer.
func (s *Store) ExportJSON(writer io.Writer) error {
	entries := s.List()

	export := &Export{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		Count:      len(entries),
		Entries:    entries,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// ImportJSON merges entries from an export. Entries whose id is already
// present, or that lack an id, are skipped. The merged list is re-sorted
// newest first and capped.
func (s *Store) ImportJSON(ctx context.Context, reader io.Reader) (imported int, skipped int, err error) {
	var export Export
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.entries))
	for _, e := range s.entries {
		seen[e.ID] = true
	}

	merged := append([]domain.HistoryEntry{}, s.entries...)
	for _, e := range export.Entries {
		if e.ID == "" || seen[e.ID] {
			skipped++
			continue
		}
		seen[e.ID] = true
		merged = append(merged, e)
		imported++
	}

	if imported > 0 {
		s.entries = normalize(merged, s.maxEntries)
		s.persist(ctx)
	}
	return imported, skipped, nil
}

// Close closes the underlying storage.
func (s *Store) Close() error {
	return s.storage.Close()
}

// persist writes the whole list. Callers hold the write lock.
func (s *Store) persist(ctx context.Context) {
	if s.loadFailed {
		s.logger.WithFields(s.storageFields()).Warn("History was not loaded, skipping write")
		return
	}

	data, err := json.Marshal(s.entries)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to encode history")
		return
	}

	ctx, cancel := s.callContext(ctx)
	defer cancel()

	if err := s.storage.Set(ctx, s.key, data); err != nil {
		s.logger.WithError(err).WithFields(s.storageFields()).Warn("Failed to persist history, keeping in-memory copy")
	}
}

// storageFields describes the storage for log entries, including the
// breaker state when calls go through one.
func (s *Store) storageFields() logrus.Fields {
	fields := logrus.Fields{"key": s.key}
	if b, ok := s.storage.(interface{ State() gobreaker.State }); ok {
		fields["breaker_state"] = b.State().String()
	}
	return fields
}

func (s *Store) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// normalize sorts entries newest first and caps them at max.
func normalize(entries []domain.HistoryEntry, max int) []domain.HistoryEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if len(entries) > max {
		entries = entries[:max]
	}
	return entries
}

// newID returns a time-ordered UUID.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
