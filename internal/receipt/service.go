package receipt

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zombor/receipt-scan/internal/scanning"
)

// IDGenerator generates unique IDs for file entries
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service tracks a batch of submitted files through scanning. The entry
// collection is replaced as a whole on every change, never edited in place.
type Service struct {
	scanner     scanning.Scanner
	idGenerator IDGenerator
	timeSource  TimeSource

	// scans run on their own context; Reset does not cancel them
	ctx   context.Context
	group errgroup.Group

	mu      sync.Mutex
	entries []FileEntry
}

// NewService creates a new Service with UUID entry IDs
func NewService(scanner scanning.Scanner) *Service {
	return NewServiceWithDeps(scanner, scanning.UUIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(scanner scanning.Scanner, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		scanner:     scanner,
		idGenerator: idGen,
		timeSource:  timeSrc,
		ctx:         context.Background(),
	}
}

// Submit appends one processing entry per file, in order, and starts
// scanning each of them concurrently. It returns the new entries.
func (s *Service) Submit(files []scanning.File) []FileEntry {
	if len(files) == 0 {
		return nil
	}

	added := make([]FileEntry, len(files))
	now := s.timeSource.Now()
	for i, f := range files {
		added[i] = FileEntry{
			ID:          s.idGenerator.Generate(),
			Filename:    f.Name,
			ContentType: f.ContentType,
			Size:        len(f.Data),
			Status:      StatusProcessing,
			SubmittedAt: now,
			file:        f,
		}
	}

	s.mu.Lock()
	next := make([]FileEntry, 0, len(s.entries)+len(added))
	next = append(next, s.entries...)
	s.entries = append(next, added...)
	s.mu.Unlock()

	slog.Info("Files submitted", "count", len(added))
	for _, e := range added {
		s.group.Go(func() error {
			s.process(e)
			return nil
		})
	}
	return slices.Clone(added)
}

func (s *Service) process(e FileEntry) {
	data, err := s.scanner.ScanReceipt(s.ctx, e.file)
	if err != nil {
		slog.Error("Failed to process file",
			"entry_id", e.ID,
			"filename", e.Filename,
			"error_kind", scanning.Kind(err),
			"error", err,
		)
		s.settle(e.ID, func(cur FileEntry) FileEntry { return cur.fail(s.timeSource.Now()) })
		return
	}
	s.settle(e.ID, func(cur FileEntry) FileEntry { return cur.complete(data, s.timeSource.Now()) })
}

// settle replaces the processing entry with the given ID. An entry that is
// gone (after Reset) or already settled is left alone.
func (s *Service) settle(id string, update func(FileEntry) FileEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.entries, func(e FileEntry) bool { return e.ID == id })
	if i < 0 {
		slog.Debug("Dropping result for discarded entry", "entry_id", id)
		return
	}
	if s.entries[i].Status != StatusProcessing {
		return
	}

	next := slices.Clone(s.entries)
	next[i] = update(next[i])
	s.entries = next
	slog.Info("File settled", "entry_id", id, "filename", next[i].Filename, "status", next[i].Status)
}

// Reset discards every entry. Scans still in flight keep running but their
// results are dropped.
func (s *Service) Reset() {
	s.mu.Lock()
	n := len(s.entries)
	s.entries = nil
	s.mu.Unlock()
	slog.Info("Batch reset", "discarded", n)
}

// Entries returns a snapshot of all entries in submission order
func (s *Service) Entries() []FileEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

// Processing reports whether any entry is still being scanned
func (s *Service) Processing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.ContainsFunc(s.entries, func(e FileEntry) bool { return e.Status == StatusProcessing })
}

// Completed returns the records of completed entries in submission order
func (s *Service) Completed() []*scanning.ReceiptData {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*scanning.ReceiptData
	for _, e := range s.entries {
		if e.Status == StatusCompleted && e.Data != nil {
			records = append(records, e.Data)
		}
	}
	return records
}

// Wait blocks until every scan started so far has settled
func (s *Service) Wait() {
	_ = s.group.Wait()
}
