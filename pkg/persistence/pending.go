package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crashlink-project/crashlink-go/pkg/log"
	"github.com/crashlink-project/crashlink-go/pkg/wire"
)

// StoreVersion is the current version of the pending-report file format.
const StoreVersion = 1

// ErrReportNotFound indicates no pending report exists with the given ID.
var ErrReportNotFound = errors.New("pending report not found")

// PendingReport is the metadata recorded for one caught exception awaiting
// upload.
type PendingReport struct {
	// ID is the report's unique identifier (UUID).
	ID string `json:"id"`

	// CreatedAt is when the exception was caught.
	CreatedAt time.Time `json:"created_at"`

	// Behavior the raise side used.
	Behavior wire.Behavior `json:"behavior"`

	// Exception is the exception type.
	Exception int32 `json:"exception"`

	// Code and Subcode are the code words as they crossed the wire.
	Code    int64 `json:"code"`
	Subcode int64 `json:"subcode,omitempty"`

	// Thread and Task identify the faulting thread and task, when carried.
	Thread wire.Port `json:"thread,omitempty"`
	Task   wire.Port `json:"task,omitempty"`

	// Status the handler returned.
	Status wire.Status `json:"status"`
}

// pendingState is the on-disk JSON document.
type pendingState struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	Reports []PendingReport `json:"reports,omitempty"`
}

// PendingReportStore keeps pending crash-report metadata in a JSON file.
// Every mutation rewrites the file under an exclusive advisory lock, so
// multiple handler processes sharing a report directory stay consistent.
type PendingReportStore struct {
	mu     sync.Mutex
	path   string
	perm   Permissions
	logger log.Logger
}

// NewPendingReportStore creates a store backed by the given file path.
// The store file is created owner-only; see SetPermissions.
func NewPendingReportStore(path string) *PendingReportStore {
	return &PendingReportStore{
		path:   path,
		perm:   PermissionsOwnerOnly,
		logger: log.NoopLogger{},
	}
}

// SetPermissions selects the mode bits used when the store file is created.
func (s *PendingReportStore) SetPermissions(perm Permissions) {
	s.perm = perm
}

// SetLogger configures error logging. Pass nil to disable.
func (s *PendingReportStore) SetLogger(logger log.Logger) {
	if logger == nil {
		logger = log.NoopLogger{}
	}
	s.logger = logger
}

// Add records a new pending report and returns its ID. A report arriving
// without an ID is assigned a fresh UUID.
func (s *PendingReportStore) Add(report PendingReport) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}

	err := s.update(func(state *pendingState) error {
		state.Reports = append(state.Reports, report)
		return nil
	})
	if err != nil {
		return "", err
	}
	return report.ID, nil
}

// List returns all pending reports in insertion order.
func (s *PendingReportStore) List() ([]PendingReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := OpenForReadAndWrite(s.path, WriteModeReuseOrCreate, s.perm, s.logger)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := f.Lock(LockShared); err != nil {
		return nil, err
	}
	defer f.Unlock() //nolint:errcheck

	state, err := readState(f)
	if err != nil {
		return nil, err
	}
	return state.Reports, nil
}

// Remove deletes the report with the given ID.
func (s *PendingReportStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.update(func(state *pendingState) error {
		for i, r := range state.Reports {
			if r.ID == id {
				state.Reports = append(state.Reports[:i], state.Reports[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %s", ErrReportNotFound, id)
	})
}

// Clear removes the store file entirely.
func (s *PendingReportStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// update applies fn to the decoded state and rewrites the file, all under an
// exclusive lock.
func (s *PendingReportStore) update(fn func(*pendingState) error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	f, err := OpenForReadAndWrite(s.path, WriteModeReuseOrCreate, s.perm, s.logger)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Lock(LockExclusive); err != nil {
		return err
	}
	defer f.Unlock() //nolint:errcheck

	state, err := readState(f)
	if err != nil {
		return err
	}

	if err := fn(state); err != nil {
		return err
	}

	state.Version = StoreVersion
	state.SavedAt = time.Now()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	if err := f.Truncate(); err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	return f.WriteAll(data)
}

// readState decodes the store file, treating an empty file as empty state.
func readState(f *File) (*pendingState, error) {
	data, err := f.ReadAll()
	if err != nil {
		return nil, err
	}

	state := &pendingState{}
	if len(data) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.Path(), err)
	}
	return state, nil
}
