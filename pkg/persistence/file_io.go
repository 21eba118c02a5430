package persistence

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/crashlink-project/crashlink-go/pkg/log"
)

// WriteMode selects how opening a file for writing treats an existing file.
type WriteMode int

const (
	// WriteModeReuseOrFail opens an existing file and fails if it does not
	// exist.
	WriteModeReuseOrFail WriteMode = iota

	// WriteModeReuseOrCreate opens an existing file or creates a new one.
	WriteModeReuseOrCreate

	// WriteModeTruncateOrCreate opens an existing file truncated to empty, or
	// creates a new one.
	WriteModeTruncateOrCreate

	// WriteModeCreateOrFail creates a new file and fails if one already
	// exists.
	WriteModeCreateOrFail
)

// flags returns the open(2) flags for the mode, without the access mode bits.
func (m WriteMode) flags() (int, error) {
	switch m {
	case WriteModeReuseOrFail:
		return 0, nil
	case WriteModeReuseOrCreate:
		return os.O_CREATE, nil
	case WriteModeTruncateOrCreate:
		return os.O_CREATE | os.O_TRUNC, nil
	case WriteModeCreateOrFail:
		return os.O_CREATE | os.O_EXCL, nil
	default:
		return 0, fmt.Errorf("unknown write mode %d", m)
	}
}

// Permissions selects the mode bits for newly created files.
type Permissions int

const (
	// PermissionsOwnerOnly creates files readable and writable by the owner
	// only (0600).
	PermissionsOwnerOnly Permissions = iota

	// PermissionsWorldReadable creates files additionally readable by group
	// and world (0644).
	PermissionsWorldReadable
)

// fileMode returns the creation mode bits.
func (p Permissions) fileMode() os.FileMode {
	if p == PermissionsWorldReadable {
		return 0o644
	}
	return 0o600
}

// LockType selects between shared and exclusive advisory locks.
type LockType int

const (
	// LockShared permits other shared locks on the same file.
	LockShared LockType = iota

	// LockExclusive excludes all other locks on the same file.
	LockExclusive
)

// File is a file handle whose operations log the underlying OS error on
// failure. Interrupted system calls are retried transparently; genuine I/O
// errors are returned to the caller and never retried.
type File struct {
	f      *os.File
	path   string
	logger log.Logger
}

// OpenForRead opens a file read-only. The file must exist.
func OpenForRead(path string, logger log.Logger) (*File, error) {
	return open(path, os.O_RDONLY, 0, logger)
}

// OpenForWrite opens a file write-only with the given mode and, when a file
// is created, the given permissions.
func OpenForWrite(path string, mode WriteMode, perm Permissions, logger log.Logger) (*File, error) {
	modeFlags, err := mode.flags()
	if err != nil {
		return nil, err
	}
	return open(path, os.O_WRONLY|modeFlags, perm.fileMode(), logger)
}

// OpenForReadAndWrite opens a file read-write with the given mode and, when a
// file is created, the given permissions.
func OpenForReadAndWrite(path string, mode WriteMode, perm Permissions, logger log.Logger) (*File, error) {
	modeFlags, err := mode.flags()
	if err != nil {
		return nil, err
	}
	return open(path, os.O_RDWR|modeFlags, perm.fileMode(), logger)
}

func open(path string, flags int, perm os.FileMode, logger log.Logger) (*File, error) {
	if logger == nil {
		logger = log.NoopLogger{}
	}

	var f *os.File
	var err error
	for {
		f, err = os.OpenFile(path, flags, perm)
		if err == nil || !errors.Is(err, unix.EINTR) {
			break
		}
	}
	if err != nil {
		logOSError(logger, "open", path, err)
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	return &File{f: f, path: path, logger: logger}, nil
}

// Path returns the path the file was opened with.
func (f *File) Path() string {
	return f.path
}

// ReadExactly reads exactly len(buf) bytes, looping over partial reads.
// Fewer available bytes than requested is an error.
func (f *File) ReadExactly(buf []byte) error {
	total := 0
	for total < len(buf) {
		n, err := f.f.Read(buf[total:])
		total += n
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			f.logError("read", err)
			return fmt.Errorf("failed to read %s: %w", f.path, err)
		}
	}
	return nil
}

// WriteAll writes all of data, looping over partial writes.
func (f *File) WriteAll(data []byte) error {
	total := 0
	for total < len(data) {
		n, err := f.f.Write(data[total:])
		total += n
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			f.logError("write", err)
			return fmt.Errorf("failed to write %s: %w", f.path, err)
		}
	}
	return nil
}

// Lock acquires an advisory lock on the whole file, blocking until it is
// granted.
func (f *File) Lock(lockType LockType) error {
	how := unix.LOCK_SH
	if lockType == LockExclusive {
		how = unix.LOCK_EX
	}
	if err := f.flock(how); err != nil {
		f.logError("lock", err)
		return fmt.Errorf("failed to lock %s: %w", f.path, err)
	}
	return nil
}

// Unlock releases the advisory lock.
func (f *File) Unlock() error {
	if err := f.flock(unix.LOCK_UN); err != nil {
		f.logError("unlock", err)
		return fmt.Errorf("failed to unlock %s: %w", f.path, err)
	}
	return nil
}

func (f *File) flock(how int) error {
	fd := int(f.f.Fd())
	for {
		err := unix.Flock(fd, how)
		if err == nil || !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}

// Seek repositions the file offset.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	pos, err := f.f.Seek(offset, whence)
	if err != nil {
		f.logError("seek", err)
		return 0, fmt.Errorf("failed to seek %s: %w", f.path, err)
	}
	return pos, nil
}

// Truncate truncates the file to zero length.
func (f *File) Truncate() error {
	if err := f.f.Truncate(0); err != nil {
		f.logError("truncate", err)
		return fmt.Errorf("failed to truncate %s: %w", f.path, err)
	}
	return nil
}

// Size returns the file's current size in bytes.
func (f *File) Size() (int64, error) {
	info, err := f.f.Stat()
	if err != nil {
		f.logError("stat", err)
		return 0, fmt.Errorf("failed to stat %s: %w", f.path, err)
	}
	return info.Size(), nil
}

// ReadAll reads the whole file from the beginning.
func (f *File) ReadAll() ([]byte, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	size, err := f.Size()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if err := f.ReadExactly(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close closes the file. Any held lock is released by the kernel.
func (f *File) Close() error {
	if err := f.f.Close(); err != nil {
		f.logError("close", err)
		return fmt.Errorf("failed to close %s: %w", f.path, err)
	}
	return nil
}

func (f *File) logError(op string, err error) {
	logOSError(f.logger, op, f.path, err)
}

func logOSError(logger log.Logger, op, path string, err error) {
	logger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerPersistence,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerPersistence,
			Message: err.Error(),
			Context: op + " " + path,
		},
	})
}
