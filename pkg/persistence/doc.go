// Package persistence provides file storage for the CrashLink handler.
//
// The low-level File type wraps a file descriptor with explicit open modes,
// permissions, and advisory locking. Every operation reports success or
// failure to the caller and logs the underlying OS error; interrupted system
// calls are retried transparently, genuine I/O errors never are.
//
// PendingReportStore builds on File to keep the handler's pending
// crash-report metadata in a JSON file under an exclusive lock.
package persistence
