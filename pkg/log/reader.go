package log

import (
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects a subset of logged events. Zero-valued fields match
// everything for that criterion.
type Filter struct {
	// ExchangeID selects events belonging to one raise/catch exchange.
	ExchangeID string

	// ChannelID selects events belonging to one channel connection.
	ChannelID string

	// Direction selects by message direction.
	Direction *Direction

	// Layer selects by originating layer.
	Layer *Layer

	// Category selects by event category.
	Category *Category

	// TimeStart selects events at or after this time.
	TimeStart *time.Time

	// TimeEnd selects events before this time.
	TimeEnd *time.Time
}

// matches reports whether the event satisfies every set criterion.
func (f *Filter) matches(event Event) bool {
	switch {
	case f.ExchangeID != "" && event.ExchangeID != f.ExchangeID:
		return false
	case f.ChannelID != "" && event.ChannelID != f.ChannelID:
		return false
	case f.Direction != nil && event.Direction != *f.Direction:
		return false
	case f.Layer != nil && event.Layer != *f.Layer:
		return false
	case f.Category != nil && event.Category != *f.Category:
		return false
	case f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart):
		return false
	case f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd):
		return false
	}
	return true
}

// Reader streams events out of a .clog file, applying an optional Filter.
type Reader struct {
	file   *os.File
	dec    *cbor.Decoder
	filter Filter
}

// NewReader opens path for reading with no filtering.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens path for reading; Next returns only events the
// filter accepts.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{file: f, dec: NewDecoder(f), filter: filter}, nil
}

// Next returns the next matching event, or io.EOF once the file is
// exhausted.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.dec.Decode(&event); err != nil {
			return Event{}, err
		}
		if r.filter.matches(event) {
			return event, nil
		}
	}
}

// ReadAll drains the reader and returns every remaining matching event.
func (r *Reader) ReadAll() ([]Event, error) {
	var events []Event
	for {
		event, err := r.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
