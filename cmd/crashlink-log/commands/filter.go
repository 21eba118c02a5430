package commands

import (
	"fmt"
	"time"

	"github.com/crashlink-project/crashlink-go/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output     string
	ExchangeID string
	ChannelID  string
	TimeStart  string
	TimeEnd    string
	Layer      string
	Direction  string
	Category   string
}

// buildFilter translates the string-valued CLI options into a log.Filter.
func (opts FilterOptions) buildFilter() (log.Filter, error) {
	filter := log.Filter{
		ExchangeID: opts.ExchangeID,
		ChannelID:  opts.ChannelID,
	}

	for _, bound := range []struct {
		value string
		flag  string
		dst   **time.Time
	}{
		{opts.TimeStart, "time-start", &filter.TimeStart},
		{opts.TimeEnd, "time-end", &filter.TimeEnd},
	} {
		if bound.value == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, bound.value)
		if err != nil {
			return log.Filter{}, fmt.Errorf("invalid %s format: %w", bound.flag, err)
		}
		*bound.dst = &t
	}

	if opts.Layer != "" {
		l, err := ParseLayer(opts.Layer)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Layer = &l
	}
	if opts.Direction != "" {
		d, err := ParseDirection(opts.Direction)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Direction = &d
	}
	if opts.Category != "" {
		c, err := ParseCategory(opts.Category)
		if err != nil {
			return log.Filter{}, err
		}
		filter.Category = &c
	}

	return filter, nil
}

// RunFilter copies the matching subset of a .clog file into a new .clog file.
func RunFilter(path string, opts FilterOptions) error {
	filter, err := opts.buildFilter()
	if err != nil {
		return err
	}

	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	logger, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	err = eachEvent(reader, func(event log.Event) error {
		logger.Log(event)
		count++
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Filtered %d events to %s\n", count, opts.Output)
	return nil
}
