package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/crashlink-project/crashlink-go/pkg/log"
	"github.com/crashlink-project/crashlink-go/pkg/wire"
)

// Stats holds aggregate statistics about a delivery log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Exchanges         map[string]*ExchangeStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ExchangeStats holds statistics for a single raise/catch exchange.
type ExchangeStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Behavior  wire.Behavior
	Status    *wire.Status
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Exchanges:         make(map[string]*ExchangeStats),
	}

	events, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read events: %w", err)
	}

	for _, event := range events {
		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++
		stats.EventsByDirection[event.Direction]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.ExchangeID != "" {
			xchg, ok := stats.Exchanges[event.ExchangeID]
			if !ok {
				xchg = &ExchangeStats{
					FirstSeen: event.Timestamp,
					LastSeen:  event.Timestamp,
				}
				stats.Exchanges[event.ExchangeID] = xchg
			}
			xchg.Events++
			if event.Timestamp.After(xchg.LastSeen) {
				xchg.LastSeen = event.Timestamp
			}
			if event.Message != nil {
				if event.Message.Behavior != 0 {
					xchg.Behavior = event.Message.Behavior
				}
				if event.Message.Status != nil {
					xchg.Status = event.Message.Status
				}
			}
		}

		if event.Error != nil {
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== CrashLink Delivery Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerWire, log.LayerDelivery, log.LayerPersistence} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-13s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-13s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-13s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Exchanges: %d\n", len(stats.Exchanges))
	if len(stats.Exchanges) > 0 {
		type xchgInfo struct {
			id    string
			stats *ExchangeStats
		}
		xchgs := make([]xchgInfo, 0, len(stats.Exchanges))
		for id, xs := range stats.Exchanges {
			xchgs = append(xchgs, xchgInfo{id, xs})
		}
		sort.Slice(xchgs, func(i, j int) bool {
			return xchgs[i].stats.FirstSeen.Before(xchgs[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, x := range xchgs {
			duration := x.stats.LastSeen.Sub(x.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenID(x.id), x.stats.Events, duration)
			if x.stats.Behavior != 0 {
				fmt.Fprintf(w, "           Behavior: %s\n", x.stats.Behavior)
			}
			if x.stats.Status != nil {
				fmt.Fprintf(w, "           Status: %s\n", x.stats.Status)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
