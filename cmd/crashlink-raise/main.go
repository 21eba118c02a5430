// Command crashlink-raise raises a synthetic exception against a CrashLink
// handler socket and prints the reply.
//
// The behavior flag selects which of the six wire variants is used. Identity
// and state inputs may always be supplied; behaviors without the matching
// capability silently ignore them, exactly as a real raise would.
//
// Usage:
//
//	crashlink-raise [flags]
//
// Flags:
//
//	-socket string    Handler socket path
//	-config string    Configuration file path (YAML)
//	-behavior string  default, state, or state-identity, optionally +wide
//	-exception int    Exception type (default 1)
//	-code int         First code word
//	-subcode int      Second code word
//	-thread uint      Faulting thread port
//	-task uint        Faulting task port
//	-flavor int       Thread-state flavor
//	-state string     Comma-separated input state words
//	-console          Mirror delivery events to stderr
//
// Examples:
//
//	# Minimal raise
//	crashlink-raise -socket /tmp/crashlink.sock -exception 1 -code 9
//
//	# Full-capability raise with state
//	crashlink-raise -socket /tmp/crashlink.sock -behavior state-identity+wide \
//	    -exception 3 -code 5 -subcode 7 -thread 42 -task 43 -flavor 6 -state 0,1,2,3
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/crashlink-project/crashlink-go/pkg/config"
	"github.com/crashlink-project/crashlink-go/pkg/delivery"
	"github.com/crashlink-project/crashlink-go/pkg/log"
	"github.com/crashlink-project/crashlink-go/pkg/transport"
	"github.com/crashlink-project/crashlink-go/pkg/wire"
)

var (
	configPath string
	socketPath string
	behavior   string
	exception  int
	code       int64
	subcode    int64
	thread     uint
	task       uint
	flavor     int
	stateList  string
	console    bool
)

func init() {
	flag.StringVar(&configPath, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&socketPath, "socket", "", "Handler socket path (overrides config)")
	flag.StringVar(&behavior, "behavior", "", "default, state, or state-identity, optionally +wide")
	flag.IntVar(&exception, "exception", 1, "Exception type")
	flag.Int64Var(&code, "code", 0, "First code word")
	flag.Int64Var(&subcode, "subcode", 0, "Second code word")
	flag.UintVar(&thread, "thread", 0, "Faulting thread port")
	flag.UintVar(&task, "task", 0, "Faulting task port")
	flag.IntVar(&flavor, "flavor", 0, "Thread-state flavor")
	flag.StringVar(&stateList, "state", "", "Comma-separated input state words")
	flag.BoolVar(&console, "console", false, "Mirror delivery events to stderr")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "crashlink-raise: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}
	if socketPath != "" {
		cfg.Channel.Path = socketPath
	}
	if behavior != "" {
		cfg.Delivery.DefaultBehavior = behavior
	}

	b, err := cfg.Behavior()
	if err != nil {
		return err
	}

	oldState, err := parseState(stateList)
	if err != nil {
		return err
	}

	conn, err := transport.DialChannel(cfg.Channel.Path)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetMaxMessageSize(cfg.Channel.MaxMessageSize)

	raiser := delivery.NewRaiser(conn)
	if console {
		adapter := log.NewSlogAdapter(slog.Default())
		conn.SetLogger(adapter)
		raiser.SetLogger(adapter)
	}

	result, err := raiser.Raise(context.Background(), delivery.RaiseParams{
		Behavior:  b,
		Exception: int32(exception),
		Code:      code,
		Subcode:   subcode,
		Thread:    wire.Port(thread),
		Task:      wire.Port(task),
		Flavor:    int32(flavor),
		OldState:  oldState,
	})
	if err != nil {
		return err
	}

	fmt.Printf("behavior: %s\n", b)
	fmt.Printf("status:   %s (%d)\n", result.Status, uint32(result.Status))
	if b.HasState() {
		fmt.Printf("flavor:   %d\n", result.Flavor)
		fmt.Printf("state:    %v\n", result.NewState)
	}

	return delivery.StatusToError(result.Status)
}

// parseState splits a comma-separated word list into state words.
func parseState(s string) ([]uint32, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	words := make([]uint32, 0, len(parts))
	for _, part := range parts {
		w, err := strconv.ParseUint(strings.TrimSpace(part), 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid state word %q: %w", part, err)
		}
		words = append(words, uint32(w))
	}
	if len(words) > wire.MaxStateWords {
		return nil, fmt.Errorf("too many state words: %d > %d", len(words), wire.MaxStateWords)
	}
	return words, nil
}
