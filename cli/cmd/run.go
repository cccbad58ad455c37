package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/lingomesh/voxgate/adapter"
	redisadapter "github.com/lingomesh/voxgate/adapter/redis"
	"github.com/lingomesh/voxgate/adapter/webhook"
	"github.com/lingomesh/voxgate/bus"
	"github.com/lingomesh/voxgate/cli/config"
	"github.com/lingomesh/voxgate/journal"
	"github.com/lingomesh/voxgate/log"
	"github.com/lingomesh/voxgate/router"
	"github.com/lingomesh/voxgate/transport"
)

// Exit codes.
const (
	exitSuccess     = 0
	exitConfigError = 1
	exitRuntimeErr  = 2
)

// RunCommand returns the run command, the gateway's only execution
// entrypoint.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Connect to the translation backend and route its event stream",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to voxgate.yaml config file",
			},
			&cli.StringFlag{
				Name:  "push-endpoint",
				Usage: "Backend PULL address for outbound pings",
			},
			&cli.StringFlag{
				Name:  "sub-endpoint",
				Usage: "Backend PUB address for the event stream",
			},
			&cli.DurationFlag{
				Name:  "ping-interval",
				Usage: "Keepalive ping period (0 disables)",
				Value: transport.DefaultPingInterval,
			},
			&cli.IntFlag{
				Name:  "ledger-capacity",
				Usage: "Duplicate-suppression ledger capacity",
				Value: router.DefaultLedgerCapacity,
			},
			&cli.IntFlag{
				Name:  "bus-depth",
				Usage: "Per-subscriber event queue depth",
				Value: bus.DefaultQueueDepth,
			},
			&cli.StringFlag{
				Name:  "journal",
				Usage: "Journal file for routed events (empty disables)",
			},
			&cli.DurationFlag{
				Name:  "stats-interval",
				Usage: "Period between stats log lines (0 disables)",
				Value: time.Minute,
			},
		},
		Action: runAction,
	}
}

// runChoice holds the merged file + flag configuration.
type runChoice struct {
	pushEndpoint   string
	subEndpoint    string
	pingInterval   time.Duration
	ledgerCapacity int
	busDepth       int
	journalPath    string
	statsInterval  time.Duration
	adapters       []config.AdapterConfig
}

// mergeConfig applies config file values, then lets set flags override.
func mergeConfig(c *cli.Context) (*runChoice, error) {
	choice := &runChoice{
		pushEndpoint:   c.String("push-endpoint"),
		subEndpoint:    c.String("sub-endpoint"),
		pingInterval:   c.Duration("ping-interval"),
		ledgerCapacity: c.Int("ledger-capacity"),
		busDepth:       c.Int("bus-depth"),
		journalPath:    c.String("journal"),
		statsInterval:  c.Duration("stats-interval"),
	}

	path := c.String("config")
	if path == "" {
		return choice, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if choice.pushEndpoint == "" {
		choice.pushEndpoint = cfg.Transport.PushEndpoint
	}
	if choice.subEndpoint == "" {
		choice.subEndpoint = cfg.Transport.SubEndpoint
	}
	if !c.IsSet("ping-interval") && cfg.Transport.PingInterval.Duration > 0 {
		choice.pingInterval = cfg.Transport.PingInterval.Duration
	}
	if !c.IsSet("ledger-capacity") && cfg.Router.LedgerCapacity > 0 {
		choice.ledgerCapacity = cfg.Router.LedgerCapacity
	}
	if !c.IsSet("bus-depth") && cfg.Bus.QueueDepth > 0 {
		choice.busDepth = cfg.Bus.QueueDepth
	}
	if choice.journalPath == "" {
		choice.journalPath = cfg.Journal.Path
	}
	choice.adapters = cfg.Adapters

	return choice, nil
}

// buildAdapters constructs configured notification adapters.
func buildAdapters(entries []config.AdapterConfig) ([]adapter.Adapter, error) {
	adapters := make([]adapter.Adapter, 0, len(entries))
	for i, entry := range entries {
		var (
			a   adapter.Adapter
			err error
		)
		switch entry.Type {
		case "redis":
			retries := redisadapter.DefaultRetries
			if entry.Retries != nil {
				retries = *entry.Retries
			}
			a, err = redisadapter.New(redisadapter.Config{
				URL:     entry.URL,
				Prefix:  entry.Prefix,
				Timeout: entry.Timeout.Duration,
				Retries: retries,
			})
		case "webhook":
			retries := webhook.DefaultRetries
			if entry.Retries != nil {
				retries = *entry.Retries
			}
			a, err = webhook.New(webhook.Config{
				URL:     entry.URL,
				Headers: entry.Headers,
				Timeout: entry.Timeout.Duration,
				Retries: retries,
			})
		default:
			err = fmt.Errorf("unknown adapter type %q", entry.Type)
		}
		if err != nil {
			for _, built := range adapters {
				_ = built.Close()
			}
			return nil, fmt.Errorf("adapters[%d]: %w", i, err)
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}

func runAction(c *cli.Context) error {
	choice, err := mergeConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid config: %v", err), exitConfigError)
	}

	logger := log.NewLogger("voxgate")
	defer func() { _ = logger.Sync() }()

	eventBus := bus.NewBus(logger.Named("bus"))
	rt := router.New(router.Config{
		Emitter:        eventBus,
		Logger:         logger.Named("router"),
		LedgerCapacity: choice.ledgerCapacity,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", map[string]any{"signal": sig.String()})
		cancel()
	}()

	// Journal subscriber
	if choice.journalPath != "" {
		file, err := os.OpenFile(choice.journalPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return cli.Exit(fmt.Sprintf("cannot open journal: %v", err), exitConfigError)
		}
		defer func() { _ = file.Close() }()

		writer := journal.NewWriter(file)
		sub := eventBus.Subscribe("journal", nil, choice.busDepth)
		go func() {
			for event := range sub.Events() {
				if err := writer.AppendEvent(event); err != nil {
					logger.Error("journal append failed", map[string]any{
						"event_id": event.ID,
						"error":    err.Error(),
					})
				}
			}
		}()
	}

	// Notification adapters
	adapters, err := buildAdapters(choice.adapters)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid adapter config: %v", err), exitConfigError)
	}
	defer func() {
		for _, a := range adapters {
			_ = a.Close()
		}
	}()
	if len(adapters) > 0 {
		sub := eventBus.Subscribe("adapters", nil, choice.busDepth)
		pump := adapter.NewPump(sub, adapters, logger.Named("adapter"))
		go pump.Run(ctx)
	}

	// Periodic stats
	if choice.statsInterval > 0 {
		go func() {
			ticker := time.NewTicker(choice.statsInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					logStats(logger, rt)
				}
			}
		}()
	}

	client, err := transport.NewClient(transport.Config{
		PushEndpoint: choice.pushEndpoint,
		SubEndpoint:  choice.subEndpoint,
		PingInterval: choice.pingInterval,
		Logger:       logger.Named("transport"),
	}, rt)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot create transport: %v", err), exitConfigError)
	}

	err = client.Run(ctx)
	eventBus.Close()
	logStats(logger, rt)

	if err != nil && ctx.Err() == nil {
		return cli.Exit(fmt.Sprintf("transport failed: %v", err), exitRuntimeErr)
	}
	return cli.Exit("", exitSuccess)
}

func logStats(logger *log.Logger, rt *router.Router) {
	s := rt.Stats()
	logger.Info("router stats", map[string]any{
		"messages_processed":    s.MessagesProcessed,
		"multipart_messages":    s.MultipartMessages,
		"frame_errors":          s.FrameErrors,
		"parse_errors":          s.ParseErrors,
		"duplicates_suppressed": s.DuplicatesSuppressed,
		"resolve_warnings":      s.ResolveWarnings,
		"ledger_size":           rt.LedgerLen(),
	})
}
