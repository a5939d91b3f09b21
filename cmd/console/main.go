package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"devconsole/pkg/client"
	"devconsole/pkg/config"
	"devconsole/pkg/console"
	"devconsole/pkg/discovery"
	"devconsole/pkg/events"
	"devconsole/pkg/log"
	"devconsole/pkg/models"
	"devconsole/pkg/tui"
	"devconsole/pkg/view"
)

const (
	logFilePerm     = 0600
	discoverTimeout = 3 * time.Second
	// pause between websocket reconnect attempts
	watchBackoff = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	serverURL := flag.String("server", "", "Console server URL (default http://localhost:8080)")
	discover := flag.Bool("discover", false, "Find the server on the LAN with mDNS")
	once := flag.Bool("once", false, "Print every view once and exit")
	timeout := flag.Duration("timeout", 0, "Per-request timeout")
	retryMax := flag.Int("retry-max", 0, "Retries for connection errors")
	watch := flag.Bool("watch", true, "Refetch on server change events")
	logFile := flag.String("log-file", "", "Write logs to this file while the UI runs")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.LoadClient(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load configuration")
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server":
			cfg.ServerURL = *serverURL
		case "timeout":
			cfg.Timeout = *timeout
		case "retry-max":
			cfg.RetryMax = *retryMax
		case "watch":
			cfg.Watch = *watch
		case "log-file":
			cfg.LogFile = *logFile
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if err := log.SetLevel(cfg.LogLevel); err != nil {
		log.Warn().Err(err).Str("level", cfg.LogLevel).Msg("Unknown log level, keeping info")
	}
	if *debug {
		log.SetDebugMode()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *discover {
		instances, err := discovery.Browse(ctx, discoverTimeout)
		if err != nil {
			log.Fatal().Err(err).Msg("mDNS discovery failed")
		}
		cfg.ServerURL = instances[0].URL()
		log.Info().Str("instance", instances[0].Name).Str("url", cfg.ServerURL).Msg("Discovered console server")
	}

	api := client.New(cfg.ServerURL, client.Options{
		Timeout:      cfg.Timeout,
		RetryMax:     cfg.RetryMax,
		RetryWaitMin: cfg.RetryWaitMin,
		RetryWaitMax: cfg.RetryWaitMax,
	})
	log.Debug().Str("server", api.BaseURL()).Dur("timeout", cfg.Timeout).Int("retry_max", cfg.RetryMax).Msg("Console client ready")
	res := console.NewResources(api)

	if *once {
		if err := printOnce(ctx, os.Stdout, res); err != nil {
			os.Exit(1)
		}
		return
	}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePerm)
		if err != nil {
			log.Fatal().Err(err).Str("log_file", cfg.LogFile).Msg("Failed to open log file")
		}
		defer f.Close()
		log.SetOutput(f)
	} else {
		log.SetOutput(io.Discard)
	}

	if cfg.Watch {
		go watchChanges(ctx, api.EventsURL(), res)
	}

	if err := tui.Run(ctx, res); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// printOnce fetches every resource and prints the views that loaded.
func printOnce(ctx context.Context, w io.Writer, res *console.Resources) error {
	err := res.FetchAll(ctx)

	views := []*view.View{
		view.System(res.System),
		view.Memory(res.Memory),
		view.Flash(res.Flash),
		view.Network(res.Network),
		view.APConfig(res.AP),
		view.TodoList(res.Todos),
	}
	for _, v := range views {
		out := v.String()
		if out == "" {
			continue
		}
		if _, werr := fmt.Fprintln(w, out); werr != nil {
			return werr
		}
	}
	return err
}

// watchChanges refetches resources named by server change events,
// reconnecting until ctx is done.
func watchChanges(ctx context.Context, wsURL string, res *console.Resources) {
	for {
		err := events.Watch(ctx, wsURL, func(event models.ChangeEvent) {
			log.Debug().Str("resource", event.Resource).Msg("Change event")
			_ = res.Refresh(ctx, event.Resource)
		})
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Str("url", wsURL).Msg("Change stream lost, reconnecting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(watchBackoff):
		}
	}
}
