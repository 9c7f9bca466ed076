// pager is an interactive browser for a paginated collection.
//
// Usage:
//
//	pager --config <file>
//	pager --url <endpoint> [--page-size N]
//
// Commands (in REPL):
//
//	page <n> [size]   Load page n
//	next / prev       Load the page after or before the current one
//	items [limit]     List held records
//	status            Show buffer state
//	fork              Fork the active buffer and switch to it
//	use <n>           Switch to buffer n
//	buffers           List buffers
//	get <key>         Look a record up in the shared store
//	export <file>     Write held records as JSON
//	stats             Show load counters
//	help              Show this help
//	exit / quit / q   Exit
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	flag "github.com/spf13/pflag"

	"github.com/tailored-agentic-units/pager/observability"
	"github.com/tailored-agentic-units/pager/pager"
)

func main() {
	var (
		configFile = flag.StringP("config", "c", "", "Path to pager config JSON file")
		url        = flag.StringP("url", "u", "", "Collection endpoint (overrides config)")
		kind       = flag.String("source", "", "Source kind: http or connect (overrides config)")
		pageSize   = flag.IntP("page-size", "n", 0, "Items per page (overrides config)")
		observer   = flag.String("observer", "", fmt.Sprintf("Named event observer %v; events go to stderr when unset", observability.Observers()))
		verbose    = flag.BoolP("verbose", "v", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	if *configFile == "" && *url == "" {
		fmt.Fprintln(os.Stderr, "Usage: pager --config <file> | --url <endpoint>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := pager.DefaultConfig()
	if *configFile != "" {
		loaded, err := pager.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}

	if *kind != "" {
		cfg.Source.Kind = pager.SourceKind(*kind)
	}
	if *url != "" {
		cfg.Source.HTTP.URL = *url
		cfg.Source.Connect.BaseURL = *url
	}
	if *pageSize > 0 {
		cfg.Buffer.PageSize = *pageSize
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var opts []pager.Option
	if *observer != "" {
		cfg.Buffer.Observer = *observer
	} else {
		opts = append(opts, pager.WithLogger(logger))
	}

	p, err := pager.New(&cfg, opts...)
	if err != nil {
		log.Fatalf("Failed to create pager: %v", err)
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	repl := &REPL{pager: p}
	if err := repl.Run(ctx); err != nil {
		log.Fatalf("pager: %v", err)
	}
}
