// Command actorkerneld is the process entrypoint (spec.md §6 "CLI"):
// invoked with a single configuration-file-path argument, it loads
// config, wires a Kernel, registers the native logger and bootstrap
// services, and runs until every thread exits or a termination signal
// arrives.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nmxmxh/actorkernel/internal/config"
	"github.com/nmxmxh/actorkernel/internal/daemonize"
	"github.com/nmxmxh/actorkernel/internal/kernel"
	"github.com/nmxmxh/actorkernel/internal/logging"
	"github.com/nmxmxh/actorkernel/services/bootstrap"
	"github.com/nmxmxh/actorkernel/services/logger"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <config-file>\n", os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "actorkerneld: %v\n", err)
		os.Exit(1)
	}

	var pidfile *daemonize.Pidfile
	if cfg.Daemon != "" {
		pidfile, err = daemonize.Acquire(cfg.Daemon)
		if err != nil {
			fmt.Fprintf(os.Stderr, "actorkerneld: %v\n", err)
			os.Exit(1)
		}
		defer pidfile.Release()

		if err := daemonize.Daemonize(); err != nil {
			fmt.Fprintf(os.Stderr, "actorkerneld: daemonize: %v\n", err)
			os.Exit(1)
		}
	}

	log := logging.New(logging.Config{
		Level:     logging.INFO,
		Component: "actorkerneld",
		Colorize:  cfg.Daemon == "",
	})
	logging.SetGlobal(log)

	k := kernel.New(cfg, log)

	// The logger module name is whatever logservice names (default
	// "logger"); the bootstrap module name is the first word of the
	// bootstrap command line (default "snlua", standing in for the
	// original's scripting-layer loader, which is out of scope here).
	// Both are registered under every name a default or override could
	// plausibly ask for.
	k.RegisterNative(cfg.LogService, logger.Factory)
	k.RegisterNative("logger", logger.Factory)
	k.RegisterNative("snlua", bootstrap.Factory)
	k.RegisterNative("bootstrap", bootstrap.Factory)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("actorkerneld: termination signal received, shutting down")
		k.Shutdown()
		cancel()
	}()

	if err := k.Run(ctx); err != nil {
		log.Fatal("actorkerneld: exiting", logging.Err(err))
	}
}
