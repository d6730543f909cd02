// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

// Command wmiq runs WQL queries against the local or a remote WMI service.
//
//	wmiq [-namespace N] [-config file] query "SELECT * FROM Win32_OperatingSystem"
//	wmiq [-namespace N] [-config file] serve [-listen :8080] [-watch]
//	wmiq [-namespace N] [-config file] service install|remove|run|debug [serve flags]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	log "github.com/hpe-storage/wmiclient/logger"
	"github.com/hpe-storage/wmiclient/util"
	"github.com/hpe-storage/wmiclient/wmi"
)

const (
	defaultListen = ":8080"
	serviceName   = "wmiq"
)

var errUsage = errors.New("usage: wmiq [-namespace N] [-config file] [-log-level L] [-log-file F] [-trace] " +
	"query \"<wql>\" | serve [-listen addr] [-watch] | service install|remove|run|debug [serve flags]")

// loadFunc reads the session settings, with the command line overrides applied
type loadFunc func() (*wmi.Config, error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, wmi.Connect); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, connect connectFunc) error {
	flags := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	namespace := flags.String("namespace", "", "WMI namespace, e.g. ROOT\\CIMV2")
	configFile := flags.String("config", "", "TOML file with the WMI session settings")
	logLevel := flags.String("log-level", "", "trace, debug, info, warn or error")
	logFile := flags.String("log-file", "", "also log to this file")
	tracing := flags.Bool("trace", false, "report spans to Jaeger (JAEGER_* environment)")
	if err := flags.Parse(args); err != nil {
		return errUsage
	}

	if err := log.InitLogging(*logFile, &log.LogParams{Level: *logLevel}, true); err != nil {
		return err
	}
	if *tracing {
		closer, err := log.InitTracing(serviceName)
		if err != nil {
			return err
		}
		defer closer.Close()
	}

	load := func() (*wmi.Config, error) {
		config, err := wmi.LoadConfig(*configFile)
		if err != nil {
			return nil, err
		}
		if *namespace != "" {
			config.Namespace = *namespace
		}
		return config, nil
	}

	rest := flags.Args()
	if len(rest) == 0 {
		return errUsage
	}
	switch rest[0] {
	case "query":
		if len(rest) != 2 || rest[1] == "" {
			return errUsage
		}
		config, err := load()
		if err != nil {
			return err
		}
		return query(ctx, stdout, connect, config, rest[1])
	case "serve":
		return serve(ctx, rest[1:], connect, load, *configFile)
	case "service":
		global := args[:len(args)-len(rest)]
		return service(ctx, global, rest[1:], connect, load, *configFile)
	}
	return errUsage
}

func query(ctx context.Context, stdout io.Writer, connect connectFunc, config *wmi.Config, wql string) error {
	rows, err := runQuery(ctx, connect, config, wql)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "    ")
	return enc.Encode(rows)
}

func serve(ctx context.Context, args []string, connect connectFunc, load loadFunc, configFile string) error {
	flags := flag.NewFlagSet("serve", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	listen := flags.String("listen", defaultListen, "address to listen on")
	watch := flags.Bool("watch", false, "reload the -config file when it changes")
	if err := flags.Parse(args); err != nil || flags.NArg() != 0 {
		return errUsage
	}
	if *watch && configFile == "" {
		return errUsage
	}

	config, err := load()
	if err != nil {
		return err
	}
	s := &server{config: config, connect: connect}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if *watch {
		if err := watchConfig(ctx, s, load, configFile); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              *listen,
		Handler:           s.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof("Serving WQL queries, listen=%v, namespace=%v", *listen, config.Namespace)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("Unable to serve WQL queries, err=%v", err)
		return err
	}
	return nil
}

// watchConfig reloads the session settings of s whenever configFile changes, until ctx is done.
// A file that no longer loads leaves the previous settings in place.
func watchConfig(ctx context.Context, s *server, load loadFunc, configFile string) error {
	watcher, err := util.InitializeWatcher(func() {
		config, err := load()
		if err != nil {
			log.Errorf("Unable to reload configuration, file=%v, err=%v", configFile, err)
			return
		}
		s.setConfig(config)
		log.Infof("Configuration reloaded, file=%v, namespace=%v", configFile, config.Namespace)
	})
	if err != nil {
		return err
	}
	if err := watcher.AddWatchList([]string{configFile}); err != nil {
		return err
	}
	go watcher.StartWatcher(ctx)
	return nil
}
