package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"time"
)

type config struct {
	Addr            string
	Root            string
	Workers         int
	ReadWorkers     int
	MaxInFlight     int
	ShutdownTimeout time.Duration
	LogLevel        slog.Level
	Echo            bool
}

// loadConfig reads flags, then lets FILESERVE_* environment variables
// override them.
func loadConfig(args []string, getenv func(string) string) (config, error) {
	cfg := config{
		Addr:            ":3000",
		Root:            "files",
		Workers:         runtime.NumCPU(),
		ReadWorkers:     4,
		MaxInFlight:     64,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        slog.LevelInfo,
		Echo:            true,
	}

	fl := flag.NewFlagSet("fileserver", flag.ContinueOnError)
	fl.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fl.StringVar(&cfg.Root, "root", cfg.Root, "directory to serve")
	fl.IntVar(&cfg.Workers, "workers", cfg.Workers, "executor worker goroutines")
	fl.IntVar(&cfg.ReadWorkers, "read-workers", cfg.ReadWorkers, "blocking file read workers")
	fl.IntVar(&cfg.MaxInFlight, "max-in-flight", cfg.MaxInFlight, "concurrent file reads")
	fl.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "graceful shutdown limit")
	fl.TextVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fl.BoolVar(&cfg.Echo, "echo", cfg.Echo, "enable POST /echo")
	if err := fl.Parse(args); err != nil {
		return cfg, err
	}

	var errs []error
	env := func(key string, apply func(string) error) {
		if v := getenv(key); v != "" {
			if err := apply(v); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
			}
		}
	}
	env("FILESERVE_ADDR", func(v string) error { cfg.Addr = v; return nil })
	env("FILESERVE_ROOT", func(v string) error { cfg.Root = v; return nil })
	env("FILESERVE_WORKERS", intVar(&cfg.Workers))
	env("FILESERVE_READ_WORKERS", intVar(&cfg.ReadWorkers))
	env("FILESERVE_MAX_IN_FLIGHT", intVar(&cfg.MaxInFlight))
	env("FILESERVE_SHUTDOWN_TIMEOUT", func(v string) (err error) {
		cfg.ShutdownTimeout, err = time.ParseDuration(v)
		return err
	})
	env("FILESERVE_LOG_LEVEL", func(v string) error { return cfg.LogLevel.UnmarshalText([]byte(v)) })
	env("FILESERVE_ECHO", func(v string) (err error) {
		cfg.Echo, err = strconv.ParseBool(v)
		return err
	})

	if cfg.Workers <= 0 || cfg.ReadWorkers <= 0 || cfg.MaxInFlight <= 0 {
		errs = append(errs, errors.New("workers, read-workers and max-in-flight must be positive"))
	}
	if st, err := os.Stat(cfg.Root); err != nil {
		errs = append(errs, fmt.Errorf("root: %w", err))
	} else if !st.IsDir() {
		errs = append(errs, fmt.Errorf("root %q is not a directory", cfg.Root))
	}
	return cfg, errors.Join(errs...)
}

func intVar(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}
