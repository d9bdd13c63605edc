// Command fileserver serves a directory over HTTP. Requests are handled as
// pollen tasks on a worker executor; file reads run on a blocking pool.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/baxromumarov/pollen"
	"github.com/baxromumarov/pollen/fileserve"
)

func main() {
	cfg, err := loadConfig(os.Args[1:], os.Getenv)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("fileserver stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exec := pollen.NewWorkerExecutor(cfg.Workers,
		pollen.WithPanicAsError(),
		pollen.WithMaxErrors(100),
		pollen.WithOnEvent(func(ev pollen.TaskEvent) {
			switch ev.Kind {
			case pollen.EventPanicked, pollen.EventStalled:
				log.Error("task failed", "task", ev.Task.Name, "kind", ev.Kind.String(), "error", ev.Err)
			}
		}),
	)
	reads := pollen.NewBlockingPool(cfg.ReadWorkers)

	srv := fileserve.NewDir(cfg.Root,
		fileserve.WithBlockingPool(reads),
		fileserve.WithMaxInFlight(cfg.MaxInFlight),
		fileserve.WithLogger(log),
	)
	var extra []fileserve.Route
	if cfg.Echo {
		extra = append(extra, fileserve.EchoRoute())
	}

	httpSrv := &http.Server{
		Addr:    cfg.Addr,
		Handler: fileserve.HTTPHandler(srv.Router(extra...), exec, log),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.Addr, "root", cfg.Root, "workers", cfg.Workers)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		err := httpSrv.Shutdown(sctx)
		err = errors.Join(err, exec.Shutdown(sctx))
		reads.Close()
		st := exec.Stats()
		log.Info("shut down", "spawned", st.Spawned, "errored", st.Errored, "stalled", st.Stalled)
		return err
	})
	return g.Wait()
}
