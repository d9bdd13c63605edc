package fileserve

import (
	"log/slog"
	"net/http"

	"github.com/baxromumarov/pollen"
)

// HTTPHandler serves router over net/http. Each request is spawned as a
// task on sp and the calling goroutine waits for its response.
//
// The wait goes through [pollen.JoinHandle.Wait], so every request also
// builds a small single-threaded Executor on its net/http goroutine to
// drive the join. The request itself runs on sp, which should be a
// [pollen.WorkerExecutor] running on its own goroutines.
func HTTPHandler(router *Router, sp pollen.Spawner, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := FromHTTP(r)
		h := pollen.Spawn(sp, r.Method+" "+r.URL.Path, router.Serve(req))
		defer h.Close()

		resp, err := h.Wait(r.Context())
		if err != nil {
			// The router always resolves; this is a cancelled request or a
			// closed executor.
			log.Warn("request abandoned", "method", r.Method, "path", r.URL.Path, "error", err)
			resp = notFoundResponse()
			if r.Context().Err() != nil {
				return
			}
		}
		if err := resp.Write(w); err != nil {
			log.Warn("write response", "method", r.Method, "path", r.URL.Path, "error", err)
			return
		}
		log.Debug("served", "method", r.Method, "path", r.URL.Path, "status", resp.Status, "bytes", len(resp.Body))
	})
}
