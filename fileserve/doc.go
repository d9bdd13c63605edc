// Package fileserve serves files from an [io/fs.FS] on top of pollen tasks.
//
// A [Router] maps a request's method and path to a [Handler], first match
// wins. Handlers return tasks; [FileServer] handlers return a [FileTask]
// that sanitizes the path, reads the file on a worker goroutine and
// resolves to a [Response] with a Content-Type chosen by extension.
//
// Failures never reach the transport. A failed handler is replaced by the
// not-found handler, and if that fails as well by a fixed 404 response:
//
//	srv := fileserve.NewDir("files")
//	router := srv.Router(fileserve.EchoRoute())
//	exec := pollen.NewWorkerExecutor(4)
//	http.Handle("/", fileserve.HTTPHandler(router, exec, logger))
//
// Missing files and other I/O failures are both served as 404; the
// [FileError] kinds keep them apart for logging and tests.
package fileserve
