package main

import (
	"log"
	"net/http"
	"strconv"
	"time"
)

// statusWriter proxies http.ResponseWriter and records status and
// response length for the access log. It forwards Flush so the event
// stream endpoint keeps working behind it.
type statusWriter struct {
	http.ResponseWriter
	status int
	length int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.length += n
	return n, err
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// HttpLog wraps a handler with an access log line per request.
func HttpLog(handle http.Handler) http.HandlerFunc {
	if handle == nil {
		handle = http.DefaultServeMux
	}
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		writer := statusWriter{ResponseWriter: w}
		handle.ServeHTTP(&writer, r)
		latency := time.Since(start)

		log.Printf("%s \"%s %s %s\" %d %d %s %dms",
			r.RemoteAddr,
			r.Method,
			r.URL.String(),
			r.Proto,
			writer.status,
			writer.length,
			strconv.Quote(r.Header.Get("User-Agent")),
			latency.Milliseconds())
	}
}
