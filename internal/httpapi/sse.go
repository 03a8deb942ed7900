package httpapi

import (
	"fmt"
	"net/http"
)

// sseWriter streams arrival-ordered data frames to a client: set
// headers once, flush after every frame.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// newSSEWriter sets the SSE response headers and wraps w. Returns an
// error if w doesn't support flushing.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("httpapi: ResponseWriter does not support streaming")
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &sseWriter{w: w, flusher: flusher}, nil
}

// writeData writes one `data: <payload>\n\n` frame and flushes
// immediately.
func (s *sseWriter) writeData(payload string) error {
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// writeDone writes the OpenAI-family terminator frame.
func (s *sseWriter) writeDone() error {
	return s.writeData("[DONE]")
}
