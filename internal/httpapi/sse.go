package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/jobs"
)

// handleJobEvents streams one job's state as server-sent events: an
// immediate snapshot, then an update per tick until the job is
// terminal or the client goes away.
func (s *Server) handleJobEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.queue.Get(id); !ok {
		WriteError(w, http.StatusNotFound, "job not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	send := func() (terminal, ok bool) {
		job, found := s.queue.Get(id)
		if !found {
			return true, false
		}
		payload, err := json.Marshal(job)
		if err != nil {
			return true, false
		}
		if _, err := fmt.Fprintf(w, "event: status\ndata: %s\n\n", payload); err != nil {
			return true, false
		}
		flusher.Flush()
		return job.Status == jobs.StatusSuccess || job.Status == jobs.StatusFailed, true
	}

	if terminal, ok := send(); terminal || !ok {
		return
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if terminal, ok := send(); terminal || !ok {
				return
			}
		}
	}
}
