package http

import (
	"context"
	"net/http"
	"strconv"

	syncx "github.com/mind-engage/testforge/internal/sync"
)

// EventSource reads the event log. *syncx.EventRepo satisfies it.
type EventSource interface {
	Since(ctx context.Context, seq int64, limit int) ([]syncx.Event, error)
}

// GET /events?since=<seq>&limit=<n>
func ListEventsHandler(src EventSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var since int64
		if v := q.Get("since"); v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil || n < 0 {
				http.Error(w, "bad since", http.StatusBadRequest)
				return
			}
			since = n
		}
		limit, _ := strconv.Atoi(q.Get("limit"))
		events, err := src.Since(r.Context(), since, limit)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}
