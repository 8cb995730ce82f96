package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/markolybrx/Celi-AI/internal/store"
)

// GetHistory returns the user's entries newest first, paginated with
// ?limit= and ?skip=.
func GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requireAuth(r)
	if !ok {
		unauthorized(w)
		return
	}

	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	skip := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("skip")); err == nil && v > 0 {
		skip = v
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	entries, total, err := historyStore.List(ctx, userID, limit, skip)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to load history",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"entries": entries,
		"total":   total,
		"limit":   limit,
		"skip":    skip,
	})
}

// GetEntry returns one entry by its timestamp identity, including any
// enrichment fields the worker has patched in by now.
func GetEntry(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requireAuth(r)
	if !ok {
		unauthorized(w)
		return
	}

	timestamp, err := strconv.ParseInt(chi.URLParam(r, "timestamp"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid entry id",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	entry, err := historyStore.Get(ctx, userID, timestamp)
	if err != nil {
		if err == store.ErrEntryNotFound {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{
				"success": false,
				"message": "Entry not found",
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to load entry",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"entry":   entry,
	})
}
