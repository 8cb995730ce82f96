package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/markolybrx/Celi-AI/internal/store"
)

// ServeMedia streams a stored blob (entry image or voice note) back to
// an authenticated user.
func ServeMedia(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := requireAuth(r); !ok {
		unauthorized(w)
		return
	}

	id := chi.URLParam(r, "id")
	data, contentType, err := mediaStore.Get(id)
	if err != nil {
		if err == store.ErrMediaNotFound {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to load media",
		})
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.Write(data)
}
