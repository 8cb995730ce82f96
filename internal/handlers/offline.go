package handlers

import "net/http"

// DatabaseOffline answers every API request while Mongo or Redis is
// unreachable at boot. The process stays up and reports the outage
// instead of crash-looping.
func DatabaseOffline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
		"success": false,
		"message": "Database Offline",
	})
}
