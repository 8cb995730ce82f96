package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markolybrx/Celi-AI/internal/models"
	"github.com/markolybrx/Celi-AI/internal/rank"
	"github.com/markolybrx/Celi-AI/internal/services"
	"github.com/markolybrx/Celi-AI/internal/store"
	"github.com/markolybrx/Celi-AI/pkg/utils"
)

// extractBearerToken pulls the token out of an "Authorization: Bearer x" header.
func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireAuth validates the session and returns the authenticated user's
// id and token. Returns ok=false if not authenticated.
func requireAuth(r *http.Request) (userID, token string, ok bool) {
	token = extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return "", "", false
	}
	id, valid, err := services.ValidateSession(token)
	if err != nil || !valid {
		return "", "", false
	}
	return id.String(), token, true
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
		"success": false,
		"message": "Authentication required",
	})
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Token   string                 `json:"token,omitempty"`
	User    map[string]interface{} `json:"user,omitempty"`
}

// Register creates a new user with a fresh progression record
// (rank_index=0, stardust=0) and opens a session.
func Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Invalid request body"})
		return
	}

	username := utils.NormalizeUsername(req.Username)
	if err := utils.ValidateUsername(username); err != nil {
		writeJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: err.Error()})
		return
	}
	if len(req.Password) < 6 {
		writeJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Password must be at least 6 characters"})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, AuthResponse{Success: false, Message: "Failed to create account"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID := uuid.New()
	profile := store.NewProfile(userID.String(), username, hash)
	if err := usersStore.Create(ctx, profile); err != nil {
		if err == store.ErrUsernameTaken {
			writeJSON(w, http.StatusConflict, AuthResponse{Success: false, Message: "Username already taken"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, AuthResponse{Success: false, Message: "Failed to create account"})
		return
	}

	token, err := services.CreateSession(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, AuthResponse{Success: false, Message: "Account created but session failed. Please log in."})
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Welcome to the sky",
		Token:   token,
		User:    profileView(profile),
	})
}

// Login validates credentials and rotates the session.
func Login(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, AuthResponse{Success: false, Message: "Invalid request body"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profile, err := usersStore.ByUsername(ctx, utils.NormalizeUsername(req.Username))
	if err != nil {
		// Same message for unknown user and bad password.
		writeJSON(w, http.StatusUnauthorized, AuthResponse{Success: false, Message: "Invalid Credentials"})
		return
	}

	match, err := utils.VerifyPassword(req.Password, profile.PasswordHash)
	if err != nil || !match {
		writeJSON(w, http.StatusUnauthorized, AuthResponse{Success: false, Message: "Invalid Credentials"})
		return
	}

	userID, err := uuid.Parse(profile.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, AuthResponse{Success: false, Message: "Failed to create session"})
		return
	}
	token, err := services.CreateSession(userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, AuthResponse{Success: false, Message: "Failed to create session"})
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Token:   token,
		User:    profileView(profile),
	})
}

// Logout invalidates the current session.
func Logout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token != "" {
		services.InvalidateSession(token)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// GetMe returns the authenticated profile with rank metadata. Hitting
// it also slides the session expiry, so active users stay signed in.
func GetMe(w http.ResponseWriter, r *http.Request) {
	userID, token, ok := requireAuth(r)
	if !ok {
		unauthorized(w)
		return
	}
	services.RefreshSession(token)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profile, err := usersStore.Profile(ctx, userID)
	if err != nil {
		if err == rank.ErrUserNotFound {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "User not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": "Failed to load profile"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    profileView(profile),
		"rank":    rank.GetRankMeta(profile.RankIndex),
	})
}

func profileView(p *models.UserProfile) map[string]interface{} {
	view := map[string]interface{}{
		"user_id":      p.UserID,
		"username":     p.Username,
		"display_name": p.DisplayName,
		"avatar_url":   p.AvatarURL,
		"bio":          p.Bio,
		"rank_index":   p.RankIndex,
		"rank_title":   p.RankTitle,
		"stardust":     p.Stardust,
		"created_at":   p.CreatedAt,
	}
	if p.LastAwardDate != "" {
		view["last_award_date"] = p.LastAwardDate
	}
	return view
}
