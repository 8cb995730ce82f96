package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markolybrx/Celi-AI/internal/models"
	"github.com/markolybrx/Celi-AI/internal/rank"
	"github.com/markolybrx/Celi-AI/internal/services"
	"github.com/markolybrx/Celi-AI/internal/tasks"
)

const clearAccountFlag = "confirm_clear"

// GetProfile returns the profile plus rank card data and progress
// toward the next threshold.
func GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requireAuth(r)
	if !ok {
		unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profile, err := usersStore.Profile(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "User not found"})
		return
	}

	meta := rank.GetRankMeta(profile.RankIndex)
	progress := 100.0
	if meta.NextThreshold > meta.Threshold {
		progress = float64(profile.Stardust-meta.Threshold) / float64(meta.NextThreshold-meta.Threshold) * 100
		if progress > 100 {
			progress = 100
		}
		if progress < 0 {
			progress = 0
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"user":     profileView(profile),
		"rank":     meta,
		"progress": progress,
	})
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
}

// UpdateProfile changes display name and bio.
func UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requireAuth(r)
	if !ok {
		unauthorized(w)
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "Invalid request body"})
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	req.Bio = strings.TrimSpace(req.Bio)
	if len(req.DisplayName) > 50 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "Display name too long (max 50 characters)"})
		return
	}
	if len(req.Bio) > 500 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "Bio too long (max 500 characters)"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := usersStore.UpdateMeta(ctx, userID, req.DisplayName, req.Bio); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": "Failed to update profile"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Profile updated"})
}

// UpdateAvatar uploads a new avatar image to Cloudinary and stores the
// returned URL on the profile.
func UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requireAuth(r)
	if !ok {
		unauthorized(w)
		return
	}
	if cloudinaryService == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"success": false, "message": "Avatar uploads are not configured"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "Invalid form data or image too large"})
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "No avatar file provided"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "Avatar must be an image"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	url, err := cloudinaryService.UploadFile(ctx, file, "celi/avatars")
	if err != nil {
		log.Printf("❌ Avatar upload failed for %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": "Failed to upload avatar"})
		return
	}
	if err := usersStore.SetAvatar(ctx, userID, url); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": "Failed to save avatar"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "avatar_url": url})
}

// GetAllRanks returns the full progression ladder.
func GetAllRanks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"ranks":   rank.AllRanks(),
	})
}

// GetWeeklyInsight returns the stored insight block. ?refresh=1
// enqueues regeneration; the worker patches the profile when done.
func GetWeeklyInsight(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requireAuth(r)
	if !ok {
		unauthorized(w)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if r.URL.Query().Get("refresh") == "1" && taskQueue != nil {
		if err := taskQueue.Enqueue(ctx, tasks.TaskWeeklyInsight, tasks.UserArgs{UserID: userID}); err != nil {
			log.Printf("⚠️ Failed to enqueue weekly insight for %s: %v", userID, err)
		}
	}

	profile, err := usersStore.Profile(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "User not found"})
		return
	}

	insight := profile.WeeklyInsight
	if insight == nil {
		insight = &models.WeeklyInsight{Status: "pending"}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"insight": insight,
	})
}

// GetDailyTrivia returns today's trivia fact, regenerating at most once
// per calendar day. Responses are cached in Redis so the dashboard can
// poll cheaply.
func GetDailyTrivia(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requireAuth(r)
	if !ok {
		unauthorized(w)
		return
	}

	today := time.Now().Format("2006-01-02")
	cacheKey := "trivia:" + userID + ":" + today

	if cacheService != nil {
		var cached models.DailyTrivia
		if hit, _ := cacheService.Get(cacheKey, &cached); hit {
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "trivia": cached})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	profile, err := usersStore.Profile(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "User not found"})
		return
	}

	trivia := profile.DailyTrivia
	if trivia == nil || trivia.Date != today {
		if taskQueue != nil {
			if err := taskQueue.Enqueue(ctx, tasks.TaskDailyTrivia, tasks.UserArgs{UserID: userID}); err != nil {
				log.Printf("⚠️ Failed to enqueue trivia for %s: %v", userID, err)
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"trivia":  nil,
			"message": "Today's trivia is being written",
		})
		return
	}

	if cacheService != nil {
		cacheService.Set(cacheKey, trivia)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "trivia": trivia})
}

type ClearAccountRequest struct {
	Confirm bool `json:"confirm"`
}

// ClearAccount permanently deletes the user's history and profile.
// Two-step: the first call arms a short-lived confirmation flag on the
// session; the second call with {"confirm": true} performs the wipe.
func ClearAccount(w http.ResponseWriter, r *http.Request) {
	userID, token, ok := requireAuth(r)
	if !ok {
		unauthorized(w)
		return
	}

	var req ClearAccountRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	if !req.Confirm || !services.CheckSessionFlag(token, clearAccountFlag) {
		if err := services.SetSessionFlag(token, clearAccountFlag); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": "Failed to start confirmation"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success":          true,
			"confirm_required": true,
			"message":          "This erases every entry and your progression. Send again with confirm=true within 10 minutes.",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := mediaStore.DeleteAllForUser(ctx, userID); err != nil {
		log.Printf("❌ Media wipe failed for %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": "Failed to clear account"})
		return
	}
	if err := historyStore.DeleteAll(ctx, userID); err != nil {
		log.Printf("❌ History wipe failed for %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": "Failed to clear account"})
		return
	}
	if err := usersStore.Delete(ctx, userID); err != nil {
		log.Printf("❌ Profile delete failed for %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"success": false, "message": "Failed to clear account"})
		return
	}

	if cacheService != nil {
		cacheService.Delete("trivia:" + userID + ":" + time.Now().Format("2006-01-02"))
	}
	services.ClearSessionFlag(token, clearAccountFlag)
	if id, err := uuid.Parse(userID); err == nil {
		services.InvalidateUserSessions(id)
	}
	services.InvalidateSession(token)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Your sky has been cleared",
	})
}
