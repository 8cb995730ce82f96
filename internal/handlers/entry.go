package handlers

import (
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/markolybrx/Celi-AI/internal/pipeline"
	"github.com/markolybrx/Celi-AI/internal/rank"
)

// maxUploadBytes caps the whole multipart body; images and voice notes
// only, nobody journals with a feature film.
const maxUploadBytes = 16 << 20

// ProcessEntry accepts one journal turn as multipart form data
// (message, mode, optional image and audio files), runs the full
// pipeline, and returns the reply with the progression outcome.
func ProcessEntry(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := requireAuth(r)
	if !ok {
		unauthorized(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid form data or upload too large",
		})
		return
	}

	message := strings.TrimSpace(r.FormValue("message"))
	input := pipeline.TurnInput{
		UserID:  userID,
		Message: message,
		Mode:    r.FormValue("mode"),
	}

	if up, err := readUpload(r, "image"); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "Could not read image"})
		return
	} else if up != nil {
		input.Image = up
	}
	if up, err := readUpload(r, "audio"); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "message": "Could not read audio"})
		return
	} else if up != nil {
		input.Audio = up
	}

	if message == "" && input.Image == nil && input.Audio == nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Entry is empty",
		})
		return
	}

	result, err := pipe.ProcessTurn(r.Context(), input)
	if err != nil {
		if err == rank.ErrUserNotFound {
			writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "User not found"})
			return
		}
		log.Printf("❌ Entry processing failed for %s: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to save your entry. Please try again.",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"result":  result,
	})
}

// readUpload pulls one optional file field out of the parsed form.
// A missing field is not an error.
func readUpload(r *http.Request, field string) (*pipeline.Upload, error) {
	file, header, err := r.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &pipeline.Upload{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
