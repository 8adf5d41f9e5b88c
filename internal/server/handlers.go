package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmallon/wellness-tracker/internal/activity"
	"github.com/jmallon/wellness-tracker/internal/receipt"
)

// maxUploadSize bounds multipart uploads; high-resolution phone photos run
// large
const maxUploadSize = int64(50 << 20) // 50MB

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error payload with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleLogActivity records an activity for the authenticated user
func (s *Server) handleLogActivity(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		Kind string `json:"kind"`
		Date string `json:"date"` // YYYY-MM-DD, defaults to today
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var date time.Time
	if req.Date != "" {
		var err error
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			jsonError(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	record, err := s.activities.Log(userID, activity.Kind(req.Kind), date, req.Note)
	if err != nil {
		slog.Error("Error logging activity", "user", userID, "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// handleListActivities returns the authenticated user's activity records
func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request, userID string) {
	kind := activity.Kind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.Valid() {
		jsonError(w, "Unknown activity kind", http.StatusBadRequest)
		return
	}

	records, err := s.activities.List(userID, kind)
	if err != nil {
		slog.Error("Error listing activities", "user", userID, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// handleStreaks recomputes and returns the authenticated user's streaks
func (s *Server) handleStreaks(w http.ResponseWriter, r *http.Request, userID string) {
	summary, err := s.activities.Streaks(userID)
	if err != nil {
		slog.Error("Error computing streaks", "user", userID, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// handleUploadReceipt handles receipt upload and scanning. An optional
// estimated_total form field (dollars) enables the savings comparison.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request, userID string) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		jsonError(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		jsonError(w, "File is too large. Maximum size is 50MB.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	var estimatedCents *int64
	if raw := r.FormValue("estimated_total"); raw != "" {
		cents, err := receipt.ParseDollars(raw)
		if err != nil {
			jsonError(w, "Invalid estimated_total", http.StatusBadRequest)
			return
		}
		estimatedCents = &cents
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFromExt(header.Filename)
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	rec, err := s.receipts.ProcessReceipt(userID, header.Filename, data, contentType, estimatedCents)
	if err != nil {
		slog.Error("Error processing receipt", "filename", header.Filename, "error", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func contentTypeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleListReceipts returns the authenticated user's receipts
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request, userID string) {
	receipts, err := s.receipts.ListReceipts(userID)
	if err != nil {
		slog.Error("Error listing receipts", "user", userID, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, receipts)
}

// handleGetReceipt returns a single receipt
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request, userID string) {
	rec, ok := s.ownedReceipt(w, r, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleGetReceiptFile returns the stored image for a receipt
func (s *Server) handleGetReceiptFile(w http.ResponseWriter, r *http.Request, userID string) {
	rec, ok := s.ownedReceipt(w, r, userID)
	if !ok {
		return
	}

	data, contentType, err := s.receipts.GetReceiptFile(rec.ID)
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteReceipt deletes a receipt and its stored image
func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request, userID string) {
	rec, ok := s.ownedReceipt(w, r, userID)
	if !ok {
		return
	}

	if err := s.receipts.DeleteReceipt(rec.ID); err != nil {
		slog.Error("Error deleting receipt", "id", rec.ID, "error", err)
		corsError(w, "Error deleting receipt", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ownedReceipt loads the path receipt and checks it belongs to the caller.
// Foreign receipts 404 rather than 403 so IDs are not probeable.
func (s *Server) ownedReceipt(w http.ResponseWriter, r *http.Request, userID string) (*receipt.Receipt, bool) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Receipt ID required", http.StatusBadRequest)
		return nil, false
	}
	rec, err := s.receipts.GetReceipt(id)
	if err != nil || rec.UserID != userID {
		corsError(w, "Receipt not found", http.StatusNotFound)
		return nil, false
	}
	return rec, true
}
