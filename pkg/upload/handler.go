package upload

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// FormField is the multipart field name the handler reads files from.
const FormField = "file"

// Saved describes one stored file in the handler response.
type Saved struct {
	TempID      string `json:"temp_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Response is the JSON body returned by the upload handler.
type Response struct {
	Files []Saved `json:"files"`
}

// Handler returns an http.Handler for file uploads.
// Mount this on your router: r.Post("/upload", upload.Handler(store))
//
// The handler expects a multipart form with one or more "file" parts and
// answers with JSON:
//
//	{"files": [{"temp_id": "abc123", "filename": "a.png", "content_type": "image/png", "size": 42}]}
func Handler(store Store) http.Handler {
	return HandlerWithConfig(store, DefaultConfig())
}

// HandlerWithConfig returns an upload handler with custom configuration.
func HandlerWithConfig(store Store, config *Config) http.Handler {
	cfg := config.withDefaults()
	logger := slog.Default().With("component", "upload")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Limit the body before parsing.
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxRequestSize)

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				http.Error(w, "Request too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		headers := r.MultipartForm.File[FormField]
		if len(headers) == 0 {
			http.Error(w, "No file provided", http.StatusBadRequest)
			return
		}
		if len(headers) > cfg.MaxFiles {
			http.Error(w, "Too many files", http.StatusRequestEntityTooLarge)
			return
		}

		resp := Response{Files: make([]Saved, 0, len(headers))}
		for _, fh := range headers {
			saved, err := saveOne(r, store, &cfg, fh)
			if err != nil {
				switch {
				case errors.Is(err, ErrTooLarge):
					http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
				case errors.Is(err, ErrTypeNotAllowed):
					http.Error(w, "Unsupported file type", http.StatusUnsupportedMediaType)
				default:
					logger.Error("upload failed", "file", fh.Filename, "error", err)
					http.Error(w, "Upload failed", http.StatusInternalServerError)
				}
				return
			}
			resp.Files = append(resp.Files, saved)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})
}

func saveOne(r *http.Request, store Store, cfg *Config, fh *multipart.FileHeader) (Saved, error) {
	if fh.Size > cfg.MaxFileSize {
		return Saved{}, ErrTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return Saved{}, err
	}
	defer f.Close()

	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return Saved{}, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Saved{}, err
	}
	if !typeAllowed(detected, cfg.AllowedTypes) {
		return Saved{}, ErrTypeNotAllowed
	}

	contentType := detected.String()
	tempID, err := store.Save(r.Context(), fh.Filename, contentType, fh.Size, f)
	if err != nil {
		return Saved{}, err
	}

	return Saved{
		TempID:      tempID,
		Filename:    fh.Filename,
		ContentType: contentType,
		Size:        fh.Size,
	}, nil
}

// typeAllowed matches the detected type, or any type it specializes
// (text/csv is also text/plain), against allowed.
func typeAllowed(detected *mimetype.MIME, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	for m := detected; m != nil; m = m.Parent() {
		for _, a := range allowed {
			if m.Is(strings.TrimSpace(a)) {
				return true
			}
		}
	}
	return false
}
