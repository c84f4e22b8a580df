package upload

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned when a temp file doesn't exist.
var ErrNotFound = errors.New("upload: file not found")

// ErrTooLarge is returned when a file exceeds the size limit.
var ErrTooLarge = errors.New("upload: file too large")

// ErrTypeNotAllowed is returned when a file's detected type is not allowed.
var ErrTypeNotAllowed = errors.New("upload: file type not allowed")

// SizeUnknown is passed to Store.Save when the caller cannot tell the size
// up front. Stores still enforce their limit while copying.
const SizeUnknown int64 = -1

// Store is the interface for upload storage backends.
type Store interface {
	// Save stores the uploaded file and returns a temp ID.
	// The file is kept until Claim is called or Cleanup expires it.
	Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (tempID string, err error)

	// Claim retrieves a temp file. The temp file is deleted once the
	// returned File is closed.
	Claim(ctx context.Context, tempID string) (*File, error)

	// Cleanup removes temp files older than maxAge.
	// Call this periodically (e.g., every 5 minutes).
	Cleanup(ctx context.Context, maxAge time.Duration) error
}

// File represents an uploaded file.
type File struct {
	// ID is the temp ID the file was stored under.
	ID string

	// Filename is the original filename from the client.
	Filename string

	// ContentType is the MIME type detected when the file was saved.
	ContentType string

	// Size is the file size in bytes.
	Size int64

	// Path is the local filesystem path (DiskStore only).
	Path string

	// URL is a presigned download URL (S3Store only, may be empty).
	URL string

	// Reader provides access to the file contents.
	Reader io.ReadCloser
}

// Close closes the file reader if open.
func (f *File) Close() error {
	if f.Reader != nil {
		return f.Reader.Close()
	}
	return nil
}

// Config holds configuration for the upload handler.
type Config struct {
	// MaxFileSize is the maximum allowed size of a single file in bytes.
	// Default: 100MB.
	MaxFileSize int64

	// MaxRequestSize bounds the whole multipart body in bytes.
	// Default: MaxFileSize * MaxFiles plus 1MB of multipart overhead.
	MaxRequestSize int64

	// MaxFiles is the maximum number of files per request.
	// Default: 32.
	MaxFiles int

	// AllowedTypes is a list of allowed MIME types, matched against the
	// detected type. If empty, all types are allowed.
	AllowedTypes []string

	// TempExpiry is how long unclaimed temp files live before cleanup.
	// Default: 1 hour.
	TempExpiry time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize: 100 << 20,
		MaxFiles:    32,
		TempExpiry:  time.Hour,
	}
}

func (c *Config) withDefaults() Config {
	out := *c
	def := DefaultConfig()
	if out.MaxFileSize <= 0 {
		out.MaxFileSize = def.MaxFileSize
	}
	if out.MaxFiles <= 0 {
		out.MaxFiles = def.MaxFiles
	}
	if out.MaxRequestSize <= 0 {
		out.MaxRequestSize = out.MaxFileSize*int64(out.MaxFiles) + 1<<20
	}
	if out.TempExpiry <= 0 {
		out.TempExpiry = def.TempExpiry
	}
	return out
}

// generateTempID generates a cryptographically random temp ID.
func generateTempID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// validTempID reports whether id has the shape generateTempID produces.
// Anything else is rejected before touching storage.
func validTempID(id string) bool {
	if len(id) != 32 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
