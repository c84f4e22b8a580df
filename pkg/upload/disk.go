package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// On-disk layout, all in one flat directory:
//
//	<id>          published upload bytes
//	<id>.meta     sidecar describing the upload
//	<id>.claimed  bytes held by an open claim
//	*.part        an upload still being written
const (
	metaSuffix    = ".meta"
	claimedSuffix = ".claimed"
	partPattern   = "upload-*.part"
)

// DiskStore keeps uploads in a local directory. The directory is the only
// state, so uploads saved by one process can be claimed by the next.
type DiskStore struct {
	dir     string
	maxSize int64
}

// sidecar is the JSON written next to every upload.
type sidecar struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewDiskStore creates dir if needed. maxSize caps every upload in bytes;
// 0 disables the cap.
func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("upload: create store dir: %w", err)
	}
	return &DiskStore{dir: dir, maxSize: maxSize}, nil
}

// Dir returns the directory files are stored in.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save streams r into a part file, writes the sidecar and then publishes
// the bytes under a new temp ID. A failed save leaves nothing behind.
func (s *DiskStore) Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.maxSize > 0 && size > s.maxSize {
		return "", ErrTooLarge
	}

	part, err := os.CreateTemp(s.dir, partPattern)
	if err != nil {
		return "", fmt.Errorf("upload: create part file: %w", err)
	}
	published := false
	defer func() {
		if !published {
			os.Remove(part.Name())
		}
	}()

	written, err := s.copyLimited(ctx, part, r)
	if cerr := part.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", err
	}

	tempID := generateTempID()
	meta := sidecar{
		Filename:    filename,
		ContentType: contentType,
		Size:        written,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.writeSidecar(tempID, meta); err != nil {
		return "", err
	}
	if err := os.Rename(part.Name(), s.path(tempID)); err != nil {
		os.Remove(s.path(tempID + metaSuffix))
		return "", fmt.Errorf("upload: publish %s: %w", tempID, err)
	}
	published = true

	return tempID, nil
}

// copyLimited copies r to w. The declared size is not trusted, so the cap
// is enforced on the bytes actually read.
func (s *DiskStore) copyLimited(ctx context.Context, w io.Writer, r io.Reader) (int64, error) {
	src := &ctxReader{ctx: ctx, r: r}
	if s.maxSize <= 0 {
		return io.Copy(w, src)
	}
	n, err := io.Copy(w, io.LimitReader(src, s.maxSize+1))
	if err != nil {
		return n, err
	}
	if n > s.maxSize {
		return n, ErrTooLarge
	}
	return n, nil
}

// Claim takes ownership of an upload. Renaming the bytes aside makes the
// claim exclusive: a second Claim for the same ID fails with ErrNotFound
// even while the first File is still open. Closing the File deletes the
// bytes and the sidecar.
func (s *DiskStore) Claim(ctx context.Context, tempID string) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validTempID(tempID) {
		return nil, ErrNotFound
	}

	claimed := s.path(tempID + claimedSuffix)
	if err := os.Rename(s.path(tempID), claimed); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("upload: claim %s: %w", tempID, err)
	}

	metaPath := s.path(tempID + metaSuffix)
	meta, err := readSidecar(metaPath)
	if err != nil {
		// Bytes without a readable sidecar cannot be described; drop them.
		os.Remove(claimed)
		os.Remove(metaPath)
		return nil, ErrNotFound
	}

	f, err := os.Open(claimed)
	if err != nil {
		os.Remove(claimed)
		os.Remove(metaPath)
		return nil, fmt.Errorf("upload: open %s: %w", tempID, err)
	}

	return &File{
		ID:          tempID,
		Filename:    meta.Filename,
		ContentType: meta.ContentType,
		Size:        meta.Size,
		Path:        claimed,
		Reader:      &claimedFile{File: f, sidecar: metaPath},
	}, nil
}

// Cleanup deletes every regular file in the store directory whose
// modification time is older than maxAge. That covers expired uploads,
// their sidecars, abandoned part files and files of dead processes.
// Subdirectories are not visited.
func (s *DiskStore) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("upload: read store dir: %w", err)
	}

	var errs []error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(s.path(entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *DiskStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *DiskStore) writeSidecar(tempID string, meta sidecar) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path(tempID+metaSuffix), data, 0644); err != nil {
		return fmt.Errorf("upload: write sidecar: %w", err)
	}
	return nil
}

func readSidecar(path string) (sidecar, error) {
	var meta sidecar
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

// claimedFile removes the claimed bytes and the sidecar on Close.
type claimedFile struct {
	*os.File
	sidecar string
}

func (f *claimedFile) Close() error {
	err := f.File.Close()
	os.Remove(f.File.Name())
	os.Remove(f.sidecar)
	return err
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
