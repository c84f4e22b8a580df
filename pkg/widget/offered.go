package widget

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/vango-dev/fileupload/pkg/upload"
)

var errNoContent = errors.New("widget: file has no content source")

// OfferedFile is a file offered by the drag-and-drop provider.
type OfferedFile struct {
	// Name is the file name as selected by the user.
	Name string

	// Type is the declared MIME type. When empty it is derived from the
	// extension of Name.
	Type string

	// Size is the declared size in bytes.
	Size int64

	// Open yields the file bytes. It is called at most once per encode.
	Open func() (io.ReadCloser, error)
}

// MIMEType returns the declared type or, if empty, the type registered for
// the file extension.
func (f OfferedFile) MIMEType() string {
	if f.Type != "" {
		return f.Type
	}
	return mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name)))
}

// FromBytes offers in-memory contents.
func FromBytes(name string, data []byte) OfferedFile {
	return OfferedFile{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FromPath offers a local file. The type is derived from the extension.
func FromPath(path string) (OfferedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return OfferedFile{}, err
	}
	if info.IsDir() {
		return OfferedFile{}, errors.New("widget: " + path + " is a directory")
	}
	return OfferedFile{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FromUpload offers a file claimed from an upload store. The caller keeps
// ownership of f and closes it once the offer returns.
func FromUpload(f *upload.File) OfferedFile {
	return OfferedFile{
		Name: f.Filename,
		Type: f.ContentType,
		Size: f.Size,
		Open: func() (io.ReadCloser, error) {
			if f.Reader == nil {
				return nil, errNoContent
			}
			return io.NopCloser(f.Reader), nil
		},
	}
}
