package widget

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Rejection and EncodingError unwrap to them.
var (
	ErrFileTooLarge     = errors.New("widget: file too large")
	ErrFileTypeRejected = errors.New("widget: file type rejected")
	ErrTooManyFiles     = errors.New("widget: too many files")
	ErrEncodingFailed   = errors.New("widget: encoding failed")
	ErrInvalidConfig    = errors.New("widget: invalid config")
)

// ReasonCode identifies why a file was not uploaded.
type ReasonCode string

const (
	ReasonFileTooLarge    ReasonCode = "file-too-large"
	ReasonFileInvalidType ReasonCode = "file-invalid-type"
	ReasonTooManyFiles    ReasonCode = "too-many-files"
	ReasonEncodingFailed  ReasonCode = "encoding-failed"
)

// Err returns the sentinel for the code.
func (c ReasonCode) Err() error {
	switch c {
	case ReasonFileTooLarge:
		return ErrFileTooLarge
	case ReasonFileInvalidType:
		return ErrFileTypeRejected
	case ReasonTooManyFiles:
		return ErrTooManyFiles
	case ReasonEncodingFailed:
		return ErrEncodingFailed
	default:
		return nil
	}
}

// Reason is one failed check with its user-facing message.
type Reason struct {
	Code    ReasonCode `json:"code"`
	Message string     `json:"message"`
}

func tooLargeReason(maxSize int64) Reason {
	unit := "bytes"
	if maxSize == 1 {
		unit = "byte"
	}
	return Reason{
		Code:    ReasonFileTooLarge,
		Message: fmt.Sprintf("File is larger than %d %s", maxSize, unit),
	}
}

func invalidTypeReason(accept []string) Reason {
	msg := strings.Join(accept, ",")
	if len(accept) > 1 {
		msg = "one of " + strings.Join(accept, ", ")
	}
	return Reason{
		Code:    ReasonFileInvalidType,
		Message: "File type must be " + msg,
	}
}

func tooManyReason() Reason {
	return Reason{Code: ReasonTooManyFiles, Message: "Too many files"}
}

// Rejection is a file that failed validation, with every failed check.
type Rejection struct {
	Filename string   `json:"filename"`
	Reasons  []Reason `json:"reasons"`
}

// Error formats the rejection as "name (reason, reason)".
func (r *Rejection) Error() string {
	msgs := make([]string, len(r.Reasons))
	for i, reason := range r.Reasons {
		msgs[i] = reason.Message
	}
	return fmt.Sprintf("%s (%s)", r.Filename, strings.Join(msgs, ", "))
}

// Unwrap returns the sentinel of every reason.
func (r *Rejection) Unwrap() []error {
	errs := make([]error, 0, len(r.Reasons))
	for _, reason := range r.Reasons {
		if err := reason.Code.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Has reports whether the rejection includes code.
func (r *Rejection) Has(code ReasonCode) bool {
	for _, reason := range r.Reasons {
		if reason.Code == code {
			return true
		}
	}
	return false
}

// EncodingError is a file whose bytes could not be read or encoded.
// It fails the whole batch.
type EncodingError struct {
	Filename string
	Err      error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("widget: encode %q: %v", e.Filename, e.Err)
}

// Unwrap returns ErrEncodingFailed and the underlying error.
func (e *EncodingError) Unwrap() []error {
	return []error{ErrEncodingFailed, e.Err}
}
