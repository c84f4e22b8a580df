package widget

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// File is one uploaded file: its name and its contents in standard,
// padded base64. It marshals as the JSON array [name, contents].
type File struct {
	Name     string
	Contents string
}

// MarshalJSON encodes f as a two-element array.
func (f File) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{f.Name, f.Contents})
}

// UnmarshalJSON decodes a two-element [name, contents] array.
func (f *File) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("widget: file: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("widget: file: want [name, contents], got %d elements", len(pair))
	}
	f.Name, f.Contents = pair[0], pair[1]
	return nil
}

// Bytes decodes the contents.
func (f File) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.Contents)
}

// Size returns the decoded length of the contents.
func (f File) Size() int64 {
	n := len(f.Contents)
	if n == 0 {
		return 0
	}
	pad := n - len(strings.TrimRight(f.Contents, "="))
	return int64(n/4*3 - pad)
}

// Value is the widget value: uploaded files in acceptance order.
// The cleared value is empty and marshals to [].
type Value []File

// MarshalJSON encodes v, writing [] for a nil value.
func (v Value) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]File(v))
}

// Names returns the file names in order.
func (v Value) Names() []string {
	names := make([]string, len(v))
	for i, f := range v {
		names[i] = f.Name
	}
	return names
}

// Size returns the total decoded size of all files.
func (v Value) Size() int64 {
	var total int64
	for _, f := range v {
		total += f.Size()
	}
	return total
}

// Clone returns a copy that shares no backing array with v.
func (v Value) Clone() Value {
	out := make(Value, len(v))
	copy(out, v)
	return out
}
