package classify

import (
	"bytes"
	"encoding/json"
	"strings"
)

// MIME patterns produced by Classify.
const (
	PatternImage    = "image/*"
	PatternVideo    = "video/*"
	PatternPDF      = "application/pdf"
	PatternCSV      = "text/csv"
	PatternFallback = "text/plain"
)

// table maps every recognized extension to its pattern.
// Anything missing here falls through to PatternFallback.
var table = map[string]string{
	".png":  PatternImage,
	".jpg":  PatternImage,
	".jpeg": PatternImage,
	".gif":  PatternImage,
	".avif": PatternImage,
	".bmp":  PatternImage,
	".ico":  PatternImage,
	".svg":  PatternImage,
	".tiff": PatternImage,
	".webp": PatternImage,

	".avi":  PatternVideo,
	".mp4":  PatternVideo,
	".mpeg": PatternVideo,
	".ogg":  PatternVideo,
	".webm": PatternVideo,

	".pdf": PatternPDF,

	".csv": PatternCSV,
}

// PatternFor returns the MIME pattern an extension is grouped under.
func PatternFor(extension string) string {
	if p, ok := table[extension]; ok {
		return p
	}
	return PatternFallback
}

// Groups is an ordered mapping from MIME pattern to the extensions grouped
// under it. Patterns keep first-appearance order and extensions keep input
// order. The zero value is an empty mapping.
type Groups struct {
	order []string
	exts  map[string][]string
}

// Classify groups extensions by MIME pattern.
// Every extension appears in exactly one group. Empty input yields empty
// Groups.
func Classify(extensions []string) Groups {
	var g Groups
	for _, ext := range extensions {
		g.add(PatternFor(ext), ext)
	}
	return g
}

func (g *Groups) add(pattern, ext string) {
	if g.exts == nil {
		g.exts = make(map[string][]string)
	}
	if _, ok := g.exts[pattern]; !ok {
		g.order = append(g.order, pattern)
	}
	g.exts[pattern] = append(g.exts[pattern], ext)
}

// Len returns the number of patterns.
func (g Groups) Len() int {
	return len(g.order)
}

// Patterns returns the patterns in first-appearance order.
func (g Groups) Patterns() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Extensions returns the extensions grouped under pattern, or nil.
func (g Groups) Extensions(pattern string) []string {
	exts, ok := g.exts[pattern]
	if !ok {
		return nil
	}
	out := make([]string, len(exts))
	copy(out, exts)
	return out
}

// Map returns a copy of the grouping as a plain map.
func (g Groups) Map() map[string][]string {
	m := make(map[string][]string, len(g.order))
	for _, p := range g.order {
		m[p] = g.Extensions(p)
	}
	return m
}

// Accept flattens the grouping into an accept list: each pattern followed by
// its extensions.
func (g Groups) Accept() []string {
	var out []string
	for _, p := range g.order {
		out = append(out, p)
		out = append(out, g.exts[p]...)
	}
	return out
}

// AcceptAttr returns the accept list joined for an <input accept> attribute.
func (g Groups) AcceptAttr() string {
	return strings.Join(g.Accept(), ",")
}

// String implements fmt.Stringer.
func (g Groups) String() string {
	return g.AcceptAttr()
}

// Accepts reports whether a file with the given name and MIME type passes
// the accept list. An empty grouping accepts everything.
//
// A file passes when its name ends with a listed extension, its MIME type
// equals a listed pattern, or a "type/*" pattern matches its base type.
// Comparisons are case-insensitive and MIME parameters are ignored.
func (g Groups) Accepts(name, mimeType string) bool {
	if len(g.order) == 0 {
		return true
	}

	name = strings.ToLower(name)
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	baseType, _, _ := strings.Cut(mimeType, "/")

	for _, item := range g.Accept() {
		item = strings.ToLower(strings.TrimSpace(item))
		switch {
		case strings.HasPrefix(item, "."):
			if strings.HasSuffix(name, item) {
				return true
			}
		case strings.HasSuffix(item, "/*"):
			if mimeType != "" && baseType == strings.TrimSuffix(item, "/*") {
				return true
			}
		default:
			if mimeType == item {
				return true
			}
		}
	}
	return false
}

// MarshalJSON encodes the grouping as a JSON object whose keys keep
// pattern order.
func (g Groups) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range g.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(g.exts[p])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
