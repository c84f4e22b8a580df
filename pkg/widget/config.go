package widget

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/vango-dev/fileupload/pkg/classify"
)

// Kind selects the widget layout.
type Kind string

const (
	// KindButton renders a compact button with an upload status line.
	KindButton Kind = "button"

	// KindArea renders a drop target.
	KindArea Kind = "area"
)

// DefaultMaxSize is the max_size hosts use when none is configured.
const DefaultMaxSize int64 = 100 << 20

// Valid reports whether k is a known layout.
func (k Kind) Valid() bool {
	return k == KindButton || k == KindArea
}

// Config describes one widget instance. It is not modified after New.
type Config struct {
	// Filetypes are the accepted extensions, each starting with ".".
	// Empty accepts every file.
	Filetypes []string `json:"filetypes"`

	// Multiple allows more than one file per offer.
	Multiple bool `json:"multiple"`

	// Kind is the layout.
	Kind Kind `json:"kind"`

	// Label overrides the default label. It may contain markup and is
	// rendered unescaped.
	Label *string `json:"label"`

	// MaxSize is the largest accepted file in bytes. With 0 only empty
	// files are accepted.
	MaxSize int64 `json:"max_size"`
}

// Groups classifies the configured extensions.
func (c Config) Groups() classify.Groups {
	return classify.Classify(c.Filetypes)
}

// Validate checks the invariants ParseConfig enforces on decoded input.
func (c Config) Validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidConfig, c.Kind)
	}
	if c.MaxSize < 0 {
		return fmt.Errorf("%w: max_size must be non-negative, got %d", ErrInvalidConfig, c.MaxSize)
	}
	for _, ext := range c.Filetypes {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("%w: filetype %q must start with \".\"", ErrInvalidConfig, ext)
		}
	}
	return nil
}

func (c Config) clone() Config {
	out := c
	out.Filetypes = append([]string(nil), c.Filetypes...)
	if c.Label != nil {
		label := *c.Label
		out.Label = &label
	}
	return out
}

// wireConfig mirrors the inbound JSON with pointers so missing fields can
// be told apart from zero values.
type wireConfig struct {
	Filetypes *[]string        `json:"filetypes"`
	Multiple  *bool            `json:"multiple"`
	Kind      *string          `json:"kind"`
	Label     *string          `json:"label"`
	MaxSize   *json.RawMessage `json:"max_size"`
}

// ParseConfig decodes and validates the host-provided widget data:
//
//	{"filetypes": [".png"], "multiple": false, "kind": "button", "label": null, "max_size": 1000}
//
// Every field except label is required. Errors wrap ErrInvalidConfig.
func ParseConfig(data []byte) (Config, error) {
	var w wireConfig
	if err := json.Unmarshal(data, &w); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch {
	case w.Filetypes == nil:
		return Config{}, fmt.Errorf("%w: missing filetypes", ErrInvalidConfig)
	case w.Multiple == nil:
		return Config{}, fmt.Errorf("%w: missing multiple", ErrInvalidConfig)
	case w.Kind == nil:
		return Config{}, fmt.Errorf("%w: missing kind", ErrInvalidConfig)
	case w.MaxSize == nil:
		return Config{}, fmt.Errorf("%w: missing max_size", ErrInvalidConfig)
	}

	maxSize, err := parseMaxSize(*w.MaxSize)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Filetypes: *w.Filetypes,
		Multiple:  *w.Multiple,
		Kind:      Kind(*w.Kind),
		Label:     w.Label,
		MaxSize:   maxSize,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parseMaxSize accepts any integral JSON number, including exponent forms
// such as 1e3. Quoted numbers and fractions are rejected.
func parseMaxSize(raw json.RawMessage) (int64, error) {
	invalid := fmt.Errorf("%w: max_size must be an integer, got %s", ErrInvalidConfig, raw)

	var n json.Number
	if len(raw) == 0 || raw[0] == '"' || json.Unmarshal(raw, &n) != nil {
		return 0, invalid
	}
	if v, err := n.Int64(); err == nil {
		return v, nil
	}

	f, _, err := big.ParseFloat(n.String(), 10, 256, big.ToNearestEven)
	if err != nil || !f.IsInt() {
		return 0, invalid
	}
	v, acc := f.Int64()
	if acc != big.Exact {
		return 0, invalid
	}
	return v, nil
}
