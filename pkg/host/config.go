package host

import (
	"net/http"
	"net/url"
	"time"

	"github.com/vango-dev/fileupload/pkg/upload"
	"github.com/vango-dev/fileupload/pkg/widget"
)

// Config configures a Host.
type Config struct {
	// Widget is the configuration given to every connection's controller.
	Widget widget.Config

	// Upload configures the /upload endpoint. Nil uses upload defaults.
	Upload *upload.Config

	// Workers limits parallel encodes per offer. Zero uses GOMAXPROCS.
	Workers int

	// Title is the page title.
	Title string

	// ReadTimeout is the maximum time to wait for a message or pong.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum time to wait when sending a message.
	WriteTimeout time.Duration

	// HeartbeatInterval is the time between pings.
	// Must be shorter than ReadTimeout.
	HeartbeatInterval time.Duration

	// MaxMessageSize bounds incoming websocket messages.
	MaxMessageSize int64

	// ReadBufferSize and WriteBufferSize size the websocket buffers.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the websocket request origin.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Widget:            widget.Config{Filetypes: []string{}, Kind: widget.KindButton, MaxSize: widget.DefaultMaxSize},
		Upload:            upload.DefaultConfig(),
		Title:             "File upload",
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HeartbeatInterval: 25 * time.Second,
		MaxMessageSize:    64 * 1024,
		ReadBufferSize:    4096,
		WriteBufferSize:   4096,
		CheckOrigin:       SameOriginCheck,
	}
}

func (c *Config) withDefaults() Config {
	out := *c
	def := DefaultConfig()
	if out.Upload == nil {
		out.Upload = def.Upload
	}
	if out.Title == "" {
		out.Title = def.Title
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = def.ReadTimeout
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = def.WriteTimeout
	}
	if out.HeartbeatInterval <= 0 || out.HeartbeatInterval >= out.ReadTimeout {
		out.HeartbeatInterval = out.ReadTimeout * 9 / 10
	}
	if out.MaxMessageSize <= 0 {
		out.MaxMessageSize = def.MaxMessageSize
	}
	if out.ReadBufferSize <= 0 {
		out.ReadBufferSize = def.ReadBufferSize
	}
	if out.WriteBufferSize <= 0 {
		out.WriteBufferSize = def.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = SameOriginCheck
	}
	return out
}

// SameOriginCheck accepts websocket requests without an Origin header or
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if r.Host == "" {
		return false
	}
	return originURL.Host == r.Host
}
