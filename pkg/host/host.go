package host

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/fileupload/pkg/metrics"
	"github.com/vango-dev/fileupload/pkg/render"
	. "github.com/vango-dev/fileupload/pkg/vdom"
	"github.com/vango-dev/fileupload/pkg/upload"
	"github.com/vango-dev/fileupload/pkg/widget"
)

//go:embed client.js
var clientJS []byte

var clientETag = func() string {
	sum := sha256.Sum256(clientJS)
	return fmt.Sprintf("%q", fmt.Sprintf("%x", sum[:8]))
}()

const tracerName = "github.com/vango-dev/fileupload/pkg/host"

// RootID is the id of the element wrapping the widget markup.
const RootID = "fileupload-root"

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger. Default: slog.Default() with component=host.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithRecorder sets the metrics recorder shared by the host and its
// controllers. /metrics serves its registry.
func WithRecorder(r *metrics.Recorder) Option {
	return func(h *Host) {
		h.recorder = r
	}
}

// WithTracer sets the tracer used for message spans and passed to every
// controller. Default: the global otel tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(h *Host) {
		if t != nil {
			h.tracer = t
		}
	}
}

// Host serves the widget page, the upload endpoint and the websocket.
type Host struct {
	config   Config
	store    upload.Store
	router   chi.Router
	upgrader websocket.Upgrader
	renderer *render.Renderer
	logger   *slog.Logger
	recorder *metrics.Recorder
	tracer   trace.Tracer

	mu     sync.Mutex
	conns  map[string]*conn
	closed bool
}

// New creates a Host storing uploads in store.
func New(cfg *Config, store upload.Store, opts ...Option) *Host {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	h := &Host{
		config:   cfg.withDefaults(),
		store:    store,
		renderer: render.NewRenderer(render.RendererConfig{}),
		logger:   slog.Default().With("component", "host"),
		tracer:   otel.Tracer(tracerName),
		conns:    make(map[string]*conn),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  h.config.ReadBufferSize,
		WriteBufferSize: h.config.WriteBufferSize,
		CheckOrigin:     h.config.CheckOrigin,
	}
	h.router = h.routes()
	return h
}

func (h *Host) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", h.handlePage)
	r.Get("/client.js", h.handleClient)
	r.Method(http.MethodPost, "/upload", upload.HandlerWithConfig(h.store, h.config.Upload))
	r.Get("/ws", h.handleWebSocket)
	r.Method(http.MethodGet, "/metrics", h.recorder.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	return r
}

// ServeHTTP implements http.Handler.
func (h *Host) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Router returns the underlying chi router for mounting extra routes.
func (h *Host) Router() chi.Router {
	return h.router
}

// Connections returns the number of open websocket connections.
func (h *Host) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Close closes every open websocket connection and refuses new ones.
// http.Server.Shutdown does not track hijacked connections, so call Close
// alongside it.
func (h *Host) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.close()
	}
}

func (h *Host) newController(opts ...widget.Option) *widget.Controller {
	base := []widget.Option{
		widget.WithRecorder(h.recorder),
		widget.WithTracer(h.tracer),
	}
	if h.config.Workers > 0 {
		base = append(base, widget.WithMaxWorkers(h.config.Workers))
	}
	return widget.New(h.config.Widget, append(base, opts...)...)
}

func (h *Host) handlePage(w http.ResponseWriter, r *http.Request) {
	ctrl := h.newController()

	page := Html(
		Head(
			Meta(Charset("utf-8")),
			Title(h.config.Title),
		),
		Body(
			Div(ID(RootID), ctrl.Render()),
			Script(Src("/client.js")),
		),
	)

	var buf bytes.Buffer
	if err := h.renderer.RenderPage(&buf, page); err != nil {
		h.logger.Error("render page", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (h *Host) handleClient(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", clientETag)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=0, must-revalidate")
	if r.Header.Get("If-None-Match") == clientETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Write(clientJS)
}

func (h *Host) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		http.Error(w, "Service Unavailable", http.StatusServiceUnavailable)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.Warn("websocket upgrade failed", "error", err)
		h.recorder.RecordWebSocketError("upgrade")
		return
	}

	c := newConn(h, ws)
	if !h.register(c) {
		c.close()
		return
	}
	defer h.unregister(c)

	c.serve(r.Context())
}

func (h *Host) register(c *conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[c.id] = c
	h.recorder.ConnectionOpened()
	return true
}

func (h *Host) unregister(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[c.id]; ok {
		delete(h.conns, c.id)
		h.recorder.ConnectionClosed()
	}
}
