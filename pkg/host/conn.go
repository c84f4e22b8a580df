package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/fileupload/internal/errors"
	"github.com/vango-dev/fileupload/pkg/toast"
	"github.com/vango-dev/fileupload/pkg/upload"
	"github.com/vango-dev/fileupload/pkg/widget"
)

// Message types.
const (
	TypeOffer  = "offer"
	TypeClear  = "clear"
	TypeError  = "error"
	TypeRender = "render"
	TypeValue  = "value"
	TypeToast  = "toast"
)

// Inbound is a message sent by the browser.
type Inbound struct {
	Type    string   `json:"type"`
	Files   []string `json:"files,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Outbound is a message sent to the browser.
type Outbound struct {
	Type    string        `json:"type"`
	HTML    string        `json:"html,omitempty"`
	Value   *widget.Value `json:"value,omitempty"`
	Event   string        `json:"event,omitempty"`
	Data    any           `json:"data,omitempty"`
	Code    string        `json:"code,omitempty"`
	Message string        `json:"message,omitempty"`
}

// conn is one websocket connection and the controller it owns.
type conn struct {
	id     string
	host   *Host
	ws     *websocket.Conn
	ctrl   *widget.Controller
	logger *slog.Logger

	writeMu sync.Mutex
	done    chan struct{}
	once    sync.Once
}

func newConn(h *Host, ws *websocket.Conn) *conn {
	c := &conn{
		id:   uuid.NewString(),
		host: h,
		ws:   ws,
		done: make(chan struct{}),
	}
	c.logger = h.logger.With("conn", c.id)
	c.ctrl = h.newController(
		widget.WithNotifier(toast.EmitNotifier(c)),
		widget.WithCommit(c.committed),
		widget.WithLogger(slog.Default().With("component", "widget", "conn", c.id)),
	)
	return c
}

// serve runs the heartbeat and the read loop until the connection closes.
func (c *conn) serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer c.close()

	c.logger.Info("connection opened")
	go c.heartbeat()

	c.ws.SetReadLimit(c.host.config.MaxMessageSize)
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.host.config.ReadTimeout))
	})

	c.sendRender()
	c.readLoop(ctx)
}

// readLoop reads and handles messages in order. It returns when the
// connection is closed or a read fails.
func (c *conn) readLoop(ctx context.Context) {
	for {
		c.ws.SetReadDeadline(time.Now().Add(c.host.config.ReadTimeout))

		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Error("read error", "error", err)
				c.host.recorder.RecordWebSocketError("read")
			}
			return
		}

		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("message decode error", "error", err)
			c.host.recorder.RecordWebSocketError("decode")
			c.sendError(errors.New("E160").Wrap(err))
			continue
		}

		c.handle(ctx, msg)
	}
}

func (c *conn) handle(ctx context.Context, msg Inbound) {
	ctx, span := c.host.tracer.Start(ctx, "host.message", trace.WithAttributes(
		attribute.String("fileupload.message.type", msg.Type),
		attribute.String("fileupload.conn", c.id),
		attribute.Int("fileupload.message.files", len(msg.Files)),
	))
	defer span.End()

	switch msg.Type {
	case TypeOffer:
		c.handleOffer(ctx, msg.Files)
	case TypeClear:
		c.ctrl.Clear()
	case TypeError:
		c.ctrl.ReportError(fmt.Errorf("%s", msg.Message))
	default:
		c.logger.Warn("unknown message type", "type", msg.Type)
		c.host.recorder.RecordWebSocketError("unknown_type")
		c.sendError(errors.New("E161").WithDetail(msg.Type))
	}
}

// handleOffer claims the uploaded files and offers them to the controller.
// If any id cannot be claimed the whole offer is reported as a provider
// error and nothing is offered.
func (c *conn) handleOffer(ctx context.Context, ids []string) {
	files := make([]*upload.File, 0, len(ids))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	for _, id := range ids {
		f, err := c.host.store.Claim(ctx, id)
		if err != nil {
			c.logger.Warn("claim failed", "temp_id", id, "error", err)
			c.ctrl.ReportError(errors.New("E162").Wrap(err))
			return
		}
		files = append(files, f)
	}

	offered := make([]widget.OfferedFile, len(files))
	for i, f := range files {
		offered[i] = widget.FromUpload(f)
	}

	if _, err := c.ctrl.Offer(ctx, offered); err != nil {
		c.logger.Debug("offer failed", "error", err)
	}
}

// committed is the controller's commit callback.
func (c *conn) committed(v widget.Value) {
	c.send(Outbound{Type: TypeValue, Value: &v})
	c.sendRender()
}

// Emit implements toast.Emitter.
func (c *conn) Emit(name string, data any) {
	c.send(Outbound{Type: TypeToast, Event: name, Data: data})
}

func (c *conn) sendRender() {
	html, err := c.host.renderer.RenderToString(c.ctrl.Render())
	if err != nil {
		c.logger.Error("render error", "error", err)
		return
	}
	c.send(Outbound{Type: TypeRender, HTML: html})
}

func (c *conn) sendError(err *errors.UploadError) {
	c.send(Outbound{Type: TypeError, Code: err.Code, Message: err.FormatCompact()})
}

func (c *conn) send(msg Outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("message encode error", "type", msg.Type, "error", err)
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.done:
		return
	default:
	}

	c.ws.SetWriteDeadline(time.Now().Add(c.host.config.WriteTimeout))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		c.logger.Error("write error", "type", msg.Type, "error", err)
		c.host.recorder.RecordWebSocketError("write")
	}
}

// heartbeat pings the client until the connection closes.
func (c *conn) heartbeat() {
	ticker := time.NewTicker(c.host.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(c.host.config.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.logger.Debug("ping error", "error", err)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *conn) close() {
	c.once.Do(func() {
		c.writeMu.Lock()
		close(c.done)
		c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		c.ws.Close()
		c.writeMu.Unlock()
		c.logger.Info("connection closed")
	})
}
