package widget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/fileupload/pkg/classify"
	"github.com/vango-dev/fileupload/pkg/metrics"
	"github.com/vango-dev/fileupload/pkg/toast"
)

const tracerName = "github.com/vango-dev/fileupload/pkg/widget"

// Notification texts.
const (
	FailureTitle         = "File upload failed"
	EncodeFailureMessage = "Failed to convert file to base64."
)

// State is the controller's position in an offer.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateEncoding
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateEncoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// Result describes how an offer was handled.
type Result struct {
	// Accepted lists the names of files that passed validation, in order.
	Accepted []string

	// Rejections holds one entry per rejected file.
	Rejections []*Rejection

	// Committed is true when the accepted files replaced the value.
	Committed bool

	// Stale is true when a later offer or a clear superseded this one
	// while it was encoding; its files were discarded.
	Stale bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier sets where failure notifications go (default: discarded).
func WithNotifier(n toast.Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithCommit sets the callback that receives every committed value.
func WithCommit(fn func(Value)) Option {
	return func(c *Controller) {
		c.commit = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRecorder enables metrics.
func WithRecorder(r *metrics.Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithTracer sets the tracer (default: the global otel tracer provider).
func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithMaxWorkers bounds how many files are encoded at once.
func WithMaxWorkers(n int) Option {
	return func(c *Controller) {
		c.workers = n
	}
}

// WithInitialValue sets the value the widget starts with.
func WithInitialValue(v Value) Option {
	return func(c *Controller) {
		c.value = v.Clone()
	}
}

// Controller owns one widget instance.
type Controller struct {
	cfg    Config
	groups classify.Groups

	notifier toast.Notifier
	commit   func(Value)
	logger   *slog.Logger
	recorder *metrics.Recorder
	tracer   trace.Tracer
	workers  int

	mu         sync.Mutex
	value      Value
	state      State
	generation uint64
}

// New creates a controller for cfg. cfg is expected to be valid; use
// ParseConfig or Config.Validate for untrusted input.
func New(cfg Config, opts ...Option) *Controller {
	c := &Controller{
		cfg:      cfg.clone(),
		notifier: toast.Discard,
		logger:   slog.Default().With("component", "widget"),
		tracer:   otel.Tracer(tracerName),
		workers:  runtime.GOMAXPROCS(0),
		value:    Value{},
	}
	c.groups = c.cfg.Groups()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns a copy of the widget configuration.
func (c *Controller) Config() Config {
	return c.cfg.clone()
}

// Groups returns the accept groups derived from the configured extensions.
func (c *Controller) Groups() classify.Groups {
	return c.groups
}

// Value returns a copy of the current value.
func (c *Controller) Value() Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value.Clone()
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Offer handles files offered by the drag-and-drop provider.
//
// Rejected files are reported in one aggregated notification and returned
// in the Result; they never cause an error. Accepted files are encoded and
// committed together. If encoding fails, the value is left unchanged, a
// notification is sent and the *EncodingError is returned. If ctx is done
// before the encode finishes, the context error is returned without a
// notification.
func (c *Controller) Offer(ctx context.Context, files []OfferedFile) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "widget.Offer", trace.WithAttributes(
		attribute.Int("fileupload.files.offered", len(files)),
		attribute.Bool("fileupload.multiple", c.cfg.Multiple),
	))
	defer span.End()

	// A rejected-only offer leaves an encode in flight reporting Encoding.
	c.mu.Lock()
	if c.state != StateEncoding {
		c.state = StateValidating
	}
	c.mu.Unlock()

	accepted, rejections := validate(c.cfg, c.groups, files)
	result := &Result{
		Accepted:   make([]string, len(accepted)),
		Rejections: rejections,
	}
	for i, f := range accepted {
		result.Accepted[i] = f.Name
	}
	span.SetAttributes(
		attribute.Int("fileupload.files.accepted", len(accepted)),
		attribute.Int("fileupload.files.rejected", len(rejections)),
	)

	if len(rejections) > 0 {
		c.reportRejections(rejections)
	}

	if len(accepted) == 0 {
		c.leaveValidating()
		if len(rejections) > 0 {
			c.recorder.RecordOffer(metrics.OutcomeRejected)
		}
		return result, nil
	}

	c.mu.Lock()
	c.generation++
	gen := c.generation
	c.state = StateEncoding
	c.mu.Unlock()

	value, err := c.encode(ctx, accepted)
	if err != nil {
		if c.finishIfCurrent(gen) {
			return c.encodeFailed(ctx, span, result, err)
		}
		c.logger.Debug("discarding failed encode of superseded offer", "error", err)
		result.Stale = true
		c.recorder.RecordOffer(metrics.OutcomeStale)
		return result, nil
	}

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded encode", "count", len(value))
		result.Stale = true
		span.SetAttributes(attribute.Bool("fileupload.stale", true))
		c.recorder.RecordOffer(metrics.OutcomeStale)
		return result, nil
	}
	c.value = value
	c.state = StateIdle
	c.mu.Unlock()

	c.logger.Info("files committed", "count", len(value), "files", value.Names())
	c.recorder.RecordOffer(metrics.OutcomeCommitted)
	result.Committed = true
	c.emitCommit(value)
	return result, nil
}

// Clear replaces the value with the empty list and discards any encode in
// flight. The commit callback receives the empty value.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.generation++
	c.value = Value{}
	c.state = StateIdle
	c.mu.Unlock()

	c.logger.Debug("value cleared")
	c.emitCommit(Value{})
}

// ReportError surfaces a failure raised by the drag-and-drop provider.
func (c *Controller) ReportError(err error) {
	if err == nil {
		return
	}
	c.logger.Error("upload provider error", "error", err)
	c.notifier.Notify(toast.Notification{
		Title:       FailureTitle,
		Description: err.Error(),
		Level:       toast.TypeError,
	})
}

func (c *Controller) encode(ctx context.Context, files []OfferedFile) (Value, error) {
	ctx, span := c.tracer.Start(ctx, "widget.Encode", trace.WithAttributes(
		attribute.Int("fileupload.files", len(files)),
	))
	defer span.End()

	start := time.Now()
	value, err := Encode(ctx, files, c.workers)
	c.recorder.RecordEncode(time.Since(start), len(value), value.Size(), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int64("fileupload.bytes", value.Size()))
	return value, nil
}

func (c *Controller) encodeFailed(ctx context.Context, span trace.Span, result *Result, err error) (*Result, error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if ctx.Err() != nil && !errors.Is(err, ErrEncodingFailed) {
		c.logger.Warn("offer canceled", "error", err)
		c.recorder.RecordOffer(metrics.OutcomeCanceled)
		return result, fmt.Errorf("widget: offer: %w", err)
	}

	c.logger.Error("encoding failed", "error", err)
	c.recorder.RecordOffer(metrics.OutcomeFailed)
	c.recorder.RecordRejection(string(ReasonEncodingFailed))
	c.notifier.Notify(toast.Notification{
		Title:       FailureTitle,
		Description: EncodeFailureMessage,
		Level:       toast.TypeError,
	})
	return result, err
}

func (c *Controller) reportRejections(rejections []*Rejection) {
	lines := make([]string, len(rejections))
	names := make([]string, len(rejections))
	for i, r := range rejections {
		lines[i] = r.Error()
		names[i] = r.Filename
		for _, reason := range r.Reasons {
			c.recorder.RecordRejection(string(reason.Code))
		}
	}
	c.logger.Info("files rejected", "count", len(rejections), "files", names)
	c.notifier.Notify(toast.Notification{
		Title:       FailureTitle,
		Description: strings.Join(lines, "\n"),
		Level:       toast.TypeError,
	})
}

// finishIfCurrent returns the controller to idle if gen is still the
// latest generation.
func (c *Controller) finishIfCurrent(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	c.state = StateIdle
	return true
}

// leaveValidating returns to idle unless an encode started meanwhile.
func (c *Controller) leaveValidating() {
	c.mu.Lock()
	if c.state == StateValidating {
		c.state = StateIdle
	}
	c.mu.Unlock()
}

func (c *Controller) emitCommit(v Value) {
	if c.commit != nil {
		c.commit(v.Clone())
	}
}
