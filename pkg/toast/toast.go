package toast

import "sync"

// EventName is the event name dispatched for toasts.
// Client-side code should listen for this event.
const EventName = "fileupload:toast"

// Type represents the toast notification type.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Notification is a single user-facing message.
type Notification struct {
	Title       string
	Description string
	Level       Type
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(Notification) {})

// Emitter dispatches a named custom event with a payload.
type Emitter interface {
	Emit(name string, data any)
}

type emitNotifier struct {
	e Emitter
}

// EmitNotifier returns a Notifier that emits EventName on e.
//
// The payload is a map with "level" and "message", plus "title" when the
// notification has one.
func EmitNotifier(e Emitter) Notifier {
	return emitNotifier{e: e}
}

func (n emitNotifier) Notify(note Notification) {
	data := map[string]any{
		"level":   string(note.Level),
		"message": note.Description,
	}
	if note.Title != "" {
		data["title"] = note.Title
	}
	n.e.Emit(EventName, data)
}

// Show sends a notification without a title.
func Show(n Notifier, level Type, message string) {
	n.Notify(Notification{Level: level, Description: message})
}

// Success shows a success toast.
//
//	toast.Success(n, "Files uploaded")
func Success(n Notifier, message string) {
	Show(n, TypeSuccess, message)
}

// Error shows an error toast.
func Error(n Notifier, message string) {
	Show(n, TypeError, message)
}

// Warning shows a warning toast.
func Warning(n Notifier, message string) {
	Show(n, TypeWarning, message)
}

// Info shows an info toast.
func Info(n Notifier, message string) {
	Show(n, TypeInfo, message)
}

// WithTitle shows a toast with a title and message.
//
//	toast.WithTitle(n, toast.TypeError, "File upload failed", "Failed to convert file to base64.")
func WithTitle(n Notifier, level Type, title, message string) {
	n.Notify(Notification{Level: level, Title: title, Description: message})
}

// Recorder keeps every notification it receives. Safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	notes []Notification
}

// Notify implements Notifier.
func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	r.notes = append(r.notes, n)
	r.mu.Unlock()
}

// Notifications returns a copy of the recorded notifications in order.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.notes))
	copy(out, r.notes)
	return out
}

// Len returns the number of recorded notifications.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notes)
}
