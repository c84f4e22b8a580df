// Package toast delivers user-facing notifications for the upload widget.
//
// The widget never talks to a toast library directly. It reports a
// Notification to a Notifier and moves on; delivery is fire-and-forget.
//
// # Emit-based delivery
//
// EmitNotifier turns notifications into custom events on any Emitter, such
// as a websocket connection. The client receives:
//
//	event.type   = "fileupload:toast"
//	event.detail = { level: "error", title: "...", message: "..." }
//
// and hands it to whichever toast UI it uses:
//
//	window.addEventListener("fileupload:toast", (e) => {
//	    const { level, title, message } = e.detail;
//	    showToast(level, title, message);
//	});
//
// # Server-side usage
//
//	n := toast.EmitNotifier(conn)
//	toast.WithTitle(n, toast.TypeError, "File upload failed", "sheet.xls (Too many files)")
package toast
