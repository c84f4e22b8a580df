// Package widget implements the file-upload widget controller.
//
// A Controller owns one widget instance: its immutable Config and its
// current Value, the ordered list of uploaded files as (name, base64)
// pairs. The host feeds it offered files from the drag-and-drop provider:
//
//	cfg, err := widget.ParseConfig(data)
//	if err != nil {
//	    return err
//	}
//
//	ctrl := widget.New(cfg,
//	    widget.WithNotifier(toast.EmitNotifier(conn)),
//	    widget.WithCommit(func(v widget.Value) { conn.SendValue(v) }),
//	)
//
//	result, err := ctrl.Offer(ctx, files)
//
// Offer validates every file independently against the configured
// extensions, size bound and multiplicity. Rejected files are reported in a
// single aggregated notification; accepted files are read and base64
// encoded in parallel and committed together, replacing the previous value.
// Clear resets the value to the empty list. Render builds the widget markup
// from the config and value alone.
package widget
