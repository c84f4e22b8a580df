// Package host serves a file-upload widget over HTTP.
//
// A Host wires the pieces of the widget together:
//
//	GET  /           full page with the rendered widget
//	GET  /client.js  the browser script driving drag-and-drop and uploads
//	POST /upload     multipart upload into the temporary store
//	GET  /ws         websocket carrying widget events and updates
//	GET  /metrics    Prometheus exposition
//	GET  /healthz    liveness probe
//
// Each websocket connection owns one widget controller. The browser
// uploads offered files to /upload, then sends their temp ids over the
// socket; the connection claims them from the store and hands them to the
// controller. Messages are JSON objects with a "type" field:
//
//	client → server  {"type":"offer","files":["<temp id>", ...]}
//	                 {"type":"clear"}
//	                 {"type":"error","message":"..."}
//	server → client  {"type":"render","html":"..."}
//	                 {"type":"value","value":[["name","base64"], ...]}
//	                 {"type":"toast","event":"fileupload:toast","data":{...}}
//	                 {"type":"error","code":"E160","message":"..."}
//
// Messages from one connection are handled one at a time, in order, by
// that connection's read loop.
//
// Usage:
//
//	h := host.New(host.DefaultConfig(), store,
//	    host.WithRecorder(metrics.NewRecorder()),
//	)
//	defer h.Close()
//	http.ListenAndServe(":8080", h)
package host
