// Package vdom provides the node tree the upload widget renders into.
//
// A VNode is an element, a text node, a fragment or a raw markup node.
// Elements are built with variadic factory functions that accept
// attributes, children and plain strings in any order:
//
//	Div(Class("row"), Data("state", "idle"),
//	    Button(Type("button"), Text("Upload")),
//	    Input(Type("file"), Accept("image/*,.png"), Multiple(true)),
//	)
//
// nil arguments are ignored, which keeps conditional markup terse:
//
//	Div(If(uploaded, Span(Text("Uploaded 2 files."))))
//
// Trees are plain data. The render package turns them into HTML.
package vdom
