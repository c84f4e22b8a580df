// Package render turns vdom trees into HTML.
//
// Output is deterministic: attributes are written in sorted order, text and
// attribute values are escaped, void elements get no closing tag and
// boolean attributes are written bare when true. Raw nodes are written
// verbatim; that is how the widget passes its label markup through
// untouched.
//
//	renderer := render.NewRenderer(render.RendererConfig{})
//	html, err := renderer.RenderToString(node)
package render
