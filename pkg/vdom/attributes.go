package vdom

import "strings"

// attr creates an Attr with the given key and value.
func attr(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
// Empty class names are dropped.
func Class(classes ...string) Attr {
	parts := classes[:0:0]
	for _, c := range classes {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return attr("class", strings.Join(parts, " "))
}

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return attr("data-"+key, value) }

// TitleAttr sets the title attribute (named to avoid conflict with Title element).
func TitleAttr(title string) Attr { return attr("title", title) }

// Role sets the role attribute.
func Role(role string) Attr { return attr("role", role) }

// AriaLabel sets the aria-label attribute.
func AriaLabel(label string) Attr { return attr("aria-label", label) }

// AriaHidden sets the aria-hidden attribute.
func AriaHidden(hidden bool) Attr { return attr("aria-hidden", hidden) }

// TabIndex sets the tabindex attribute.
func TabIndex(index int) Attr { return attr("tabindex", index) }

// Hidden sets the hidden attribute.
func Hidden() Attr { return attr("hidden", true) }

// Key sets the reconciliation key. It is never rendered.
func Key(key string) Attr { return attr("key", key) }

// Form attributes

// Type sets the type attribute.
func Type(t string) Attr { return attr("type", t) }

// Name sets the name attribute.
func Name(name string) Attr { return attr("name", name) }

// Accept sets the accept attribute of a file input.
func Accept(types string) Attr { return attr("accept", types) }

// Multiple sets the multiple attribute.
func Multiple(multiple bool) Attr { return attr("multiple", multiple) }

// Disabled sets the disabled attribute.
func Disabled(disabled bool) Attr { return attr("disabled", disabled) }

// Charset sets the charset attribute.
func Charset(charset string) Attr { return attr("charset", charset) }

// Src sets the src attribute.
func Src(src string) Attr { return attr("src", src) }

// SVG attributes

// ViewBox sets the viewBox attribute.
func ViewBox(box string) Attr { return attr("viewBox", box) }

// Width sets the width attribute.
func Width(w int) Attr { return attr("width", w) }

// Height sets the height attribute.
func Height(h int) Attr { return attr("height", h) }

// Fill sets the fill attribute.
func Fill(fill string) Attr { return attr("fill", fill) }

// Stroke sets the stroke attribute.
func Stroke(stroke string) Attr { return attr("stroke", stroke) }

// StrokeWidth sets the stroke-width attribute.
func StrokeWidth(w float64) Attr { return attr("stroke-width", w) }

// D sets the d attribute of a path.
func D(d string) Attr { return attr("d", d) }

// Points sets the points attribute of a polyline.
func Points(points string) Attr { return attr("points", points) }

// X1 through Y2 set line endpoints.
func X1(v int) Attr { return attr("x1", v) }
func Y1(v int) Attr { return attr("y1", v) }
func X2(v int) Attr { return attr("x2", v) }
func Y2(v int) Attr { return attr("y2", v) }
