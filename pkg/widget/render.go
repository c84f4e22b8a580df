package widget

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/vango-dev/fileupload/pkg/classify"
	. "github.com/vango-dev/fileupload/pkg/vdom"
)

// Markup hooks the client script binds to.
const (
	ActionBrowse = "browse"
	ActionClear  = "clear"
)

// Render builds the widget markup for the current value. It does not
// change any state.
func (c *Controller) Render() *VNode {
	return RenderValue(c.cfg, c.groups, c.Value())
}

// RenderValue builds the widget markup for cfg and value.
func RenderValue(cfg Config, groups classify.Groups, value Value) *VNode {
	if cfg.Kind == KindArea {
		return renderArea(cfg, groups, value)
	}
	return renderButton(cfg, groups, value)
}

func renderButton(cfg Config, groups classify.Groups, value Value) *VNode {
	label := "Upload"
	if cfg.Label != nil {
		label = *cfg.Label
	}
	uploaded := len(value) > 0

	return Div(
		Class("fileupload", "fileupload-button-row"),
		Data("fileupload-kind", string(KindButton)),
		Button(
			Type("button"),
			Class("fileupload-button"),
			Data("testid", "fileupload-button"),
			Data("action", ActionBrowse),
			dropzoneAttrs(cfg, groups),
			Raw(label),
			uploadIcon(14),
		),
		fileInput(cfg, groups),
		If(uploaded, Fragment(
			Span(
				Class("fileupload-status"),
				"Uploaded ",
				uploadedCount(value),
				uploadedList(value),
			),
			Button(
				Type("button"),
				Class("fileupload-clear"),
				Data("action", ActionClear),
				"Click to clear files.",
			),
		)),
	)
}

func renderArea(cfg Config, groups classify.Groups, value Value) *VNode {
	what := "a file"
	if cfg.Multiple {
		what = "files"
	}
	label := fmt.Sprintf("Drag and drop %s here, or click to open file browser", what)
	if cfg.Label != nil {
		label = *cfg.Label
	}
	uploaded := len(value) > 0

	clearText := "Click to clear file."
	if cfg.Multiple {
		clearText = "Click to clear files."
	}

	return Section(
		Class("fileupload", "fileupload-area"),
		Data("fileupload-kind", string(KindArea)),
		Div(
			Class("fileupload-body"),
			Div(
				Class("fileupload-dropzone"),
				Data("dropzone", ""),
				Data("action", ActionBrowse),
				Role("button"),
				TabIndex(0),
				dropzoneAttrs(cfg, groups),
				fileInput(cfg, groups),
				Div(
					Class("fileupload-prompt"),
					IfElse(uploaded,
						Span(Class("fileupload-label"), "To re-upload: ", Raw(label)),
						Span(Class("fileupload-label"), Raw(label)),
					),
					Div(
						Class("fileupload-icons"),
						uploadIcon(24),
						pointerIcon(),
					),
				),
			),
			If(uploaded, Div(
				Class("fileupload-footer"),
				Div(
					Class("fileupload-status"),
					"Uploaded ",
					uploadedCount(value),
					uploadedList(value),
				),
				Span(
					Button(
						Type("button"),
						Class("fileupload-clear"),
						Data("action", ActionClear),
						clearText,
					),
				),
			)),
		),
	)
}

// dropzoneAttrs carry the validation settings so the client can
// pre-validate before uploading.
func dropzoneAttrs(cfg Config, groups classify.Groups) []Attr {
	accept, err := json.Marshal(groups)
	if err != nil {
		accept = []byte("{}")
	}
	return []Attr{
		Data("accept", string(accept)),
		Data("max-size", strconv.FormatInt(cfg.MaxSize, 10)),
		Data("multiple", strconv.FormatBool(cfg.Multiple)),
	}
}

func fileInput(cfg Config, groups classify.Groups) *VNode {
	var accept Attr
	if groups.Len() > 0 {
		accept = Accept(groups.AcceptAttr())
	}
	return Input(
		Type("file"),
		Name("file"),
		Class("fileupload-input"),
		Data("fileupload-input", ""),
		Hidden(),
		accept,
		Multiple(cfg.Multiple),
	)
}

func uploadedCount(value Value) *VNode {
	noun := "files"
	if len(value) == 1 {
		noun = "file"
	}
	return Span(
		Class("fileupload-count"),
		TitleAttr(strings.Join(value.Names(), "\n")),
		Textf("%d %s.", len(value), noun),
	)
}

func uploadedList(value Value) *VNode {
	return Ul(
		Class("fileupload-files"),
		Role("tooltip"),
		Range(value, func(f File, i int) *VNode {
			return Li(Key(f.Name+"#"+strconv.Itoa(i)), f.Name)
		}),
	)
}

func uploadIcon(size int) *VNode {
	return Svg(
		Class("fileupload-icon"),
		Width(size), Height(size),
		ViewBox("0 0 24 24"),
		Fill("none"),
		Stroke("currentColor"),
		StrokeWidth(1.4),
		AriaHidden(true),
		Path(D("M21 15v4a2 2 0 0 1-2 2H5a2 2 0 0 1-2-2v-4")),
		Polyline(Points("17 8 12 3 7 8")),
		Line(X1(12), Y1(3), X2(12), Y2(15)),
	)
}

func pointerIcon() *VNode {
	return Svg(
		Class("fileupload-icon"),
		Width(24), Height(24),
		ViewBox("0 0 24 24"),
		Fill("none"),
		Stroke("currentColor"),
		StrokeWidth(1.4),
		AriaHidden(true),
		Path(D("M12.034 12.681a.498.498 0 0 1 .647-.647l9 3.5a.5.5 0 0 1-.033.943l-3.444 1.068a1 1 0 0 0-.66.66l-1.067 3.443a.5.5 0 0 1-.943.033z")),
		Path(D("M5 3a2 2 0 0 0-2 2")),
		Path(D("M19 3a2 2 0 0 1 2 2")),
		Path(D("M5 21a2 2 0 0 1-2-2")),
		Path(D("M9 3h1")),
		Path(D("M9 21h2")),
		Path(D("M14 3h1")),
		Path(D("M3 9v1")),
		Path(D("M21 9v2")),
		Path(D("M3 14v1")),
	)
}
