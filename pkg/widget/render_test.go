package widget_test

import (
	"strings"
	"testing"

	"github.com/vango-dev/fileupload/pkg/render"
	"github.com/vango-dev/fileupload/pkg/vdom"
	"github.com/vango-dev/fileupload/pkg/widget"
)

func renderHTML(t *testing.T, ctrl *widget.Controller) string {
	t.Helper()
	html, err := render.NewRenderer(render.RendererConfig{}).RenderToString(ctrl.Render())
	if err != nil {
		t.Fatalf("RenderToString: %v", err)
	}
	return html
}

func findByData(root *vdom.VNode, key, value string) *vdom.VNode {
	return root.Find(func(n *vdom.VNode) bool {
		v, ok := n.Props["data-"+key].(string)
		return ok && v == value
	})
}

func TestRender_ButtonEmpty(t *testing.T) {
	ctrl := widget.New(widget.Config{Filetypes: []string{".png", ".csv"}, Kind: widget.KindButton, MaxSize: 1000})
	html := renderHTML(t, ctrl)

	for _, want := range []string{
		`data-testid="fileupload-button"`,
		`>Upload<svg`,
		`accept="image/*,.png,text/csv,.csv"`,
		`data-accept="{&quot;image/*&quot;:[&quot;.png&quot;],&quot;text/csv&quot;:[&quot;.csv&quot;]}"`,
		`data-max-size="1000"`,
		`data-multiple="false"`,
		`type="file"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %s in\n%s", want, html)
		}
	}
	if strings.Contains(html, "Uploaded") || strings.Contains(html, "Click to clear") {
		t.Errorf("empty widget should not show upload status:\n%s", html)
	}
	if strings.Contains(html, " multiple") {
		t.Errorf("single-file input must not carry multiple:\n%s", html)
	}
}

func TestRender_ButtonUploaded(t *testing.T) {
	label := "<em>Pick</em>"
	ctrl := widget.New(
		widget.Config{Kind: widget.KindButton, Multiple: true, Label: &label},
		widget.WithInitialValue(widget.Value{{Name: "a.png", Contents: "YQ=="}, {Name: "b.png", Contents: "Yg=="}}),
	)
	root := ctrl.Render()
	html := renderHTML(t, ctrl)

	if !strings.Contains(html, "<em>Pick</em>") {
		t.Errorf("label should render as raw markup:\n%s", html)
	}
	if !strings.Contains(html, " multiple") {
		t.Errorf("multiple input should carry the multiple attribute:\n%s", html)
	}

	count := root.Find(func(n *vdom.VNode) bool { return n.Props["class"] == "fileupload-count" })
	if count == nil {
		t.Fatal("count node not found")
	}
	if got := count.TextContent(); got != "2 files." {
		t.Errorf("count = %q, want %q", got, "2 files.")
	}
	if got := count.Props["title"]; got != "a.png\nb.png" {
		t.Errorf("title = %q", got)
	}

	clearBtn := findByData(root, "action", widget.ActionClear)
	if clearBtn == nil || clearBtn.TextContent() != "Click to clear files." {
		t.Fatalf("clear action = %+v", clearBtn)
	}
	if !strings.Contains(root.TextContent(), "Uploaded 2 files.") {
		t.Errorf("status text = %q", root.TextContent())
	}
}

func TestRender_AreaDefaultLabels(t *testing.T) {
	tests := []struct {
		name     string
		multiple bool
		label    string
		clear    string
	}{
		{"single", false, "Drag and drop a file here, or click to open file browser", "Click to clear file."},
		{"multiple", true, "Drag and drop files here, or click to open file browser", "Click to clear files."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := widget.Config{Kind: widget.KindArea, Multiple: tt.multiple}

			empty := widget.New(cfg).Render()
			if findByData(empty, "dropzone", "") == nil {
				t.Fatal("drop target not found")
			}
			if got := empty.TextContent(); got != tt.label {
				t.Errorf("text = %q, want %q", got, tt.label)
			}

			uploaded := widget.New(cfg, widget.WithInitialValue(widget.Value{{Name: "x.txt", Contents: "eA=="}})).Render()
			text := uploaded.TextContent()
			if !strings.HasPrefix(text, "To re-upload: "+tt.label) {
				t.Errorf("text = %q, want re-upload prefix", text)
			}
			if !strings.Contains(text, "Uploaded 1 file.") {
				t.Errorf("text = %q, want singular count", text)
			}
			clearBtn := findByData(uploaded, "action", widget.ActionClear)
			if clearBtn == nil || clearBtn.TextContent() != tt.clear {
				t.Errorf("clear text = %q, want %q", clearBtn.TextContent(), tt.clear)
			}
		})
	}
}

func TestRender_DoesNotMutate(t *testing.T) {
	initial := widget.Value{{Name: "a.txt", Contents: "YQ=="}}
	ctrl := widget.New(widget.Config{Kind: widget.KindArea}, widget.WithInitialValue(initial))

	first := renderHTML(t, ctrl)
	second := renderHTML(t, ctrl)
	if first != second {
		t.Fatal("render is not deterministic")
	}
	if got := ctrl.Value(); len(got) != 1 || got[0] != initial[0] {
		t.Fatalf("value changed by render: %+v", got)
	}
	if ctrl.State() != widget.StateIdle {
		t.Fatalf("state = %v", ctrl.State())
	}
}
