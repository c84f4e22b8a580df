package host_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/fileupload/pkg/host"
	"github.com/vango-dev/fileupload/pkg/metrics"
	"github.com/vango-dev/fileupload/pkg/upload"
	"github.com/vango-dev/fileupload/pkg/widget"
)

type fixture struct {
	srv  *httptest.Server
	host *host.Host
}

func newFixture(t *testing.T, cfg widget.Config) *fixture {
	t.Helper()

	store, err := upload.NewDiskStore(t.TempDir(), 10<<20)
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	hc := host.DefaultConfig()
	hc.Widget = cfg
	hc.Workers = 2

	recorder := metrics.NewRecorder(metrics.WithRegistry(prometheus.NewRegistry()))
	h := host.New(hc, store, host.WithRecorder(recorder))
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return &fixture{srv: srv, host: h}
}

func (f *fixture) upload(t *testing.T, files map[string][]byte, order ...string) []string {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range order {
		w, err := mw.CreateFormFile(upload.FormField, name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write(files[name])
	}
	mw.Close()

	resp, err := http.Post(f.srv.URL+"/upload", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /upload: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		t.Fatalf("POST /upload status = %d: %s", resp.StatusCode, data)
	}

	var out upload.Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	ids := make([]string, len(out.Files))
	for i, s := range out.Files {
		ids[i] = s.TempID
	}
	return ids
}

func (f *fixture) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { ws.Close() })

	// Every connection starts with a render of the empty widget.
	first := readMessage(t, ws)
	if first.Type != host.TypeRender {
		t.Fatalf("first message type = %q, want render", first.Type)
	}
	return ws
}

func readMessage(t *testing.T, ws *websocket.Conn) host.Outbound {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg host.Outbound
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return msg
}

func send(t *testing.T, ws *websocket.Conn, msg host.Inbound) {
	t.Helper()
	if err := ws.WriteJSON(msg); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
}

func TestHost_OfferCommitsAndReportsRejections(t *testing.T) {
	f := newFixture(t, widget.Config{
		Filetypes: []string{".png", ".csv"},
		Multiple:  true,
		Kind:      widget.KindButton,
		MaxSize:   1000,
	})
	ws := f.dial(t)

	photo := bytes.Repeat([]byte{0x42}, 500)
	ids := f.upload(t, map[string][]byte{
		"photo.png": photo,
		"sheet.xls": []byte("a\tb\n"),
	}, "photo.png", "sheet.xls")
	if len(ids) != 2 {
		t.Fatalf("ids = %v", ids)
	}

	send(t, ws, host.Inbound{Type: host.TypeOffer, Files: ids})

	toastMsg := readMessage(t, ws)
	if toastMsg.Type != host.TypeToast {
		t.Fatalf("message type = %q, want toast", toastMsg.Type)
	}
	data, _ := toastMsg.Data.(map[string]any)
	if data["title"] != widget.FailureTitle {
		t.Errorf("toast title = %v", data["title"])
	}
	msgText, _ := data["message"].(string)
	if !strings.HasPrefix(msgText, "sheet.xls (") || strings.Contains(msgText, "photo.png") {
		t.Errorf("toast message = %q", msgText)
	}

	valueMsg := readMessage(t, ws)
	if valueMsg.Type != host.TypeValue || valueMsg.Value == nil {
		t.Fatalf("message = %+v, want value", valueMsg)
	}
	got := *valueMsg.Value
	if len(got) != 1 || got[0].Name != "photo.png" || got[0].Contents != base64.StdEncoding.EncodeToString(photo) {
		t.Fatalf("value = %+v", got)
	}

	renderMsg := readMessage(t, ws)
	if renderMsg.Type != host.TypeRender || !strings.Contains(renderMsg.HTML, "Uploaded ") {
		t.Fatalf("render = %+v", renderMsg)
	}
}

func TestHost_Clear(t *testing.T) {
	f := newFixture(t, widget.Config{Filetypes: []string{}, Kind: widget.KindArea, MaxSize: 1 << 20})
	ws := f.dial(t)

	ids := f.upload(t, map[string][]byte{"notes.txt": []byte("hello")}, "notes.txt")
	send(t, ws, host.Inbound{Type: host.TypeOffer, Files: ids})
	if msg := readMessage(t, ws); msg.Type != host.TypeValue || len(*msg.Value) != 1 {
		t.Fatalf("message = %+v, want value with one file", msg)
	}
	readMessage(t, ws) // render

	send(t, ws, host.Inbound{Type: host.TypeClear})
	msg := readMessage(t, ws)
	if msg.Type != host.TypeValue || msg.Value == nil || len(*msg.Value) != 0 {
		t.Fatalf("message = %+v, want empty value", msg)
	}
	render := readMessage(t, ws)
	if strings.Contains(render.HTML, "To re-upload") {
		t.Errorf("cleared render still shows the re-upload prompt:\n%s", render.HTML)
	}
}

func TestHost_ClaimedUploadsAreConsumed(t *testing.T) {
	f := newFixture(t, widget.Config{Filetypes: []string{}, Multiple: true, Kind: widget.KindButton, MaxSize: 1 << 20})
	ws := f.dial(t)

	ids := f.upload(t, map[string][]byte{"a.txt": []byte("a")}, "a.txt")
	send(t, ws, host.Inbound{Type: host.TypeOffer, Files: ids})
	readMessage(t, ws) // value
	readMessage(t, ws) // render

	// The same temp id cannot be offered twice.
	send(t, ws, host.Inbound{Type: host.TypeOffer, Files: ids})
	msg := readMessage(t, ws)
	if msg.Type != host.TypeToast {
		t.Fatalf("message type = %q, want toast", msg.Type)
	}
	data, _ := msg.Data.(map[string]any)
	if text, _ := data["message"].(string); !strings.Contains(text, "E162") {
		t.Errorf("toast message = %q, want upload-not-found", text)
	}
}

func TestHost_ProviderErrorAndUnknownMessages(t *testing.T) {
	f := newFixture(t, widget.Config{Filetypes: []string{}, Kind: widget.KindButton})
	ws := f.dial(t)

	send(t, ws, host.Inbound{Type: host.TypeError, Message: "Request too large"})
	msg := readMessage(t, ws)
	data, _ := msg.Data.(map[string]any)
	if msg.Type != host.TypeToast || data["message"] != "Request too large" || data["level"] != "error" {
		t.Fatalf("message = %+v", msg)
	}

	send(t, ws, host.Inbound{Type: "rename"})
	msg = readMessage(t, ws)
	if msg.Type != host.TypeError || msg.Code != "E161" {
		t.Fatalf("message = %+v, want E161 error", msg)
	}

	if err := ws.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
		t.Fatal(err)
	}
	msg = readMessage(t, ws)
	if msg.Type != host.TypeError || msg.Code != "E160" {
		t.Fatalf("message = %+v, want E160 error", msg)
	}
}

func TestHost_Page(t *testing.T) {
	label := "Pick a CSV"
	f := newFixture(t, widget.Config{Filetypes: []string{".csv"}, Kind: widget.KindButton, Label: &label})

	resp, err := http.Get(f.srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	for _, want := range []string{
		"<!DOCTYPE html>",
		`id="` + host.RootID + `"`,
		"Pick a CSV",
		`accept="text/csv,.csv"`,
		`src="/client.js"`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestHost_ClientScriptETag(t *testing.T) {
	f := newFixture(t, widget.Config{Kind: widget.KindButton})

	resp, err := http.Get(f.srv.URL + "/client.js")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	etag := resp.Header.Get("ETag")
	if resp.StatusCode != http.StatusOK || etag == "" {
		t.Fatalf("status = %d, etag = %q", resp.StatusCode, etag)
	}

	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/client.js", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotModified {
		t.Errorf("status = %d, want 304", resp.StatusCode)
	}
}

func TestHost_HealthAndMetrics(t *testing.T) {
	f := newFixture(t, widget.Config{Kind: widget.KindButton})
	f.dial(t)

	resp, err := http.Get(f.srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("healthz = %d %q", resp.StatusCode, body)
	}

	resp, err = http.Get(f.srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "fileupload_active_connections 1") {
		t.Errorf("metrics missing active connection gauge:\n%s", body)
	}
	if f.host.Connections() != 1 {
		t.Errorf("Connections() = %d", f.host.Connections())
	}
}

func TestHost_CloseRefusesNewConnections(t *testing.T) {
	f := newFixture(t, widget.Config{Kind: widget.KindButton})
	ws := f.dial(t)

	f.host.Close()

	ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := ws.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("read after Close = %v, want normal closure", err)
	}

	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial after Close should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("response = %+v, want 503", resp)
	}
}

func TestSameOriginCheck(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://example.com", true},
		{"https://evil.com", false},
		{"://bad", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "http://example.com/ws", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := host.SameOriginCheck(r); got != tt.want {
			t.Errorf("SameOriginCheck(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}
