package widget_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vango-dev/fileupload/pkg/metrics"
	"github.com/vango-dev/fileupload/pkg/toast"
	"github.com/vango-dev/fileupload/pkg/widget"
)

type commitLog struct {
	mu     sync.Mutex
	values []widget.Value
}

func (l *commitLog) commit(v widget.Value) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.values = append(l.values, v)
}

func (l *commitLog) all() []widget.Value {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]widget.Value(nil), l.values...)
}

func newController(t *testing.T, cfg widget.Config, opts ...widget.Option) (*widget.Controller, *toast.Recorder, *commitLog) {
	t.Helper()
	notes := &toast.Recorder{}
	commits := &commitLog{}
	opts = append([]widget.Option{
		widget.WithNotifier(notes),
		widget.WithCommit(commits.commit),
	}, opts...)
	return widget.New(cfg, opts...), notes, commits
}

func failingFile(name string, err error) widget.OfferedFile {
	return widget.OfferedFile{
		Name: name,
		Size: 1,
		Open: func() (io.ReadCloser, error) { return nil, err },
	}
}

func TestOffer_AcceptsAndRejectsIndependently(t *testing.T) {
	cfg := widget.Config{
		Filetypes: []string{".png", ".csv"},
		Multiple:  true,
		Kind:      widget.KindArea,
		MaxSize:   1000,
	}
	ctrl, notes, commits := newController(t, cfg)

	photo := bytes.Repeat([]byte{0x89}, 500)
	result, err := ctrl.Offer(context.Background(), []widget.OfferedFile{
		widget.FromBytes("photo.png", photo),
		widget.FromBytes("sheet.xls", []byte("not allowed")),
	})
	if err != nil {
		t.Fatalf("Offer: %v", err)
	}

	want := widget.Value{{Name: "photo.png", Contents: base64.StdEncoding.EncodeToString(photo)}}
	got := ctrl.Value()
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("value = %+v, want %+v", got, want)
	}

	if !result.Committed || result.Stale {
		t.Errorf("result = %+v, want committed", result)
	}
	if len(result.Accepted) != 1 || result.Accepted[0] != "photo.png" {
		t.Errorf("accepted = %v", result.Accepted)
	}
	if len(result.Rejections) != 1 || result.Rejections[0].Filename != "sheet.xls" {
		t.Fatalf("rejections = %v", result.Rejections)
	}
	if !result.Rejections[0].Has(widget.ReasonFileInvalidType) {
		t.Errorf("expected invalid type reason, got %+v", result.Rejections[0].Reasons)
	}
	if !errors.Is(result.Rejections[0], widget.ErrFileTypeRejected) {
		t.Errorf("rejection should unwrap to ErrFileTypeRejected")
	}

	if notes.Len() != 1 {
		t.Fatalf("notifications = %d, want 1", notes.Len())
	}
	n := notes.Notifications()[0]
	if n.Title != widget.FailureTitle || n.Level != toast.TypeError {
		t.Errorf("notification = %+v", n)
	}
	if !strings.Contains(n.Description, "sheet.xls") || strings.Contains(n.Description, "photo.png") {
		t.Errorf("description = %q, want only sheet.xls", n.Description)
	}
	wantDesc := "sheet.xls (File type must be one of image/*, .png, text/csv, .csv)"
	if n.Description != wantDesc {
		t.Errorf("description = %q, want %q", n.Description, wantDesc)
	}

	all := commits.all()
	if len(all) != 1 {
		t.Fatalf("commits = %d, want 1", len(all))
	}
	data, err := json.Marshal(all[0])
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	wantJSON := `[["photo.png","` + want[0].Contents + `"]]`
	if string(data) != wantJSON {
		t.Errorf("committed JSON = %s, want %s", data, wantJSON)
	}
	if ctrl.State() != widget.StateIdle {
		t.Errorf("state = %v, want idle", ctrl.State())
	}
}

func TestOffer_OversizedFileLeavesValueUnchanged(t *testing.T) {
	initial := widget.Value{{Name: "old.csv", Contents: "YQ=="}}
	cfg := widget.Config{Filetypes: []string{".csv"}, Multiple: true, Kind: widget.KindButton, MaxSize: 10}
	ctrl, notes, commits := newController(t, cfg, widget.WithInitialValue(initial))

	result, err := ctrl.Offer(context.Background(), []widget.OfferedFile{
		widget.FromBytes("big.csv", bytes.Repeat([]byte("a"), 11)),
	})
	if err != nil {
		t.Fatalf("Offer: %v", err)
	}
	if result.Committed {
		t.Error("oversized offer must not commit")
	}
	if got := ctrl.Value(); len(got) != 1 || got[0] != initial[0] {
		t.Errorf("value changed: %+v", got)
	}
	if len(commits.all()) != 0 {
		t.Errorf("commit callback should not run")
	}
	if notes.Len() != 1 {
		t.Fatalf("notifications = %d, want 1", notes.Len())
	}
	want := "big.csv (File is larger than 10 bytes)"
	if got := notes.Notifications()[0].Description; got != want {
		t.Errorf("description = %q, want %q", got, want)
	}
	if !errors.Is(result.Rejections[0], widget.ErrFileTooLarge) {
		t.Error("rejection should unwrap to ErrFileTooLarge")
	}
}

func TestOffer_SingularByteUnit(t *testing.T) {
	cfg := widget.Config{Kind: widget.KindButton, MaxSize: 1}
	ctrl, notes, _ := newController(t, cfg)

	if _, err := ctrl.Offer(context.Background(), []widget.OfferedFile{widget.FromBytes("a.txt", []byte("ab"))}); err != nil {
		t.Fatalf("Offer: %v", err)
	}
	if got := notes.Notifications()[0].Description; got != "a.txt (File is larger than 1 byte)" {
		t.Errorf("description = %q", got)
	}
}

func TestOffer_ZeroMaxSizeAcceptsOnlyEmptyFiles(t *testing.T) {
	ctrl, notes, _ := newController(t, widget.Config{Kind: widget.KindButton, Multiple: true})

	result, err := ctrl.Offer(context.Background(), []widget.OfferedFile{
		widget.FromBytes("empty.txt", nil),
		widget.FromBytes("a.png", bytes.Repeat([]byte("x"), 500)),
	})
	if err != nil {
		t.Fatalf("Offer: %v", err)
	}
	if len(result.Accepted) != 1 || result.Accepted[0] != "empty.txt" {
		t.Fatalf("accepted = %v, want [empty.txt]", result.Accepted)
	}
	if len(result.Rejections) != 1 || !result.Rejections[0].Has(widget.ReasonFileTooLarge) {
		t.Fatalf("rejections = %+v, want a.png too large", result.Rejections)
	}
	if got := ctrl.Value(); len(got) != 1 || got[0].Name != "empty.txt" || got[0].Contents != "" {
		t.Errorf("value = %+v", got)
	}
	if notes.Len() != 1 || !strings.HasPrefix(notes.Notifications()[0].Description, "a.png (") {
		t.Errorf("notifications = %+v", notes.Notifications())
	}
}

func TestOffer_OversizedDeclaredSizeIsRejected(t *testing.T) {
	ctrl, notes, commits := newController(t, widget.Config{Kind: widget.KindButton})

	opened := false
	huge := widget.OfferedFile{
		Name: "a.png",
		Size: 1 << 62,
		Open: func() (io.ReadCloser, error) {
			opened = true
			return io.NopCloser(strings.NewReader("x")), nil
		},
	}
	result, err := ctrl.Offer(context.Background(), []widget.OfferedFile{huge})
	if err != nil {
		t.Fatalf("Offer: %v", err)
	}
	if result.Committed || len(result.Rejections) != 1 {
		t.Fatalf("result = %+v, want a.png rejected", result)
	}
	if opened {
		t.Error("rejected file must not be read")
	}
	if notes.Len() != 1 || len(commits.all()) != 0 {
		t.Errorf("notifications = %d, commits = %d", notes.Len(), len(commits.all()))
	}
}

func TestOffer_RejectionDoesNotResetEncodingState(t *testing.T) {
	cfg := widget.Config{Filetypes: []string{".txt"}, Multiple: true, Kind: widget.KindButton, MaxSize: 1 << 20}
	ctrl, _, _ := newController(t, cfg)

	opened := make(chan struct{})
	release := make(chan struct{})
	slow := widget.OfferedFile{
		Name: "slow.txt",
		Size: 4,
		Open: func() (io.ReadCloser, error) {
			close(opened)
			<-release
			return io.NopCloser(strings.NewReader("slow")), nil
		},
	}

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Offer(context.Background(), []widget.OfferedFile{slow})
		done <- err
	}()

	select {
	case <-opened:
	case <-time.After(5 * time.Second):
		t.Fatal("encode never started")
	}

	result, err := ctrl.Offer(context.Background(), []widget.OfferedFile{widget.FromBytes("bad.exe", []byte("x"))})
	if err != nil {
		t.Fatalf("Offer: %v", err)
	}
	if len(result.Rejections) != 1 {
		t.Fatalf("result = %+v, want bad.exe rejected", result)
	}
	if ctrl.State() != widget.StateEncoding {
		t.Errorf("state = %v, want encoding while slow.txt is in flight", ctrl.State())
	}

	close(release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Offer: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("offer never returned")
	}
	if ctrl.State() != widget.StateIdle {
		t.Errorf("state = %v, want idle", ctrl.State())
	}
	if names := ctrl.Value().Names(); len(names) != 1 || names[0] != "slow.txt" {
		t.Errorf("names = %v, want [slow.txt]", names)
	}
}

func TestOffer_SingleModeRejectsWholeBatch(t *testing.T) {
	initial := widget.Value{{Name: "keep.png", Contents: "AA=="}}
	cfg := widget.Config{Filetypes: []string{".png"}, Multiple: false, Kind: widget.KindButton, MaxSize: 1 << 20}
	ctrl, notes, commits := newController(t, cfg, widget.WithInitialValue(initial))

	result, err := ctrl.Offer(context.Background(), []widget.OfferedFile{
		widget.FromBytes("a.png", []byte("a")),
		widget.FromBytes("b.txt", []byte("b")),
	})
	if err != nil {
		t.Fatalf("Offer: %v", err)
	}
	if len(result.Accepted) != 0 || len(result.Rejections) != 2 {
		t.Fatalf("result = %+v, want both rejected", result)
	}
	for _, r := range result.Rejections {
		if !r.Has(widget.ReasonTooManyFiles) || !errors.Is(r, widget.ErrTooManyFiles) {
			t.Errorf("%s: missing too-many-files reason: %+v", r.Filename, r.Reasons)
		}
	}
	if !result.Rejections[1].Has(widget.ReasonFileInvalidType) {
		t.Errorf("b.txt should also carry its own type reason")
	}
	if got := ctrl.Value(); len(got) != 1 || got[0] != initial[0] {
		t.Errorf("value changed: %+v", got)
	}
	if len(commits.all()) != 0 {
		t.Error("commit callback should not run")
	}
	if notes.Len() != 1 {
		t.Fatalf("notifications = %d, want 1", notes.Len())
	}
	desc := notes.Notifications()[0].Description
	wantDesc := "a.png (Too many files)\nb.txt (File type must be one of image/*, .png, Too many files)"
	if desc != wantDesc {
		t.Errorf("description = %q, want %q", desc, wantDesc)
	}
}

func TestOffer_SingleModeReplacesValue(t *testing.T) {
	cfg := widget.Config{Kind: widget.KindButton, MaxSize: 1 << 20}
	ctrl, _, _ := newController(t, cfg, widget.WithInitialValue(widget.Value{{Name: "old.txt", Contents: "b2xk"}}))

	if _, err := ctrl.Offer(context.Background(), []widget.OfferedFile{widget.FromBytes("new.txt", []byte("new"))}); err != nil {
		t.Fatalf("Offer: %v", err)
	}
	got := ctrl.Value()
	if len(got) != 1 || got[0].Name != "new.txt" {
		t.Fatalf("value = %+v, want only new.txt", got)
	}
}

func TestOffer_MultipleModeReplacesValue(t *testing.T) {
	cfg := widget.Config{Kind: widget.KindArea, Multiple: true, MaxSize: 1 << 20}
	ctrl, _, _ := newController(t, cfg)

	ctx := context.Background()
	if _, err := ctrl.Offer(ctx, []widget.OfferedFile{widget.FromBytes("a.txt", []byte("a"))}); err != nil {
		t.Fatalf("Offer: %v", err)
	}
	if _, err := ctrl.Offer(ctx, []widget.OfferedFile{
		widget.FromBytes("b.txt", []byte("b")),
		widget.FromBytes("c.txt", []byte("c")),
	}); err != nil {
		t.Fatalf("Offer: %v", err)
	}
	names := ctrl.Value().Names()
	if strings.Join(names, ",") != "b.txt,c.txt" {
		t.Fatalf("names = %v, want [b.txt c.txt]", names)
	}
}

func TestOffer_EncodeFailureKeepsValue(t *testing.T) {
	initial := widget.Value{{Name: "keep.txt", Contents: "a2VlcA=="}}
	cfg := widget.Config{Kind: widget.KindArea, Multiple: true, MaxSize: 1 << 20}
	ctrl, notes, commits := newController(t, cfg, widget.WithInitialValue(initial))

	readErr := errors.New("disk unplugged")
	result, err := ctrl.Offer(context.Background(), []widget.OfferedFile{
		widget.FromBytes("ok.txt", []byte("ok")),
		failingFile("broken.txt", readErr),
	})
	if err == nil {
		t.Fatal("expected encode error")
	}
	if !errors.Is(err, widget.ErrEncodingFailed) || !errors.Is(err, readErr) {
		t.Errorf("err = %v, want ErrEncodingFailed wrapping the read error", err)
	}
	var encErr *widget.EncodingError
	if !errors.As(err, &encErr) || encErr.Filename != "broken.txt" {
		t.Errorf("err = %#v, want *EncodingError for broken.txt", err)
	}
	if result == nil || result.Committed {
		t.Errorf("result = %+v, want not committed", result)
	}
	if got := ctrl.Value(); len(got) != 1 || got[0] != initial[0] {
		t.Errorf("value changed: %+v", got)
	}
	if len(commits.all()) != 0 {
		t.Error("commit callback should not run")
	}
	if notes.Len() != 1 {
		t.Fatalf("notifications = %d, want 1", notes.Len())
	}
	n := notes.Notifications()[0]
	if n.Title != widget.FailureTitle || n.Description != widget.EncodeFailureMessage {
		t.Errorf("notification = %+v", n)
	}
	if ctrl.State() != widget.StateIdle {
		t.Errorf("state = %v, want idle", ctrl.State())
	}
}

func TestOffer_CanceledContext(t *testing.T) {
	ctrl, notes, commits := newController(t, widget.Config{Kind: widget.KindButton, MaxSize: 1 << 20})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ctrl.Offer(ctx, []widget.OfferedFile{widget.FromBytes("a.txt", []byte("a"))})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if notes.Len() != 0 {
		t.Errorf("canceled offer should not notify, got %d", notes.Len())
	}
	if len(commits.all()) != 0 || len(ctrl.Value()) != 0 {
		t.Error("canceled offer must not commit")
	}
}

func TestClear_AlwaysEmpties(t *testing.T) {
	for _, initial := range []widget.Value{nil, {}, {{Name: "a.txt", Contents: "YQ=="}}} {
		ctrl, notes, commits := newController(t, widget.Config{Kind: widget.KindButton, MaxSize: 1 << 20}, widget.WithInitialValue(initial))
		ctrl.Clear()

		got := ctrl.Value()
		if got == nil || len(got) != 0 {
			t.Errorf("value = %#v, want empty non-nil", got)
		}
		all := commits.all()
		if len(all) != 1 || len(all[0]) != 0 {
			t.Errorf("commits = %+v, want one empty commit", all)
		}
		data, _ := json.Marshal(got)
		if string(data) != "[]" {
			t.Errorf("cleared JSON = %s, want []", data)
		}
		if notes.Len() != 0 {
			t.Error("clear should not notify")
		}
	}
}

func TestClear_DiscardsInFlightEncode(t *testing.T) {
	ctrl, notes, commits := newController(t, widget.Config{Kind: widget.KindButton, MaxSize: 1 << 20})

	opened := make(chan struct{})
	release := make(chan struct{})
	slow := widget.OfferedFile{
		Name: "slow.txt",
		Size: 4,
		Open: func() (io.ReadCloser, error) {
			close(opened)
			<-release
			return io.NopCloser(strings.NewReader("slow")), nil
		},
	}

	type offerResult struct {
		result *widget.Result
		err    error
	}
	done := make(chan offerResult, 1)
	go func() {
		r, err := ctrl.Offer(context.Background(), []widget.OfferedFile{slow})
		done <- offerResult{r, err}
	}()

	select {
	case <-opened:
	case <-time.After(5 * time.Second):
		t.Fatal("encode never started")
	}
	if ctrl.State() != widget.StateEncoding {
		t.Errorf("state = %v, want encoding", ctrl.State())
	}

	ctrl.Clear()
	close(release)

	var out offerResult
	select {
	case out = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("offer never returned")
	}
	if out.err != nil {
		t.Fatalf("Offer: %v", out.err)
	}
	if !out.result.Stale || out.result.Committed {
		t.Errorf("result = %+v, want stale", out.result)
	}
	if len(ctrl.Value()) != 0 {
		t.Errorf("stale encode overwrote cleared value: %+v", ctrl.Value())
	}
	all := commits.all()
	if len(all) != 1 || len(all[0]) != 0 {
		t.Errorf("commits = %+v, want only the clear", all)
	}
	if notes.Len() != 0 {
		t.Errorf("notifications = %d, want 0", notes.Len())
	}
}

func TestReportError_Notifies(t *testing.T) {
	ctrl, notes, commits := newController(t, widget.Config{Kind: widget.KindButton, MaxSize: 1 << 20})

	ctrl.ReportError(errors.New("upload endpoint returned 500"))
	ctrl.ReportError(nil)

	if notes.Len() != 1 {
		t.Fatalf("notifications = %d, want 1", notes.Len())
	}
	n := notes.Notifications()[0]
	if n.Title != widget.FailureTitle || n.Description != "upload endpoint returned 500" || n.Level != toast.TypeError {
		t.Errorf("notification = %+v", n)
	}
	if len(commits.all()) != 0 {
		t.Error("provider error must not commit")
	}
}

func TestOffer_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewRecorder(metrics.WithRegistry(reg))
	cfg := widget.Config{Filetypes: []string{".png"}, Multiple: true, Kind: widget.KindArea, MaxSize: 1 << 20}
	ctrl, _, _ := newController(t, cfg, widget.WithRecorder(rec))

	if _, err := ctrl.Offer(context.Background(), []widget.OfferedFile{
		widget.FromBytes("a.png", []byte("abc")),
		widget.FromBytes("b.exe", []byte("x")),
	}); err != nil {
		t.Fatalf("Offer: %v", err)
	}

	expected := `
# HELP fileupload_bytes_encoded_total Total number of raw bytes encoded
# TYPE fileupload_bytes_encoded_total counter
fileupload_bytes_encoded_total 3
# HELP fileupload_offers_total Total number of file offers by outcome
# TYPE fileupload_offers_total counter
fileupload_offers_total{outcome="committed"} 1
# HELP fileupload_rejections_total Total number of rejected files by reason
# TYPE fileupload_rejections_total counter
fileupload_rejections_total{reason="file-invalid-type"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"fileupload_bytes_encoded_total", "fileupload_offers_total", "fileupload_rejections_total"); err != nil {
		t.Fatalf("metrics mismatch: %v", err)
	}
}

func TestController_ValueIsACopy(t *testing.T) {
	ctrl, _, _ := newController(t, widget.Config{Kind: widget.KindButton, MaxSize: 1 << 20},
		widget.WithInitialValue(widget.Value{{Name: "a.txt", Contents: "YQ=="}}))

	v := ctrl.Value()
	v[0].Name = "mutated"
	if ctrl.Value()[0].Name != "a.txt" {
		t.Fatal("Value must return a copy")
	}
}
