package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/vitrine/internal/apperr"
	"github.com/starford/vitrine/internal/testutil"
)

type staticSource struct {
	data []byte
	err  error
}

func (s staticSource) Name() string { return "static" }
func (s staticSource) Fetch(context.Context) ([]byte, error) {
	return s.data, s.err
}

func TestDecode_MapsFields(t *testing.T) {
	recs, err := Decode([]byte(testutil.CatalogJSON))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 {
		t.Fatalf("got %d records, want 4", len(recs))
	}
	r := recs[0]
	if r.ID != "1" || r.FileIdentifier != "sunset" || r.Title != "Sunset Beach" ||
		r.MediaRef != "sunset.png" || r.Description != "Warm evening light" || r.CategoryKey != "Landscape" {
		t.Errorf("unexpected first record: %+v", r)
	}
	if recs[2].ID != "p-3" {
		t.Errorf("string id: got %q", recs[2].ID)
	}
	if recs[3].MediaRef != "" {
		t.Errorf("absent image should decode empty, got %q", recs[3].MediaRef)
	}
}

func TestDecode_NullFields(t *testing.T) {
	recs, err := Decode([]byte(`[{"id": null, "title": null, "category": "x"}]`))
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].ID != "" || recs[0].Title != "" || recs[0].CategoryKey != "x" {
		t.Errorf("unexpected record: %+v", recs[0])
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, in := range []string{"", "{}", "[1,", `"text"`, "[null]"} {
		if _, err := Decode([]byte(in)); err == nil {
			t.Errorf("Decode(%q): expected error", in)
		}
	}
}

func TestDecode_EmptyArray(t *testing.T) {
	recs, err := Decode([]byte("[]"))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d records", len(recs))
	}
}

func TestStore_LoadReversesOrder(t *testing.T) {
	s := NewStore(testutil.Logger())
	var notified int
	s.Subscribe(func(snap Snapshot) { notified = len(snap.Records) })

	if err := s.Load(context.Background(), staticSource{data: []byte(testutil.CatalogJSON)}); err != nil {
		t.Fatal(err)
	}
	all := s.All()
	want := []string{"note", "forest", "robot", "sunset"}
	for i, r := range all {
		if r.FileIdentifier != want[i] {
			t.Errorf("position %d: got %q, want %q", i, r.FileIdentifier, want[i])
		}
	}
	if notified != 4 {
		t.Errorf("listener saw %d records", notified)
	}
	if !s.Loaded() || len(s.Snapshot().Checksum) != 64 {
		t.Errorf("snapshot not recorded: %+v", s.Snapshot())
	}
}

func TestStore_FailureKeepsPrevious(t *testing.T) {
	s := NewStore(testutil.Logger())
	ctx := context.Background()
	if err := s.Load(ctx, staticSource{data: []byte(testutil.CatalogJSON)}); err != nil {
		t.Fatal(err)
	}
	before := s.Snapshot().Checksum

	err := s.Load(ctx, staticSource{err: errors.New("boom")})
	var le *apperr.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	err = s.Load(ctx, staticSource{data: []byte("not json")})
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError for malformed payload, got %v", err)
	}
	if s.Snapshot().Checksum != before || len(s.All()) != 4 {
		t.Error("failed load replaced the snapshot")
	}
}

func TestStore_EmptyBeforeLoad(t *testing.T) {
	s := NewStore(nil)
	if len(s.All()) != 0 || s.Loaded() {
		t.Error("new store should be empty")
	}
}

func TestFileSource(t *testing.T) {
	_, store := testutil.TestSite(t)
	src := NewFileSource(store, "prompt.json")
	data, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != testutil.CatalogJSON {
		t.Error("unexpected file content")
	}
	if _, err := NewFileSource(store, "nope.json").Fetch(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/prompt.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(testutil.CatalogJSON))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := NewStore(testutil.Logger())
	if err := s.Load(context.Background(), NewHTTPSource(srv.URL+"/prompt.json", time.Second)); err != nil {
		t.Fatal(err)
	}
	if len(s.All()) != 4 {
		t.Errorf("got %d records", len(s.All()))
	}

	err := s.Load(context.Background(), NewHTTPSource(srv.URL+"/gone.json", time.Second))
	var le *apperr.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError on 404, got %v", err)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	root, _ := testutil.TestSite(t)
	path := filepath.Join(root, "prompt.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var reloads atomic.Int32
	go Watch(ctx, path, testutil.Logger(), func(context.Context) { reloads.Add(1) })
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(path, []byte("[]"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "other.json"), []byte("[]"), 0o644)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && reloads.Load() == 0 {
		time.Sleep(50 * time.Millisecond)
	}
	if reloads.Load() == 0 {
		t.Fatal("catalog change did not trigger reload")
	}
	time.Sleep(400 * time.Millisecond)
	if n := reloads.Load(); n != 1 {
		t.Errorf("expected a single debounced reload, got %d", n)
	}
}
