package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/starford/vitrine/internal/catalog"
	"github.com/starford/vitrine/internal/clock"
	"github.com/starford/vitrine/internal/index"
	"github.com/starford/vitrine/internal/media"
	"github.com/starford/vitrine/internal/render"
	"github.com/starford/vitrine/internal/session"
	"github.com/starford/vitrine/internal/testutil"
	"github.com/starford/vitrine/internal/viewport"
)

type env struct {
	sess   *session.Session
	router http.Handler
	root   string
}

// testEnv sets up a temp content root, SQLite DB, loaded session and router.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) *env {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) *env {
	t.Helper()

	root, store := testutil.TestSite(t)
	db := testutil.TestDB(t)
	logger := testutil.Logger()

	cat := catalog.NewStore(logger)
	cat.Subscribe(func(snap catalog.Snapshot) {
		if _, err := index.Sync(db, snap.Checksum, snap.Records, logger); err != nil {
			t.Errorf("sync: %v", err)
		}
	})
	cfg := session.Config{Grid: viewport.GridConfig{
		Width: 1280, Height: 800, CardHeight: 320, Gap: 24, Top: 200,
		MinColumnWidth: 280, MobileBreakpoint: 768,
	}}
	sess := session.New(context.Background(), cfg, cat,
		catalog.NewFileSource(store, "prompt.json"), media.NewFSResolver(store),
		session.WithClock(clock.NewFake()),
		session.WithSpawn(func(f func()) { f() }),
		session.WithLogger(logger))
	t.Cleanup(sess.Close)
	if err := sess.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	router := NewRouter(sess, db, authEnabled, token, sseHandler)
	return &env{sess: sess, router: router, root: root}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestCatalogEndpoint(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodGet, "/catalog", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("catalog = %d", w.Code)
	}
	resp := decode[CatalogResponse](t, w)
	if resp.Total != 4 || resp.Records[0].FileIdentifier != "note" || resp.Checksum == "" {
		t.Errorf("unexpected catalog: %+v", resp)
	}
}

func TestReloadEndpoint(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodPost, "/catalog/reload", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reload = %d", w.Code)
	}

	_ = os.WriteFile(filepath.Join(e.root, "prompt.json"), []byte("not json"), 0o644)
	w = e.do(t, http.MethodPost, "/catalog/reload", nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("broken catalog reload = %d, want 502", w.Code)
	}
}

func TestResumeEndpoint(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodPost, "/resume", nil)
	if resp := decode[ReloadResponse](t, w); resp.Reloaded {
		t.Error("resume with populated view should not reload")
	}

	e.do(t, http.MethodPut, "/search", SearchRequest{Term: "nothing matches this"})
	w = e.do(t, http.MethodPost, "/resume", nil)
	if resp := decode[ReloadResponse](t, w); !resp.Reloaded || resp.Records != 4 {
		t.Errorf("resume with empty view: %+v", resp)
	}
}

func TestCategoriesEndpoint(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodGet, "/categories", nil)
	resp := decode[CategoriesResponse](t, w)
	if len(resp.Categories) != 2 {
		t.Fatalf("categories = %+v", resp.Categories)
	}
	if resp.Categories[0].Key != "landscape" || resp.Categories[0].Count != 2 {
		t.Errorf("first category = %+v", resp.Categories[0])
	}
}

func TestRecordEndpoint(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodGet, "/records/robot", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("record = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"title":"Tin Robot"`) {
		t.Errorf("body = %s", w.Body.String())
	}

	w = e.do(t, http.MethodGet, "/records/ghost", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing record = %d, want 404", w.Code)
	}
}

func TestViewAndSearch(t *testing.T) {
	e := testEnv(t, "")
	st := decode[session.ViewState](t, e.do(t, http.MethodGet, "/view", nil))
	if st.Status != session.StatusReady || len(st.Units) != 4 {
		t.Fatalf("view = %+v", st)
	}

	st = decode[session.ViewState](t, e.do(t, http.MethodPut, "/search", SearchRequest{Term: "robot"}))
	if st.Search != "robot" || len(st.Units) != 1 {
		t.Errorf("search view = %+v", st)
	}

	st = decode[session.ViewState](t, e.do(t, http.MethodPut, "/search", SearchRequest{Term: "zzz"}))
	if st.Status != session.StatusEmpty {
		t.Errorf("status = %s, want empty", st.Status)
	}

	st = decode[session.ViewState](t, e.do(t, http.MethodDelete, "/search", nil))
	if st.Search != "" || len(st.Units) != 4 {
		t.Errorf("cleared view = %+v", st)
	}
}

func TestSearch_InvalidBody(t *testing.T) {
	e := testEnv(t, "")
	req := httptest.NewRequest(http.MethodPut, "/search", strings.NewReader("{"))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid body = %d, want 400", w.Code)
	}
}

func TestSurfaceFlow(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodPost, "/surfaces/compact/open", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("open = %d", w.Code)
	}
	resp := decode[SurfaceResponse](t, e.do(t, http.MethodPost, "/surfaces/compact/toggle", ToggleRequest{Key: "Landscape"}))
	if strings.Join(resp.Draft, ",") != "landscape" || strings.Join(resp.Committed, ",") != "all" {
		t.Errorf("after toggle: %+v", resp)
	}

	resp = decode[SurfaceResponse](t, e.do(t, http.MethodPost, "/surfaces/compact/apply", nil))
	if strings.Join(resp.Committed, ",") != "landscape" {
		t.Errorf("after apply: %+v", resp)
	}
	st := decode[session.ViewState](t, e.do(t, http.MethodGet, "/view", nil))
	if len(st.Units) != 2 {
		t.Errorf("filtered units = %d, want 2", len(st.Units))
	}

	resp = decode[SurfaceResponse](t, e.do(t, http.MethodPost, "/surfaces/expanded/open", nil))
	if strings.Join(resp.Draft, ",") != "landscape" {
		t.Errorf("expanded draft not synced: %+v", resp)
	}
	resp = decode[SurfaceResponse](t, e.do(t, http.MethodPost, "/surfaces/expanded/reset", nil))
	if strings.Join(resp.Committed, ",") != "all" {
		t.Errorf("after reset: %+v", resp)
	}

	resp = decode[SurfaceResponse](t, e.do(t, http.MethodGet, "/surfaces/compact", nil))
	if resp.Surface != "compact" {
		t.Errorf("surface = %+v", resp)
	}
}

func TestSurface_Unknown(t *testing.T) {
	e := testEnv(t, "")
	for _, path := range []string{"/surfaces/sidebar", "/surfaces/sidebar/apply"} {
		method := http.MethodGet
		if strings.HasSuffix(path, "apply") {
			method = http.MethodPost
		}
		if w := e.do(t, method, path, nil); w.Code != http.StatusNotFound {
			t.Errorf("%s = %d, want 404", path, w.Code)
		}
	}
}

func TestToggle_KeyRequired(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodPost, "/surfaces/compact/toggle", ToggleRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty key = %d, want 400", w.Code)
	}
}

func TestViewportEndpoint(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodPost, "/viewport", ViewportRequest{ScrollY: 150, Width: 600, Height: 900})
	if w.Code != http.StatusOK {
		t.Fatalf("viewport = %d", w.Code)
	}
	resp := decode[ViewportResponse](t, w)
	if resp.ScrollY != 150 || resp.Width != 600 || resp.Height != 900 {
		t.Errorf("viewport = %+v", resp)
	}

	w = e.do(t, http.MethodPost, "/viewport", ViewportRequest{ScrollY: -1})
	if w.Code != http.StatusBadRequest {
		t.Errorf("negative scroll = %d, want 400", w.Code)
	}
}

func TestTargetEndpoint(t *testing.T) {
	e := testEnv(t, "")
	st := e.sess.State()
	var loaded, missing string
	for _, u := range st.Units {
		if u.State == render.Loaded && u.Record.FileIdentifier == "robot" {
			loaded = u.ID
		}
		if u.Record.FileIdentifier == "note" {
			missing = u.ID
		}
	}
	w := e.do(t, http.MethodGet, "/units/"+loaded+"/target", nil)
	if resp := decode[TargetResponse](t, w); resp.Target != "prompt/robot" {
		t.Errorf("target = %+v", resp)
	}
	w = e.do(t, http.MethodGet, "/units/"+missing+"/target", nil)
	if resp := decode[TargetResponse](t, w); resp.Target != "prompt/note" {
		t.Errorf("failed unit target = %+v", resp)
	}
	if w := e.do(t, http.MethodGet, "/units/nope/target", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown unit = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/view", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed view = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	e := testEnv(t, "secret123")
	if w := e.do(t, http.MethodGet, "/view", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	e := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/view", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// SSE endpoint auth tests.

func sseStub() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	e := testEnvWithSSE(t, true, "secret", sseStub())
	if w := e.do(t, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	e := testEnvWithSSE(t, true, "tok", sseStub())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

// Media tests.

func TestServeImage(t *testing.T) {
	root, _ := testutil.TestSite(t)
	mh := NewMediaHandler(root)
	r := chi.NewRouter()
	r.Get("/images/{name}", mh.ServeFile)

	req := httptest.NewRequest(http.MethodGet, "/images/robot.png", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("image = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.Equal(w.Body.Bytes(), testutil.PNG) {
		t.Error("image body mismatch")
	}
}

func TestServeImage_NotFound(t *testing.T) {
	mh := NewMediaHandler(t.TempDir())
	r := chi.NewRouter()
	r.Get("/images/{name}", mh.ServeFile)

	req := httptest.NewRequest(http.MethodGet, "/images/nope.png", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing image = %d, want 404", w.Code)
	}
}

func TestServeImage_TraversalBlocked(t *testing.T) {
	mh := NewMediaHandler(t.TempDir())
	r := chi.NewRouter()
	r.Get("/images/{name}", mh.ServeFile)

	for _, name := range []string{"../prompt.json", "../../etc/passwd", "..%2Fprompt.json"} {
		req := httptest.NewRequest(http.MethodGet, "/images/"+name, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		// chi may not route the traversal paths at all (404), or our handler rejects (400).
		if w.Code == http.StatusOK {
			t.Errorf("traversal %q should not return 200", name)
		}
	}
}
