package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/rcsgrep/internal/history"
	"github.com/starford/rcsgrep/internal/index"
	"github.com/starford/rcsgrep/internal/testutil"
	"github.com/starford/rcsgrep/internal/testutil/fixture"
)

// testEnv sets up a temp repository, SQLite DB, service, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	return testEnvWithSSE(t, authToken != "", authToken, nil)
}

func testEnvWithSSE(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) http.Handler {
	t.Helper()
	_, store := testutil.TestRepo(t, map[string]string{
		"greet.txt,v": fixture.TwoRevisions,
		"src/b.c,v":   fixture.Branching,
		"junk,v":      "not rcs",
	})
	db := testutil.TestDB(t)
	if _, err := index.Sync(context.Background(), db, store, testutil.Logger(), 2); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	return NewRouter(history.NewService(store, db), authEnabled, token, sseHandler)
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func TestListFiles(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/files")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp FileListResponse
	decode(t, w, &resp)
	// junk,v fails to parse and is left out of the index.
	if resp.Total != 2 || len(resp.Files) != 2 {
		t.Fatalf("files = %+v", resp.Files)
	}
	if resp.Files[1].Path != "src/b.c,v" || resp.Files[1].Head != "1.3" {
		t.Errorf("files[1] = %+v", resp.Files[1])
	}
}

func TestListRevisions(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/revisions?path=src/b.c,v")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp RevisionListResponse
	decode(t, w, &resp)
	want := []string{"1.1", "1.2", "1.2.1.1", "1.2.1.2", "1.2.2.1", "1.3"}
	if len(resp.Revisions) != len(want) {
		t.Fatalf("revisions = %+v", resp.Revisions)
	}
	for i, r := range resp.Revisions {
		if r.Rev != want[i] {
			t.Errorf("revisions[%d] = %q, want %q", i, r.Rev, want[i])
		}
	}
}

func TestListRevisions_Errors(t *testing.T) {
	router := testEnv(t, "")

	if w := get(t, router, "/revisions"); w.Code != http.StatusBadRequest {
		t.Errorf("no path = %d, want 400", w.Code)
	}
	if w := get(t, router, "/revisions?path=nope,v"); w.Code != http.StatusNotFound {
		t.Errorf("missing file = %d, want 404", w.Code)
	}
}

func TestReadRevision(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/revision?path=greet.txt,v&rev=REL_1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var text RevisionText
	decode(t, w, &text)
	if text.Rev != "1.1" || len(text.Lines) != 2 {
		t.Fatalf("text = %+v", text)
	}
	if text.Lines[0].Text != "hello" || text.Lines[0].Origin != "1.1" {
		t.Errorf("line 1 = %+v", text.Lines[0])
	}

	w = get(t, router, "/revision?path=greet.txt,v")
	decode(t, w, &text)
	if text.Rev != "1.2" || text.Lines[0].Text != "HELLO" {
		t.Errorf("head = %+v", text)
	}
}

func TestReadRevision_Errors(t *testing.T) {
	router := testEnv(t, "")

	tests := []struct {
		target string
		want   int
	}{
		{"/revision", http.StatusBadRequest},
		{"/revision?path=greet.txt,v&rev=nope", http.StatusBadRequest},
		{"/revision?path=ghost,v", http.StatusNotFound},
		{"/revision?path=junk,v", http.StatusUnprocessableEntity},
		{"/revision?path=../outside,v", http.StatusBadRequest},
		{"/revision?path=/etc/passwd", http.StatusBadRequest},
		{"/revisions?path=src/../../greet.txt,v", http.StatusBadRequest},
		{"/grep?path=../outside,v&pattern=x", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := get(t, router, tt.target); w.Code != tt.want {
			t.Errorf("%s = %d, want %d (body %s)", tt.target, w.Code, tt.want, w.Body.String())
		}
	}
}

func TestGrep(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/grep?path=greet.txt,v&pattern=hello&format=rla")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp GrepResponse
	decode(t, w, &resp)
	if len(resp.Hits) != 1 {
		t.Fatalf("hits = %+v", resp.Hits)
	}
	fields := resp.Hits[0].Fields
	if len(fields) != 3 || fields[0] != "1.1" || fields[1] != float64(1) || fields[2] != "alice" {
		t.Errorf("fields = %v", fields)
	}

	w = get(t, router, "/grep?pattern=HELLO&icase=true")
	decode(t, w, &resp)
	if len(resp.Hits) != 2 {
		t.Errorf("all files, icase: hits = %d, want 2", len(resp.Hits))
	}
}

func TestGrep_Options(t *testing.T) {
	router := testEnv(t, "")

	var resp GrepResponse
	w := get(t, router, "/grep?path=src/b.c,v&pattern=feature+foo+bar&linewraps=1")
	decode(t, w, &resp)
	if len(resp.Hits) != 1 || resp.Hits[0].Revision != "1.2.2.1" || resp.Hits[0].Author != "erin" {
		t.Errorf("wrapped hits = %+v", resp.Hits)
	}

	w = get(t, router, "/grep?path=src/b.c,v&pattern=a&rev=REL_1_0&rev=FEATURE")
	decode(t, w, &resp)
	for _, h := range resp.Hits {
		if h.Revision != "1.1" && h.Revision != "1.2.2.1" {
			t.Errorf("unexpected revision %q", h.Revision)
		}
	}

	w = get(t, router, "/grep?path=src/b.c,v&pattern=.&limit=2")
	decode(t, w, &resp)
	if len(resp.Hits) != 2 || !resp.Truncated {
		t.Errorf("limit: hits = %d truncated = %v", len(resp.Hits), resp.Truncated)
	}
}

func TestGrep_Errors(t *testing.T) {
	router := testEnv(t, "")

	tests := []struct {
		target string
		want   int
	}{
		{"/grep?path=greet.txt,v", http.StatusBadRequest},
		{"/grep?path=greet.txt,v&pattern=x&format=rx", http.StatusBadRequest},
		{"/grep?path=greet.txt,v&pattern=(", http.StatusBadRequest},
		{"/grep?path=greet.txt,v&pattern=x&fixed=maybe", http.StatusBadRequest},
		{"/grep?path=greet.txt,v&pattern=x&rev=nope", http.StatusBadRequest},
		{"/grep?path=ghost,v&pattern=x", http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := get(t, router, tt.target); w.Code != tt.want {
			t.Errorf("%s = %d, want %d (body %s)", tt.target, w.Code, tt.want, w.Body.String())
		}
	}
}

func TestSearchEndpoint(t *testing.T) {
	router := testEnv(t, "")

	w := get(t, router, "/search?q=epsilon")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	decode(t, w, &resp)
	if len(resp.Results) != 1 {
		t.Fatalf("results = %+v", resp.Results)
	}
	if r := resp.Results[0]; r.Path != "src/b.c,v" || r.Origin != "1.3" || r.Author != "carol" {
		t.Errorf("result = %+v", r)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	router := testEnv(t, "")

	if w := get(t, router, "/search"); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/files", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := testEnv(t, "secret123")

	if w := get(t, router, "/files"); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/grep?pattern=x", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

// SSE endpoint auth tests.

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret", blockingSSE)

	if w := get(t, router, "/events"); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

func TestSSEEvents_NotMounted(t *testing.T) {
	router := testEnv(t, "")

	if w := get(t, router, "/events"); w.Code != http.StatusNotFound {
		t.Errorf("no SSE handler = %d, want 404", w.Code)
	}
}
