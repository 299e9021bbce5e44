package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dugout/internal/mediastore"
	"dugout/internal/testsupport"
)

func newTestServer(t *testing.T) (*Daemon, *apiServer) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, store, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	srv, err := newAPIServer(cfg, d, nil)
	if err != nil {
		t.Fatalf("newAPIServer: %v", err)
	}
	return d, srv
}

func doRequest(srv *apiServer, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestAPIEnqueueCreatesTask(t *testing.T) {
	d, srv := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/tasks",
		`{"game_id": 12, "files": [
			{"path": "/up/a.heic", "name": "a.heic"},
			{"path": "/up/a.mov", "name": "a.mov"}
		]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var payload TaskPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.GameID == nil || *payload.GameID != 12 {
		t.Errorf("game id = %v", payload.GameID)
	}
	if payload.Status != string(mediastore.StatusQueued) {
		t.Errorf("status = %q", payload.Status)
	}
	if len(payload.Units) != 1 || payload.Units[0].Kind != string(mediastore.KindLivePhoto) {
		t.Errorf("units = %+v", payload.Units)
	}
	if d.queue.Len() != 1 {
		t.Errorf("queue depth = %d, want 1", d.queue.Len())
	}
}

func TestAPIEnqueueRejectsBadGroups(t *testing.T) {
	_, srv := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/api/tasks",
		`{"files": [{"path": "/up/notes.txt", "name": "notes.txt"}]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec = doRequest(srv, http.MethodPost, "/api/tasks", `not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d for bad body, want 400", rec.Code)
	}
}

func TestAPIGetTask(t *testing.T) {
	d, srv := newTestServer(t)

	task := testsupport.NewTask(t, d.store, nil,
		testsupport.NewPhotoUnit("a", "/up/a.jpg", "a.jpg"))

	rec := doRequest(srv, http.MethodGet, "/api/tasks/"+task.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload TaskPayload
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.ID != task.ID || payload.Message == "" {
		t.Errorf("payload = %+v", payload)
	}

	rec = doRequest(srv, http.MethodGet, "/api/tasks/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing task status = %d, want 404", rec.Code)
	}
}

func TestAPIListTasksFilters(t *testing.T) {
	d, srv := newTestServer(t)
	ctx := context.Background()

	testsupport.NewTask(t, d.store, testsupport.GameID(1),
		testsupport.NewPhotoUnit("a", "/up/a.jpg", "a.jpg"))
	done := testsupport.NewTask(t, d.store, testsupport.GameID(1),
		testsupport.NewPhotoUnit("b", "/up/b.jpg", "b.jpg"))
	done.Status = mediastore.StatusCompleted
	if err := d.store.UpdateTask(ctx, done); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	var listing struct {
		Tasks []TaskPayload `json:"tasks"`
	}

	// Default listing only shows unfinished tasks.
	rec := doRequest(srv, http.MethodGet, "/api/tasks?game=1", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(listing.Tasks) != 1 {
		t.Errorf("active tasks = %d, want 1", len(listing.Tasks))
	}

	rec = doRequest(srv, http.MethodGet, "/api/tasks?game=1&all=1", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(listing.Tasks) != 2 {
		t.Errorf("all tasks = %d, want 2", len(listing.Tasks))
	}

	rec = doRequest(srv, http.MethodGet, "/api/tasks?game=bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad game filter status = %d, want 400", rec.Code)
	}
}

func TestAPIListTasksStatusFilter(t *testing.T) {
	d, srv := newTestServer(t)
	ctx := context.Background()

	testsupport.NewTask(t, d.store, nil,
		testsupport.NewPhotoUnit("a", "/up/a.jpg", "a.jpg"))
	done := testsupport.NewTask(t, d.store, nil,
		testsupport.NewPhotoUnit("b", "/up/b.jpg", "b.jpg"))
	done.Status = mediastore.StatusCompleted
	if err := d.store.UpdateTask(ctx, done); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	var listing struct {
		Tasks []TaskPayload `json:"tasks"`
	}

	rec := doRequest(srv, http.MethodGet, "/api/tasks?status=completed", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(listing.Tasks) != 1 || listing.Tasks[0].ID != done.ID {
		t.Errorf("completed tasks = %+v", listing.Tasks)
	}

	rec = doRequest(srv, http.MethodGet, "/api/tasks?status=scorecard", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown status filter = %d, want 400", rec.Code)
	}
}

func TestAPIRestartTask(t *testing.T) {
	d, srv := newTestServer(t)
	ctx := context.Background()

	task := testsupport.NewTask(t, d.store, nil,
		testsupport.NewPhotoUnit("a", "/up/a.jpg", "a.jpg"))

	rec := doRequest(srv, http.MethodPost, "/api/tasks/"+task.ID+"/restart", "")
	if rec.Code != http.StatusOK {
		t.Errorf("restart status = %d", rec.Code)
	}
	if d.queue.Len() != 1 {
		t.Errorf("queue depth = %d after restart", d.queue.Len())
	}

	task.Status = mediastore.StatusCompleted
	if err := d.store.UpdateTask(ctx, task); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	rec = doRequest(srv, http.MethodPost, "/api/tasks/"+task.ID+"/restart", "")
	if rec.Code != http.StatusConflict {
		t.Errorf("terminal restart status = %d, want 409", rec.Code)
	}

	rec = doRequest(srv, http.MethodPost, "/api/tasks/nope/restart", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing restart status = %d, want 404", rec.Code)
	}
}

func TestAPIHealth(t *testing.T) {
	d, srv := newTestServer(t)

	testsupport.NewTask(t, d.store, nil,
		testsupport.NewPhotoUnit("a", "/up/a.jpg", "a.jpg"))

	rec := doRequest(srv, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var health map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if health["total"] != 1 || health["queued"] != 1 {
		t.Errorf("health = %v", health)
	}
}

func TestAPIServerDisabledWithoutBind(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	store := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, store, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	srv, err := newAPIServer(cfg, d, nil)
	if err != nil {
		t.Fatalf("newAPIServer: %v", err)
	}
	if srv != nil {
		t.Error("api server built with empty bind address")
	}
}
