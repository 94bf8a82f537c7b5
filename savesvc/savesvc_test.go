package savesvc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/milk9111/tycoon/profile"
	"github.com/rs/zerolog"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "saves.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepositoryPutGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.Put(ctx, "p1", `{"money":1}`); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := repo.Put(ctx, "p1", `{"money":2}`); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	doc, err := repo.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if doc.Data != `{"money":2}` {
		t.Fatalf("expected overwritten data, got %s", doc.Data)
	}
}

func TestRoutes(t *testing.T) {
	router := NewHandler(newTestRepo(t), zerolog.Nop()).Router()

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
	if rec := do(http.MethodGet, "/profiles/nobody", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := do(http.MethodPut, "/profiles/p1", "not json"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec := do(http.MethodPost, "/profiles", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d", rec.Code)
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil || created.ID == "" {
		t.Fatalf("expected an id, got %s", rec.Body.String())
	}
	rec = do(http.MethodGet, "/profiles/"+created.ID, "")
	p, err := profile.Decode(rec.Body.Bytes())
	if rec.Code != http.StatusOK || err != nil {
		t.Fatalf("get created: %d %v", rec.Code, err)
	}
	if p.ID != created.ID || p.HealthPotions != 1 {
		t.Fatalf("expected a default profile, got %+v", p)
	}
}

func TestCloudBackendRoundTrip(t *testing.T) {
	srv := httptest.NewServer(NewHandler(newTestRepo(t), zerolog.Nop()).Router())
	defer srv.Close()

	backend := profile.CloudBackend{BaseURL: srv.URL, ID: "player-1"}
	ctx := context.Background()
	if _, err := backend.Load(ctx); !errors.Is(err, profile.ErrNotFound) {
		t.Fatalf("expected not found before first save, got %v", err)
	}

	p := profile.Default()
	p.Money = 1234
	p.BestFloor = 7
	if err := backend.Store(ctx, p); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, err := backend.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.ID != "player-1" || got.Money != 1234 || got.BestFloor != 7 {
		t.Fatalf("unexpected profile %+v", got)
	}
}
