package profile

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestExportImportCode(t *testing.T) {
	p := Default()
	p.Money = 1234
	p.Achievements = []string{"first_blood"}
	p.Checkpoint = &Checkpoint{Mode: ModeFloor, Level: 7, Health: 40, Coins: 90}

	code, err := ExportCode(p)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	got, err := ImportCode(code)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got.Money != 1234 || !got.HasAchievement("first_blood") || got.Checkpoint == nil || got.Checkpoint.Level != 7 {
		t.Fatalf("unexpected import result %+v", got)
	}
	if _, err := ImportCode("%%%"); err == nil {
		t.Fatalf("expected error for garbage code")
	}
}

func TestDecodeRepairsBadValues(t *testing.T) {
	p, err := Decode([]byte(`{"money":-5,"stats":{"maxHealth":0},"arenaCheckpoint":{"mode":"wave","level":0}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Money != 0 || p.Stats.MaxHealth != Default().Stats.MaxHealth || p.Checkpoint != nil {
		t.Fatalf("expected repaired profile, got %+v", p)
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	p := Default()
	p.Achievements = []string{"a"}
	p.Checkpoint = &Checkpoint{Mode: ModeWave, Level: 2}
	c := p.Clone()
	c.Achievements[0] = "b"
	c.Checkpoint.Level = 9
	if p.Achievements[0] != "a" || p.Checkpoint.Level != 2 {
		t.Fatalf("clone aliased the original")
	}
}

func TestFileBackend(t *testing.T) {
	b := FileBackend{Path: filepath.Join(t.TempDir(), "saves", "profile.json")}
	ctx := context.Background()
	if _, err := b.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	p := Default()
	p.BestFloor = 12
	if err := b.Store(ctx, p); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, err := b.Load(ctx)
	if err != nil || got.BestFloor != 12 {
		t.Fatalf("expected best floor 12, got %+v err=%v", got, err)
	}
}

func TestCloudBackend(t *testing.T) {
	var mu sync.Mutex
	stored := map[string][]byte{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			data, ok := stored[r.URL.Path]
			if !ok {
				http.NotFound(w, r)
				return
			}
			w.Write(data)
		case http.MethodPut:
			buf, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			stored[r.URL.Path] = buf
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	b := CloudBackend{BaseURL: srv.URL, ID: "abc"}
	ctx := context.Background()
	if _, err := b.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	p := Default()
	p.Money = 77
	if err := b.Store(ctx, p); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, err := b.Load(ctx)
	if err != nil || got.Money != 77 || got.ID != "abc" {
		t.Fatalf("unexpected cloud load %+v err=%v", got, err)
	}
}

func TestFallbackBackend(t *testing.T) {
	ctx := context.Background()
	primary := &MemoryBackend{Fail: errors.New("offline")}
	secondary := &MemoryBackend{}
	b := FallbackBackend{Primary: primary, Secondary: secondary, Log: zerolog.Nop()}

	p := Default()
	p.Money = 5
	if err := b.Store(ctx, p); err != nil {
		t.Fatalf("store should succeed through fallback: %v", err)
	}
	got, err := b.Load(ctx)
	if err != nil || got.Money != 5 {
		t.Fatalf("expected fallback load, got %+v err=%v", got, err)
	}
}

func TestStoreSaveDebouncedCoalesces(t *testing.T) {
	mem := &MemoryBackend{}
	s := NewStore(mem, 20*time.Millisecond, zerolog.Nop())
	for i := 0; i < 5; i++ {
		s.Set(func(p *Profile) { p.Money++ })
		s.SaveDebounced()
	}
	deadline := time.Now().Add(2 * time.Second)
	for mem.Saves() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	if mem.Saves() != 1 {
		t.Fatalf("expected one coalesced save, got %d", mem.Saves())
	}
	got, _ := mem.Load(context.Background())
	if got.Money != 5 {
		t.Fatalf("expected money 5, got %d", got.Money)
	}
}

func TestStoreSaveNowAndLoad(t *testing.T) {
	mem := &MemoryBackend{}
	s := NewStore(mem, time.Hour, zerolog.Nop())
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("missing profile should not be an error: %v", err)
	}
	s.Set(func(p *Profile) { p.ArenaWins = 3 })
	if err := <-s.SaveNow(); err != nil {
		t.Fatalf("save: %v", err)
	}

	other := NewStore(mem, time.Hour, zerolog.Nop())
	if err := other.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if other.Get().ArenaWins != 3 {
		t.Fatalf("expected arena wins 3, got %d", other.Get().ArenaWins)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("Floor"); err != nil || m != ModeFloor {
		t.Fatalf("expected floor, got %v err=%v", m, err)
	}
	if _, err := ParseMode("tower"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
