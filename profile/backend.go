package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var ErrNotFound = errors.New("profile: not found")

// Backend persists a single profile record.
type Backend interface {
	Load(ctx context.Context) (Profile, error)
	Store(ctx context.Context, p Profile) error
}

// FileBackend keeps the profile as a JSON file on disk.
type FileBackend struct {
	Path string
}

func (b FileBackend) Load(ctx context.Context) (Profile, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("profile: read %s: %w", b.Path, err)
	}
	return Decode(data)
}

func (b FileBackend) Store(ctx context.Context, p Profile) error {
	data, err := Encode(p)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(b.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("profile: mkdir %s: %w", dir, err)
		}
	}
	tmp := b.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("profile: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, b.Path); err != nil {
		return fmt.Errorf("profile: rename %s: %w", b.Path, err)
	}
	return nil
}

// MemoryBackend holds the profile in memory. Fail, when set, is returned by
// every call.
type MemoryBackend struct {
	mu     sync.Mutex
	stored *Profile
	saves  int
	Fail   error
}

func (b *MemoryBackend) Load(ctx context.Context) (Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Fail != nil {
		return Profile{}, b.Fail
	}
	if b.stored == nil {
		return Profile{}, ErrNotFound
	}
	return b.stored.Clone(), nil
}

func (b *MemoryBackend) Store(ctx context.Context, p Profile) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Fail != nil {
		return b.Fail
	}
	cp := p.Clone()
	b.stored = &cp
	b.saves++
	return nil
}

// Saves reports how many successful stores happened.
func (b *MemoryBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

// CloudBackend talks to the save service over HTTP.
type CloudBackend struct {
	BaseURL string
	ID      string
	Client  *http.Client
}

func (b CloudBackend) client() *http.Client {
	if b.Client != nil {
		return b.Client
	}
	return &http.Client{Timeout: 10 * time.Second}
}

func (b CloudBackend) endpoint() string {
	return strings.TrimRight(b.BaseURL, "/") + "/profiles/" + url.PathEscape(b.ID)
}

func (b CloudBackend) Load(ctx context.Context) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint(), nil)
	if err != nil {
		return Profile{}, fmt.Errorf("profile: cloud load: %w", err)
	}
	resp, err := b.client().Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("profile: cloud load: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return Profile{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("profile: cloud load: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Profile{}, fmt.Errorf("profile: cloud load: %w", err)
	}
	p, err := Decode(data)
	if err != nil {
		return Profile{}, err
	}
	p.ID = b.ID
	return p, nil
}

func (b CloudBackend) Store(ctx context.Context, p Profile) error {
	p.ID = b.ID
	data, err := Encode(p)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, b.endpoint(), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("profile: cloud store: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.client().Do(req)
	if err != nil {
		return fmt.Errorf("profile: cloud store: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("profile: cloud store: status %d", resp.StatusCode)
	}
	return nil
}

// FallbackBackend prefers Primary and falls back to Secondary when Primary
// is unreachable. Stores always reach Secondary so a later offline start
// sees the latest data.
type FallbackBackend struct {
	Primary   Backend
	Secondary Backend
	Log       zerolog.Logger
}

func (b FallbackBackend) Load(ctx context.Context) (Profile, error) {
	p, err := b.Primary.Load(ctx)
	if err == nil || errors.Is(err, ErrNotFound) && b.Secondary == nil {
		return p, err
	}
	if errors.Is(err, ErrNotFound) {
		// Nothing in the cloud yet; an offline save may still exist.
		return b.Secondary.Load(ctx)
	}
	b.Log.Warn().Err(err).Msg("primary profile backend unavailable, using local save")
	if b.Secondary == nil {
		return Profile{}, err
	}
	return b.Secondary.Load(ctx)
}

func (b FallbackBackend) Store(ctx context.Context, p Profile) error {
	primaryErr := b.Primary.Store(ctx, p)
	if primaryErr != nil {
		b.Log.Warn().Err(primaryErr).Msg("primary profile backend store failed")
	}
	if b.Secondary == nil {
		return primaryErr
	}
	if err := b.Secondary.Store(ctx, p); err != nil {
		return errors.Join(primaryErr, err)
	}
	return nil
}
