package cartstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	d "github.com/farmeazy/farmgate/internal/domain"
)

const (
	cartFileName      = "cart.json"
	selectionFileName = "coin_selection.json"
)

// FileStore persists the cart to the local device as JSON files. Corrupt or
// missing payloads are treated as an empty cart, never surfaced as errors.
type FileStore struct {
	dir string
	bus *Bus
	mu  sync.Mutex
}

func NewFileStore(dir string, bus *Bus) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cart store dir: %w", err)
	}
	return &FileStore{dir: dir, bus: bus}, nil
}

func (f *FileStore) Load(_ context.Context) ([]d.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(f.dir, cartFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return []d.CartLine{}, nil
		}
		return nil, fmt.Errorf("failed to read cart file: %w", err)
	}

	var lines []d.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		// Corrupt payload: treat as empty rather than blocking the UI.
		log.Printf("cart store: corrupt cart payload, treating as empty: %v", err)
		return []d.CartLine{}, nil
	}
	if lines == nil {
		lines = []d.CartLine{}
	}
	return lines, nil
}

func (f *FileStore) Save(_ context.Context, lines []d.CartLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.writeAtomic(cartFileName, lines); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	if f.bus != nil {
		f.bus.Publish(Event{Type: EventSaved, LineCount: len(lines)})
	}
	return nil
}

func (f *FileStore) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(filepath.Join(f.dir, cartFileName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	if f.bus != nil {
		f.bus.Publish(Event{Type: EventCleared})
	}
	return nil
}

func (f *FileStore) SaveCoinSelection(_ context.Context, sel d.CoinSelection) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.writeAtomic(selectionFileName, sel); err != nil {
		return fmt.Errorf("failed to save coin selection: %w", err)
	}
	return nil
}

func (f *FileStore) LoadCoinSelection(_ context.Context) (d.CoinSelection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var sel d.CoinSelection
	data, err := os.ReadFile(filepath.Join(f.dir, selectionFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return sel, nil
		}
		return sel, fmt.Errorf("failed to read coin selection: %w", err)
	}
	if err := json.Unmarshal(data, &sel); err != nil {
		log.Printf("cart store: corrupt coin selection, treating as unset: %v", err)
		return d.CoinSelection{}, nil
	}
	return sel, nil
}

// writeAtomic writes via a temp file plus rename so a crash mid-write never
// leaves a half-written cart behind.
func (f *FileStore) writeAtomic(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("temp file failed: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("temp write failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("temp close failed: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(f.dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename failed: %w", err)
	}
	return nil
}
