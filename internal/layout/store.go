// Package layout persists drawn-line sets to disk. Session lines live in
// memory only; a layout is written when the user explicitly saves one and
// restored wholesale on load.
package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/summit-enterprise/stock-pro-sub000/internal/drawing"
)

var symbolRe = regexp.MustCompile(`^[A-Z0-9^.\-]{1,16}$`)

// Layout is one saved drawn-line set.
type Layout struct {
	Symbol  string         `json:"symbol"`
	SavedAt time.Time      `json:"saved_at"`
	Lines   []drawing.Line `json:"lines"`
}

// Store manages layout files on disk, one JSON file per symbol.
type Store struct {
	dir string
	mu  sync.RWMutex
}

// NewStore creates a Store and ensures the directory exists.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("layout store: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) validateSymbol(symbol string) error {
	if !symbolRe.MatchString(symbol) {
		return fmt.Errorf("invalid layout symbol: %q", symbol)
	}
	return nil
}

func (s *Store) path(symbol string) string {
	name := strings.NewReplacer("^", "_", ".", "_").Replace(symbol)
	return filepath.Join(s.dir, name+".json")
}

// Save writes the layout for its symbol, replacing any prior one.
func (s *Store) Save(layout Layout) error {
	if err := s.validateSymbol(layout.Symbol); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(layout, "", "  ")
	if err != nil {
		return fmt.Errorf("layout store: marshal: %w", err)
	}
	if err := os.WriteFile(s.path(layout.Symbol), data, 0o644); err != nil {
		return fmt.Errorf("layout store: write: %w", err)
	}
	return nil
}

// Get reads the layout for symbol.
func (s *Store) Get(symbol string) (Layout, error) {
	if err := s.validateSymbol(symbol); err != nil {
		return Layout{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(symbol))
	if err != nil {
		if os.IsNotExist(err) {
			return Layout{}, fmt.Errorf("layout not found: %s", symbol)
		}
		return Layout{}, fmt.Errorf("layout store: read: %w", err)
	}
	var layout Layout
	if err := json.Unmarshal(data, &layout); err != nil {
		return Layout{}, fmt.Errorf("layout store: unmarshal: %w", err)
	}
	return layout, nil
}

// List returns all saved layouts sorted by save time (newest first).
func (s *Store) List() ([]Layout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("layout store: glob: %w", err)
	}

	layouts := make([]Layout, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var layout Layout
		if err := json.Unmarshal(data, &layout); err != nil {
			continue
		}
		layouts = append(layouts, layout)
	}

	sort.Slice(layouts, func(i, j int) bool {
		return layouts[i].SavedAt.After(layouts[j].SavedAt)
	})
	return layouts, nil
}

// Delete removes the layout for symbol.
func (s *Store) Delete(symbol string) error {
	if err := s.validateSymbol(symbol); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(symbol)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("layout store: delete: %w", err)
	}
	return nil
}
