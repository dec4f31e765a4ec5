package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/UniM0cha/gilton-system/internal/model"
)

// SheetStore owns the sheet catalog (<dir>/sheets.json) and the uploaded
// image tree (<dir>/sheets/...).
//
// The catalog is cached in memory so the relay can answer get-sheets without
// touching the filesystem; Append rewrites the whole file under a mutex, the
// same read-modify-write discipline as ProfileStore.
type SheetStore struct {
	mu     sync.RWMutex
	dir    string
	log    *zap.Logger
	sheets []model.Sheet
}

// NewSheetStore creates a sheet store rooted at dir.
func NewSheetStore(dir string, log *zap.Logger) *SheetStore {
	return &SheetStore{dir: dir, log: log}
}

func (s *SheetStore) catalogPath() string {
	return filepath.Join(s.dir, "sheets.json")
}

// ImageDir returns the root of the uploaded sheet image tree.
func (s *SheetStore) ImageDir() string {
	return filepath.Join(s.dir, "sheets")
}

// Load reads the catalog file into the cache. A missing file is an empty
// catalog; an unreadable or corrupt file is logged and also treated as
// empty, so one bad file never takes the relay down.
func (s *SheetStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sheets = nil
	data, err := os.ReadFile(s.catalogPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		s.log.Warn("sheet catalog unreadable, starting empty", zap.Error(err))
		return nil
	}
	var doc model.SheetCatalogDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Warn("sheet catalog corrupt, starting empty", zap.Error(err))
		return nil
	}
	s.sheets = doc.Sheets
	return nil
}

// List returns a copy of the catalog in upload order. Never nil.
func (s *SheetStore) List() []model.Sheet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Sheet, len(s.sheets))
	copy(out, s.sheets)
	return out
}

// Has reports whether a sheet with the given id exists in the catalog.
func (s *SheetStore) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sheet := range s.sheets {
		if sheet.ID == id {
			return true
		}
	}
	return false
}

// Append adds a sheet to the catalog and persists the whole document.
func (s *SheetStore) Append(sheet model.Sheet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.Sheet, len(s.sheets), len(s.sheets)+1)
	copy(next, s.sheets)
	next = append(next, sheet)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(model.SheetCatalogDocument{Sheets: next}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.catalogPath(), data, 0o644); err != nil {
		return fmt.Errorf("write sheet catalog: %w", err)
	}
	s.sheets = next
	return nil
}

// SaveImage writes an uploaded image under <dir>/sheets/<date>/<serviceType>/
// and returns the catalog-relative file name.
func (s *SheetStore) SaveImage(date, serviceType, fileName string, data []byte) (string, error) {
	serviceDir := filepath.Join(s.ImageDir(), date, serviceType)
	if err := os.MkdirAll(serviceDir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(serviceDir, fileName), data, 0o644); err != nil {
		return "", fmt.Errorf("write sheet image: %w", err)
	}
	return filepath.ToSlash(filepath.Join(date, serviceType, fileName)), nil
}
