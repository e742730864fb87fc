package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pageflip/pageflip/internal/manifest"
	"github.com/pageflip/pageflip/internal/typeid"
)

var (
	ErrNotFound = errors.New("book not found")
	ErrExists   = errors.New("book already exists")
)

// Service is the catalogue of books the server can open sessions on. Books live as
// manifest files in one directory; books added at runtime are written there as JSON.
type Service struct {
	dir string

	mu    sync.RWMutex
	books map[string]*manifest.Manifest
}

// NewService loads every manifest in dir, creating dir when it does not exist.
func NewService(dir string) (*Service, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create book dir: %w", err)
	}
	books, err := manifest.Dir(dir)
	if err != nil {
		return nil, err
	}
	return &Service{dir: dir, books: books}, nil
}

func (s *Service) List() []manifest.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return manifest.Summaries(s.books)
}

func (s *Service) Get(bookID string) (*manifest.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.books[bookID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, bookID)
	}
	return m, nil
}

// Len is the number of books in the catalogue.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// Create validates m, gives it an id when it has none and stores it.
func (s *Service) Create(m *manifest.Manifest) (*manifest.Manifest, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.ID == "" {
		m.ID = typeid.NewBookID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[m.ID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrExists, m.ID)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(s.path(m.ID), data, 0644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	s.books[m.ID] = m
	return m, nil
}

// Seed adds m without writing it to disk. It is used for demo books.
func (s *Service) Seed(m *manifest.Manifest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[m.ID] = m
}

// Delete removes a book. Only books stored as JSON by Create are removed from disk.
func (s *Service) Delete(bookID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[bookID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, bookID)
	}
	delete(s.books, bookID)

	if err := os.Remove(s.path(bookID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove manifest: %w", err)
	}
	return nil
}

func (s *Service) path(bookID string) string {
	return filepath.Join(s.dir, filepath.Base(bookID)+".json")
}
