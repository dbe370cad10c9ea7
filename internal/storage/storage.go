// Package storage provides a thread-safe archive of tutorial runs with
// file-based persistence. Runs are kept in memory in insertion order and
// rotated so that at most maxRuns of the most recent remain.
//
// The archive is persisted to a single JSON file with atomic writes (temp
// file + rename) and can be restored on application restart.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rewired-gh/nutriframe/internal/models"
)

// archiveVersion is written to every persisted file.
const archiveVersion = "1.0"

// Storage provides thread-safe in-memory storage with file-based persistence
type Storage struct {
	runs []models.Run
	mu   sync.RWMutex

	// Configuration
	maxRuns         int
	filePath        string
	filePermissions os.FileMode
	dirPermissions  os.FileMode
}

// PersistenceFile represents the file structure for JSON persistence
type PersistenceFile struct {
	Version string       `json:"version"`
	SavedAt time.Time    `json:"saved_at"`
	Runs    []models.Run `json:"runs"`
}

// New creates a new Storage instance persisting to filePath.
// If filePath is empty, uses OS-appropriate tmp directory
func New(maxRuns int, filePath string, filePermissions, dirPermissions os.FileMode) *Storage {
	if filePath == "" {
		filePath = filepath.Join(os.TempDir(), "nutriframe", "runs.json")
	}
	if filePermissions == 0 {
		filePermissions = 0o644
	}
	if dirPermissions == 0 {
		dirPermissions = 0o755
	}

	return &Storage{
		runs:            make([]models.Run, 0),
		maxRuns:         maxRuns,
		filePath:        filePath,
		filePermissions: filePermissions,
		dirPermissions:  dirPermissions,
	}
}

// NewRunID returns a fresh run identifier
func NewRunID() string {
	return uuid.New().String()
}

// AddRun appends a run to the archive. A run with an existing ID replaces it.
func (s *Storage) AddRun(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("invalid run: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.runs {
		if s.runs[i].ID == run.ID {
			s.runs[i] = *run
			return nil
		}
	}
	s.runs = append(s.runs, *run)
	return nil
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(id string) (*models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.runs {
		if s.runs[i].ID == id {
			run := s.runs[i]
			return &run, nil
		}
	}
	return nil, fmt.Errorf("run not found: %s", id)
}

// ListRuns returns all runs, most recently started first
func (s *Storage) ListRuns() []models.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := make([]models.Run, len(s.runs))
	copy(sorted, s.runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.After(sorted[j].StartedAt)
	})
	return sorted
}

// LatestRun returns the most recently started run, or nil when the archive is empty
func (s *Storage) LatestRun() *models.Run {
	runs := s.ListRuns()
	if len(runs) == 0 {
		return nil
	}
	return &runs[0]
}

// Count returns the number of archived runs
func (s *Storage) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// RotateRuns removes the oldest runs exceeding the max limit
func (s *Storage) RotateRuns() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxRuns <= 0 || len(s.runs) <= s.maxRuns {
		return nil
	}

	// Sort by start time (oldest first) and keep the tail
	sort.SliceStable(s.runs, func(i, j int) bool {
		return s.runs[i].StartedAt.Before(s.runs[j].StartedAt)
	})
	start := len(s.runs) - s.maxRuns
	s.runs = append([]models.Run(nil), s.runs[start:]...)
	return nil
}

// Save persists storage state to file
func (s *Storage) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Create data directory if needed
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, s.dirPermissions); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data := PersistenceFile{
		Version: archiveVersion,
		SavedAt: time.Now(),
		Runs:    s.runs,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Write to temporary file first (atomic write)
	tempPath := s.filePath + ".tmp"
	if err := os.WriteFile(tempPath, jsonData, s.filePermissions); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	// Rename temp file to actual file
	if err := os.Rename(tempPath, s.filePath); err != nil {
		_ = os.Remove(tempPath) // Clean up temp file on rename failure
		return fmt.Errorf("failed to rename file: %w", err)
	}

	return nil
}

// Load restores storage state from file
func (s *Storage) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Clean up any stale temp files from previous crashes
	tempPath := s.filePath + ".tmp"
	if _, err := os.Stat(tempPath); err == nil {
		_ = os.Remove(tempPath)
	}

	// No file to load, start fresh
	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		return nil
	}

	jsonData, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var data PersistenceFile
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	if data.Version != "" && data.Version != archiveVersion {
		return fmt.Errorf("unsupported archive version %q", data.Version)
	}

	s.runs = data.Runs
	if s.runs == nil {
		s.runs = make([]models.Run, 0)
	}
	return nil
}
