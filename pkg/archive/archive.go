package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Record is one archived API response with its context
type Record struct {
	APIType   string                 `json:"api_type"`
	FetchedAt time.Time              `json:"fetched_at"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Response  interface{}            `json:"response"`
}

// Manager writes API responses to a directory as JSON files and tracks
// what has been archived
type Manager struct {
	directory string
	count     map[string]int
	mu        sync.RWMutex

	// now is swappable for deterministic filenames in tests
	now func() time.Time
}

// NewManager creates an archive manager rooted at directory
func NewManager(directory string) (*Manager, error) {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	manager := &Manager{
		directory: directory,
		count:     make(map[string]int),
		now:       time.Now,
	}

	if err := manager.scanExistingRecords(); err != nil {
		return nil, fmt.Errorf("failed to scan archive directory: %w", err)
	}

	return manager, nil
}

// scanExistingRecords counts already archived files per API type. Filenames
// follow the {apiType}_{unixms}.json pattern.
func (m *Manager) scanExistingRecords() error {
	entries, err := os.ReadDir(m.directory)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		if idx := strings.LastIndex(name, "_"); idx > 0 {
			m.count[name[:idx]]++
		}
	}

	return nil
}

// Record archives one API response. Writes are atomic; a crash never
// leaves a partial JSON file behind.
func (m *Manager) Record(apiType string, metadata map[string]interface{}, response interface{}) error {
	record := Record{
		APIType:   apiType,
		FetchedAt: m.now().UTC(),
		Metadata:  metadata,
		Response:  response,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	filename := filepath.Join(m.directory, fmt.Sprintf("%s_%d.json", apiType, record.FetchedAt.UnixMilli()))

	tempFile := filename + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.count[apiType]++
	m.mu.Unlock()

	return nil
}

// Count returns how many records exist for an API type
func (m *Manager) Count(apiType string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.count[apiType]
}

// TotalCount returns how many records exist across all API types
func (m *Manager) TotalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, n := range m.count {
		total += n
	}
	return total
}

// List returns the archived filenames for an API type, oldest first
func (m *Manager) List(apiType string) ([]string, error) {
	entries, err := os.ReadDir(m.directory)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	prefix := apiType + "_"
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			files = append(files, entry.Name())
		}
	}

	sort.Strings(files)
	return files, nil
}

// Load reads one archived record back by filename
func (m *Manager) Load(filename string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(m.directory, filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse record: %w", err)
	}

	return &record, nil
}

// Directory returns the archive root
func (m *Manager) Directory() string {
	return m.directory
}
