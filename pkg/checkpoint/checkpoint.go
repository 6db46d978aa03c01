package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"xhsclient/pkg/logger"
)

// Crawl kinds that can be checkpointed
const (
	KindHomefeed = "homefeed"
	KindSearch   = "search"
	KindUser     = "user"
)

// Checkpoint represents the state of a crawl session
type Checkpoint struct {
	Kind         string          `json:"kind"`
	Keyword      string          `json:"keyword,omitempty"`
	UserID       string          `json:"user_id,omitempty"`
	SearchID     string          `json:"search_id,omitempty"`
	Page         int             `json:"page"`
	Cursor       string          `json:"cursor"`
	NoteIndex    int             `json:"note_index"`
	FetchedNotes map[string]bool `json:"fetched_notes"` // note ID -> seen
	TotalFetched int             `json:"total_fetched"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Version      int             `json:"version"`
}

// Manager handles checkpoint persistence for one crawl
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a checkpoint manager. name identifies the crawl, e.g.
// the search keyword or user ID.
func NewManager(kind, name string) (*Manager, error) {
	dataDir, err := getDataDirectory()
	if err != nil {
		return nil, fmt.Errorf("failed to get data directory: %w", err)
	}

	checkpointsDir := filepath.Join(dataDir, "checkpoints")
	if err := os.MkdirAll(checkpointsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	filename := kind + ".checkpoint.json"
	if name != "" {
		filename = fmt.Sprintf("%s_%s.checkpoint.json", kind, sanitizeName(name))
	}

	return &Manager{
		checkpointPath: filepath.Join(checkpointsDir, filename),
		logger:         logger.GetLogger(),
	}, nil
}

// NewManagerAt creates a checkpoint manager with an explicit file path
func NewManagerAt(path string) *Manager {
	return &Manager{
		checkpointPath: path,
		logger:         logger.GetLogger(),
	}
}

// Create creates and saves a fresh checkpoint
func (m *Manager) Create(kind, keyword, userID string) (*Checkpoint, error) {
	checkpoint := &Checkpoint{
		Kind:         kind,
		Keyword:      keyword,
		UserID:       userID,
		Page:         0,
		Cursor:       "",
		NoteIndex:    0,
		FetchedNotes: make(map[string]bool),
		TotalFetched: 0,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
		Version:      1,
	}

	if err := m.Save(checkpoint); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"kind": kind,
		"path": m.checkpointPath,
	})

	return checkpoint, nil
}

// Load loads an existing checkpoint. Returns nil without error if no
// checkpoint exists.
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var checkpoint Checkpoint
	if err := json.NewDecoder(file).Decode(&checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if checkpoint.FetchedNotes == nil {
		checkpoint.FetchedNotes = make(map[string]bool)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"kind":          checkpoint.Kind,
		"total_fetched": checkpoint.TotalFetched,
		"cursor":        checkpoint.Cursor,
		"updated_at":    checkpoint.UpdatedAt,
	})

	return &checkpoint, nil
}

// Save saves the checkpoint to disk atomically
func (m *Manager) Save(checkpoint *Checkpoint) error {
	checkpoint.UpdatedAt = time.Now()

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(checkpoint); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"kind":          checkpoint.Kind,
		"total_fetched": checkpoint.TotalFetched,
		"cursor":        checkpoint.Cursor,
	})

	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// UpdateProgress records the cursor position after a fetched page
func (m *Manager) UpdateProgress(checkpoint *Checkpoint, cursor string, page, noteIndex int) error {
	checkpoint.Cursor = cursor
	checkpoint.Page = page
	checkpoint.NoteIndex = noteIndex
	return m.Save(checkpoint)
}

// RecordNote marks a note as fetched
func (m *Manager) RecordNote(checkpoint *Checkpoint, noteID string) error {
	if checkpoint.FetchedNotes[noteID] {
		return nil
	}
	checkpoint.FetchedNotes[noteID] = true
	checkpoint.TotalFetched++
	return m.Save(checkpoint)
}

// IsNoteFetched checks if a note was already fetched in this crawl
func (checkpoint *Checkpoint) IsNoteFetched(noteID string) bool {
	return checkpoint.FetchedNotes[noteID]
}

// Path returns the checkpoint file path
func (m *Manager) Path() string {
	return m.checkpointPath
}

// sanitizeName makes a crawl name safe for use in a filename
func sanitizeName(name string) string {
	safe := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			safe = append(safe, r)
		default:
			safe = append(safe, '-')
		}
	}
	return string(safe)
}

// getDataDirectory returns the platform-specific data directory
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "xhsclient")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "xhsclient")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "xhsclient")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "xhsclient")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	return dataDir, nil
}
