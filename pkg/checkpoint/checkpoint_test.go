package checkpoint

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	return NewManagerAt(filepath.Join(t.TempDir(), "search_golang.checkpoint.json"))
}

func TestCreateAndLoad(t *testing.T) {
	m := testManager(t)

	created, err := m.Create(KindSearch, "golang", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Kind != KindSearch || created.Keyword != "golang" {
		t.Errorf("unexpected checkpoint: %+v", created)
	}
	if created.Version != 1 {
		t.Errorf("version = %d, want 1", created.Version)
	}
	if !m.Exists() {
		t.Error("expected checkpoint file to exist after create")
	}

	loaded, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected checkpoint, got nil")
	}
	if loaded.Kind != KindSearch || loaded.Keyword != "golang" {
		t.Errorf("unexpected loaded checkpoint: %+v", loaded)
	}
	if loaded.FetchedNotes == nil {
		t.Error("expected initialized FetchedNotes map")
	}
}

func TestLoadMissingReturnsNil(t *testing.T) {
	m := NewManagerAt(filepath.Join(t.TempDir(), "none.checkpoint.json"))

	cp, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cp != nil {
		t.Errorf("expected nil for missing checkpoint, got %+v", cp)
	}
}

func TestUpdateProgress(t *testing.T) {
	m := testManager(t)

	cp, err := m.Create(KindHomefeed, "", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := m.UpdateProgress(cp, "cursor-2", 2, 40); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	loaded, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Cursor != "cursor-2" || loaded.Page != 2 || loaded.NoteIndex != 40 {
		t.Errorf("progress not persisted: %+v", loaded)
	}
}

func TestRecordNoteDeduplicates(t *testing.T) {
	m := testManager(t)

	cp, err := m.Create(KindSearch, "golang", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := m.RecordNote(cp, "n1"); err != nil {
		t.Fatalf("RecordNote failed: %v", err)
	}
	if err := m.RecordNote(cp, "n1"); err != nil {
		t.Fatalf("RecordNote failed: %v", err)
	}
	if err := m.RecordNote(cp, "n2"); err != nil {
		t.Fatalf("RecordNote failed: %v", err)
	}

	if cp.TotalFetched != 2 {
		t.Errorf("total fetched = %d, want 2", cp.TotalFetched)
	}
	if !cp.IsNoteFetched("n1") || !cp.IsNoteFetched("n2") {
		t.Error("expected both notes recorded")
	}
	if cp.IsNoteFetched("n3") {
		t.Error("unexpected note recorded")
	}

	loaded, err := m.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.TotalFetched != 2 || !loaded.IsNoteFetched("n2") {
		t.Errorf("fetched notes not persisted: %+v", loaded)
	}
}

func TestDelete(t *testing.T) {
	m := testManager(t)

	if _, err := m.Create(KindUser, "", "user-1"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := m.Delete(); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if m.Exists() {
		t.Error("expected checkpoint file to be gone")
	}

	// Deleting a missing checkpoint is not an error
	if err := m.Delete(); err != nil {
		t.Errorf("Delete of missing checkpoint failed: %v", err)
	}
}

func TestSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	m := NewManagerAt(filepath.Join(dir, "homefeed.checkpoint.json"))

	if _, err := m.Create(KindHomefeed, "", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Errorf("temporary file %q left behind", entry.Name())
		}
	}
}

func TestNewManagerUsesDataDirectory(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG data directory is linux only")
	}
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	m, err := NewManager(KindSearch, "my search/term")
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	base := filepath.Base(m.Path())
	if base != "search_my-search-term.checkpoint.json" {
		t.Errorf("unexpected checkpoint filename %q", base)
	}
	if !strings.Contains(m.Path(), filepath.Join("xhsclient", "checkpoints")) {
		t.Errorf("checkpoint not under data directory: %s", m.Path())
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"golang", "golang"},
		{"user_123-abc", "user_123-abc"},
		{"a b/c", "a-b-c"},
		{"旅行攻略", "----"},
	}

	for _, tt := range tests {
		if got := sanitizeName(tt.in); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
