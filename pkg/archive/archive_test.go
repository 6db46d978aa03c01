package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecordAndLoad(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	metadata := map[string]interface{}{"endpoint": "/api/sns/web/v1/homefeed"}
	response := map[string]interface{}{"cursor_score": "abc", "items": []string{}}

	if err := m.Record("homefeed", metadata, response); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	files, err := m.List("homefeed")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(files))
	}

	if !strings.HasPrefix(files[0], "homefeed_") || !strings.HasSuffix(files[0], ".json") {
		t.Errorf("unexpected filename %q", files[0])
	}

	record, err := m.Load(files[0])
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if record.APIType != "homefeed" {
		t.Errorf("api type = %q", record.APIType)
	}
	if !record.FetchedAt.Equal(fixed) {
		t.Errorf("fetched at = %v, want %v", record.FetchedAt, fixed)
	}
	if record.Metadata["endpoint"] != "/api/sns/web/v1/homefeed" {
		t.Errorf("metadata = %v", record.Metadata)
	}
}

func TestCounts(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	// Distinct timestamps keep filenames unique
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		ts = ts.Add(time.Millisecond)
		return ts
	}

	for i := 0; i < 3; i++ {
		if err := m.Record("homefeed", nil, "data"); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if err := m.Record("search", nil, "data"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if m.Count("homefeed") != 3 {
		t.Errorf("homefeed count = %d, want 3", m.Count("homefeed"))
	}
	if m.Count("search") != 1 {
		t.Errorf("search count = %d, want 1", m.Count("search"))
	}
	if m.Count("comments") != 0 {
		t.Errorf("comments count = %d, want 0", m.Count("comments"))
	}
	if m.TotalCount() != 4 {
		t.Errorf("total count = %d, want 4", m.TotalCount())
	}
}

func TestScanExistingRecords(t *testing.T) {
	dir := t.TempDir()

	existing := []string{
		"homefeed_1748779200000.json",
		"homefeed_1748779200001.json",
		"search_1748779200002.json",
		"notes.txt",
	}
	for _, name := range existing {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatalf("failed to seed file: %v", err)
		}
	}

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if m.Count("homefeed") != 2 {
		t.Errorf("homefeed count = %d, want 2", m.Count("homefeed"))
	}
	if m.Count("search") != 1 {
		t.Errorf("search count = %d, want 1", m.Count("search"))
	}
	if m.TotalCount() != 3 {
		t.Errorf("total count = %d, want 3", m.TotalCount())
	}
}

func TestListOrderAndFiltering(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		ts = ts.Add(time.Second)
		return ts
	}

	m.Record("search", nil, "s1")
	m.Record("homefeed", nil, "h1")
	m.Record("search", nil, "s2")

	files, err := m.List("search")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 search files, got %d", len(files))
	}
	if files[0] >= files[1] {
		t.Errorf("files not sorted oldest first: %v", files)
	}
	for _, f := range files {
		if !strings.HasPrefix(f, "search_") {
			t.Errorf("unexpected file %q in search listing", f)
		}
	}
}

func TestNoPartialFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if err := m.Record("homefeed", nil, map[string]string{"k": "v"}); err != nil {
		t.Fatalf("Record failed: %v", err)
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

func TestLoadMissingRecord(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, err := m.Load("homefeed_0.json"); err == nil {
		t.Error("expected error for missing record")
	}
}
