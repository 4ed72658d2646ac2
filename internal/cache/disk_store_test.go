package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type record struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestNewDiskStore(t *testing.T) {
	cacheDir := "/tmp/test_cache"
	ttl := time.Hour

	store := NewDiskStore(cacheDir, ttl)

	if store.dir != cacheDir {
		t.Errorf("Expected dir %s, got %s", cacheDir, store.dir)
	}

	if store.ttl != ttl {
		t.Errorf("Expected TTL %v, got %v", ttl, store.ttl)
	}
}

func TestKeys(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "terms",
			key:  TermsKey(),
			want: "terms.json",
		},
		{
			name: "courses for term",
			key:  CoursesKey(42),
			want: "courses_term_42.json",
		},
		{
			name: "another term does not collide",
			key:  CoursesKey(43),
			want: "courses_term_43.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.Filename(); got != tt.want {
				t.Errorf("Filename() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWriteAndRead(t *testing.T) {
	tempDir := t.TempDir()
	store := NewDiskStore(tempDir, time.Hour)

	records := []record{{ID: 1, Name: "Fall 2024"}, {ID: 2, Name: "Spring 2025"}}

	before := time.Now().UTC()
	if err := store.Write(TermsKey(), records); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	after := time.Now().UTC()

	// Verify file exists
	if _, err := os.Stat(filepath.Join(tempDir, "terms.json")); err != nil {
		t.Fatalf("Cache file was not created: %v", err)
	}

	var got []record
	fetchedAt, ok := store.Read(TermsKey(), &got)
	if !ok {
		t.Fatalf("Read() ok = false, want true")
	}

	if len(got) != 2 || got[0].Name != "Fall 2024" || got[1].ID != 2 {
		t.Errorf("Read() records = %+v, want %+v", got, records)
	}

	if fetchedAt.Before(before) || fetchedAt.After(after) {
		t.Errorf("Read() fetchedAt = %v, want between %v and %v", fetchedAt, before, after)
	}
}

func TestWriteOverwrites(t *testing.T) {
	tempDir := t.TempDir()
	store := NewDiskStore(tempDir, time.Hour)

	if err := store.Write(CoursesKey(7), []record{{ID: 1, Name: "old"}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := store.Write(CoursesKey(7), []record{{ID: 2, Name: "new"}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	var got []record
	if _, ok := store.Read(CoursesKey(7), &got); !ok {
		t.Fatalf("Read() ok = false, want true")
	}
	if len(got) != 1 || got[0].Name != "new" {
		t.Errorf("Read() records = %+v, want the overwritten entry", got)
	}
}

func TestReadExpired(t *testing.T) {
	tempDir := t.TempDir()
	store := NewDiskStore(tempDir, time.Hour)

	if err := store.Write(TermsKey(), []record{{ID: 1, Name: "Fall"}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// Move the clock past the TTL
	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	var got []record
	if _, ok := store.Read(TermsKey(), &got); ok {
		t.Errorf("Read() ok = true, want false (should be expired)")
	}

	// The stale file is left on disk for the next write to overwrite
	if _, err := os.Stat(filepath.Join(tempDir, "terms.json")); err != nil {
		t.Errorf("Expired cache file should be left on disk: %v", err)
	}
}

func TestReadExpiredAtBoundary(t *testing.T) {
	tempDir := t.TempDir()
	store := NewDiskStore(tempDir, time.Hour)

	written := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return written }
	if err := store.Write(TermsKey(), []record{{ID: 1, Name: "Fall"}}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	// Age exactly equal to the TTL counts as expired
	store.now = func() time.Time { return written.Add(time.Hour) }
	var got []record
	if _, ok := store.Read(TermsKey(), &got); ok {
		t.Errorf("Read() ok = true at exact TTL boundary, want false")
	}

	// One instant earlier is still a hit
	store.now = func() time.Time { return written.Add(time.Hour - time.Second) }
	if _, ok := store.Read(TermsKey(), &got); !ok {
		t.Errorf("Read() ok = false just under the TTL, want true")
	}
}

func TestReadMissing(t *testing.T) {
	store := NewDiskStore(t.TempDir(), time.Hour)

	var got []record
	if _, ok := store.Read(CoursesKey(99), &got); ok {
		t.Errorf("Read() ok = true for missing key, want false")
	}
}

func TestReadCorrupt(t *testing.T) {
	tempDir := t.TempDir()
	store := NewDiskStore(tempDir, time.Hour)

	path := filepath.Join(tempDir, TermsKey().Filename())
	if err := os.WriteFile(path, []byte("not json at all"), 0644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}

	var got []record
	if _, ok := store.Read(TermsKey(), &got); ok {
		t.Errorf("Read() ok = true for corrupt entry, want false")
	}
}

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	cacheDir := filepath.Join(tempDir, "new", "cache", "dir")

	store := NewDiskStore(cacheDir, time.Hour)

	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	// Verify directory was created
	if _, err := os.Stat(cacheDir); os.IsNotExist(err) {
		t.Fatalf("Cache directory was not created")
	}
}
