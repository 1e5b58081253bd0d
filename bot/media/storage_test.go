package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir, "http://files.druk3d.local")
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}

	path, url, err := s.Save(42, KindPhoto, []byte{0xff, 0xd8, 0xff})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	rel, err := filepath.Rel(dir, path)
	if err != nil {
		t.Fatalf("Rel: %v", err)
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 3 || parts[0] != "photos" || parts[1] != "42" {
		t.Fatalf("unexpected layout: %s", rel)
	}
	if !strings.HasSuffix(parts[2], ".jpg") || !strings.Contains(parts[2], "_") {
		t.Fatalf("unexpected file name: %s", parts[2])
	}

	data, err := os.ReadFile(path)
	if err != nil || len(data) != 3 {
		t.Fatalf("stored bytes unreadable: %v", err)
	}
	if want := "http://files.druk3d.local/media/photos/42/" + parts[2]; url != want {
		t.Fatalf("url = %q, want %q", url, want)
	}
}

func TestSaveVideoAndNoBaseURL(t *testing.T) {
	s, err := NewStorage(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	path, url, err := s.Save(7, KindVideo, []byte("mp4"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.Contains(filepath.ToSlash(path), "/videos/7/") || !strings.HasSuffix(path, ".mp4") {
		t.Fatalf("video path = %s", path)
	}
	if url != "" {
		t.Fatalf("url without base = %q, want empty", url)
	}
}
