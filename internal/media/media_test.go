package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"photo.png", "photo.png"},
		{"../../etc/passwd", "passwd"},
		{"my photo (1).png", "my_photo__1_.png"},
		{"..", ""},
		{"weird\x00name.txt", "weird_name.txt"},
	}
	for _, tc := range cases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNewNameUnique(t *testing.T) {
	s := &Storage{Dir: t.TempDir()}
	a := s.NewName("photo.png")
	b := s.NewName("photo.png")
	if a == b {
		t.Error("NewName produced identical names for identical inputs")
	}
	if !strings.HasSuffix(a, "_photo.png") {
		t.Errorf("NewName(%q) = %q, missing original suffix", "photo.png", a)
	}
}

func TestPathStaysInsideDir(t *testing.T) {
	s := &Storage{Dir: t.TempDir()}
	p := s.Path("../../escape.txt")
	if filepath.Dir(p) != s.Dir {
		t.Errorf("Path escaped upload dir: %q", p)
	}
}

func TestRemove(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage() error = %v", err)
	}

	name := "keep.txt"
	if err := os.WriteFile(s.Path(name), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Remove(name); err != nil {
		t.Errorf("Remove() error = %v", err)
	}
	if _, err := os.Stat(s.Path(name)); !os.IsNotExist(err) {
		t.Error("file survived Remove()")
	}

	// Removing a missing file is not an error.
	if err := s.Remove("never-existed.txt"); err != nil {
		t.Errorf("Remove(missing) error = %v", err)
	}
}
