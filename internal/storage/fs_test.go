package storage

import (
	"errors"
	"os"
	"testing"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("name: Tomato Sauce\n")
	if err := s.Write("recipes/tomato-sauce.yaml", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("recipes/tomato-sauce.yaml")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestDelete(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("del.yaml", []byte("bye: true"))
	if err := s.Delete("del.yaml"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err := s.Read("del.yaml")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("read after delete = %v, want ErrNotExist", err)
	}
}

func TestList(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("ingredients.yaml", []byte("a"))
	_ = s.Write("recipes/b.yml", []byte("b"))
	_ = s.Write("recipes/notes.md", []byte("ignored"))
	_ = s.Write(".hidden/c.yaml", []byte("ignored"))

	metas, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("expected 2 documents, got %d: %+v", len(metas), metas)
	}
	if metas[0].Path != "ingredients.yaml" || metas[1].Path != "recipes/b.yml" {
		t.Errorf("paths = %q, %q", metas[0].Path, metas[1].Path)
	}
	if metas[0].Checksum != Checksum([]byte("a")) {
		t.Errorf("checksum mismatch")
	}
}

func TestList_MissingDir(t *testing.T) {
	s := tempVault(t)
	metas, err := s.List("stores")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(metas) != 0 {
		t.Errorf("expected empty list, got %+v", metas)
	}
}

func TestPathTraversal(t *testing.T) {
	s := tempVault(t)
	for _, p := range []string{"../escape.yaml", "/etc/passwd", "recipes/../../x.yaml"} {
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("Write(%q) should be rejected", p)
		}
	}
}

func TestNewFS_NotADirectory(t *testing.T) {
	f, err := os.CreateTemp("", "larder-not-dir-*")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("NewFS on a file should fail")
	}
}
