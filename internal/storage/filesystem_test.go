package storage

import (
	"context"
	"io"
	"testing"
)

func TestFileStoreWriteAndRead(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	key, err := store.Write(context.Background(), "/uploads/./a.png", []byte{0x89, 'P', 'N', 'G'})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "uploads/a.png" {
		t.Fatalf("key = %q, want uploads/a.png", key)
	}

	data, err := store.Read(context.Background(), key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "\x89PNG" {
		t.Fatalf("data = %q", data)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	for _, key := range []string{"", "..", "../etc/passwd", "uploads/../../x"} {
		if _, err := store.Write(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("Write(%q) expected error", key)
		}
	}
}

func TestFileStoreWriteHonorsContext(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Write(ctx, "uploads/a.png", []byte("x")); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestFileStoreDirServesWrittenFiles(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := store.Write(context.Background(), "uploads/b.jpg", []byte("jpeg")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	fs, err := store.Dir("uploads")
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	f, err := fs.Open("/b.jpg")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != "jpeg" {
		t.Fatalf("data = %q", data)
	}
}

func TestFileStoreRemove(t *testing.T) {
	base := t.TempDir()
	store, err := NewFileStore(base)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if store.BasePath() != base {
		t.Fatalf("base path = %q, want %q", store.BasePath(), base)
	}
	key, err := store.Write(context.Background(), "uploads/a.png", []byte("x"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := store.Remove(context.Background(), key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := store.Read(context.Background(), key); err == nil {
		t.Fatalf("Read after Remove succeeded")
	}
	if err := store.Remove(context.Background(), key); err != nil {
		t.Fatalf("Remove of missing key: %v", err)
	}
	if err := store.Remove(context.Background(), "../x"); err == nil {
		t.Fatalf("Remove accepted traversal key")
	}
}
