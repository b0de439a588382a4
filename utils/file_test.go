package utils

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskStorePut(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(filepath.Join(dir, "uploads"), "/uploads/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	url, err := store.Put(context.Background(), "challenge_images/g1/u1/3-abc.png", "image/png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "/uploads/challenge_images/g1/u1/3-abc.png" {
		t.Fatalf("url = %q", url)
	}

	got, err := os.ReadFile(filepath.Join(dir, "uploads", "challenge_images", "g1", "u1", "3-abc.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "png" {
		t.Fatalf("content = %q", got)
	}
}

func TestDiskStoreRejectsEscapingKey(t *testing.T) {
	store, err := NewDiskStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	for _, key := range []string{"../outside.png", "a/../../outside.png", ""} {
		if _, err := store.Put(context.Background(), key, "", strings.NewReader("x")); !errors.Is(err, ErrUnsafeKey) {
			t.Fatalf("key %q: expected ErrUnsafeKey, got %v", key, err)
		}
	}
}
