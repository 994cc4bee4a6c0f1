package storage

import (
	"context"
	"errors"
	"testing"
)

func TestWriteThenRead(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	key, err := store.Write(context.Background(), "generated/images/abc/image-01.png", []byte("payload"))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if key != "generated/images/abc/image-01.png" {
		t.Fatalf("unexpected key %q", key)
	}
	data, err := store.Read(context.Background(), key)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("read = %q, want payload", data)
	}
}

func TestReadMissingKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Read(context.Background(), "users/users.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestWriteRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Write(context.Background(), "../outside.txt", []byte("x")); err == nil {
		t.Fatalf("expected traversal key to be rejected")
	}
}
