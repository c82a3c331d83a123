package artifactcache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	s, err := Open(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()), time.Hour)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestPutGet(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	const fen = "8/8/8/8/8/8/8/8 w - - 0 1"
	const variant = "Andale Mono"

	got, err := s.Get(ctx, "fen", fen, variant)
	if err != nil || got != nil {
		t.Fatalf("miss should be nil, nil; got %v, %v", got, err)
	}
	in := &Entry{SVG: []byte("<svg/>"), EmptySVG: []byte("<svg></svg>"), Storyboard: []byte("name: fen\n"), Format: "yaml"}
	if err := s.Put(ctx, "fen", fen, variant, in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err = s.Get(ctx, "fen", fen, variant)
	if err != nil || got == nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got.SVG, in.SVG) || !bytes.Equal(got.Storyboard, in.Storyboard) || got.Format != "yaml" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if other, _ := s.Get(ctx, "fen", fen, "Courier New"); other != nil {
		t.Fatalf("another variant should miss")
	}
	if ttl := mr.TTL(Key("fen", fen, variant)); ttl != time.Hour {
		t.Fatalf("ttl = %v", ttl)
	}

	mr.FastForward(2 * time.Hour)
	if got, _ := s.Get(ctx, "fen", fen, variant); got != nil {
		t.Fatalf("entry should expire")
	}
}

func TestCorruptEntryAndDelete(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	key := Key("dots", "x", "")
	if err := mr.Set(key, "not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := s.Get(ctx, "dots", "x", ""); !errors.Is(err, ErrCorruptEntry) {
		t.Fatalf("expected ErrCorruptEntry, got %v", err)
	}
	if err := s.Delete(ctx, "dots", "x", ""); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mr.Exists(key) {
		t.Fatalf("key should be gone")
	}
}

func TestKeySeparatesScenesAndVariants(t *testing.T) {
	if Key("fen", "x", "") == Key("dots", "x", "") {
		t.Fatalf("scenes share a key")
	}
	if Key("fen", "x", "a") == Key("fen", "x", "b") {
		t.Fatalf("variants share a key")
	}
	if Key("fen", " x ", "") != Key("fen", "x", "") {
		t.Fatalf("fen should be trimmed")
	}
}

func TestOpenRejectsScheme(t *testing.T) {
	if _, err := Open(context.Background(), "http://localhost:6379", 0); err == nil {
		t.Fatalf("expected scheme error")
	}
}
