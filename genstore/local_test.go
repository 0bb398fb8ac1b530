package genstore

import (
	"context"
	"sync"
	"testing"
)

func TestLocalMissingNamespaceIsZero(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore()
	t.Cleanup(func() { _ = s.Close(ctx) })

	g, err := s.Snapshot(ctx, "article")
	if err != nil {
		t.Fatal(err)
	}
	if g != 0 {
		t.Fatalf("got %d want 0", g)
	}
}

func TestLocalBumpIsPerNamespace(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore()

	for i := 0; i < 2; i++ {
		if _, err := s.Bump(ctx, "article"); err != nil {
			t.Fatal(err)
		}
	}
	g, err := s.Bump(ctx, "processed-content")
	if err != nil {
		t.Fatal(err)
	}
	if g != 1 {
		t.Fatalf("processed-content gen=%d want 1", g)
	}

	a, _ := s.Snapshot(ctx, "article")
	p, _ := s.Snapshot(ctx, "processed-content")
	if a != 2 || p != 1 {
		t.Fatalf("got article=%d processed=%d want 2,1", a, p)
	}
}

func TestLocalConcurrentBumpsAreAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore()

	const n = 64
	var wg sync.WaitGroup
	seen := make(chan uint64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, _ := s.Bump(ctx, "article")
			seen <- g
		}()
	}
	wg.Wait()
	close(seen)

	uniq := map[uint64]bool{}
	for g := range seen {
		if uniq[g] {
			t.Fatalf("duplicate generation %d", g)
		}
		uniq[g] = true
	}
	if g, _ := s.Snapshot(ctx, "article"); g != n {
		t.Fatalf("final gen=%d want %d", g, n)
	}
}
