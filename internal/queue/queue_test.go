package queue

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"reelforge/internal/models"
)

func TestMemoryFIFO(t *testing.T) {
	ctx := context.Background()
	q := NewMemory(4)

	for _, id := range []string{"a", "b", "c"} {
		if err := q.Enqueue(ctx, models.QueueItem{ID: id}); err != nil {
			t.Fatalf("enqueue %s: %v", id, err)
		}
	}
	if depth, _ := q.Depth(ctx); depth != 3 {
		t.Fatalf("expected depth 3, got %d", depth)
	}

	for _, want := range []string{"a", "b", "c"} {
		item, err := q.Dequeue(ctx)
		if err != nil {
			t.Fatalf("dequeue: %v", err)
		}
		if item.ID != want {
			t.Fatalf("expected %s, got %s", want, item.ID)
		}
	}
}

func TestMemoryFull(t *testing.T) {
	ctx := context.Background()
	q := NewMemory(1)
	if err := q.Enqueue(ctx, models.QueueItem{ID: "a"}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, models.QueueItem{ID: "b"}); err != ErrQueueFull {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

func TestMemoryDequeueBlocksUntilCancel(t *testing.T) {
	q := NewMemory(1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	if err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRedisRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q := NewRedisWithClient(client, "queue:test")
	ctx := context.Background()

	in := models.QueueItem{
		ID:               "job-1",
		Kind:             models.KindTranscode,
		InputPath:        "/tmp/in.webm",
		OutputPath:       "/tmp/out.mp4",
		OriginalFilename: "clip.webm",
	}
	if err := q.Enqueue(ctx, in); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, models.QueueItem{ID: "job-2"}); err != nil {
		t.Fatalf("enqueue second: %v", err)
	}

	if depth, err := q.Depth(ctx); err != nil || depth != 2 {
		t.Fatalf("expected depth 2, got %d err=%v", depth, err)
	}

	out, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if out.ID != in.ID || out.InputPath != in.InputPath || out.Kind != in.Kind {
		t.Fatalf("item round trip mismatch: %+v", out)
	}

	second, err := q.Dequeue(ctx)
	if err != nil || second.ID != "job-2" {
		t.Fatalf("expected job-2 next, got %+v err=%v", second, err)
	}
}

func TestRedisDequeueCancel(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q := NewRedisWithClient(client, "queue:test")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := q.Dequeue(ctx); err == nil {
		t.Fatal("expected error on cancelled dequeue")
	}
}
