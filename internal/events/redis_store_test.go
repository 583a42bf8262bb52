package events

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	processed, err := store.AlreadyProcessed(ctx, "vapi", "evt-1")
	if err != nil || processed {
		t.Fatalf("expected unseen event, got processed=%v err=%v", processed, err)
	}

	ok, err := store.MarkProcessed(ctx, "vapi", "evt-1")
	if err != nil || !ok {
		t.Fatalf("expected first mark to succeed, got %v %v", ok, err)
	}

	ok, err = store.MarkProcessed(ctx, "vapi", "evt-1")
	if err != nil || ok {
		t.Fatalf("expected duplicate mark to report false, got %v %v", ok, err)
	}

	processed, err = store.AlreadyProcessed(ctx, "vapi", "evt-1")
	if err != nil || !processed {
		t.Fatalf("expected seen event, got processed=%v err=%v", processed, err)
	}

	// Same event id under a different provider must not collide.
	processed, err = store.AlreadyProcessed(ctx, "other", "evt-1")
	if err != nil || processed {
		t.Fatalf("expected provider-scoped key, got processed=%v err=%v", processed, err)
	}

	// Entries fall out after the retention window.
	mr.FastForward(2 * time.Hour)
	processed, err = store.AlreadyProcessed(ctx, "vapi", "evt-1")
	if err != nil || processed {
		t.Fatalf("expected expired entry, got processed=%v err=%v", processed, err)
	}
}
