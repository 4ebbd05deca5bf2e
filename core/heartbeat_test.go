package core

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newMiniredisClient(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestHeartbeatPublishAndRead(t *testing.T) {
	client := newMiniredisClient(t)
	ctx := context.Background()

	pub := NewHeartbeatPublisher(client, "replica-a", "host-1", "1.2.3")
	pub.publish(ctx)

	hb, err := ReadHeartbeat(ctx, client, "replica-a")
	if err != nil {
		t.Fatalf("unexpected error reading heartbeat: %v", err)
	}
	if hb.Replica != "replica-a" || hb.Host != "host-1" || hb.Version != "1.2.3" {
		t.Fatalf("unexpected heartbeat contents: %+v", hb)
	}
	if time.Since(hb.UpdatedAt) > time.Minute {
		t.Fatalf("expected recent UpdatedAt, got %v", hb.UpdatedAt)
	}
}

func TestReadHeartbeatMissingReplicaErrors(t *testing.T) {
	client := newMiniredisClient(t)
	if _, err := ReadHeartbeat(context.Background(), client, "nonexistent"); err == nil {
		t.Fatal("expected error for missing replica heartbeat")
	}
}
