package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hetulpatel/PropLines/internal/models"
)

func ptr(v float64) *float64 { return &v }

func entry() models.ResultEntry {
	return models.ResultEntry{
		EventID:        "ev1",
		BookmakerKey:   "fanduel",
		MarketKey:      "player_receptions",
		Outcome:        models.OutcomeOver,
		Player:         "Jaylen Waddle",
		Point:          ptr(4.5),
		Odds:           -110,
		ReferencePoint: ptr(5.5),
		ReferenceOdds:  -120,
		Bucket:         models.BucketDifferentPoints,
	}
}

func TestLineKeyIgnoresPrice(t *testing.T) {
	a := entry()
	b := entry()
	b.Odds = +150
	b.Point = ptr(6.5)
	if LineKey(a) != LineKey(b) {
		t.Error("price changes should keep the line key")
	}
	b.Player = "Tyreek Hill"
	if LineKey(a) == LineKey(b) {
		t.Error("different players should not share a key")
	}
}

func TestRecordSame(t *testing.T) {
	now := time.Now()
	a := RecordFor(entry(), now)
	b := RecordFor(entry(), now.Add(time.Minute))
	if !a.Same(b) {
		t.Error("UpdatedAt should not matter")
	}
	moved := entry()
	moved.Point = ptr(3.5)
	if a.Same(RecordFor(moved, now)) {
		t.Error("point move should differ")
	}
	unset := entry()
	unset.Point = nil
	if a.Same(RecordFor(unset, now)) {
		t.Error("missing point should differ from a set one")
	}
}

func TestNewRedisLineCacheRequiresAddr(t *testing.T) {
	if _, err := NewRedisLineCache("", "", 0, 0, ""); err == nil {
		t.Fatal("expected error without addr")
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *redisLineCache
	ctx := context.Background()
	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Errorf("Get = %v, %v", ok, err)
	}
	if err := c.Set(ctx, "k", LineRecord{}); err != nil {
		t.Errorf("Set = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}

func TestRedisLineCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("PROPLINES_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PROPLINES_TEST_REDIS_ADDR not set")
	}
	c, err := NewRedisLineCache(addr, "", 0, time.Minute, "proplines_test")
	if err != nil {
		t.Fatalf("NewRedisLineCache: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	key := uuid.NewString()
	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("Get before Set = %v, %v", ok, err)
	}
	want := RecordFor(entry(), time.Now().UTC().Truncate(time.Second))
	if err := c.Set(ctx, key, want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if !got.Same(want) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
