package authservice

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSecretStorePutTake(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newSecretStore(rdb, "aso")
	ctx := context.Background()

	if err := store.Put(ctx, "app1", "12345678", "alice@example.com", 5*time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	subject, err := store.Take(ctx, "app1", "12345678")
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if subject != "alice@example.com" {
		t.Fatalf("subject = %q", subject)
	}
}

func TestSecretStoreTakeConsumes(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newSecretStore(rdb, "aso")
	ctx := context.Background()

	if err := store.Put(ctx, "app1", "12345678", "alice@example.com", 5*time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := store.Take(ctx, "app1", "12345678"); err != nil {
		t.Fatalf("first Take failed: %v", err)
	}
	if _, err := store.Take(ctx, "app1", "12345678"); !errors.Is(err, errSecretNotFound) {
		t.Fatalf("second Take = %v, want errSecretNotFound", err)
	}
	if mr.Exists("aso:app1:12345678") {
		t.Fatal("expected entry deleted after Take")
	}
}

func TestSecretStoreTakeMissing(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newSecretStore(rdb, "aso")

	if _, err := store.Take(context.Background(), "app1", "nope"); !errors.Is(err, errSecretNotFound) {
		t.Fatalf("Take = %v, want errSecretNotFound", err)
	}
}

func TestSecretStoreTenantIsolation(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newSecretStore(rdb, "aso")
	ctx := context.Background()

	if err := store.Put(ctx, "app1", "12345678", "alice@example.com", 5*time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := store.Take(ctx, "app2", "12345678"); !errors.Is(err, errSecretNotFound) {
		t.Fatalf("cross-tenant Take = %v, want errSecretNotFound", err)
	}

	// app1's entry is untouched by the app2 miss.
	subject, err := store.Take(ctx, "app1", "12345678")
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if subject != "alice@example.com" {
		t.Fatalf("subject = %q", subject)
	}
}

func TestSecretStorePrefixIsolation(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	otp := newSecretStore(rdb, "aso")
	magic := newSecretStore(rdb, "asm")
	ctx := context.Background()

	if err := otp.Put(ctx, "app1", "shared", "alice@example.com", 5*time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := magic.Take(ctx, "app1", "shared"); !errors.Is(err, errSecretNotFound) {
		t.Fatalf("cross-prefix Take = %v, want errSecretNotFound", err)
	}
	if _, err := otp.Take(ctx, "app1", "shared"); err != nil {
		t.Fatalf("Take failed: %v", err)
	}
}

func TestSecretStorePutOverwrites(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newSecretStore(rdb, "aso")
	ctx := context.Background()

	if err := store.Put(ctx, "app1", "12345678", "alice@example.com", 5*time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, "app1", "12345678", "bob@example.com", 5*time.Minute); err != nil {
		t.Fatalf("second Put failed: %v", err)
	}

	subject, err := store.Take(ctx, "app1", "12345678")
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if subject != "bob@example.com" {
		t.Fatalf("subject = %q, want superseding value", subject)
	}
}

func TestSecretStoreExpiresViaTTL(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newSecretStore(rdb, "aso")
	ctx := context.Background()

	if err := store.Put(ctx, "app1", "12345678", "alice@example.com", time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Take(ctx, "app1", "12345678"); !errors.Is(err, errSecretNotFound) {
		t.Fatalf("Take after TTL = %v, want errSecretNotFound", err)
	}
}

func TestSecretStoreLazyExpiryCheck(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newSecretStore(rdb, "aso")
	ctx := context.Background()

	// Write a record whose embedded expiry has already passed but whose
	// backend TTL has not fired, the window the Lua-side check covers.
	encoded, err := encodeSecretRecord(&secretRecord{
		Subject:   "alice@example.com",
		ExpiresAt: time.Now().Add(-time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("encodeSecretRecord failed: %v", err)
	}
	if err := rdb.Set(ctx, store.key("app1", "12345678"), encoded, time.Hour).Err(); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := store.Take(ctx, "app1", "12345678"); !errors.Is(err, errSecretNotFound) {
		t.Fatalf("Take = %v, want errSecretNotFound", err)
	}
	if mr.Exists("aso:app1:12345678") {
		t.Fatal("expected stale entry purged by Take")
	}
}

func TestSecretStoreRejectsUnknownRecordVersion(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newSecretStore(rdb, "aso")
	ctx := context.Background()

	if err := rdb.Set(ctx, store.key("app1", "12345678"), []byte{0xFF, 0x01, 0x02}, time.Hour).Err(); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, err := store.Take(ctx, "app1", "12345678"); !errors.Is(err, errSecretNotFound) {
		t.Fatalf("Take = %v, want errSecretNotFound", err)
	}
	if mr.Exists("aso:app1:12345678") {
		t.Fatal("expected corrupt entry purged by Take")
	}
}

func TestSecretStoreTakeExactlyOnce(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newSecretStore(rdb, "aso")
	ctx := context.Background()

	if err := store.Put(ctx, "app1", "12345678", "alice@example.com", 5*time.Minute); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	const takers = 16
	var wg sync.WaitGroup
	var successes, rejections atomic.Uint64

	for i := 0; i < takers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			subject, err := store.Take(ctx, "app1", "12345678")
			switch {
			case err == nil:
				if subject != "alice@example.com" {
					t.Errorf("subject = %q", subject)
				}
				successes.Add(1)
			case errors.Is(err, errSecretNotFound):
				rejections.Add(1)
			default:
				t.Errorf("Take = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := successes.Load(); got != 1 {
		t.Fatalf("successful takes = %d, want exactly 1", got)
	}
	if got := rejections.Load(); got != takers-1 {
		t.Fatalf("rejected takes = %d, want %d", got, takers-1)
	}
}

func TestSecretRecordRoundTrip(t *testing.T) {
	record := &secretRecord{
		Subject:   "alice@example.com",
		ExpiresAt: time.Now().Add(5 * time.Minute).Unix(),
	}

	encoded, err := encodeSecretRecord(record)
	if err != nil {
		t.Fatalf("encodeSecretRecord failed: %v", err)
	}
	decoded, err := decodeSecretRecord(encoded)
	if err != nil {
		t.Fatalf("decodeSecretRecord failed: %v", err)
	}
	if decoded.Subject != record.Subject || decoded.ExpiresAt != record.ExpiresAt {
		t.Fatalf("decoded = %+v, want %+v", decoded, record)
	}
}

func TestDecodeSecretRecordTruncated(t *testing.T) {
	record := &secretRecord{Subject: "alice@example.com", ExpiresAt: 1}
	encoded, err := encodeSecretRecord(record)
	if err != nil {
		t.Fatalf("encodeSecretRecord failed: %v", err)
	}

	for cut := 0; cut < len(encoded); cut++ {
		if _, err := decodeSecretRecord(encoded[:cut]); err == nil {
			t.Fatalf("decodeSecretRecord accepted %d-byte truncation", cut)
		}
	}
}
