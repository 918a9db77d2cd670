package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jimliudev/pegguard/internal/model"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "pegguard.json")
	store := NewFileStore(path)
	ctx := context.Background()

	snap := &Snapshot{
		ExportedAt: time.Now().UTC().Truncate(time.Second),
		Cursor:     "0xaaa:7",
		Registrations: []model.MarketRegistration{
			{
				MarketID:         "0xpool1",
				VaultID:          "0xvault1",
				FloorPrice:       1_000_000,
				LastTradePrice:   900_000,
				BuybackCount:     3,
				TotalBuybackCost: 540_000_000,
				RegisteredAt:     time.Now().UTC().Truncate(time.Second),
			},
			{
				MarketID:   "0xpool2",
				FloorPrice: 500_000,
			},
		},
	}

	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("load returned nil after save")
	}

	if got.Cursor != snap.Cursor {
		t.Errorf("cursor = %q, want %q", got.Cursor, snap.Cursor)
	}
	if len(got.Registrations) != 2 {
		t.Fatalf("got %d registrations, want 2", len(got.Registrations))
	}
	m := got.Registrations[0]
	if m.MarketID != "0xpool1" || m.BuybackCount != 3 || m.TotalBuybackCost != 540_000_000 {
		t.Errorf("registration mismatch: %+v", m)
	}
}

func TestFileStore_LoadMissingIsNil(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))

	snap, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap != nil {
		t.Errorf("missing file should load as nil, got %+v", snap)
	}
}

func TestFileStore_SaveReplacesPrior(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "pegguard.json"))
	ctx := context.Background()

	if err := store.Save(ctx, &Snapshot{Cursor: "0xaaa:1"}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := store.Save(ctx, &Snapshot{Cursor: "0xaaa:2"}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Cursor != "0xaaa:2" {
		t.Errorf("cursor = %q, want latest 0xaaa:2", got.Cursor)
	}
}
