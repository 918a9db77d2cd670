package registry

import (
	"errors"
	"sync"
	"testing"

	"github.com/jimliudev/pegguard/internal/model"
)

func TestRegister_Validation(t *testing.T) {
	r := New()

	if _, err := r.Register(Registration{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("empty market id: got %v, want ErrInvalidConfig", err)
	}
	if _, err := r.Register(Registration{MarketID: "0xm", FloorPrice: -1}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("negative floor: got %v, want ErrInvalidConfig", err)
	}
	if _, err := r.Register(Registration{MarketID: "0xm", MinBuybackCost: -1}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("negative min cost: got %v, want ErrInvalidConfig", err)
	}
}

func TestRegister_DefaultFloor(t *testing.T) {
	r := New()

	m, err := r.Register(Registration{MarketID: "0xm"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if m.FloorPrice != model.DefaultFloorPrice {
		t.Errorf("floor = %d, want sentinel %d", m.FloorPrice, model.DefaultFloorPrice)
	}
}

func TestRegister_MonitorOnly(t *testing.T) {
	r := New()

	m, err := r.Register(Registration{MarketID: "0xm", FloorPrice: 1_000_000})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if m.BuybackEnabled() {
		t.Error("registration without vault must be monitor-only")
	}

	// Detection is independent of execution capability.
	if !r.ShouldTrigger("0xm", 900_000) {
		t.Error("monitor-only market should still detect a breach")
	}
}

func TestRegister_UpsertReplacesAndResetsCounters(t *testing.T) {
	r := New()

	if _, err := r.Register(Registration{MarketID: "0xm", VaultID: "0xv", FloorPrice: 1_000_000}); err != nil {
		t.Fatalf("register: %v", err)
	}
	r.UpdateLastPrice("0xm", 950_000)
	r.RecordOutcome("0xm", 100_000)

	// Last-write-wins on configuration.
	if _, err := r.Register(Registration{MarketID: "0xm", VaultID: "0xv", FloorPrice: 2_000_000}); err != nil {
		t.Fatalf("re-register: %v", err)
	}

	m, ok := r.Get("0xm")
	if !ok {
		t.Fatal("market not found after re-register")
	}
	if m.FloorPrice != 2_000_000 {
		t.Errorf("floor = %d, want 2000000 (second registration wins)", m.FloorPrice)
	}
	if m.BuybackCount != 0 || m.TotalBuybackCost != 0 || m.LastTradePrice != 0 {
		t.Errorf("counters not reset on replace: count=%d cost=%d last=%d",
			m.BuybackCount, m.TotalBuybackCost, m.LastTradePrice)
	}

	if ids := r.ListMonitoredMarketIDs(); len(ids) != 1 {
		t.Errorf("upsert created a duplicate entry: %v", ids)
	}
}

func TestShouldTrigger(t *testing.T) {
	r := New()
	if _, err := r.Register(Registration{MarketID: "0xm", FloorPrice: 1_000_000}); err != nil {
		t.Fatalf("register: %v", err)
	}

	tests := []struct {
		name     string
		marketID string
		price    int64
		want     bool
	}{
		{"below floor", "0xm", 999_999, true},
		{"at floor", "0xm", 1_000_000, false},
		{"above floor", "0xm", 1_000_001, false},
		{"unknown market", "0xother", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ShouldTrigger(tt.marketID, tt.price); got != tt.want {
				t.Errorf("ShouldTrigger(%q, %d) = %v, want %v", tt.marketID, tt.price, got, tt.want)
			}
		})
	}
}

func TestUnknownMarketUpdatesAreNoOps(t *testing.T) {
	r := New()

	// Must not panic or create phantom entries.
	r.UpdateLastPrice("0xghost", 1)
	r.RecordOutcome("0xghost", 1)

	if ids := r.ListMonitoredMarketIDs(); len(ids) != 0 {
		t.Errorf("no-op updates created entries: %v", ids)
	}
}

func TestRecordOutcome_Monotonic(t *testing.T) {
	r := New()
	if _, err := r.Register(Registration{MarketID: "0xm", VaultID: "0xv"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	var prevCount, prevCost int64
	costs := []int64{100_000, 50_000, 0, 250_000}
	for _, c := range costs {
		r.RecordOutcome("0xm", c)
		m, _ := r.Get("0xm")
		if m.BuybackCount < prevCount || m.TotalBuybackCost < prevCost {
			t.Fatalf("counters decreased: count %d->%d cost %d->%d",
				prevCount, m.BuybackCount, prevCost, m.TotalBuybackCost)
		}
		prevCount, prevCost = m.BuybackCount, m.TotalBuybackCost
	}

	m, _ := r.Get("0xm")
	if m.BuybackCount != int64(len(costs)) {
		t.Errorf("count = %d, want %d", m.BuybackCount, len(costs))
	}
	if m.TotalBuybackCost != 400_000 {
		t.Errorf("total cost = %d, want 400000", m.TotalBuybackCost)
	}
}

func TestExportRestore_RoundTrip(t *testing.T) {
	r := New()
	if _, err := r.Register(Registration{MarketID: "0xa", VaultID: "0xv", FloorPrice: 1_000_000}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := r.Register(Registration{MarketID: "0xb", FloorPrice: 500_000}); err != nil {
		t.Fatalf("register: %v", err)
	}
	r.UpdateLastPrice("0xa", 900_000)
	r.RecordOutcome("0xa", 180_000_000)

	regs := r.Export()
	if len(regs) != 2 {
		t.Fatalf("export returned %d records, want 2", len(regs))
	}

	restored := New()
	restored.Restore(regs)

	m, ok := restored.Get("0xa")
	if !ok {
		t.Fatal("0xa missing after restore")
	}
	if m.LastTradePrice != 900_000 || m.BuybackCount != 1 || m.TotalBuybackCost != 180_000_000 {
		t.Errorf("restored state mismatch: %+v", m)
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := New()
	if _, err := r.Register(Registration{MarketID: "0xm", VaultID: "0xv", FloorPrice: 1_000_000}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Simultaneous registration surface and poll tick callers.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.UpdateLastPrice("0xm", int64(j))
				r.ShouldTrigger("0xm", int64(j))
				r.RecordOutcome("0xm", 1)
				_, _ = r.Get("0xm")
			}
		}()
	}
	wg.Wait()

	m, _ := r.Get("0xm")
	if m.BuybackCount != 800 {
		t.Errorf("count = %d, want 800", m.BuybackCount)
	}
}
