package reward

import (
	"testing"
	"time"

	"github.com/milk9111/tycoon/profile"
	"github.com/rs/zerolog"
)

func TestWaveReward(t *testing.T) {
	tab := DefaultTable()
	tests := []struct {
		wave int
		want int
	}{
		{0, 0}, {1, 10}, {5, 10}, {6, 25}, {10, 25}, {11, 50}, {15, 50},
		{16, 100}, {20, 100}, {21, 200}, {500, 200},
	}
	for _, tc := range tests {
		if got := tab.WaveReward(tc.wave); got != tc.want {
			t.Fatalf("WaveReward(%d) = %d, want %d", tc.wave, got, tc.want)
		}
	}
}

func TestMilestoneBonus(t *testing.T) {
	tab := DefaultTable()
	tests := []struct {
		level int
		bonus int
		item  string
	}{
		{4, 0, ""},
		{5, 100, ""},
		{10, 300, HealthPotion},
		{20, 1000, HealthPotion},
		{50, 5000, HealthPotion},
		{51, 0, ""},
	}
	for _, tc := range tests {
		got := tab.MilestoneBonus(tc.level)
		if got.Bonus != tc.bonus || got.Item != tc.item {
			t.Fatalf("MilestoneBonus(%d) = %+v", tc.level, got)
		}
	}
}

func TestComboBonusAndLossPayout(t *testing.T) {
	tab := DefaultTable()
	if got := tab.ComboBonus(25, 3); got != 7 {
		t.Fatalf("expected floor(25*3*0.1)=7, got %d", got)
	}
	if got := tab.ComboBonus(25, 0); got != 0 {
		t.Fatalf("no combo should pay nothing, got %d", got)
	}
	if got := tab.LossPayout(55); got != 27 {
		t.Fatalf("expected floor(55*0.5)=27, got %d", got)
	}
}

func newLedger() (*Ledger, *profile.Store) {
	store := profile.NewStore(&profile.MemoryBackend{}, time.Hour, zerolog.Nop())
	return NewLedger(DefaultTable(), store, zerolog.Nop()), store
}

func TestCashOutCommitsAll(t *testing.T) {
	l, store := newLedger()
	store.Set(func(p *profile.Profile) {
		p.Money = 10
		p.BestFloor = 3
		p.Checkpoint = &profile.Checkpoint{Mode: profile.ModeFloor, Level: 8}
	})
	out := l.CashOut(Run{Mode: profile.ModeFloor, Level: 8, Coins: 120})
	p := store.Get()
	if p.Money != 130 || out.Paid != 120 {
		t.Fatalf("expected 120 paid, money %d out %+v", p.Money, out)
	}
	if p.BestFloor != 8 || !out.NewBest {
		t.Fatalf("expected new best floor 8, got %d", p.BestFloor)
	}
	if p.Checkpoint != nil {
		t.Fatalf("cash out should clear the checkpoint")
	}
}

func TestGameOverPaysHalfAndKeepsBest(t *testing.T) {
	l, store := newLedger()
	store.Set(func(p *profile.Profile) { p.BestArenaWave = 12 })
	out := l.GameOver(Run{Mode: profile.ModeWave, Level: 9, Coins: 75})
	p := store.Get()
	if p.Money != 37 || out.Paid != 37 {
		t.Fatalf("expected 37 paid, money %d", p.Money)
	}
	if p.BestArenaWave != 12 || out.NewBest {
		t.Fatalf("best wave should stay 12, got %d", p.BestArenaWave)
	}
}

func TestCheckpointCountsWins(t *testing.T) {
	l, store := newLedger()
	commits := 0
	l.OnCommit(func() { commits++ })
	l.Checkpoint(Run{Mode: profile.ModeFloor, Level: 4, Health: 60, Coins: 30})
	l.Checkpoint(Run{Mode: profile.ModeFloor, Level: 5, Health: 50, Coins: 45})
	p := store.Get()
	if p.ArenaWins != 2 {
		t.Fatalf("expected 2 wins, got %d", p.ArenaWins)
	}
	if p.Checkpoint == nil || p.Checkpoint.Level != 5 || p.Checkpoint.Coins != 45 {
		t.Fatalf("unexpected checkpoint %+v", p.Checkpoint)
	}
	if commits != 2 {
		t.Fatalf("expected commit hook twice, got %d", commits)
	}
}

func TestGrantItem(t *testing.T) {
	l, store := newLedger()
	before := store.Get().HealthPotions
	if !l.GrantItem(HealthPotion) {
		t.Fatalf("expected potion grant")
	}
	if l.GrantItem("Mystery Box") {
		t.Fatalf("unknown item should not be granted")
	}
	if store.Get().HealthPotions != before+1 {
		t.Fatalf("expected one more potion")
	}
}
