package enemy

import "testing"

func TestFloorOneIsFirstArchetypeUnscaled(t *testing.T) {
	g := NewGenerator(DefaultTable())
	e := g.Floor(1)
	want := DefaultTable().Regular[0]
	if e.Name != want.Name || e.Health != want.Health || e.MaxHealth != want.Health || e.Damage != want.Damage {
		t.Fatalf("expected unscaled %s, got %+v", want.Name, e)
	}
	if e.IsBoss {
		t.Fatalf("floor 1 should not be a boss")
	}
}

func TestBossFloors(t *testing.T) {
	g := NewGenerator(DefaultTable())
	tests := []struct {
		floor int
		boss  bool
		name  string
	}{
		{4, false, ""},
		{5, true, "Slime King"},
		{10, true, "Goblin Warlord"},
		{15, true, "Lich"},
		{20, true, "Dragon"},
		{95, true, "Dragon"},
	}
	for _, tc := range tests {
		e := g.Floor(tc.floor)
		if e.IsBoss != tc.boss {
			t.Fatalf("floor %d: boss=%v, want %v", tc.floor, e.IsBoss, tc.boss)
		}
		if tc.boss && e.Name != tc.name {
			t.Fatalf("floor %d: got %s, want %s", tc.floor, e.Name, tc.name)
		}
		if tc.boss && len(e.Specials) == 0 {
			t.Fatalf("floor %d: boss without specials", tc.floor)
		}
	}
}

func TestLevelBelowOneTreatedAsOne(t *testing.T) {
	g := NewGenerator(DefaultTable())
	for _, n := range []int{0, -4} {
		if g.Floor(n).Health != g.Floor(1).Health {
			t.Fatalf("floor %d should match floor 1", n)
		}
		if len(g.Wave(n)) != 1 {
			t.Fatalf("wave %d should have one enemy", n)
		}
	}
}

func TestScalingMonotonicWithinBucket(t *testing.T) {
	g := NewGenerator(DefaultTable())
	prev := g.Floor(1)
	for n := 2; n <= 4; n++ {
		cur := g.Floor(n)
		if cur.Name != prev.Name {
			t.Fatalf("floor %d changed archetype inside bucket", n)
		}
		if cur.MaxHealth < prev.MaxHealth || cur.Damage < prev.Damage {
			t.Fatalf("floor %d weaker than floor %d", n, n-1)
		}
		prev = cur
	}
}

func TestArchetypeClampsToLast(t *testing.T) {
	g := NewGenerator(DefaultTable())
	e := g.Floor(1001)
	if e.Name != "Wraith" {
		t.Fatalf("expected last archetype, got %s", e.Name)
	}
}

func TestWaveSizeGrows(t *testing.T) {
	g := NewGenerator(DefaultTable())
	tests := []struct {
		wave int
		size int
	}{
		{1, 1}, {5, 1}, {6, 2}, {11, 3}, {16, 4}, {40, 4},
	}
	for _, tc := range tests {
		got := g.Wave(tc.wave)
		if len(got) != tc.size {
			t.Fatalf("wave %d: size %d, want %d", tc.wave, len(got), tc.size)
		}
	}
	two := g.Wave(6)
	if two[0].Name == two[1].Name {
		t.Fatalf("wave members should have distinct names, got %q", two[0].Name)
	}
}

func TestTakeDamageClamps(t *testing.T) {
	e := Enemy{Health: 10, MaxHealth: 10}
	if got := e.TakeDamage(25); got != 10 || e.Health != 0 || !e.Defeated() {
		t.Fatalf("expected clamp to zero, applied %d health %d", got, e.Health)
	}
	if got := e.TakeDamage(5); got != 0 {
		t.Fatalf("defeated enemy should not take damage")
	}
}

func TestPrepareRequiresKnownSpecial(t *testing.T) {
	g := NewGenerator(DefaultTable())
	boss := g.Floor(5)
	if boss.Prepare(SpecialWound) {
		t.Fatalf("slime king cannot wound")
	}
	if !boss.Prepare(SpecialPoison) || !boss.PreparingSpecial {
		t.Fatalf("expected poison to be prepared")
	}
	boss.ClearSpecial()
	if boss.PreparingSpecial || boss.ChosenSpecial != SpecialNone {
		t.Fatalf("expected special cleared")
	}
}

func TestScale(t *testing.T) {
	if got := Scale(100, 1, 0.5); got != 100 {
		t.Fatalf("level 1 should be unscaled, got %d", got)
	}
	if got := Scale(30, 3, 0.1); got != 36 {
		t.Fatalf("expected 36, got %d", got)
	}
}
