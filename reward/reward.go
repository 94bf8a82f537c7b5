package reward

import "math"

// Band pays Coins for waves up to and including UpTo. A zero UpTo matches
// every remaining wave.
type Band struct {
	UpTo  int `yaml:"up_to"`
	Coins int `yaml:"coins"`
}

// Milestone is a one-off bonus for reaching a level.
type Milestone struct {
	Bonus int    `yaml:"bonus"`
	Item  string `yaml:"item"`
}

// Table holds the payout constants.
type Table struct {
	Bands       []Band            `yaml:"bands"`
	Milestones  map[int]Milestone `yaml:"milestones"`
	ComboStep   float64           `yaml:"combo_step"`
	LossPenalty float64           `yaml:"loss_penalty"`
}

func DefaultTable() Table {
	return Table{
		Bands: []Band{
			{UpTo: 5, Coins: 10},
			{UpTo: 10, Coins: 25},
			{UpTo: 15, Coins: 50},
			{UpTo: 20, Coins: 100},
			{UpTo: 0, Coins: 200},
		},
		Milestones: map[int]Milestone{
			5:  {Bonus: 100},
			10: {Bonus: 300, Item: HealthPotion},
			15: {Bonus: 500},
			20: {Bonus: 1000, Item: HealthPotion},
			25: {Bonus: 1500},
			30: {Bonus: 2500, Item: HealthPotion},
			50: {Bonus: 5000, Item: HealthPotion},
		},
		ComboStep:   0.1,
		LossPenalty: 0.5,
	}
}

// HealthPotion is the only item milestones grant.
const HealthPotion = "Health Potion"

// WaveReward returns the base payout for clearing wave n.
func (t Table) WaveReward(n int) int {
	if n < 1 || len(t.Bands) == 0 {
		return 0
	}
	for _, b := range t.Bands {
		if b.UpTo == 0 || n <= b.UpTo {
			return b.Coins
		}
	}
	return t.Bands[len(t.Bands)-1].Coins
}

// MilestoneBonus returns the bonus for reaching level n, or a zero Milestone.
func (t Table) MilestoneBonus(n int) Milestone {
	return t.Milestones[n]
}

// ComboBonus is floor(reward * combo * step).
func (t Table) ComboBonus(reward, combo int) int {
	if reward <= 0 || combo <= 0 {
		return 0
	}
	step := t.ComboStep
	if step <= 0 {
		step = 0.1
	}
	return int(math.Floor(float64(reward)*float64(combo)*step + 1e-9))
}

// LossPayout is what survives a game over.
func (t Table) LossPayout(coins int) int {
	if coins <= 0 {
		return 0
	}
	return int(math.Floor(float64(coins)*t.LossPenalty + 1e-9))
}
