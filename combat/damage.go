package combat

import "math"

// epsilon absorbs float error in multipliers like 1.2 so floor(10*1.2) is 12.
const epsilon = 1e-9

// ApplyMultiplier returns floor(base * m).
func ApplyMultiplier(base int, m float64) int {
	if base <= 0 || m <= 0 {
		return 0
	}
	return int(math.Floor(float64(base)*m + epsilon))
}

// ApplyCombo scales damage by 1 + (combo-1)*step once the combo passes 1.
func ApplyCombo(damage, combo int, step float64) int {
	if combo <= 1 || damage <= 0 {
		return damage
	}
	return ApplyMultiplier(damage, 1+float64(combo-1)*step)
}

// EnemyDamage subtracts armor from raw damage. A hit always deals at least 1.
func EnemyDamage(raw, armor int) int {
	return max(1, raw-max(armor, 0))
}

// CritChance is min(base + tier*perTier, limit).
func CritChance(base, perTier float64, tier int, limit float64) float64 {
	return math.Min(base+float64(max(tier, 0))*perTier, limit)
}

// DodgeChance is min(moveSpeed / norm, limit).
func DodgeChance(moveSpeed, norm, limit float64) float64 {
	if norm <= 0 || moveSpeed <= 0 {
		return 0
	}
	return math.Min(moveSpeed/norm, limit)
}
