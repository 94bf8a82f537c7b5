package common

func Lerp(a, b, t float32) float32 {
	return a + t*(b-a)
}

// Ratio is part/whole clamped to [0, 1]. A non-positive whole reads as empty.
func Ratio(part, whole int) float32 {
	if whole <= 0 || part <= 0 {
		return 0
	}
	if part >= whole {
		return 1
	}
	return float32(part) / float32(whole)
}
