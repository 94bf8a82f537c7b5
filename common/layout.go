package common

// Logical screen size. The window scales this up.
const (
	BaseWidth  = 960
	BaseHeight = 540
)
