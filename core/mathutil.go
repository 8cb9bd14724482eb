package core

import "golang.org/x/exp/constraints"

// clamp limits v to [lo, hi].
func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Reached reports whether the virtual time now is at or past deadline.
// The signed 16-bit difference tolerates one wraparound of either value.
func Reached(now, deadline uint16) bool {
	return int16(now-deadline) >= 0
}
