package robot

import "math"

// Mid returns the midpoint of the joint range.
func (j Joint) Mid() float64 {
	return (j.Lower + j.Upper) / 2
}

// Range returns upper minus lower.
func (j Joint) Range() float64 {
	return j.Upper - j.Lower
}

// Clamp limits pos to the joint range. Joints without a usable range are left alone.
func (j Joint) Clamp(pos float64) float64 {
	if !(j.Lower < j.Upper) {
		return pos
	}
	return math.Max(j.Lower, math.Min(j.Upper, pos))
}

// Normalize converts a joint position to a normalized value in the range [-100, 100].
func (j Joint) Normalize(pos float64) float64 {
	rangeSize := j.Range()
	if rangeSize <= 0 || math.IsInf(rangeSize, 0) {
		return 0
	}
	return ((pos-j.Lower)/rangeSize)*200 - 100
}
