package animate

import (
	"math"

	"github.com/gwillem/urdfcheck/pkg/robot"
)

// Sine is the inspection trajectory: each joint oscillates around the middle of its
// range with a quarter-range amplitude, phase-shifted by its position in the list.
type Sine struct {
	Rate  float64 // rad/s of simulated time
	Phase float64 // rad between consecutive joints
}

// DefaultSine is the trajectory used by the rigid-body demo.
var DefaultSine = Sine{Rate: 0.5, Phase: 0.3}

// Target returns the position for joint j, listed at idx, at simulated time t.
// The result stays within [Lower, Upper] for any joint with a finite range.
func (s Sine) Target(j robot.Joint, t float64, idx int) float64 {
	return j.Mid() + j.Range()/4*math.Sin(t*s.Rate+float64(idx)*s.Phase)
}
