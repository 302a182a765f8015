package schedule

import (
	"math"
	"math/rand"
)

// Wrap360 maps x into [0, 360).
func Wrap360(x float64) float64 {
	x = math.Mod(x, 360)
	if x < 0 {
		x += 360
	}
	if x >= 360 {
		x -= 360
	}
	return x
}

// WrapSigned maps x into (-180, 180].
func WrapSigned(x float64) float64 {
	y := Wrap360(x+180) - 180
	if y <= -180 {
		y += 360
	}
	return y
}

// Round2 rounds x to two decimals, ties toward +Inf.
func Round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

// storedAngle is the two-decimal circular angle kept on a Trial.
func storedAngle(x float64) float64 {
	return Wrap360(Round2(Wrap360(x)))
}

// storedNoise is the two-decimal signed deviation of actual from target.
func storedNoise(actual, target float64) float64 {
	n := Round2(WrapSigned(actual - target))
	if n <= -180 {
		n += 360
	}
	return n
}

// TargetAngle applies the response rule for a cue identity: identity 1
// responds at the base angle, identity 2 at base+ruleShift.
func TargetAngle(base float64, identity int, ruleShift float64) float64 {
	if identity == 2 {
		return Wrap360(base + ruleShift)
	}
	return Wrap360(base)
}

// EpisodeStartAngles returns the base angle of every episode. startIDs holds
// the starting identity of each episode, episode 1 first.
//
// Each episode's angle is recomputed from initial by re-applying the shifts
// of episodes 2..e in order, wrapping after every step.
func EpisodeStartAngles(initial float64, startIDs []int, shiftCue1, shiftCue2 float64) []float64 {
	angles := make([]float64, len(startIDs))
	for e := range startIDs {
		a := Wrap360(initial)
		for ep := 1; ep <= e; ep++ {
			shift := shiftCue1
			if startIDs[ep] == 2 {
				shift = shiftCue2
			}
			a = Wrap360(a + shift)
		}
		angles[e] = a
	}
	return angles
}

// noisyResponse draws the actual angle around target with uniform noise in
// [-halfWidth, +halfWidth] and returns the stored actual angle and noise.
func noisyResponse(rng *rand.Rand, target, halfWidth float64) (actual, noise float64) {
	delta := (rng.Float64() - 0.5) * 2 * halfWidth
	actual = storedAngle(target + delta)
	return actual, storedNoise(actual, target)
}
