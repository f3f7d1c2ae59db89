package sim

import (
	"math"
	"time"
)

func clampCoord(v, size float64) float64 {
	return math.Max(0, math.Min(size, v))
}

func randomPoint(rng Rand, size float64) Point {
	return Point{X: randBetween(rng, 0, size), Y: randBetween(rng, 0, size)}
}

// StepMovement advances a toward its target in a straight line. On arrival it
// either picks a fresh random target (wander) or settles into idle.
// It reports whether the agent arrived during this step.
func StepMovement(a *Agent, dt time.Duration, t Tuning, rng Rand, wander bool) bool {
	a.Target = Point{X: clampCoord(a.Target.X, t.MapSize), Y: clampCoord(a.Target.Y, t.MapSize)}
	dx := a.Target.X - a.Position.X
	dy := a.Target.Y - a.Position.Y
	dist := math.Hypot(dx, dy)
	step := t.MoveSpeed * dt.Seconds()

	if dist > t.ArriveEpsilon && step < dist {
		a.Position.X = clampCoord(a.Position.X+dx/dist*step, t.MapSize)
		a.Position.Y = clampCoord(a.Position.Y+dy/dist*step, t.MapSize)
		if a.CurrentAction == ActionIdle {
			a.CurrentAction = ActionWalking
		}
		return false
	}

	a.Position = a.Target
	busy := a.CurrentAction == ActionQuesting || a.CurrentAction == ActionChatting
	if wander {
		a.Target = randomPoint(rng, t.MapSize)
		if !busy {
			a.CurrentAction = ActionWalking
		}
	} else if !busy {
		a.CurrentAction = ActionIdle
	}
	return true
}
