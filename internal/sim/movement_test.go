package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepMovementConvergesWithoutOvershoot(t *testing.T) {
	tn := DefaultTuning()
	rng := NewRand(1)
	a := &Agent{Position: Point{X: 0, Y: 0}, Target: Point{X: 100, Y: 0}, CurrentAction: ActionIdle}

	arrived := StepMovement(a, time.Second, tn, rng, false)
	assert.False(t, arrived)
	assert.InDelta(t, 40, a.Position.X, 1e-9)
	assert.Equal(t, ActionWalking, a.CurrentAction)

	StepMovement(a, time.Second, tn, rng, false)
	arrived = StepMovement(a, time.Second, tn, rng, false)
	require.True(t, arrived)
	assert.Equal(t, Point{X: 100, Y: 0}, a.Position)
	assert.Equal(t, ActionIdle, a.CurrentAction)

	StepMovement(a, time.Second, tn, rng, false)
	assert.Equal(t, Point{X: 100, Y: 0}, a.Position)
}

func TestStepMovementClampsTargetsOutsideMap(t *testing.T) {
	tn := DefaultTuning()
	a := &Agent{Position: Point{X: 790, Y: 790}, Target: Point{X: 5000, Y: -20}}
	for i := 0; i < 100; i++ {
		StepMovement(a, time.Second, tn, NewRand(2), false)
		require.GreaterOrEqual(t, a.Position.X, 0.0)
		require.LessOrEqual(t, a.Position.X, tn.MapSize)
		require.GreaterOrEqual(t, a.Position.Y, 0.0)
		require.LessOrEqual(t, a.Position.Y, tn.MapSize)
	}
	assert.Equal(t, Point{X: tn.MapSize, Y: 0}, a.Position)
}

func TestStepMovementWanderPicksNewTargetInBounds(t *testing.T) {
	tn := DefaultTuning()
	a := &Agent{Position: Point{X: 10, Y: 10}, Target: Point{X: 10, Y: 10}, CurrentAction: ActionIdle}

	require.True(t, StepMovement(a, time.Second, tn, NewRand(5), true))
	assert.Equal(t, ActionWalking, a.CurrentAction)
	assert.NotEqual(t, Point{X: 10, Y: 10}, a.Target)
	assert.GreaterOrEqual(t, a.Target.X, 0.0)
	assert.LessOrEqual(t, a.Target.X, tn.MapSize)
	assert.GreaterOrEqual(t, a.Target.Y, 0.0)
	assert.LessOrEqual(t, a.Target.Y, tn.MapSize)
}

func TestStepMovementKeepsQuestingAction(t *testing.T) {
	tn := DefaultTuning()
	a := &Agent{Position: Point{X: 10, Y: 10}, Target: Point{X: 10, Y: 10}, CurrentAction: ActionQuesting}
	StepMovement(a, time.Second, tn, NewRand(5), true)
	assert.Equal(t, ActionQuesting, a.CurrentAction)
}

func TestStepMovementIsReproducibleForSeed(t *testing.T) {
	tn := DefaultTuning()
	trace := func() []Point {
		rng := NewRand(11)
		a := &Agent{Position: Point{X: 400, Y: 400}, Target: Point{X: 400, Y: 400}}
		var out []Point
		for i := 0; i < 50; i++ {
			StepMovement(a, time.Second, tn, rng, true)
			out = append(out, a.Position)
		}
		return out
	}
	assert.Equal(t, trace(), trace())
}
