package sim

import "time"

// Tuning holds the numeric knobs of the simulation.
type Tuning struct {
	MapSize        float64
	MoveSpeed      float64 // map units per second
	ArriveEpsilon  float64
	Wander         bool
	NodeMargin     float64
	NodeMinSpacing float64

	EnergyDecayPerSec    float64
	HappinessDecayPerSec float64

	ThoughtChance float64
	MaxThoughts   int
	LogHistory    int

	FeedCost        int
	TeachCost       int
	EnergyNodeBoost float64

	AutoFeedBelow  float64
	AutoPlayBelow  float64
	AutoMinBalance int

	AmbientNodeCap   int
	NodeRespawnEvery time.Duration

	// ChatRange is how close two resting agents must be to start chatting; 0 disables it.
	ChatRange    float64
	ChatDuration time.Duration

	StartingCurrency int
}

func DefaultTuning() Tuning {
	return Tuning{
		MapSize:        800,
		MoveSpeed:      40,
		ArriveEpsilon:  1,
		Wander:         true,
		NodeMargin:     40,
		NodeMinSpacing: 48,

		EnergyDecayPerSec:    0.2,
		HappinessDecayPerSec: 0.1,

		ThoughtChance: 0.08,
		MaxThoughts:   20,
		LogHistory:    50,

		FeedCost:        50,
		TeachCost:       20,
		EnergyNodeBoost: 10,

		AutoFeedBelow:  30,
		AutoPlayBelow:  25,
		AutoMinBalance: 0,

		AmbientNodeCap:   3,
		NodeRespawnEvery: 20 * time.Second,

		ChatRange:    40,
		ChatDuration: 3 * time.Second,

		StartingCurrency: 1000,
	}
}

// withDefaults repairs knobs the engine cannot run with. The zero Tuning is
// taken to mean "not configured" and becomes DefaultTuning.
func (t Tuning) withDefaults() Tuning {
	d := DefaultTuning()
	if t == (Tuning{}) {
		return d
	}
	if t.MapSize <= 0 {
		t.MapSize = d.MapSize
	}
	if t.MoveSpeed <= 0 {
		t.MoveSpeed = d.MoveSpeed
	}
	if t.ArriveEpsilon <= 0 {
		t.ArriveEpsilon = d.ArriveEpsilon
	}
	if t.NodeMargin < 0 || t.NodeMargin*2 >= t.MapSize {
		t.NodeMargin = 0
	}
	if t.MaxThoughts <= 0 {
		t.MaxThoughts = d.MaxThoughts
	}
	if t.LogHistory <= 0 {
		t.LogHistory = d.LogHistory
	}
	if t.NodeRespawnEvery <= 0 {
		t.NodeRespawnEvery = d.NodeRespawnEvery
	}
	if t.ChatRange < 0 {
		t.ChatRange = 0
	}
	if t.ChatDuration <= 0 {
		t.ChatDuration = d.ChatDuration
	}
	if t.AutoMinBalance < 0 {
		t.AutoMinBalance = 0
	}
	return t
}
