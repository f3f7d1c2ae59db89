package sim

import "time"

func clampStat(v float64) float64 {
	if v < StatMin {
		return StatMin
	}
	if v > StatMax {
		return StatMax
	}
	return v
}

func (s Stats) clamped() Stats {
	return Stats{
		Happiness:  clampStat(s.Happiness),
		Energy:     clampStat(s.Energy),
		Friendship: clampStat(s.Friendship),
		Smarts:     clampStat(s.Smarts),
	}
}

// DefaultStats matches a freshly created companion.
func DefaultStats() Stats {
	return Stats{Happiness: 100, Energy: 100, Friendship: 50, Smarts: 50}
}

// ApplyDecay lowers energy and happiness in proportion to elapsed time.
func ApplyDecay(a *Agent, elapsed time.Duration, t Tuning) {
	if elapsed <= 0 {
		return
	}
	sec := elapsed.Seconds()
	a.Stats.Energy = clampStat(a.Stats.Energy - t.EnergyDecayPerSec*sec)
	a.Stats.Happiness = clampStat(a.Stats.Happiness - t.HappinessDecayPerSec*sec)
}

type interactionEffect struct {
	delta   Stats
	logType LogType
	verb    string
}

var interactionEffects = map[InteractionKind]interactionEffect{
	InteractPlay:  {delta: Stats{Happiness: 15, Friendship: 5}, logType: LogFun, verb: "played with"},
	InteractFeed:  {delta: Stats{Energy: 25, Happiness: 5}, logType: LogGrowth, verb: "fed"},
	InteractPet:   {delta: Stats{Happiness: 5, Friendship: 10}, logType: LogFun, verb: "petted"},
	InteractTeach: {delta: Stats{Smarts: 10, Friendship: 2}, logType: LogGrowth, verb: "taught"},
}

// interactionCost is the currency price of an interaction, zero for free ones.
func interactionCost(kind InteractionKind, t Tuning) int {
	switch kind {
	case InteractFeed:
		return t.FeedCost
	case InteractTeach:
		return t.TeachCost
	default:
		return 0
	}
}

// applyInteractionStats adds the fixed deltas of kind, capped at StatMax.
func applyInteractionStats(a *Agent, kind InteractionKind) (interactionEffect, bool) {
	eff, ok := interactionEffects[kind]
	if !ok {
		return interactionEffect{}, false
	}
	a.Stats = Stats{
		Happiness:  a.Stats.Happiness + eff.delta.Happiness,
		Energy:     a.Stats.Energy + eff.delta.Energy,
		Friendship: a.Stats.Friendship + eff.delta.Friendship,
		Smarts:     a.Stats.Smarts + eff.delta.Smarts,
	}.clamped()
	return eff, true
}

func validInteraction(kind InteractionKind) bool {
	_, ok := interactionEffects[kind]
	return ok
}

// levelUpSkills raises the first skill a level for every 20 smarts gained past 50.
func levelUpSkills(a *Agent) bool {
	if len(a.Skills) == 0 {
		return false
	}
	want := 1 + int((a.Stats.Smarts-50)/20)
	if want < 1 {
		want = 1
	}
	if a.Skills[0].Level >= want {
		return false
	}
	a.Skills[0].Level = want
	return true
}
