package sim

import (
	"strings"
	"time"
)

var fallbackThought = map[ThoughtContext]string{
	ThoughtIdle:        "...",
	ThoughtInteraction: "Thanks!",
	ThoughtQuest:       "Onward!",
	ThoughtTired:       "Zzz...",
	ThoughtChat:        "Hi there!",
}

// GenerateThought picks a template for ctx, prepends it to a.Thoughts and
// drops the oldest entries past max.
func GenerateThought(a *Agent, ctx ThoughtContext, pools ThoughtPools, rng Rand, now time.Time, id string, max int) Thought {
	text := fallbackThought[ctx]
	if pool := pools[ctx]; len(pool) > 0 {
		text = pool[rng.Intn(len(pool))]
	}
	th := Thought{
		ID:        id,
		Text:      strings.ReplaceAll(text, "{name}", a.Name),
		Timestamp: now,
	}
	a.Thoughts = append([]Thought{th}, a.Thoughts...)
	if max > 0 && len(a.Thoughts) > max {
		a.Thoughts = a.Thoughts[:max]
	}
	return th
}

// idleContext chooses what an agent muses about when nothing happened to it.
func idleContext(a *Agent) ThoughtContext {
	switch {
	case a.CurrentAction == ActionQuesting:
		return ThoughtQuest
	case a.Stats.Energy < 30:
		return ThoughtTired
	default:
		return ThoughtIdle
	}
}
