package sim

import (
	"fmt"
	"math"
	"time"
)

// TickReport summarises one simulation step.
type TickReport struct {
	Thoughts     int  `json:"thoughts"`
	Chats        int  `json:"chats"`
	AutoActions  int  `json:"auto_actions"`
	QuestExpired bool `json:"quest_expired"`
}

// Tick advances the world by dt: decay, movement and chats, idle thoughts,
// auto-life, quest expiry and ambient node respawn, in that order.
func (e *Engine) Tick(dt time.Duration) TickReport {
	var rep TickReport
	if dt <= 0 {
		return rep
	}
	now := e.clock.Now()
	for _, id := range e.order {
		a := e.agents[id]
		ApplyDecay(a, dt, e.tuning)
		if a.CurrentAction == ActionChatting {
			e.endChat(a, now)
		}
		if a.CurrentAction != ActionChatting {
			if StepMovement(a, dt, e.tuning, e.rng, e.tuning.Wander || a.AutoLifeEnabled) && e.startChat(a, now) {
				rep.Chats++
			}
		}
		e.touch(a)

		if e.rng.Float64() < e.tuning.ThoughtChance {
			e.think(a, idleContext(a))
			rep.Thoughts++
		}
		if a.AutoLifeEnabled {
			rep.AutoActions += e.autoLife(a)
		}
	}
	rep.QuestExpired = e.expireQuest(e.clock.Now())
	e.respawnAmbient(dt)
	return rep
}

// autoLife lets a companion look after itself. Purchases it cannot afford
// are skipped without complaint.
func (e *Engine) autoLife(a *Agent) int {
	acted := 0
	if a.Stats.Energy < e.tuning.AutoFeedBelow {
		if food, ok := e.cat.cheapestFood(); ok {
			if e.autoPurchase(food.Price, food.Name, a.ID) {
				a.Stats.Energy = clampStat(a.Stats.Energy + float64(food.Energy))
				e.touch(a)
				e.appendLog(LogGrowth, fmt.Sprintf("%s bought and ate %s on its own.", a.Name, food.Name))
				acted++
			}
		}
	}
	if a.Stats.Happiness < e.tuning.AutoPlayBelow {
		if err := e.interact(a, InteractPlay, true); err == nil {
			acted++
		}
	}
	return acted
}

// startChat pairs a just-arrived agent with the nearest resting agent in
// ChatRange. Both stop moving until ChatDuration has passed.
func (e *Engine) startChat(a *Agent, now time.Time) bool {
	if e.tuning.ChatRange <= 0 || a.CurrentAction == ActionQuesting {
		return false
	}
	var partner *Agent
	best := e.tuning.ChatRange
	for _, id := range e.order {
		b := e.agents[id]
		if b == a || b.CurrentAction == ActionQuesting || b.CurrentAction == ActionChatting {
			continue
		}
		if d := math.Hypot(a.Position.X-b.Position.X, a.Position.Y-b.Position.Y); d <= best {
			partner, best = b, d
		}
	}
	if partner == nil {
		return false
	}
	until := now.Add(e.tuning.ChatDuration)
	for _, x := range []*Agent{a, partner} {
		x.CurrentAction = ActionChatting
		e.chatUntil[x.ID] = until
		e.think(x, ThoughtChat)
	}
	return true
}

// endChat releases a chatting agent once its chat is over. Agents restored
// mid-chat have no deadline and are released on their first tick.
func (e *Engine) endChat(a *Agent, now time.Time) {
	if until, ok := e.chatUntil[a.ID]; ok && now.Before(until) {
		return
	}
	delete(e.chatUntil, a.ID)
	a.CurrentAction = ActionIdle
}
