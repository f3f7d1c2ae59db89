package sim

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	minNameLen = 2
	maxNameLen = 20

	DefaultPersonality = "Playful"
)

func (e *Engine) newAgent(name, personality string, userOwned bool) *Agent {
	now := e.clock.Now()
	center := e.tuning.MapSize / 2
	owner := e.userID
	a := &Agent{
		ID:            e.ids.next(),
		UserID:        &owner,
		DNA:           e.ids.dna(),
		Name:          name,
		Personality:   personality,
		Position:      Point{X: center, Y: center},
		Target:        Point{X: center, Y: center},
		CurrentAction: ActionIdle,
		Stats:         DefaultStats(),
		Skills:        []Skill{},
		Inventory:     []Item{},
		Thoughts:      []Thought{},
		IsUserOwned:   userOwned,
		Rarity:        RarityCommon,
		BirthDate:     now,
		UpdatedAt:     now,
	}
	if p, ok := e.cat.Personalities[personality]; ok {
		a.Color = p.Color
		if p.Skill.ID != "" {
			sk := p.Skill
			sk.Level = max(1, sk.Level)
			a.Skills = append(a.Skills, sk)
		}
	}
	return a
}

// ValidateName trims name and checks its length.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	n := utf8.RuneCountInString(trimmed)
	switch {
	case n == 0:
		return "", invalid("name", "Please enter a name for your companion")
	case n < minNameLen:
		return "", invalid("name", fmt.Sprintf("Name must be at least %d characters", minNameLen))
	case n > maxNameLen:
		return "", invalid("name", fmt.Sprintf("Name must be %d characters or less", maxNameLen))
	}
	return trimmed, nil
}

// CreateMyAgent runs onboarding: the new companion becomes the player's own
// and the selected one.
func (e *Engine) CreateMyAgent(name, personality string) (Agent, error) {
	trimmed, err := ValidateName(name)
	if err != nil {
		return Agent{}, err
	}
	personality = strings.TrimSpace(personality)
	if personality == "" {
		personality = DefaultPersonality
	}
	if _, ok := e.cat.Personalities[personality]; !ok {
		return Agent{}, invalid("personality", "Unknown personality "+personality)
	}
	if e.myAgent() != nil {
		return Agent{}, ErrAlreadyOnboarded
	}

	a := e.newAgent(trimmed, personality, true)
	for _, other := range e.agents {
		if other.IsUserOwned {
			other.IsUserOwned = false
			e.touch(other)
		}
	}
	e.addAgent(a)
	e.out.touch(a.ID, true)
	e.state.MyAgentID = a.ID
	e.state.SelectedAgentID = a.ID
	e.state.HasOnboarded = true
	e.markState()
	e.appendLog(LogInfo, fmt.Sprintf("%s was born! Say hello to your new %s companion.", a.Name, personality))
	e.think(a, ThoughtIdle)
	return a.Clone(), nil
}

// Interact applies a player interaction. Paid interactions fail with
// ErrInsufficientFunds and leave the stats untouched.
func (e *Engine) Interact(agentID string, kind InteractionKind) (Agent, error) {
	if !validInteraction(kind) {
		return Agent{}, invalid("kind", "unknown interaction "+string(kind))
	}
	a, err := e.agent(agentID)
	if err != nil {
		return Agent{}, err
	}
	if err := e.interact(a, kind, false); err != nil {
		return Agent{}, err
	}
	return a.Clone(), nil
}

func (e *Engine) interact(a *Agent, kind InteractionKind, autonomous bool) error {
	if cost := interactionCost(kind, e.tuning); cost > 0 {
		label := interactionLabel(kind)
		if autonomous {
			if !e.autoPurchase(cost, label, a.ID) {
				return ErrInsufficientFunds
			}
		} else if _, err := e.debit(cost, label, a.ID, false); err != nil {
			return err
		}
	}
	eff, _ := applyInteractionStats(a, kind)
	leveled := false
	if kind == InteractTeach {
		leveled = levelUpSkills(a)
	}
	e.touch(a)

	who := "You"
	if autonomous {
		who = "Auto-life"
	}
	e.appendLog(eff.logType, fmt.Sprintf("%s %s %s.", who, eff.verb, a.Name))
	if leveled {
		e.appendLog(LogGrowth, fmt.Sprintf("%s's %s reached level %d!", a.Name, a.Skills[0].Name, a.Skills[0].Level))
	}
	e.think(a, ThoughtInteraction)
	return nil
}

func interactionLabel(kind InteractionKind) string {
	switch kind {
	case InteractFeed:
		return "Feed"
	case InteractTeach:
		return "Lesson"
	default:
		return string(kind)
	}
}

// ToggleAutoLife switches autonomous mode on the player's companion.
func (e *Engine) ToggleAutoLife(enabled bool) error {
	my := e.myAgent()
	if my == nil {
		return ErrNotOnboarded
	}
	if my.AutoLifeEnabled == enabled {
		return nil
	}
	my.AutoLifeEnabled = enabled
	e.touch(my)
	state := "paused"
	if enabled {
		state = "enabled"
	}
	e.appendLog(LogInfo, fmt.Sprintf("Auto-life %s for %s.", state, my.Name))
	return nil
}

// SelectAgent changes which agent the inspector follows. Empty clears it.
func (e *Engine) SelectAgent(agentID string) error {
	if agentID != "" {
		if _, err := e.agent(agentID); err != nil {
			return err
		}
	}
	if e.state.SelectedAgentID != agentID {
		e.state.SelectedAgentID = agentID
		e.markState()
	}
	return nil
}

// RemoveAgent deletes a roster friend. The player's own companion cannot be
// removed.
func (e *Engine) RemoveAgent(agentID string) error {
	a, err := e.agent(agentID)
	if err != nil {
		return err
	}
	if a.ID == e.state.MyAgentID || a.IsUserOwned {
		return invalid("agent_id", "your own companion cannot be removed")
	}
	delete(e.agents, a.ID)
	delete(e.chatUntil, a.ID)
	for i, id := range e.order {
		if id == a.ID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.out.deleted = append(e.out.deleted, a.ID)
	if e.state.SelectedAgentID == a.ID {
		e.state.SelectedAgentID = e.state.MyAgentID
		e.markState()
	}
	e.appendLog(LogInfo, fmt.Sprintf("%s left your world.", a.Name))
	return nil
}
