package sim

import (
	"fmt"
	"time"
)

// QuestOutcome reports how CompleteQuest ended the active quest.
type QuestOutcome struct {
	Quest    Quest `json:"quest"`
	Rewarded bool  `json:"rewarded"`
	Reward   int   `json:"reward"`
}

// StartQuest begins a quest of kind and lays out its nodes on a fresh map.
func (e *Engine) StartQuest(kind string) (Quest, error) {
	if e.state.ActiveQuest != nil {
		return Quest{}, ErrQuestAlreadyActive
	}
	qk, ok := e.cat.Quest(kind)
	if !ok {
		return Quest{}, ErrUnknownQuest
	}
	now := e.clock.Now()
	q := &Quest{
		ID:         e.ids.next(),
		Kind:       qk.Kind,
		Status:     QuestActive,
		Progress:   0,
		Reward:     qk.Reward,
		TotalNodes: qk.Nodes,
		StartedAt:  now,
	}
	if qk.Duration > 0 {
		q.ExpiresAt = now.Add(qk.Duration)
	}
	e.state.ActiveQuest = q
	e.state.MapNodes = SpawnNodes(qk.Nodes, qk.Types, q.ID, nil, e.tuning, e.rng, e.ids.next)
	e.sinceRespawn = 0
	e.markState()

	if my := e.myAgent(); my != nil {
		my.CurrentAction = ActionQuesting
		e.touch(my)
		e.think(my, ThoughtQuest)
	}
	e.appendLog(LogInfo, fmt.Sprintf("Quest %q started: find %d spots for %d coins.", qk.Kind, qk.Nodes, qk.Reward))
	return *q, nil
}

// CollectNode picks up a node anywhere on the map; no range check applies.
// Quest nodes advance the active quest, energy nodes refresh the companion.
func (e *Engine) CollectNode(nodeID string) (MapNode, error) {
	idx := findNode(e.state.MapNodes, nodeID)
	if idx < 0 {
		return MapNode{}, ErrNodeNotFound
	}
	node := &e.state.MapNodes[idx]
	if node.Collected {
		return MapNode{}, ErrAlreadyCollected
	}
	node.Collected = true
	e.markState()

	if node.Type == NodeEnergy {
		if my := e.myAgent(); my != nil {
			my.Stats.Energy = clampStat(my.Stats.Energy + e.tuning.EnergyNodeBoost)
			e.touch(my)
		}
	}
	if q := e.state.ActiveQuest; q != nil && q.Status == QuestActive && node.QuestID == q.ID {
		if p := questProgress(e.state.MapNodes, q); p > q.Progress {
			q.Progress = p
		}
		e.appendLog(LogFun, fmt.Sprintf("Found a %s! Quest progress %.0f%%.", node.Type, q.Progress))
	} else {
		e.appendLog(LogFun, fmt.Sprintf("Picked up a %s.", node.Type))
	}
	return *node, nil
}

// CompleteQuest ends the active quest. A finished quest pays its reward once;
// an unfinished one is forfeited. Both clear the quest and its nodes.
func (e *Engine) CompleteQuest() (QuestOutcome, error) {
	q := e.state.ActiveQuest
	if q == nil || q.Status != QuestActive {
		return QuestOutcome{}, ErrNoActiveQuest
	}
	out := QuestOutcome{}
	if q.Progress >= 100 {
		q.Status = QuestCompleted
		out.Rewarded = true
		out.Reward = q.Reward
		agentID := e.state.MyAgentID
		e.credit(q.Reward, "Quest reward: "+q.Kind, agentID)
		e.appendLog(LogReward, fmt.Sprintf("Quest %q complete! +%d coins.", q.Kind, q.Reward))
	} else {
		e.appendLog(LogInfo, fmt.Sprintf("Quest %q abandoned at %.0f%%. No reward.", q.Kind, q.Progress))
	}
	out.Quest = *q
	e.endQuest()
	return out, nil
}

func (e *Engine) endQuest() {
	e.state.ActiveQuest = nil
	e.state.MapNodes = []MapNode{}
	e.sinceRespawn = 0
	e.markState()
	if my := e.myAgent(); my != nil && my.CurrentAction == ActionQuesting {
		my.CurrentAction = ActionIdle
		e.touch(my)
	}
}

// expireQuest forfeits a quest whose time ran out.
func (e *Engine) expireQuest(now time.Time) bool {
	q := e.state.ActiveQuest
	if q == nil || q.ExpiresAt.IsZero() || now.Before(q.ExpiresAt) {
		return false
	}
	e.appendLog(LogInfo, fmt.Sprintf("Quest %q ran out of time at %.0f%%.", q.Kind, q.Progress))
	e.endQuest()
	return true
}

// respawnAmbient keeps a few energy nodes around while no quest runs.
func (e *Engine) respawnAmbient(dt time.Duration) {
	if e.state.ActiveQuest != nil || e.tuning.AmbientNodeCap <= 0 {
		e.sinceRespawn = 0
		return
	}
	e.sinceRespawn += dt
	if e.sinceRespawn < e.tuning.NodeRespawnEvery {
		return
	}
	e.sinceRespawn = 0
	before := len(e.state.MapNodes)
	e.state.MapNodes = pruneCollected(e.state.MapNodes)
	changed := len(e.state.MapNodes) != before
	if countAmbient(e.state.MapNodes) < e.tuning.AmbientNodeCap {
		fresh := SpawnNodes(1, []NodeType{NodeEnergy}, "", e.state.MapNodes, e.tuning, e.rng, e.ids.next)
		e.state.MapNodes = append(e.state.MapNodes, fresh...)
		changed = true
	}
	if changed {
		e.markState()
	}
}
